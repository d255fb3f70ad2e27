package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/marcus/roster/internal/models"
	"github.com/marcus/roster/internal/output"
	"github.com/marcus/roster/internal/validate"
)

var errAborted = errors.New("aborted")

var addCmd = &cobra.Command{
	Use:     "add",
	Aliases: []string{"new"},
	Short:   "Capture a person record",
	Long: `Validates and stores a person record locally. The record stays pending until
the next successful sync.

Without field flags on an interactive terminal, a form is shown.`,
	Example: `  roster add --first Ana --last Diaz --document 1020304 --phone 3005551234 --email ana@example.com
  roster add`,
	GroupID: "records",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		var c models.Contact
		c.FirstName, _ = cmd.Flags().GetString("first")
		c.LastName, _ = cmd.Flags().GetString("last")
		c.DocumentID, _ = cmd.Flags().GetString("document")
		c.PhoneNumber, _ = cmd.Flags().GetString("phone")
		c.Email, _ = cmd.Flags().GetString("email")

		if !anyFieldFlag(cmd) && output.IsTerminal() && !jsonOutput {
			if err := contactForm(&c).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return errAborted
				}
				return err
			}
		}

		clean, violations := validate.Contact(c)
		if violations != nil {
			if jsonOutput {
				details := make(map[string]interface{}, len(violations))
				for f, msg := range violations {
					details[f] = msg
				}
				output.JSONErrorWithDetails(output.ErrCodeInvalidInput, "invalid contact", details)
			} else {
				for _, f := range fieldOrder {
					if msg, ok := violations[f]; ok {
						output.Error("%s: %s", f, msg)
					}
				}
			}
			return violations
		}

		a, err := openApp(getBaseDir(), false)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		person, err := a.store.InsertPerson(ctx, clean)
		if err != nil {
			output.Error("save failed: %v", err)
			return err
		}

		if jsonOutput {
			return output.JSON(person)
		}

		output.Success(msgSaved)
		fmt.Println(output.FormatPersonShort(person))
		if snap, err := a.reporter.Snapshot(ctx); err == nil {
			fmt.Println(pendingLine(snap.Pending))
		}
		return nil
	},
}

var fieldOrder = []string{
	validate.FieldFirstName,
	validate.FieldLastName,
	validate.FieldDocumentID,
	validate.FieldPhoneNumber,
	validate.FieldEmail,
}

var fieldFlags = []string{"first", "last", "document", "phone", "email"}

func anyFieldFlag(cmd *cobra.Command) bool {
	for _, name := range fieldFlags {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// contactForm prompts for every field, validating each on the fly with the
// same rules the store path applies.
func contactForm(c *models.Contact) *huh.Form {
	normalized := func(norm func(string) string, check func(string) error) func(string) error {
		return func(s string) error {
			return check(norm(s))
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("First name").
				Value(&c.FirstName).
				CharLimit(validate.MaxNameLength).
				Validate(normalized(validate.OnlyText, validate.Name)),
			huh.NewInput().
				Title("Last name").
				Value(&c.LastName).
				CharLimit(validate.MaxNameLength).
				Validate(normalized(validate.OnlyText, validate.Name)),
			huh.NewInput().
				Title("Document ID").
				Value(&c.DocumentID).
				CharLimit(validate.MaxDocumentLength).
				Validate(normalized(validate.OnlyDigits, validate.DocumentID)),
			huh.NewInput().
				Title("Phone number").
				Value(&c.PhoneNumber).
				CharLimit(validate.MaxPhoneLength).
				Validate(normalized(validate.OnlyDigits, validate.PhoneNumber)),
			huh.NewInput().
				Title("Email").
				Value(&c.Email).
				Placeholder("name@example.com").
				CharLimit(validate.MaxEmailLength).
				Validate(normalized(strings.TrimSpace, validate.Email)),
		).Title("New person"),
	)
	return form.WithTheme(huh.ThemeDracula())
}

func init() {
	addCmd.Flags().String("first", "", "first name (letters only)")
	addCmd.Flags().String("last", "", "last name (letters only)")
	addCmd.Flags().String("document", "", "document ID (digits only)")
	addCmd.Flags().String("phone", "", "phone number (digits only)")
	addCmd.Flags().String("email", "", "email address")
	addCmd.Flags().Bool("json", false, "output the stored record as JSON")
	rootCmd.AddCommand(addCmd)
}
