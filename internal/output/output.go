// Package output provides styled terminal output helpers (success, error,
// warning, person formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/marcus/roster/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	stateStyles  = map[string]lipgloss.Style{
		models.StatePending: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StateSynced:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeInvalidInput   = "invalid_input"
	ErrCodeNotFound       = "not_found"
	ErrCodeDatabaseError  = "database_error"
	ErrCodeRemoteRejected = "remote_rejected"
	ErrCodePartialFailure = "partial_failure"
)

// JSONErrorWithDetails outputs an error as JSON with additional context
func JSONErrorWithDetails(code, message string, details map[string]interface{}) {
	errObj := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if len(details) > 0 {
		errObj["details"] = details
	}
	result := map[string]interface{}{
		"error": errObj,
	}
	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// IsTerminal reports whether stdin and stdout are both attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// FormatState formats a record's sync state with color
func FormatState(state string) string {
	style, ok := stateStyles[state]
	if !ok {
		return state
	}
	return style.Render(fmt.Sprintf("[%s]", state))
}

// FormatPersonShort formats a person on one line
func FormatPersonShort(p *models.Person) string {
	parts := []string{
		titleStyle.Render(fmt.Sprintf("#%d", p.ID)),
		p.FullName(),
		subtleStyle.Render(p.Email),
		FormatState(p.State()),
	}
	return strings.Join(parts, "  ")
}

// FormatPersonLong formats every stored field of a person
func FormatPersonLong(p *models.Person) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("#%d: %s", p.ID, p.FullName())))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("State: %s\n", FormatState(p.State())))
	sb.WriteString(fmt.Sprintf("Document: %s\n", p.DocumentID))
	sb.WriteString(fmt.Sprintf("Phone: %s\n", p.PhoneNumber))
	sb.WriteString(fmt.Sprintf("Email: %s\n", p.Email))
	sb.WriteString(subtleStyle.Render(fmt.Sprintf("Created %s", FormatTimeAgo(p.CreatedAt))))
	return sb.String()
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}
