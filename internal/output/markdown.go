package output

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/marcus/roster/internal/models"
)

const (
	defaultMarkdownWidth = 80
	minMarkdownWidth     = 20
)

// TerminalWidth returns the current terminal width or a fallback when unavailable.
func TerminalWidth(fallback int) int {
	if fallback <= 0 {
		fallback = defaultMarkdownWidth
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if parsed, err := strconv.Atoi(cols); err == nil && parsed > 0 {
			return parsed
		}
	}

	return fallback
}

// RenderMarkdown renders markdown using Glamour with terminal-aware wrapping.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, TerminalWidth(defaultMarkdownWidth))
}

// RenderMarkdownWithWidth renders markdown using Glamour with explicit wrapping.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minMarkdownWidth {
		width = minMarkdownWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(rendered, "\n"), nil
}

// maxCellWidth bounds each table cell before glamour lays the table out.
const maxCellWidth = 30

// PeopleTable renders people as a markdown table.
func PeopleTable(people []models.Person) string {
	if len(people) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("| ID | Name | Document | Phone | Email | State |\n")
	sb.WriteString("|---:|---|---|---|---|---|\n")
	for _, p := range people {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s | %s |\n",
			p.ID, cell(p.FullName()), cell(p.DocumentID), cell(p.PhoneNumber), cell(p.Email), p.State())
	}
	return sb.String()
}

// cell escapes pipes and truncates to maxCellWidth display columns.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return ansi.Truncate(s, maxCellWidth, "…")
}
