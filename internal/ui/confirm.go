package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirmation describes an operation that overwrites live parameters
type Confirmation struct {
	Title    string   // e.g., "RESET ALL PARAMETERS"
	Warnings []string // Bullet points shown in the box
	Phrase   string   // What the user must type; "yes" when empty
}

// Confirm renders c to out and reads one line from in. It returns true only if
// the line matches the phrase.
func Confirm(in io.Reader, out io.Writer, c Confirmation) bool {
	width := GetTerminalWidth()
	phrase := c.Phrase
	if phrase == "" {
		phrase = "yes"
	}

	lines := []string{
		"",
		lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Render(fmt.Sprintf("   ⚠  WARNING  ─  %s", c.Title)),
		"",
	}
	bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, warning := range c.Warnings {
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	_, _ = fmt.Fprintln(out, boxStyle(width, WarningColor).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprintln(out)

	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	_, _ = fmt.Fprint(out, promptStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", phrase)))

	// EOF without a line reads as an empty answer
	input, _ := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)

	if strings.TrimSpace(input) == phrase {
		return true
	}

	_, _ = fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	_, _ = fmt.Fprintln(out)
	return false
}

// ResetAllConfirmation is the prompt shown before every parameter returns to its default
func ResetAllConfirmation(server string, modified int) Confirmation {
	return Confirmation{
		Title: "RESET ALL PARAMETERS",
		Warnings: []string{
			fmt.Sprintf("%d modified parameter(s) on %s will return to their defaults", modified, server),
			"Connected clients and the vehicle see the new values immediately",
			"Export the current values first if you may need them again",
		},
		Phrase: "reset",
	}
}

// ImportConfirmation is the prompt shown before a file overwrites live values
func ImportConfirmation(server, file string, records int) Confirmation {
	return Confirmation{
		Title: "IMPORT PARAMETERS",
		Warnings: []string{
			fmt.Sprintf("%d value(s) from %s will be written to %s", records, file, server),
			"Out-of-range values are clamped and unknown names are skipped",
			"Do not import while the vehicle is armed",
		},
	}
}
