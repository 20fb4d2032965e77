package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sparrow/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}

// OpportunityStatusPill returns a colored indicator for an opportunity status.
func OpportunityStatusPill(status domain.OpportunityStatus) string {
	switch status {
	case domain.OpportunityPending:
		return StyleGreen.Render("● Pending")
	case domain.OpportunityResponded:
		return StyleBlue.Render("✔ Responded")
	case domain.OpportunityDismissed:
		return StyleDim.Render("⊘ Dismissed")
	case domain.OpportunityExpired:
		return StyleDim.Render("✖ Expired")
	default:
		return StyleDim.Render(string(status))
	}
}

// ResponseStatusPill returns a colored indicator for a response status.
func ResponseStatusPill(status domain.ResponseStatus) string {
	switch status {
	case domain.ResponseDraft:
		return StyleYellow.Render("○ Draft")
	case domain.ResponsePosted:
		return StyleGreen.Render("✔ Posted")
	case domain.ResponseDismissed:
		return StyleDim.Render("⊘ Dismissed")
	default:
		return StyleDim.Render(string(status))
	}
}

// ScoreStyled colors a 0-100 opportunity score by band.
func ScoreStyled(total int) string {
	text := fmt.Sprintf("%3d", total)
	switch {
	case total >= 70:
		return StyleGreen.Render(text)
	case total >= 50:
		return StyleYellow.Render(text)
	default:
		return StyleDim.Render(text)
	}
}
