package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		return boxStyle.Render(titleRendered + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// HumanTimestamp returns a human-friendly relative timestamp string.
func HumanTimestamp(t time.Time) string {
	return humanTimestampFrom(t, time.Now())
}

func humanTimestampFrom(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006 15:04")
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// ExpiresIn renders the remaining pending window with urgency coloring.
func ExpiresIn(expiresAt time.Time) string {
	return expiresInFrom(expiresAt, time.Now())
}

func expiresInFrom(expiresAt, now time.Time) string {
	left := expiresAt.Sub(now)
	if left <= 0 {
		return StyleRed.Render("expired")
	}
	var text string
	if left < time.Hour {
		text = fmt.Sprintf("%dm left", int(left.Minutes()))
	} else {
		text = fmt.Sprintf("%dh%02dm left", int(left.Hours()), int(left.Minutes())%60)
	}
	if left < 30*time.Minute {
		return StyleRed.Render(text)
	}
	if left < time.Hour {
		return StyleYellow.Render(text)
	}
	return StyleFg.Render(text)
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Excerpt collapses whitespace and trims text to max runes with an ellipsis.
func Excerpt(text string, max int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= max {
		return flat
	}
	if max <= 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
