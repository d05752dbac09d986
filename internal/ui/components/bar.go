// Package components renders small reusable terminal widgets.
package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/atrisk/internal/ui/theme"
)

// ScoreBar displays a value out of a maximum as a horizontal bar.
type ScoreBar struct {
	Value int
	Max   int
	Width int
	// Plain renders with '#' and '.' instead of colored cells.
	Plain bool
}

// NewScoreBar creates a bar of the given cell width.
func NewScoreBar(value, max, width int, plain bool) ScoreBar {
	return ScoreBar{Value: value, Max: max, Width: width, Plain: plain}
}

// Filled returns the number of filled cells.
func (b ScoreBar) Filled() int {
	width := b.cells()
	if b.Max <= 0 {
		return 0
	}
	filled := width * b.Value / b.Max
	return min(max(filled, 0), width)
}

func (b ScoreBar) cells() int {
	if b.Width < 4 {
		return 4
	}
	return b.Width
}

// View renders the bar followed by "value/max".
func (b ScoreBar) View() string {
	filled := b.Filled()
	empty := b.cells() - filled
	suffix := fmt.Sprintf(" %d/%d", b.Value, b.Max)

	if b.Plain {
		return "[" + strings.Repeat("#", filled) + strings.Repeat(".", empty) + "]" + suffix
	}
	return theme.BarFilled.Render(strings.Repeat(" ", filled)) +
		theme.BarEmpty.Render(strings.Repeat(" ", empty)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(suffix)
}
