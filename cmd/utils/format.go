package utils

import (
	"fmt"
	"math"

	"github.com/mattn/go-runewidth"
)

// TruncateWidth shortens s to at most width terminal cells, ending in "…"
// when cut. Wide runes are counted as two cells.
func TruncateWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// PadWidth right-pads s with spaces to width cells.
func PadWidth(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// FormatPercent renders part/total as a whole percentage; "0%" when total
// is zero.
func FormatPercent(part, total int) string {
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", int(math.Round(float64(part)*100/float64(total))))
}

// RoundDiv divides and rounds half away from zero. Zero n yields 0.
func RoundDiv(total, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(n)))
}
