package util

import (
	"fmt"
	"strconv"
	"time"
)

// FormatCount renders large counts with K/M suffixes.
func FormatCount(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// FormatCycles renders a device-cycle count for display.
func FormatCycles(cycles float64) string {
	if cycles >= 1e9 {
		return fmt.Sprintf("%.3fG cyc", cycles/1e9)
	} else if cycles >= 1e6 {
		return fmt.Sprintf("%.3fM cyc", cycles/1e6)
	} else if cycles >= 1e3 {
		return fmt.Sprintf("%.3fK cyc", cycles/1e3)
	}
	return fmt.Sprintf("%.0f cyc", cycles)
}

// FormatNanoseconds renders a nanosecond value at a readable scale.
func FormatNanoseconds(ns float64) string {
	switch {
	case ns >= 1e9:
		return fmt.Sprintf("%.3f s", ns/1e9)
	case ns >= 1e6:
		return fmt.Sprintf("%.3f ms", ns/1e6)
	case ns >= 1e3:
		return fmt.Sprintf("%.3f us", ns/1e3)
	default:
		return fmt.Sprintf("%.0f ns", ns)
	}
}

// FormatFrequency renders a GHz value.
func FormatFrequency(ghz float64) string {
	return strconv.FormatFloat(ghz, 'f', 3, 64) + " GHz"
}

func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
