package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"racetime/internal/analysis"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgYellow, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	mutedColor   = color.New(color.FgHiBlack)
)

// printBoxedHeader prints the title in a Unicode box with a fixed width
func printBoxedHeader(title string) {
	const width = 44
	border := strings.Repeat("═", width)
	headerColor.Println("╔" + border + "╗")
	headerColor.Println("║" + centerText(title, width) + "║")
	headerColor.Println("╚" + border + "╝")
}

func centerText(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	padding := (width - n) / 2
	return strings.Repeat(" ", padding) + s + strings.Repeat(" ", width-n-padding)
}

func printMetric(label string, value any) {
	fmt.Printf("  %s: %v\n", labelColor.Sprint(label), value)
}

func printSuccess(format string, args ...any) {
	successColor.Printf(format+"\n", args...)
}

func printWarning(format string, args ...any) {
	warnColor.Fprintf(os.Stderr, format+"\n", args...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// confidenceColor mirrors the dashboard: green from 0.7, yellow from 0.5, red below
func confidenceColor(c float64) *color.Color {
	switch {
	case c >= 0.7:
		return color.New(color.FgGreen)
	case c >= 0.5:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// formatRaceTime formats seconds as h:mm:ss, or m:ss under an hour
func formatRaceTime(seconds float64) string {
	if seconds <= 0 || math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return "-"
	}
	total := int(math.Round(seconds))
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// formatPace formats seconds per kilometre, or per mile when miles is set
func formatPace(seconds, meters float64, miles bool) string {
	if seconds <= 0 || meters <= 0 {
		return "-"
	}
	per, unit := 1000.0, "/km"
	if miles {
		per, unit = 1609.344, "/mi"
	}
	p := int(math.Round(seconds / (meters / per)))
	return fmt.Sprintf("%d:%02d%s", p/60, p%60, unit)
}

// parseRaceTime accepts "ss", "mm:ss" or "h:mm:ss"
func parseRaceTime(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 || parts[0] == "" {
		return 0, fmt.Errorf("invalid time %q, want h:mm:ss or mm:ss", s)
	}
	total := 0.0
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 || (i > 0 && v >= 60) {
			return 0, fmt.Errorf("invalid time %q, want h:mm:ss or mm:ss", s)
		}
		total = total*60 + v
	}
	if total <= 0 {
		return 0, fmt.Errorf("invalid time %q, must be positive", s)
	}
	return total, nil
}

// parseDistance accepts a category key or label ("5k", "half", "Marathon"),
// a kilometre value ("12.5k", "12.5km"), a mile value ("10mi") or meters ("1609")
func parseDistance(s string) (float64, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, c := range analysis.DistanceCategories {
		if v == strings.ToLower(c.Key) || v == strings.ToLower(c.Label) {
			return c.Meters, nil
		}
	}
	for _, suffix := range []struct {
		unit  string
		scale float64
	}{
		{"km", 1000},
		{"k", 1000},
		{"mi", 1609.344},
		{"m", 1},
	} {
		if num, ok := strings.CutSuffix(v, suffix.unit); ok {
			f, err := strconv.ParseFloat(num, 64)
			if err != nil || f <= 0 {
				return 0, fmt.Errorf("invalid distance %q", s)
			}
			return f * suffix.scale, nil
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid distance %q", s)
	}
	return f, nil
}

// parseDate accepts YYYY-MM-DD or RFC3339; empty means now
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

// formatDistanceKm formats meters as kilometres with up to two decimals
func formatDistanceKm(meters float64) string {
	return strconv.FormatFloat(math.Round(meters/10)/100, 'f', -1, 64) + " km"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
