package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// thousandsGrouped matches id-ID digit grouping such as "1.500.000".
var thousandsGrouped = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// maxAmount keeps parsed amounts far away from int64 overflow when summed.
const maxAmount = 1e15

// ParseAmount converts user input into whole rupiah.
//
// It accepts plain digits, an optional "Rp" prefix, id-ID grouping with dots
// ("1.500.000") and a decimal comma ("1.500,50"). A lone dot not followed by
// groups of three digits is read as a decimal point. Fractions are rounded
// half away from zero. Negative, NaN and infinite values are rejected.
//
// Examples:
//
//	ParseAmount("1500000")      -> 1500000
//	ParseAmount("Rp 1.500.000") -> 1500000
//	ParseAmount("2,5")          -> 3
//	ParseAmount("-1")           -> ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.EqualFold(s[:2], "rp") {
		s = strings.TrimLeft(s[2:], ". ")
	}
	s = strings.ReplaceAll(s, " ", "")
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	s = strings.TrimPrefix(s, "+")

	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case thousandsGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}

	f, err := parseFinite(s)
	if err != nil || f < 0 || f > maxAmount {
		return 0, ErrInvalidAmount
	}
	return int64(math.Round(f)), nil
}

// ParsePercent reads a non-negative percentage such as "11" or "11,00".
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, nil
	}
	f, err := parseFinite(strings.Replace(s, ",", ".", 1))
	if err != nil || f < 0 {
		return 0, ErrInvalidAmount
	}
	return f, nil
}

func parseFinite(s string) (float64, error) {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, ErrInvalidAmount
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidAmount
	}
	return f, nil
}

// FormatNumber renders n with id-ID grouping: 1500000 -> "1.500.000".
func FormatNumber(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatRupiah renders n as currency: "Rp 1.500.000", "-Rp 400.000".
func FormatRupiah(n int64) string {
	if n < 0 {
		return "-Rp " + FormatNumber(-n)
	}
	return "Rp " + FormatNumber(n)
}
