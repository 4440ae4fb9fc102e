package source

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the date format recognised in CSV cells.
const DateLayout = "2006-01-02"

// NormalizeKey turns a CSV header into a snake_case document key:
// "Date of Admission" becomes "date_of_admission".
func NormalizeKey(header string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(header) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// ConvertValue types one CSV cell. Integers, floats and dates are decoded;
// everything else stays a trimmed string.
func ConvertValue(cell string) any {
	s := strings.TrimSpace(cell)
	if s == "" {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	if len(s) == len(DateLayout) {
		if t, err := time.Parse(DateLayout, s); err == nil {
			return t
		}
	}
	return s
}
