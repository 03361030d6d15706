package common

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatPrice renders v rounded half away from zero to cents with thousands
// separators, e.g. "1,234.56". NaN and infinities render empty.
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	s := decimal.NewFromFloat(v).StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if sign != "" && strings.Trim(whole+frac, "0") == "" {
		sign = ""
	}
	return sign + groupThousands(whole) + "." + frac
}

// FormatVolume renders a share count with thousands separators.
func FormatVolume(v int64) string {
	if v < 0 {
		return "-" + groupThousands(strconv.FormatUint(uint64(-v), 10))
	}
	return groupThousands(strconv.FormatInt(v, 10))
}

// groupThousands inserts commas into a string of digits.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(n + n/3)
	lead := n % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
