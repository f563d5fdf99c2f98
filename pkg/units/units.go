// Package units formats physical quantities for display.
package units

import (
	"math"
	"strconv"
	"strings"
)

var siPrefixes = map[int]string{
	-15: "f",
	-12: "p",
	-9:  "n",
	-6:  "µ",
	-3:  "m",
	0:   "",
	3:   "k",
	6:   "M",
	9:   "G",
	12:  "T",
}

// SIScale returns the exponent (a multiple of 3) and prefix best suited to
// display v. Values outside the known prefixes use the nearest one.
func SIScale(v float64) (exp int, prefix string) {
	if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ""
	}
	exp = int(math.Floor(math.Log10(math.Abs(v))/3)) * 3
	exp = max(-15, min(12, exp))
	return exp, siPrefixes[exp]
}

// RoundSignificant rounds x to sig significant digits.
func RoundSignificant(x float64, sig int) float64 {
	if x == 0 || sig <= 0 || math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	d := int(math.Floor(math.Log10(math.Abs(x))))
	e := sig - 1 - d
	if e >= 0 {
		p := math.Pow(10, float64(e))
		return math.Round(x*p) / p
	}
	q := math.Pow(10, float64(-e))
	return math.Round(x/q) * q
}

// ReadableString formats v with an SI prefix and the given unit, keeping sig
// significant digits (all of them when sig <= 0). For example
// ReadableString(2.5e-6, "m", 2) returns "2.5 µm".
func ReadableString(v float64, unit string, sig int) string {
	if sig > 0 {
		v = RoundSignificant(v, sig)
	}
	exp, prefix := SIScale(v)
	scaled := v / math.Pow(10, float64(exp))
	// Rounding may have produced e.g. 1000 µm; move to the next prefix.
	if math.Abs(scaled) >= 1000 && exp < 12 {
		exp += 3
		prefix = siPrefixes[exp]
		scaled /= 1000
	}

	num := formatNumber(scaled, sig)
	if unit == "" && prefix == "" {
		return num
	}
	return num + " " + prefix + unit
}

func formatNumber(x float64, sig int) string {
	if sig <= 0 || x == 0 {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	d := int(math.Floor(math.Log10(math.Abs(x))))
	decimals := max(0, sig-1-d)
	s := strconv.FormatFloat(x, 'f', decimals, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
