package util

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// UnitMissing is shown when a row carries no unit at all.
const UnitMissing = "N/A"

// DefaultUSDRate is the JMD per USD used when no rate is configured.
const DefaultUSDRate = 155.0

var (
	priceNoise    = regexp.MustCompile(`[^\d.,]`)
	leadingNumber = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)`)
	usdMarker     = regexp.MustCompile(`(?i)usd`)
	clPattern     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?|\.\d+)\s*cl\b`)
	mlPattern     = regexp.MustCompile(`(?i)ml`)
)

// NormalizePrice converts a free-form price cell into a plain amount with two
// decimals. USD amounts are converted with usdRate. Anything that does not
// start with a number after cleaning is returned untouched.
func NormalizePrice(raw string, usdRate float64) string {
	if raw == "" {
		return ""
	}

	clean := priceNoise.ReplaceAllString(raw, "")
	clean = strings.ReplaceAll(clean, ",", "")

	m := leadingNumber.FindString(clean)
	if m == "" {
		return raw
	}
	amount, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return raw
	}

	if IsUSD(raw) {
		if usdRate <= 0 {
			usdRate = DefaultUSDRate
		}
		amount *= usdRate
	}
	return fixed2(amount)
}

// fixed2 formats a non-negative amount with two decimals, rounding exact
// halves up. The exact binary value decides, so 1.005 (stored just below)
// gives "1.00" while 2.125 gives "2.13".
func fixed2(amount float64) string {
	whole, frac, hasDot := strings.Cut(strconv.FormatFloat(amount, 'f', 80, 64), ".")
	if !hasDot || len(frac) < 3 {
		return fmt.Sprintf("%.2f", amount)
	}
	cents, ok := new(big.Int).SetString(whole+frac[:2], 10)
	if !ok {
		return fmt.Sprintf("%.2f", amount)
	}
	if frac[2] >= '5' {
		cents.Add(cents, big.NewInt(1))
	}
	digits := cents.String()
	for len(digits) < 3 {
		digits = "0" + digits
	}
	return digits[:len(digits)-2] + "." + digits[len(digits)-2:]
}

func IsUSD(raw string) bool {
	return usdMarker.MatchString(raw) || strings.Contains(raw, "US$")
}

// NormalizeUnit turns the first "<n>cl" into millilitres, otherwise lowercases
// any "ml" spelling. Other text is left as is.
func NormalizeUnit(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return UnitMissing
	}

	if loc := clPattern.FindStringSubmatchIndex(raw); loc != nil {
		qty := raw[loc[2]:loc[3]]
		return raw[:loc[0]] + shiftDecimal(qty) + "ml" + raw[loc[1]:]
	}

	return mlPattern.ReplaceAllString(raw, "ml")
}

// shiftDecimal multiplies a decimal literal by ten without going through float64.
func shiftDecimal(num string) string {
	intPart, frac, hasDot := strings.Cut(num, ".")
	if !hasDot || frac == "" {
		return trimLeadingZeros(intPart + "0")
	}
	intPart += frac[:1]
	frac = strings.TrimRight(frac[1:], "0")
	intPart = trimLeadingZeros(intPart)
	if frac == "" {
		return intPart
	}
	return intPart + "." + frac
}

func trimLeadingZeros(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}
