// Package format renders amounts, dates and labels for the terminal.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "RWF"

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

func parse(amount string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Currency formats amount with thousands separators and at most two
// decimals, e.g. "RWF 1,500.5". Unparseable input renders as "<code> 0".
func Currency(amount, code string) string {
	if code == "" {
		code = DefaultCurrency
	}
	d, ok := parse(amount)
	if !ok {
		return code + " 0"
	}
	return code + " " + groupThousands(d.Round(2))
}

// CompactCurrency abbreviates thousands and millions with one decimal:
// "RWF 1.5K", "RWF 2.3M".
func CompactCurrency(amount, code string) string {
	if code == "" {
		code = DefaultCurrency
	}
	d, ok := parse(amount)
	if !ok {
		return code + " 0"
	}
	switch {
	case d.GreaterThanOrEqual(million):
		return code + " " + d.Div(million).StringFixed(1) + "M"
	case d.GreaterThanOrEqual(thousand):
		return code + " " + d.Div(thousand).StringFixed(1) + "K"
	}
	return Currency(amount, code)
}

func groupThousands(d decimal.Decimal) string {
	s := d.String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
