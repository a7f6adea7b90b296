package offer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// rupeeRe matches a currency amount like "₹100" or "₹ 99.50". Applied
	// after commas are stripped, so "₹1,000" is seen as "₹1000".
	rupeeRe = regexp.MustCompile(`₹\s*(\d+(?:\.\d+)?)`)
	// percentRe matches a percentage like "5%" or "12.5 %".
	percentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	// minOrderRe matches minimum-order clauses such as "Min Order ₹5000"
	// or "minimum booking value of ₹2,000".
	minOrderRe = regexp.MustCompile(`(?i)(?:min|minimum).*?(?:order|value|booking).*?₹\s*(\d+(?:,\d+)?)`)
	// capRe matches maximum-discount clauses such as "up to ₹500" or
	// "Maximum ₹1,000".
	capRe = regexp.MustCompile(`(?i)(?:upto|up to|maximum|max)\s*₹\s*(\d+(?:,\d+)?)`)
)

var hundred = decimal.NewFromInt(100)

// ExtractDiscountAmount pulls the base discount value out of an offer's
// display text. The first rupee amount wins; failing that, the first
// percentage's bare number; failing that, zero. Matches are unanchored.
func ExtractDiscountAmount(text string) decimal.Decimal {
	if text == "" {
		return decimal.Zero
	}
	text = strings.ReplaceAll(text, ",", "")

	if m := rupeeRe.FindStringSubmatch(text); m != nil {
		return parseAmount(m[1])
	}
	if m := percentRe.FindStringSubmatch(text); m != nil {
		return parseAmount(m[1])
	}
	return decimal.Zero
}

// CalculateDiscount computes the discount an offer yields on amountToPay.
//
// A minimum-order clause in the description gates everything: amounts
// strictly below the minimum get zero. The base value comes from the display
// text; a "%" anywhere in the display text makes it a percentage of the
// amount, clamped by a cap clause in the description when one exists. Flat
// offers never consult the cap. The result is non-negative and the function
// never fails, whatever the inputs.
func CalculateDiscount(offerText, offerDescription string, amountToPay decimal.Decimal) decimal.Decimal {
	if m := minOrderRe.FindStringSubmatch(offerDescription); m != nil {
		minOrder := parseAmount(m[1])
		if amountToPay.LessThan(minOrder) {
			return decimal.Zero
		}
	}

	base := ExtractDiscountAmount(offerText)

	if strings.Contains(offerText, "%") {
		discount := base.Div(hundred).Mul(amountToPay)
		if m := capRe.FindStringSubmatch(offerDescription); m != nil {
			discount = decimal.Min(discount, parseAmount(m[1]))
		}
		return floorAtZero(discount)
	}

	return floorAtZero(base)
}

// parseAmount converts a captured number to a decimal, tolerating thousands
// separators. Unparseable input yields zero.
func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
