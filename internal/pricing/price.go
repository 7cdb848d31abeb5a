// Package pricing converts the localized price text shown on the menu
// ("8.50€", "1,20 €", "25€/pessoa") into decimal amounts and back.
package pricing

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidPrice is returned when the text carries no leading amount
var ErrInvalidPrice = errors.New("invalid price")

const currencySymbol = "€"

var leadingAmount = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)

// ParsePrice extracts the amount from a localized price string. The euro
// sign is dropped, a decimal comma is accepted and any trailing text after
// the leading number is ignored.
func ParsePrice(text string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(strings.Replace(strings.Replace(text, currencySymbol, "", -1), ",", ".", 1))
	amount := leadingAmount.FindString(cleaned)
	if amount == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, text)
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(amount, "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, text)
	}
	return d, nil
}

// LineTotal is unit price times quantity. Unparseable prices count as zero;
// callers validate prices before they enter an order.
func LineTotal(unitPrice string, quantity int) decimal.Decimal {
	d, err := ParsePrice(unitPrice)
	if err != nil {
		return decimal.Zero
	}
	return d.Mul(decimal.NewFromInt(int64(quantity)))
}

// FormatPrice renders an amount the way the menu shows it, e.g. "2.40€"
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2) + currencySymbol
}
