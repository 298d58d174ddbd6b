// Package units converts raw integer token amounts into display strings.
package units

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the fixed scale of native wei amounts.
const EtherDecimals = 18

// displayPlaces is the number of fractional digits in every rendered amount.
const displayPlaces = 4

// MaxDecimals bounds the scale accepted from providers. ERC-20 stores it
// as a uint8.
const MaxDecimals = 255

// Format scales raw by 10^-decimals and renders it with four fractional digits.
func Format(raw string, decimals int) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("negative decimal count %d", decimals)
	}
	if decimals > MaxDecimals {
		return "", fmt.Errorf("decimal count %d exceeds %d", decimals, MaxDecimals)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return v.Shift(int32(-decimals)).StringFixed(displayPlaces), nil
}

// FormatWei is Format with the native 18-decimal scale.
func FormatWei(raw string) (string, error) {
	return Format(raw, EtherDecimals)
}
