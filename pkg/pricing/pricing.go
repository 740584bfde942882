// Package pricing is the single source of truth for quoting a purchase.
// Both display quotes and the amounts sent to the payment processors must
// derive from these functions so a buyer is never charged a different total
// than the one shown.
package pricing

import "math"

// Prices are in cents (AUD minor units).
const (
	// UnitPriceCents is the price of a single number.
	UnitPriceCents int64 = 2500

	// BundleSize numbers purchased together cost BundlePriceCents,
	// one number cheaper than five at the unit price.
	BundleSize             = 5
	BundlePriceCents int64 = 10000
)

// Processor fee model: 1.6% + 10c per charge, with 10% GST applied to the
// fee itself. The fee is grossed up so the net amount received after the
// processor's deductions equals the subtotal exactly:
//
//	fee = (subtotal*0.0176 + 11) / 0.9824
//
// where 0.0176 = 1.6% including GST and 11 = 10c including GST.
const (
	feeGrossRate       = 0.0176
	feeGrossFixedCents = 11.0
)

// Subtotal returns the bulk-discounted price for count numbers.
// Every complete bundle of five is charged the flat bundle price; the
// remainder is charged at the unit price.
func Subtotal(count int) int64 {
	if count <= 0 {
		return 0
	}
	bundles := int64(count / BundleSize)
	remainder := int64(count % BundleSize)
	return bundles*BundlePriceCents + remainder*UnitPriceCents
}

// Fee returns the processing fee in cents to add on top of subtotal,
// rounded to the nearest cent.
func Fee(subtotalCents int64) int64 {
	if subtotalCents <= 0 {
		return 0
	}
	fee := (float64(subtotalCents)*feeGrossRate + feeGrossFixedCents) / (1 - feeGrossRate)
	return int64(math.Round(fee))
}

// Total returns the full amount to charge for count numbers.
func Total(count int) int64 {
	s := Subtotal(count)
	return s + Fee(s)
}

// Savings returns how much cheaper the bundled subtotal is compared to
// count numbers at the unit price. Display quoting only.
func Savings(count int) int64 {
	if count <= 0 {
		return 0
	}
	return int64(count)*UnitPriceCents - Subtotal(count)
}

// FreeNumbers returns how many numbers are effectively free under the
// bundle discount for a purchase of count numbers.
func FreeNumbers(count int) int {
	perBundle := (int64(BundleSize)*UnitPriceCents - BundlePriceCents) / UnitPriceCents
	return (count / BundleSize) * int(perBundle)
}
