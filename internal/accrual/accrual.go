// Package accrual holds the pure salary-accrual math. Everything here is
// deterministic given its inputs and safe to call at display-refresh
// frequency; nothing mutates state.
package accrual

import (
	"time"

	"github.com/shopspring/decimal"
)

// SecondsPerYear is 365.25 * 24 * 3600. The fractional day averages out
// leap years.
var SecondsPerYear = decimal.NewFromInt(31_557_600)

// RatePerSecond derives a stream's per-second accrual rate from its
// annual salary.
func RatePerSecond(annualSalary decimal.Decimal) decimal.Decimal {
	return annualSalary.Div(SecondsPerYear)
}

// Earned returns the amount accrued between start and now. A stream that
// has not started yet has earned nothing; negative accrual is never
// reported.
func Earned(rate decimal.Decimal, start, now time.Time) decimal.Decimal {
	if !now.After(start) {
		return decimal.Zero
	}
	elapsed := decimal.NewFromFloat(now.Sub(start).Seconds())
	return rate.Mul(elapsed)
}

// Available returns the amount that may still be withdrawn: earned minus
// what was already withdrawn, floored at zero and rounded to cents
// (half-up).
func Available(rate decimal.Decimal, start time.Time, totalWithdrawn decimal.Decimal, now time.Time) decimal.Decimal {
	available := Earned(rate, start, now).Sub(totalWithdrawn)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available.Round(2)
}
