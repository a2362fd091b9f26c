package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBirthdayBonus is the percentage added on the customer's birthday.
var DefaultBirthdayBonus = decimal.NewFromInt(15)

// DiscountPolicy turns a customer's tier discount into the effective discount
// for a given day. Birthdays are matched on the calendar of Location; a nil
// Location uses the zone of the time passed in.
type DiscountPolicy struct {
	BirthdayBonus decimal.Decimal
	Location      *time.Location
}

// DefaultDiscountPolicy uses DefaultBirthdayBonus.
var DefaultDiscountPolicy = DiscountPolicy{BirthdayBonus: DefaultBirthdayBonus}

// Effective returns base plus the birthday bonus when birth falls on now's
// month and day. There is no cap. A nil birth date never earns the bonus.
func (p DiscountPolicy) Effective(base decimal.Decimal, birth *Date, now time.Time) decimal.Decimal {
	if base.IsNegative() {
		base = decimal.Zero
	}
	if p.Location != nil {
		now = now.In(p.Location)
	}
	if birth != nil && IsBirthday(*birth, now) && p.BirthdayBonus.IsPositive() {
		return base.Add(p.BirthdayBonus)
	}
	return base
}

// EffectiveDiscount applies DefaultDiscountPolicy.
func EffectiveDiscount(base decimal.Decimal, birth *Date, now time.Time) decimal.Decimal {
	return DefaultDiscountPolicy.Effective(base, birth, now)
}

// IsBirthday reports whether birth and now share month and day. A Feb 29 birth
// date only matches on Feb 29.
func IsBirthday(birth Date, now time.Time) bool {
	if birth.IsZero() {
		return false
	}
	return birth.Month() == now.Month() && birth.Day() == now.Day()
}

// Tier thresholds, in lifetime completed purchases.
const (
	SilverPurchases = 10
	GoldPurchases   = 25
)

// TierFor returns the loyalty tier and its base discount percentage.
func TierFor(purchases int) (LoyaltyTier, decimal.Decimal) {
	switch {
	case purchases >= GoldPurchases:
		return TierGold, decimal.NewFromInt(10)
	case purchases >= SilverPurchases:
		return TierSilver, decimal.NewFromInt(5)
	default:
		return TierBronze, decimal.Zero
	}
}
