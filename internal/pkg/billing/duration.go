package billing

import (
	"time"

	"github.com/JulianBeck/CastDeck/app/models"
)

// Lifetime gifts are stored with a far-future expiration instead of a null
// period end so that date comparisons against other gifts stay trivial.
const lifetimeYears = 100

// CalculateGiftEndDate returns the expiration a gift of the given type and
// quantity produces when it starts at start. All arithmetic happens on the
// UTC timeline; mixing UTC parsing with local-time accessors is what caused
// the historic one-day drift around midnight boundaries.
//
// Month and year addition clamp to the last valid day of the target month
// (Jan 31 + 1 month = Feb 28, or Feb 29 in a leap year), matching calendar
// semantics rather than Go's AddDate overflow normalization.
func CalculateGiftEndDate(giftType string, quantity int, start time.Time) time.Time {
	start = start.UTC()
	switch giftType {
	case models.GiftTypeAnnual:
		return addYearsClamped(start, quantity)
	case models.GiftTypeLifetime:
		return addYearsClamped(start, lifetimeYears)
	default:
		return addMonthsClamped(start, quantity)
	}
}

// AggregateGiftDuration merges a new gift into an existing gift expiration.
// An unexpired expiration is extended; an expired or missing one restarts
// from now. When the existing grant is already lifetime, a later
// non-lifetime gift must not move the date at all: the stored expiration is
// returned unchanged. Lifetime detection is flag-based (the subscription's
// transaction type), not a magnitude heuristic.
func AggregateGiftDuration(giftType string, quantity int, currentExpiration *time.Time, alreadyLifetime bool, now time.Time) time.Time {
	now = now.UTC()

	if alreadyLifetime && currentExpiration != nil && giftType != models.GiftTypeLifetime {
		return currentExpiration.UTC()
	}

	base := now
	if currentExpiration != nil && currentExpiration.After(now) {
		base = currentExpiration.UTC()
	}

	if giftType == models.GiftTypeLifetime {
		return CalculateGiftEndDate(models.GiftTypeLifetime, 1, base)
	}
	return CalculateGiftEndDate(giftType, quantity, base)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year := t.Year()
	monthIdx := int(t.Month()) - 1 + months
	year += monthIdx / 12
	monthIdx %= 12
	if monthIdx < 0 {
		monthIdx += 12
		year--
	}
	month := time.Month(monthIdx + 1)

	day := t.Day()
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func addYearsClamped(t time.Time, years int) time.Time {
	year := t.Year() + years
	day := t.Day()
	if last := lastDayOfMonth(year, t.Month()); day > last {
		day = last
	}
	return time.Date(year, t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// lastDayOfMonth exploits day-zero normalization: day 0 of the following
// month is the last day of this one.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
