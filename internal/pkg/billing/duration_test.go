package billing

import (
	"testing"
	"time"

	"github.com/JulianBeck/CastDeck/app/models"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func TestCalculateGiftEndDate_MonthClamping(t *testing.T) {
	tests := []struct {
		name     string
		giftType string
		quantity int
		start    time.Time
		want     time.Time
	}{
		{
			name:     "plain month addition",
			giftType: models.GiftTypeMonthly,
			quantity: 3,
			start:    date(2025, time.March, 15),
			want:     date(2025, time.June, 15),
		},
		{
			name:     "jan 31 clamps to feb 28",
			giftType: models.GiftTypeMonthly,
			quantity: 1,
			start:    date(2025, time.January, 31),
			want:     date(2025, time.February, 28),
		},
		{
			name:     "jan 31 clamps to feb 29 in a leap year",
			giftType: models.GiftTypeMonthly,
			quantity: 1,
			start:    date(2024, time.January, 31),
			want:     date(2024, time.February, 29),
		},
		{
			name:     "crossing a year boundary",
			giftType: models.GiftTypeMonthly,
			quantity: 2,
			start:    date(2025, time.December, 31),
			want:     date(2026, time.February, 28),
		},
		{
			name:     "annual addition",
			giftType: models.GiftTypeAnnual,
			quantity: 2,
			start:    date(2025, time.March, 15),
			want:     date(2027, time.March, 15),
		},
		{
			name:     "annual from feb 29 clamps to feb 28",
			giftType: models.GiftTypeAnnual,
			quantity: 1,
			start:    date(2024, time.February, 29),
			want:     date(2025, time.February, 28),
		},
	}

	for _, tt := range tests {
		if got := CalculateGiftEndDate(tt.giftType, tt.quantity, tt.start); !got.Equal(tt.want) {
			t.Fatalf("%s: CalculateGiftEndDate = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCalculateGiftEndDate_Lifetime(t *testing.T) {
	start := date(2025, time.March, 15)
	got := CalculateGiftEndDate(models.GiftTypeLifetime, 1, start)
	if got.Year() != start.Year()+lifetimeYears {
		t.Fatalf("lifetime end year = %d, want %d", got.Year(), start.Year()+lifetimeYears)
	}

	// Quantity is meaningless for lifetime gifts.
	if other := CalculateGiftEndDate(models.GiftTypeLifetime, 5, start); !other.Equal(got) {
		t.Fatalf("lifetime quantity 5 = %v, want %v", other, got)
	}
}

func TestCalculateGiftEndDate_NormalizesToUTC(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 23:30 Berlin time on Jan 31 is still Jan 31 in UTC.
	start := time.Date(2025, time.January, 31, 23, 30, 0, 0, berlin)
	got := CalculateGiftEndDate(models.GiftTypeMonthly, 1, start)
	if got.Location() != time.UTC {
		t.Fatalf("result location = %v, want UTC", got.Location())
	}
	if got.Month() != time.February || got.Day() != 28 {
		t.Fatalf("got %v, want Feb 28 on the UTC timeline", got)
	}
}

func TestAggregateGiftDuration_ExtendsUnexpired(t *testing.T) {
	now := date(2025, time.March, 15)
	current := date(2025, time.April, 1)

	got := AggregateGiftDuration(models.GiftTypeMonthly, 1, &current, false, now)
	if want := date(2025, time.May, 1); !got.Equal(want) {
		t.Fatalf("AggregateGiftDuration = %v, want %v", got, want)
	}
}

func TestAggregateGiftDuration_RestartsExpired(t *testing.T) {
	now := date(2025, time.March, 15)
	expired := date(2025, time.February, 1)

	got := AggregateGiftDuration(models.GiftTypeMonthly, 2, &expired, false, now)
	if want := date(2025, time.May, 15); !got.Equal(want) {
		t.Fatalf("AggregateGiftDuration = %v, want %v", got, want)
	}

	// No prior expiration behaves the same as an expired one.
	if fresh := AggregateGiftDuration(models.GiftTypeMonthly, 2, nil, false, now); !fresh.Equal(got) {
		t.Fatalf("nil expiration = %v, want %v", fresh, got)
	}
}

func TestAggregateGiftDuration_LifetimeShortCircuit(t *testing.T) {
	now := date(2025, time.March, 15)
	lifetimeEnd := date(2125, time.January, 1)

	got := AggregateGiftDuration(models.GiftTypeMonthly, 12, &lifetimeEnd, true, now)
	if !got.Equal(lifetimeEnd) {
		t.Fatalf("monthly gift moved a lifetime expiration: got %v, want %v", got, lifetimeEnd)
	}
}

func TestAggregateGiftDuration_LifetimeUpgrade(t *testing.T) {
	now := date(2025, time.March, 15)
	current := date(2025, time.April, 1)

	got := AggregateGiftDuration(models.GiftTypeLifetime, 1, &current, false, now)
	if got.Year() != current.Year()+lifetimeYears {
		t.Fatalf("lifetime upgrade end year = %d, want %d", got.Year(), current.Year()+lifetimeYears)
	}
}
