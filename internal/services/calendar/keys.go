package calendar

import (
	"fmt"
	"time"

	"SipPulse/internal/domain/models"
	domrepo "SipPulse/internal/domain/repository"
)

// KeyFor maps a trading date onto the group key of a dimension.
// Weekday, day-of-month and week-of-month recur across years (Year
// stays zero); ISO week and month keep the year so distinct periods
// never collapse into one bucket.
func KeyFor(dim domrepo.Dimension, date time.Time) (models.GroupKey, error) {
	switch dim {
	case domrepo.DimWeekday:
		wd := date.Weekday()
		return models.GroupKey{Ord: int(wd), Label: wd.String()}, nil
	case domrepo.DimDayOfMonth:
		d := date.Day()
		return models.GroupKey{Ord: d, Label: fmt.Sprintf("%d", d)}, nil
	case domrepo.DimISOWeek:
		y, w := date.ISOWeek()
		return models.GroupKey{Year: y, Ord: w, Label: fmt.Sprintf("%d-W%02d", y, w)}, nil
	case domrepo.DimMonth:
		return models.GroupKey{
			Year:  date.Year(),
			Ord:   int(date.Month()),
			Label: fmt.Sprintf("%d-%02d", date.Year(), int(date.Month())),
		}, nil
	case domrepo.DimWeekOfMonth:
		w := WeekOfMonth(date)
		return models.GroupKey{Ord: w, Label: fmt.Sprintf("W%d", w)}, nil
	default:
		return models.GroupKey{}, fmt.Errorf("unsupported dimension: %s", dim)
	}
}

// WeekOfMonth returns the 1-based week slot within a month (1..5).
func WeekOfMonth(date time.Time) int {
	return (date.Day()-1)/7 + 1
}
