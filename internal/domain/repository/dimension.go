package repository

// Dimension names a calendar aggregation axis.
type Dimension string

const (
	DimWeekday     Dimension = "weekday"
	DimDayOfMonth  Dimension = "day"
	DimISOWeek     Dimension = "week"
	DimMonth       Dimension = "month"
	DimWeekOfMonth Dimension = "weekofmonth"
)

// AllDimensions returns every supported dimension in report order.
func AllDimensions() []Dimension {
	return []Dimension{DimWeekday, DimDayOfMonth, DimISOWeek, DimMonth, DimWeekOfMonth}
}

// IsValidDimension returns true if d is a supported dimension.
func IsValidDimension(d Dimension) bool {
	switch d {
	case DimWeekday, DimDayOfMonth, DimISOWeek, DimMonth, DimWeekOfMonth:
		return true
	default:
		return false
	}
}

// DefaultDimension returns the default dimension.
func DefaultDimension() Dimension { return DimWeekday }

// NormalizeDimension converts a raw string to a valid dimension (or default).
func NormalizeDimension(s string) Dimension {
	if s == "" {
		return DefaultDimension()
	}
	d := Dimension(s)
	if IsValidDimension(d) {
		return d
	}
	return DefaultDimension()
}
