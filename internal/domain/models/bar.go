package models

import "time"

// DailyBar represents one trading day of an index (OHLC, no volume).
// A loaded series is expected to be sorted ascending by date with no
// duplicate dates; missing trading days are simply absent.
type DailyBar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
}

// Day returns the bar date truncated to midnight UTC. Used as the
// de-duplication key for stores and the quote folder.
func (b DailyBar) Day() time.Time {
	return time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), 0, 0, 0, 0, time.UTC)
}

// Quote is a single live price observation from the feed. The ingest
// half folds quotes into the current day's bar.
type Quote struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
}
