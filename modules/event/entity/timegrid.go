package entity

import (
	"fmt"
	"time"
)

// TimeLabel is one entry of the fixed half-hour vocabulary ("12:00 AM" ... "11:30 PM").
// Labels are ordered by their position in the vocabulary, never lexically.
type TimeLabel string

// DateKey is a calendar day in YYYY-MM-DD form.
type DateKey string

const (
	DateLayout = "2006-01-02"

	SlotMinutes = 30

	// MaxRangeDays bounds the date axis of a single event.
	MaxRangeDays = 62
)

var (
	vocabulary = buildVocabulary()
	labelIndex = indexVocabulary(vocabulary)
)

func buildVocabulary() []TimeLabel {
	labels := make([]TimeLabel, 0, 24*60/SlotMinutes)
	for m := 0; m < 24*60; m += SlotMinutes {
		labels = append(labels, formatLabel(m/60, m%60))
	}
	return labels
}

func indexVocabulary(labels []TimeLabel) map[TimeLabel]int {
	idx := make(map[TimeLabel]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}

func formatLabel(hour, minute int) TimeLabel {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return TimeLabel(fmt.Sprintf("%02d:%02d %s", h, minute, suffix))
}

// Vocabulary returns a copy of the full ordered label list.
func Vocabulary() []TimeLabel {
	out := make([]TimeLabel, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// Index is the label's position in the vocabulary, or -1 when unknown.
func (t TimeLabel) Index() int {
	if i, ok := labelIndex[t]; ok {
		return i
	}
	return -1
}

func (t TimeLabel) Valid() bool {
	return t.Index() >= 0
}

// Minutes returns the minutes since midnight the label starts at.
func (t TimeLabel) Minutes() int {
	i := t.Index()
	if i < 0 {
		return -1
	}
	return i * SlotMinutes
}

// LabelAt floors a clock time to the half hour and returns its label.
func LabelAt(hour, minute int) (TimeLabel, bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", false
	}
	return formatLabel(hour, minute/SlotMinutes*SlotMinutes), true
}

// TimeRange is a closed sub-interval of the vocabulary.
type TimeRange struct {
	Start TimeLabel `json:"start_time"`
	End   TimeLabel `json:"end_time"`
}

func (r TimeRange) Validate() error {
	si, ei := r.Start.Index(), r.End.Index()
	if si < 0 || ei < 0 {
		return fmt.Errorf("%w: unknown time label", ErrInvalidTimeRange)
	}
	if si >= ei {
		return fmt.Errorf("%w: start %q must come before end %q", ErrInvalidTimeRange, r.Start, r.End)
	}
	return nil
}

// GetTimesInRange returns the labels from start to end inclusive. An unknown
// or inverted bound yields the full vocabulary, so the time axis is never empty.
func GetTimesInRange(start, end TimeLabel) []TimeLabel {
	si, ei := start.Index(), end.Index()
	if si < 0 || ei < 0 || si > ei {
		return fullVocabularyFallback()
	}
	out := make([]TimeLabel, ei-si+1)
	copy(out, vocabulary[si:ei+1])
	return out
}

// fullVocabularyFallback is the fail-open branch of GetTimesInRange.
func fullVocabularyFallback() []TimeLabel {
	return Vocabulary()
}

func ParseDateKey(s string) (DateKey, error) {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDateRange, s)
	}
	return DateKey(s), nil
}

// Time returns midnight UTC of the day.
func (d DateKey) Time() (time.Time, error) {
	return time.Parse(DateLayout, string(d))
}

// DateRange is the closed interval [Start, End] of calendar days.
type DateRange struct {
	Start DateKey `json:"start_date"`
	End   DateKey `json:"end_date"`
}

func (r DateRange) Contains(d DateKey) bool {
	return d >= r.Start && d <= r.End
}

// GetDatesInRange enumerates every day from start to end inclusive. Days are
// walked on the UTC civil calendar so no timezone offset can skip or repeat one.
func GetDatesInRange(start, end DateKey) ([]DateKey, error) {
	s, err := time.Parse(DateLayout, string(start))
	if err != nil {
		return nil, fmt.Errorf("%w: bad start date %q", ErrInvalidDateRange, start)
	}
	e, err := time.Parse(DateLayout, string(end))
	if err != nil {
		return nil, fmt.Errorf("%w: bad end date %q", ErrInvalidDateRange, end)
	}
	if e.Before(s) {
		return nil, fmt.Errorf("%w: end %s is before start %s", ErrInvalidDateRange, end, start)
	}

	var dates []DateKey
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		if len(dates) == MaxRangeDays {
			return nil, fmt.Errorf("%w: range exceeds %d days", ErrInvalidDateRange, MaxRangeDays)
		}
		dates = append(dates, DateKey(d.Format(DateLayout)))
	}
	return dates, nil
}
