package queue

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// maxDailyQueue is the hard ceiling on queue numbers per calendar day.
const maxDailyQueue = 999

// SessionCounter is the slice of the session store the allocator reads
// queue numbering from.
type SessionCounter interface {
	CountCreatedBetween(ctx context.Context, start, end time.Time) (int, error)
}

// RecordStore is the slice of the patient store the allocator reads
// medical-record numbering from.
type RecordStore interface {
	MaxMedicalRecordNumber(ctx context.Context) (string, error)
}

// Allocator derives the next daily queue number and the next medical record
// number from persisted state. It holds no counters of its own; both reads
// must run inside the caller's allocation-locked transaction to be safe
// under concurrency.
type Allocator struct {
	sessions SessionCounter
	records  RecordStore
	loc      *time.Location
	now      func() time.Time
}

func NewAllocator(sessions SessionCounter, records RecordStore, loc *time.Location) *Allocator {
	if loc == nil {
		loc = time.Local
	}
	return &Allocator{
		sessions: sessions,
		records:  records,
		loc:      loc,
		now:      time.Now,
	}
}

// NextQueueNumber counts the sessions created so far today (local midnight
// to midnight) and formats the next ticket as U001..U999. Returns
// ErrCapacityExceeded once the day is full.
func (a *Allocator) NextQueueNumber(ctx context.Context) (string, error) {
	now := a.now().In(a.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
	end := start.AddDate(0, 0, 1)

	count, err := a.sessions.CountCreatedBetween(ctx, start, end)
	if err != nil {
		return "", fmt.Errorf("count today's sessions: %w", err)
	}

	next := count + 1
	if next > maxDailyQueue {
		return "", ErrCapacityExceeded
	}
	return fmt.Sprintf("U%03d", next), nil
}

// NextMedicalRecordNumber finds the greatest assigned record number,
// increments it, and re-applies the NN.NN.NN grouping. The first patient
// ever numbered gets 00.00.01.
func (a *Allocator) NextMedicalRecordNumber(ctx context.Context) (string, error) {
	max, err := a.records.MaxMedicalRecordNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("find max record number: %w", err)
	}

	last := 0
	if max != "" {
		last, err = ParseMedicalRecordNumber(max)
		if err != nil {
			return "", fmt.Errorf("parse record number %q: %w", max, err)
		}
	}
	return FormatMedicalRecordNumber(last + 1), nil
}

// FormatMedicalRecordNumber renders n as a zero-padded six-digit number
// grouped in pairs: 1 -> "00.00.01", 123456 -> "12.34.56".
func FormatMedicalRecordNumber(n int) string {
	s := fmt.Sprintf("%06d", n)
	return s[0:2] + "." + s[2:4] + "." + s[4:6]
}

// ParseMedicalRecordNumber strips the grouping separators and parses the
// remaining digits.
func ParseMedicalRecordNumber(s string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(s, ".", ""))
}
