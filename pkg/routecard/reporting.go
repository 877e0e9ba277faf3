package routecard

import (
	"log/slog"
	"time"
)

// Period names a clock-relative date range used by reporting.
type Period string

const (
	PeriodToday         Period = "today"
	PeriodCurrentMonth  Period = "current_month"
	PeriodPreviousMonth Period = "previous_month"
	PeriodLast3Months   Period = "last_3_months"
	PeriodCurrentYear   Period = "current_year"
	PeriodPreviousYear  Period = "previous_year"
	PeriodAllTime       Period = "all_time"
)

// Periods lists every known period in presentation order.
var Periods = []Period{
	PeriodAllTime,
	PeriodToday,
	PeriodCurrentMonth,
	PeriodPreviousMonth,
	PeriodLast3Months,
	PeriodCurrentYear,
	PeriodPreviousYear,
}

// allTimeFloor is the open-ended lower bound for PeriodAllTime, far
// enough back to include every record the system has ever written.
const allTimeFloor = "2000-01-01"

// ResolvePeriod maps a named period onto inclusive date-only bounds
// relative to now, using the local calendar. "Last 3 months" is a fixed 90
// days back, not a calendar computation; "previous month" spans the full
// calendar month including the correct end-of-month day. An unknown period
// resolves to all time.
func ResolvePeriod(p Period, now time.Time) (start, end string) {
	end = now.Format(DateLayout)
	switch p {
	case PeriodToday:
		start = end
	case PeriodCurrentMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format(DateLayout)
	case PeriodPreviousMonth:
		firstOfCurrent := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		lastOfPrevious := firstOfCurrent.AddDate(0, 0, -1)
		start = time.Date(lastOfPrevious.Year(), lastOfPrevious.Month(), 1, 0, 0, 0, 0, now.Location()).Format(DateLayout)
		end = lastOfPrevious.Format(DateLayout)
	case PeriodLast3Months:
		start = now.AddDate(0, 0, -90).Format(DateLayout)
	case PeriodCurrentYear:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()).Format(DateLayout)
	case PeriodPreviousYear:
		previous := now.Year() - 1
		start = time.Date(previous, time.January, 1, 0, 0, 0, 0, now.Location()).Format(DateLayout)
		end = time.Date(previous, time.December, 31, 0, 0, 0, 0, now.Location()).Format(DateLayout)
	default:
		start = allTimeFloor
	}
	return start, end
}

// PeriodSummary aggregates card counts for one resolved period.
// CompletionRate is completed/total as a percentage, zero when the period
// holds no cards.
type PeriodSummary struct {
	Period         Period
	Start, End     string
	Total          int64
	Completed      int64
	Incomplete     int64
	CompletionRate float64
}

// ReportEngine is the read-only reporting side: it composes CardStore
// aggregates and never writes. The clock is injected so period resolution
// is testable.
type ReportEngine struct {
	store  *CardStore
	logger *slog.Logger
	topN   int
	now    func() time.Time
}

// NewReportEngine creates a ReportEngine. A non-positive topN falls back
// to 10; a nil clock falls back to time.Now.
func NewReportEngine(store *CardStore, topN int, clock func() time.Time, logger *slog.Logger) *ReportEngine {
	if topN <= 0 {
		topN = defaultTopN
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportEngine{
		store:  store,
		logger: logger.With("component", "reporting"),
		topN:   topN,
		now:    clock,
	}
}

const defaultTopN = 10

// OverallSummary returns unfiltered totals across every record.
func (e *ReportEngine) OverallSummary() PeriodSummary {
	total := e.store.CountAll()
	completed := e.store.CountCompleted()
	incomplete := e.store.CountIncomplete()
	return summarize(PeriodAllTime, allTimeFloor, e.now().Format(DateLayout), total, completed, incomplete)
}

// Summary returns the aggregate counts for a named period.
func (e *ReportEngine) Summary(p Period) PeriodSummary {
	start, end := ResolvePeriod(p, e.now())
	total := e.store.CountInRange(start, end)
	completed := e.store.CountCompletedInRange(start, end)
	incomplete := e.store.CountIncompleteInRange(start, end)
	return summarize(p, start, end, total, completed, incomplete)
}

func summarize(p Period, start, end string, total, completed, incomplete int64) PeriodSummary {
	s := PeriodSummary{
		Period:     p,
		Start:      start,
		End:        end,
		Total:      total,
		Completed:  completed,
		Incomplete: incomplete,
	}
	if total > 0 {
		s.CompletionRate = float64(completed) / float64(total) * 100
	}
	return s
}

// MonthlyHistogram returns completion counts per calendar month, oldest
// first. A zero year means all years.
func (e *ReportEngine) MonthlyHistogram(year int) []MonthlyCount {
	return e.store.MonthlyCompletionHistogram(year)
}

// YearlyHistogram returns card counts per calendar year, oldest first.
func (e *ReportEngine) YearlyHistogram() []YearlyCount {
	return e.store.YearlyHistogram()
}

// Top returns the most frequent values of the given field. A non-positive
// n falls back to the engine's configured cap.
func (e *ReportEngine) Top(field TopField, n int) []ValueCount {
	if n <= 0 {
		n = e.topN
	}
	return e.store.TopValues(field, n)
}

// StatusBreakdown returns the row count per status literal.
func (e *ReportEngine) StatusBreakdown() map[string]int64 {
	return e.store.StatusBreakdown()
}
