package pull

import (
	"context"
	"time"

	"github.com/ignite/commerce-ingest/internal/pkg/logger"
)

// BackfillDays is how many days a test-mode pull covers.
const BackfillDays = 7

// DefaultBackfillBudget bounds a whole backfill. It stays below the HTTP
// server's write timeout so the summary always reaches the caller.
const DefaultBackfillBudget = 70 * time.Minute

// AmazonSync runs create, poll, download and upsert for one day at a time.
type AmazonSync struct {
	api      AmazonAPI
	sink     Sink
	now      func() time.Time
	dayDelay time.Duration
	budget   time.Duration
}

// NewAmazonSync creates an Amazon sync. Backfills pause two seconds between
// days and stop after DefaultBackfillBudget.
func NewAmazonSync(api AmazonAPI, sink Sink) *AmazonSync {
	return &AmazonSync{
		api:      api,
		sink:     sink,
		now:      time.Now,
		dayDelay: 2 * time.Second,
		budget:   DefaultBackfillBudget,
	}
}

// SetDayDelay overrides the pause between backfill days.
func (s *AmazonSync) SetDayDelay(d time.Duration) { s.dayDelay = d }

// SetBudget overrides the total time a backfill may take. Zero or less
// removes the bound.
func (s *AmazonSync) SetBudget(d time.Duration) { s.budget = d }

// SetClock replaces the clock (useful for testing).
func (s *AmazonSync) SetClock(now func() time.Time) { s.now = now }

// AmazonDay summarizes one synced day.
type AmazonDay struct {
	Date            string `json:"date"`
	ReportID        string `json:"reportId"`
	TotalRows       int    `json:"totalRows"`
	UpsertedRows    int    `json:"upsertedRows"`
	PollingAttempts int    `json:"pollingAttempts"`
}

// Yesterday syncs the previous UTC day.
func (s *AmazonSync) Yesterday(ctx context.Context) (*AmazonDay, error) {
	return s.Day(ctx, yesterdayUTC(s.now()))
}

// Day syncs one UTC day. Polling is bounded by the client; exceeding the
// bound fails the whole day.
func (s *AmazonSync) Day(ctx context.Context, date string) (*AmazonDay, error) {
	if _, err := parseDay(date); err != nil {
		return nil, err
	}
	out := &AmazonDay{Date: date}
	reportID, err := s.api.CreateReport(ctx, date+"T00:00:00Z", date+"T23:59:59Z", nil)
	if err != nil {
		return nil, err
	}
	out.ReportID = reportID
	logger.Info("amazon report created", "date", date, "report_id", reportID)

	report, attempts, err := s.api.WaitForReport(ctx, reportID)
	out.PollingAttempts = attempts
	if err != nil {
		return out, err
	}

	rows, err := s.api.Download(ctx, report.DocumentID())
	if err != nil {
		return out, err
	}
	out.TotalRows = len(rows)
	if len(rows) == 0 {
		logger.Info("amazon report empty", "date", date, "report_id", reportID)
		return out, nil
	}

	res, err := s.sink.AmazonReport(ctx, rows)
	if err != nil {
		return out, err
	}
	out.UpsertedRows = res.Upserted
	return out, nil
}

// DayOutcome is one backfill day, successful or not.
type DayOutcome struct {
	Date    string `json:"date"`
	Success bool   `json:"success"`
	Rows    int    `json:"rows,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Backfill is the outcome of a multi-day pull.
type Backfill struct {
	TargetDate     string       `json:"targetDate"`
	TotalDays      int          `json:"totalDays"`
	SuccessfulDays int          `json:"successfulDays"`
	FailedDays     int          `json:"failedDays"`
	TotalRows      int          `json:"totalRows"`
	Results        []DayOutcome `json:"results"`
	Errors         []DayOutcome `json:"errors"`
}

// Backfill syncs the BackfillDays days before targetDate, newest first.
// A failed day is recorded and the pull moves on. Once the time budget runs
// out, the day in flight and every remaining day are recorded as failed with
// ErrBackfillBudget and the partial summary is returned.
func (s *AmazonSync) Backfill(ctx context.Context, targetDate string) (*Backfill, error) {
	if targetDate == "" {
		targetDate = yesterdayUTC(s.now())
	}
	target, err := parseDay(targetDate)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if s.budget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}

	out := &Backfill{TargetDate: targetDate, Results: []DayOutcome{}, Errors: []DayOutcome{}}
	for i := 1; i <= BackfillDays; i++ {
		date := target.AddDate(0, 0, -i).Format(time.DateOnly)
		if runCtx.Err() != nil && ctx.Err() == nil {
			out.Errors = append(out.Errors, DayOutcome{Date: date, Error: ErrBackfillBudget.Error()})
			continue
		}
		day, err := s.Day(runCtx, date)
		if err != nil {
			if runCtx.Err() != nil && ctx.Err() == nil {
				err = ErrBackfillBudget
			}
			logger.Warn("amazon backfill day failed", "date", date, "error", err)
			out.Errors = append(out.Errors, DayOutcome{Date: date, Error: err.Error()})
		} else {
			out.Results = append(out.Results, DayOutcome{Date: date, Success: true, Rows: day.UpsertedRows})
			out.TotalRows += day.UpsertedRows
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if i < BackfillDays && s.dayDelay > 0 {
			select {
			case <-runCtx.Done():
				if ctx.Err() != nil {
					return out, ctx.Err()
				}
			case <-time.After(s.dayDelay):
			}
		}
	}
	out.TotalDays = BackfillDays
	out.SuccessfulDays = len(out.Results)
	out.FailedDays = len(out.Errors)
	return out, nil
}
