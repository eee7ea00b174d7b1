package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
)

const (
	weekPeriods  = 8
	monthPeriods = 12
	yearPeriods  = 5
	topLimit     = 5
	costLimit    = 50
)

type Period struct {
	Start time.Time `json:"start"`
	Label string    `json:"label"`
	Total int       `json:"total"`
}

type Count struct {
	Key   string `json:"key"`
	Total int64  `json:"total"`
}

type RepairCost struct {
	RepairID     uuid.UUID       `json:"repair_id"`
	SerialNumber string          `json:"serial_number"`
	Total        decimal.Decimal `json:"total"`
}

// Summary is the dashboard report. Period lists hold the most recent
// periods that have completed repairs, newest first.
type Summary struct {
	CompletedByWeek  []Period     `json:"completed_by_week"`
	CompletedByMonth []Period     `json:"completed_by_month"`
	CompletedByYear  []Period     `json:"completed_by_year"`
	TopDevices       []Count      `json:"top_devices"`
	TopDefects       []Count      `json:"top_defects"`
	ByDifficulty     []Count      `json:"by_difficulty"`
	PartsCost        []RepairCost `json:"parts_cost"`
	GeneratedAt      time.Time    `json:"generated_at"`
}

type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}

type service struct {
	repo *Repository
	loc  *time.Location
	now  func() time.Time
}

// NewService builds the report service. Periods are cut in loc.
func NewService(repo *Repository, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stats repository required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, loc: loc, now: time.Now}, nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	stamps, err := s.repo.CompletedCreatedAt(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed repairs")
	}
	devices, err := s.repo.TopDevices(ctx, topLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "top devices")
	}
	defects, err := s.repo.TopDefects(ctx, topLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "top defects")
	}
	difficulty, err := s.repo.CountByDifficulty(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "difficulty counts")
	}
	costs, err := s.repo.PartsCostByRepair(ctx, costLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parts cost")
	}

	summary := &Summary{
		CompletedByWeek:  bucket(stamps, s.loc, weekStart, weekLabel, weekPeriods),
		CompletedByMonth: bucket(stamps, s.loc, monthStart, monthLabel, monthPeriods),
		CompletedByYear:  bucket(stamps, s.loc, yearStart, yearLabel, yearPeriods),
		TopDevices:       toCounts(devices),
		TopDefects:       toCounts(defects),
		ByDifficulty:     toCounts(difficulty),
		PartsCost:        make([]RepairCost, 0, len(costs)),
		GeneratedAt:      s.now().In(s.loc),
	}
	for _, row := range costs {
		summary.PartsCost = append(summary.PartsCost, RepairCost{
			RepairID:     row.RepairID,
			SerialNumber: row.SerialNumber,
			Total:        row.Total.Round(2),
		})
	}
	return summary, nil
}

func bucket(stamps []time.Time, loc *time.Location, start func(time.Time) time.Time, label func(time.Time) string, limit int) []Period {
	totals := map[time.Time]int{}
	for _, ts := range stamps {
		totals[start(ts.In(loc))]++
	}
	periods := make([]Period, 0, len(totals))
	for begin, total := range totals {
		periods = append(periods, Period{Start: begin, Label: label(begin), Total: total})
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Start.After(periods[j].Start) })
	if len(periods) > limit {
		periods = periods[:limit]
	}
	return periods
}

// weekStart truncates to Monday 00:00, matching ISO weeks.
func weekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func yearStart(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

func weekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func monthLabel(t time.Time) string { return t.Format("2006-01") }

func yearLabel(t time.Time) string { return t.Format("2006") }

func toCounts(rows []countRow) []Count {
	out := make([]Count, 0, len(rows))
	for _, row := range rows {
		out = append(out, Count{Key: row.Name, Total: row.Total})
	}
	return out
}
