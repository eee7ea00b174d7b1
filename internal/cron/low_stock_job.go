package cron

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/workshop-backend/internal/notifications"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
)

const (
	lowStockJobName    = "low-stock"
	lowStockAlertKind  = "low-stock"
	defaultAlertWindow = 24 * time.Hour
)

type lowStockLister interface {
	ListLowStock(ctx context.Context) ([]models.Part, error)
}

// alertStore remembers which alerts were already sent.
type alertStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	AlertKey(kind, fingerprint string) string
}

type LowStockJobParams struct {
	Logger *logger.Logger
	Parts  lowStockLister
	Sink   notifications.Sink
	// Alerts is optional; without it every run sends the summary.
	Alerts      alertStore
	AlertWindow time.Duration
}

type lowStockJob struct {
	logg   *logger.Logger
	parts  lowStockLister
	sink   notifications.Sink
	alerts alertStore
	window time.Duration
}

func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Parts == nil {
		return nil, fmt.Errorf("part lister required")
	}
	if params.Sink == nil {
		return nil, fmt.Errorf("notification sink required")
	}
	window := params.AlertWindow
	if window <= 0 {
		window = defaultAlertWindow
	}
	return &lowStockJob{
		logg:   params.Logger,
		parts:  params.Parts,
		sink:   params.Sink,
		alerts: params.Alerts,
		window: window,
	}, nil
}

func (j *lowStockJob) Name() string { return lowStockJobName }

// Run sends one summary of parts below min_stock. An identical summary is
// not repeated within the alert window.
func (j *lowStockJob) Run(ctx context.Context) error {
	parts, err := j.parts.ListLowStock(ctx)
	if err != nil {
		return fmt.Errorf("list low stock parts: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "low_stock_parts", len(parts))
	if len(parts) == 0 {
		j.logg.Info(logCtx, "no parts below minimum stock")
		return nil
	}

	key := ""
	if j.alerts != nil {
		key = j.alerts.AlertKey(lowStockAlertKind, fingerprint(parts))
		fresh, err := j.alerts.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), j.window)
		if err != nil {
			return fmt.Errorf("record low stock alert: %w", err)
		}
		if !fresh {
			j.logg.Info(logCtx, "low stock alert already sent")
			return nil
		}
	}

	if err := j.sink.Send(ctx, notifications.LowStockMessage(parts)); err != nil {
		errs := fmt.Errorf("send low stock alert: %w", err)
		if key != "" {
			// forget the alert so the next run retries delivery
			errs = multierr.Append(errs, j.alerts.Del(ctx, key))
		}
		return errs
	}
	j.logg.Info(logCtx, "low stock alert sent")
	return nil
}

// fingerprint identifies a low stock situation by part and available count.
func fingerprint(parts []models.Part) string {
	entries := make([]string, 0, len(parts))
	for _, part := range parts {
		entries = append(entries, fmt.Sprintf("%s:%d", part.Code, part.AvailableStock()))
	}
	sort.Strings(entries)
	sum := sha256.Sum256([]byte(strings.Join(entries, "|")))
	return hex.EncodeToString(sum[:8])
}
