package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/workshop-backend/internal/inventory"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
)

type partLister interface {
	List(ctx context.Context, filter inventory.ListFilter) ([]models.Part, error)
}

type StockAuditJobParams struct {
	Logger *logger.Logger
	Parts  partLister
}

// stockAuditJob reports parts whose counters break 0 <= reserved <= current_stock,
// which only direct database edits can cause.
type stockAuditJob struct {
	logg  *logger.Logger
	parts partLister
}

func NewStockAuditJob(params StockAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Parts == nil {
		return nil, fmt.Errorf("part lister required")
	}
	return &stockAuditJob{logg: params.Logger, parts: params.Parts}, nil
}

func (j *stockAuditJob) Name() string { return "stock-audit" }

func (j *stockAuditJob) Run(ctx context.Context) error {
	parts, err := j.parts.List(ctx, inventory.ListFilter{})
	if err != nil {
		return fmt.Errorf("list parts: %w", err)
	}
	var errs error
	for i := range parts {
		if err := inventory.CheckInvariant(&parts[i]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("part %s: %w", parts[i].Code, err))
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"parts_checked": len(parts),
		"violations":    len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "stock audit complete")
	return errs
}
