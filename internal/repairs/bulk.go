package repairs

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
)

// BulkItem is the outcome for one repair of a bulk action.
type BulkItem struct {
	RepairID uuid.UUID      `json:"repair_id"`
	OK       bool           `json:"ok"`
	Code     pkgerrors.Code `json:"code,omitempty"`
	Error    string         `json:"error,omitempty"`
	Details  any            `json:"details,omitempty"`
	err      error
}

// BulkResult collects per-repair outcomes. One failure never stops the rest.
type BulkResult struct {
	Action    string     `json:"action"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Items     []BulkItem `json:"items"`
}

// Err combines every failure, or nil when all repairs succeeded.
func (r *BulkResult) Err() error {
	var errs error
	for _, item := range r.Items {
		if item.err != nil {
			errs = multierr.Append(errs, item.err)
		}
	}
	return errs
}

func (s *service) bulk(ctx context.Context, action string, ids []uuid.UUID, run func(context.Context, uuid.UUID) error) *BulkResult {
	result := &BulkResult{Action: action, Items: make([]BulkItem, 0, len(ids))}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		item := BulkItem{RepairID: id, OK: true}
		if err := run(ctx, id); err != nil {
			item.OK = false
			item.err = err
			item.Error = err.Error()
			if typed := pkgerrors.As(err); typed != nil {
				item.Code = typed.Code()
				item.Error = typed.Message()
				item.Details = typed.Details()
			}
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Items = append(result.Items, item)
	}

	if err := result.Err(); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"action":    action,
			"succeeded": result.Succeeded,
			"failed":    result.Failed,
		})
		s.logg.Warn(logCtx, "bulk repair action finished with failures: "+err.Error())
	}
	return result
}
