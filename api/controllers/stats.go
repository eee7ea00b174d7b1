package controllers

import (
	"net/http"

	"github.com/angelmondragon/workshop-backend/api/responses"
	"github.com/angelmondragon/workshop-backend/internal/stats"
	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
)

func StatsSummary(svc stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stats service unavailable"))
			return
		}
		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
