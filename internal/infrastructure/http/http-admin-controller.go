package http

import (
	"fmt"
	"net/http"
	"time"

	"servicehub/internal/application/command"
	"servicehub/internal/application/query"
	"servicehub/pkg/middleware"
	"servicehub/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// HTTPAdminController handles the admin payout dashboard
type HTTPAdminController struct {
	processHandler  *command.ProcessPayoutHandler
	markPaidHandler *command.MarkPayoutPaidHandler
	listHandler     *query.ListPayoutsHandler
	exportHandler   *query.ExportPayoutsHandler
	logger          zerolog.Logger
}

// NewHTTPAdminController creates a new HTTP admin controller
func NewHTTPAdminController(
	processHandler *command.ProcessPayoutHandler,
	markPaidHandler *command.MarkPayoutPaidHandler,
	listHandler *query.ListPayoutsHandler,
	exportHandler *query.ExportPayoutsHandler,
	logger zerolog.Logger,
) *HTTPAdminController {
	return &HTTPAdminController{
		processHandler:  processHandler,
		markPaidHandler: markPaidHandler,
		listHandler:     listHandler,
		exportHandler:   exportHandler,
		logger:          logger,
	}
}

// ListPayouts handles GET /api/admin/payouts
func (c *HTTPAdminController) ListPayouts(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	views, err := c.listHandler.Handle(r.Context(), &query.ListPayoutsQuery{
		Status: r.URL.Query().Get("status"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, views)
}

// ProcessPayout handles POST /api/admin/payouts/{id}/process
func (c *HTTPAdminController) ProcessPayout(w http.ResponseWriter, r *http.Request) {
	err := c.processHandler.Handle(r.Context(), &command.ProcessPayoutCommand{
		PayoutID: chi.URLParam(r, "id"),
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"message": "payout processing"})
}

// MarkPayoutPaid handles POST /api/admin/payouts/{id}/mark-paid
func (c *HTTPAdminController) MarkPayoutPaid(w http.ResponseWriter, r *http.Request) {
	err := c.markPaidHandler.Handle(r.Context(), &command.MarkPayoutPaidCommand{
		PayoutID: chi.URLParam(r, "id"),
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"message": "payout marked as paid"})
}

// ExportPayouts handles GET /api/admin/payouts/export and streams an xlsx
// workbook of every payout, optionally filtered by status.
func (c *HTTPAdminController) ExportPayouts(w http.ResponseWriter, r *http.Request) {
	f, err := c.exportHandler.Handle(r.Context(), &query.ExportPayoutsQuery{
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("payouts_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := f.Write(w); err != nil {
		// Headers are already out; all we can do is log.
		c.logger.Error().Err(err).Msg("failed to stream payout export")
	}
}
