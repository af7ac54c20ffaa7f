package query

import (
	"context"
	"fmt"
	"time"

	"servicehub/internal/domain/aggregate"
	"servicehub/internal/domain/repository"
	"servicehub/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// ExportPayoutsQuery produces the reconciliation spreadsheet the admin team
// checks against the gateway's settlement report
type ExportPayoutsQuery struct {
	Status string `json:"status,omitempty"`
}

// ExportPayoutsHandler writes payouts into an xlsx workbook
type ExportPayoutsHandler struct {
	uowFactory repository.UnitOfWorkFactory
}

// NewExportPayoutsHandler creates a new export payouts handler
func NewExportPayoutsHandler(uowFactory repository.UnitOfWorkFactory) *ExportPayoutsHandler {
	return &ExportPayoutsHandler{uowFactory: uowFactory}
}

var payoutExportHeader = []string{
	"Payout ID", "Provider ID", "Booking ID", "Payment ID",
	"Amount", "Status", "Bank", "Account Number", "Account Name",
	"Transfer Code", "Fail Reason", "Created", "Completed",
}

// Handle processes the export payouts query. The caller owns closing the
// returned file.
func (h *ExportPayoutsHandler) Handle(ctx context.Context, query *ExportPayoutsQuery) (*excelize.File, error) {
	if query == nil {
		query = &ExportPayoutsQuery{}
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	var payouts []*aggregate.Payout
	var err error

	if query.Status != "" {
		payouts, err = uow.PayoutRepository().GetByStatus(ctx, aggregate.PayoutStatus(query.Status))
	} else {
		// The export is a full dump; pagination would split the ledger.
		payouts, err = uow.PayoutRepository().GetAll(ctx, 0, 0)
	}
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to load payouts: %v", err))
	}

	f := excelize.NewFile()
	const sheet = "Payouts"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, title := range payoutExportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}

	for i, p := range payouts {
		row := i + 2
		bank := p.Bank()
		values := []interface{}{
			p.ID(), p.ProviderID(), p.BookingID(), p.PaymentID(),
			p.Amount(), string(p.Status()), bank.BankName, bank.AccountNumber, bank.AccountName,
			p.TransferCode(), p.FailReason(),
			p.CreatedAt().Format(time.RFC3339), formatOptionalTime(p.CompletedAt()),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f, nil
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
