package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/orris-inc/usdtpay/internal/application/payment/dto"
	paymentUsecases "github.com/orris-inc/usdtpay/internal/application/payment/usecases"
)

const orderSheet = "Orders"

var orderHeaders = []interface{}{
	"Order No", "User ID", "Plan ID", "Chain", "Status", "To Address",
	"Amount Due", "Amount Paid", "Credit Grant", "From Address", "Tx Hash",
	"Created At", "Expires At", "Paid At",
}

// OrderXLSXExporter writes admin order listings as a single-sheet workbook.
type OrderXLSXExporter struct {
	loc *time.Location
}

var _ paymentUsecases.OrderExporter = (*OrderXLSXExporter)(nil)

// NewOrderXLSXExporter renders timestamps in loc. A nil loc means UTC.
func NewOrderXLSXExporter(loc *time.Location) *OrderXLSXExporter {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderXLSXExporter{loc: loc}
}

func (e *OrderXLSXExporter) WriteOrders(w io.Writer, orders []*dto.OrderDTO) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), orderSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(orderSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	if err := sw.SetRow("A1", orderHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, o := range orders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, e.row(o)); err != nil {
			return fmt.Errorf("failed to write order %s: %w", o.OrderNo, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (e *OrderXLSXExporter) row(o *dto.OrderDTO) []interface{} {
	return []interface{}{
		o.OrderNo,
		o.UserID,
		o.PlanID,
		o.Chain,
		o.Status,
		o.ToAddress,
		o.AmountDue,
		deref(o.AmountPaid),
		o.CreditGrant,
		deref(o.FromAddress),
		deref(o.TxHash),
		e.formatTime(&o.CreatedAt),
		e.formatTime(&o.ExpiresAt),
		e.formatTime(o.PaidAt),
	}
}

func (e *OrderXLSXExporter) formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(e.loc).Format("2006-01-02 15:04:05")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
