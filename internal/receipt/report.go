package receipt

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"

	"github.com/xenking/restaurant-mis/internal/domain/order"
	"github.com/xenking/restaurant-mis/internal/domain/price"
)

const reportRule = "========================================"

// ReportFilename returns "daily_report_YYYY-MM-DD.txt" for day.
func ReportFilename(day time.Time) string {
	return fmt.Sprintf("daily_report_%s.txt", day.Format(time.DateOnly))
}

// DailyReportText renders rep as a plain-text document.
func DailyReportText(rep *order.DailyReport) string {
	var sb strings.Builder

	sb.WriteString("DAILY SALES REPORT\n")
	fmt.Fprintf(&sb, "Date: %s\n", rep.Date.Format("02/01/2006"))
	sb.WriteString(reportRule + "\n\n")

	sb.WriteString("SUMMARY\n")
	fmt.Fprintf(&sb, "Total Orders: %d\n", rep.TotalOrders)
	fmt.Fprintf(&sb, "Total Revenue: %s\n\n", price.Format(rep.TotalRevenue))

	sb.WriteString("TOP ITEMS\n")
	if len(rep.TopItems) == 0 {
		sb.WriteString("No completed sales\n")
	}
	for i, it := range rep.TopItems {
		fmt.Fprintf(&sb, "%d. %s - %d sold (%s)\n", i+1, it.Name, it.Quantity, price.Format(it.Revenue))
	}
	sb.WriteString("\n")

	sb.WriteString("ORDERS\n")
	if len(rep.Orders) == 0 {
		sb.WriteString("No orders\n")
	}
	for _, o := range rep.Orders {
		fmt.Fprintf(&sb, "#%s | %s | %s | %s | %s\n",
			o.OrderNumber,
			o.Date.Format("15:04"),
			o.Customer.Name,
			price.Format(o.Total),
			o.Status,
		)
	}
	sb.WriteString(reportRule + "\n")
	return sb.String()
}

// WriteDailyReportGzip writes the text report gzip-compressed, naming the
// archived file after the report date.
func WriteDailyReportGzip(w io.Writer, rep *order.DailyReport) error {
	zw := pgzip.NewWriter(w)
	zw.Name = ReportFilename(rep.Date)
	zw.ModTime = rep.Date

	if _, err := io.WriteString(zw, DailyReportText(rep)); err != nil {
		_ = zw.Close()
		return errors.Wrap(err, "compress report")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "close gzip writer")
	}
	return nil
}
