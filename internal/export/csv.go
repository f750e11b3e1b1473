// Package export writes orders and feedback as CSV downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/restaurant-mis/internal/domain/feedback"
	"github.com/xenking/restaurant-mis/internal/domain/order"
)

// DateLayout is how timestamps appear in exported rows.
const DateLayout = "02/01/2006, 15:04:05"

// Download filename prefixes.
const (
	OrdersPrefix           = "orders"
	FeedbacksPrefix        = "feedbacks"
	CustomerFeedbackPrefix = "customer_feedback"
)

var (
	orderHeader = []string{
		"Order Number", "Date", "Customer Name", "Phone", "Items", "Total", "Status",
	}
	feedbackHeader = []string{
		"Order Number", "Date", "Customer Name", "Phone", "Overall Rating",
		"Food Quality", "Service Quality", "Delivery Time", "Would Recommend", "Comments",
	}
)

// Filename returns "<prefix>_YYYY-MM-DD.csv" for day.
func Filename(prefix string, day time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, day.Format(time.DateOnly))
}

// ItemsSummary renders order lines as "name (qty x)" joined by "; ".
func ItemsSummary(o order.Order) string {
	parts := make([]string, len(o.Items))
	for i, l := range o.Items {
		parts[i] = fmt.Sprintf("%s (%dx)", l.Name, l.Quantity)
	}
	return strings.Join(parts, "; ")
}

// WriteOrders writes a header row followed by one row per order.
func WriteOrders(w io.Writer, orders []order.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(orderHeader); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, o := range orders {
		row := []string{
			o.OrderNumber,
			o.Date.Format(DateLayout),
			o.Customer.Name,
			o.Customer.Phone,
			ItemsSummary(o),
			o.Total.StringFixed(2),
			string(o.Status),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write order %s", o.OrderNumber)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush")
	}
	return nil
}

// WriteFeedbacks writes a header row followed by one row per feedback.
func WriteFeedbacks(w io.Writer, list []feedback.Feedback) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(feedbackHeader); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, f := range list {
		recommend := "No"
		if f.WouldRecommend {
			recommend = "Yes"
		}
		row := []string{
			f.OrderNumber,
			f.Date.Format(DateLayout),
			f.CustomerName,
			f.CustomerPhone,
			strconv.Itoa(f.Rating),
			strconv.Itoa(f.FoodQuality),
			strconv.Itoa(f.ServiceQuality),
			strconv.Itoa(f.DeliveryTime),
			recommend,
			f.Comments,
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write feedback %s", f.ID)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush")
	}
	return nil
}
