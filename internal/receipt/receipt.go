// Package receipt renders orders as HTML, PDF and ESC/POS receipts and daily
// sales as a plain-text report.
package receipt

import (
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/xenking/restaurant-mis/internal/domain/order"
	"github.com/xenking/restaurant-mis/internal/domain/price"
)

// Width is the number of characters on a 58 mm thermal roll line.
const Width = 32

// DefaultQREndpoint renders a QR code image for the URL appended to it.
const DefaultQREndpoint = "https://api.qrserver.com/v1/create-qr-code/?size=150x150&data="

const dateLayout = "02/01/2006 15:04"

// Options describes the store printed on every receipt.
type Options struct {
	StoreName  string
	StorePhone string
	// Origin is the public base URL of the storefront, without a trailing
	// slash. It prefixes the feedback link.
	Origin string
	Footer string
	// QREndpoint is an image service URL to which the escaped feedback link is
	// appended. HTML receipts omit the QR code when empty.
	QREndpoint string
	// PrintQR adds a native QR code to ESC/POS receipts.
	PrintQR bool
	// Logo is the raw store logo image (PNG, JPEG or GIF), optional.
	Logo []byte
}

// FeedbackURL returns the link a customer follows to rate the order.
func FeedbackURL(origin, orderNumber string) string {
	return strings.TrimRight(origin, "/") + "/feedback?order=" + url.QueryEscape(orderNumber)
}

// QRImageURL returns the image URL for the order's feedback QR code, or "" if
// no endpoint is configured.
func (o Options) QRImageURL(orderNumber string) string {
	if o.QREndpoint == "" {
		return ""
	}
	return o.QREndpoint + url.QueryEscape(FeedbackURL(o.Origin, orderNumber))
}

// PadLine places left and right on one line of width characters, with at
// least one space between them.
func PadLine(left, right string, width int) string {
	gap := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// Center pads s with leading spaces to center it within width.
func Center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}

// line is one order item as laid out on a receipt.
type line struct {
	Name   string
	Detail string
	Amount string
}

func itemLines(o order.Order, format func(decimal.Decimal) string) []line {
	out := make([]line, len(o.Items))
	for i, l := range o.Items {
		out[i] = line{
			Name:   l.Name,
			Detail: strconv.Itoa(l.Quantity) + " x " + format(price.Parse(l.UnitPriceText)),
			Amount: format(l.Subtotal()),
		}
	}
	return out
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
