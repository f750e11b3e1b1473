package receipt

import (
	"encoding/base64"
	"html/template"
	"io"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/restaurant-mis/internal/domain/order"
	"github.com/xenking/restaurant-mis/internal/domain/price"
)

var htmlTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Receipt #{{.Order.OrderNumber}}</title>
<style>
body { font-family: "Courier New", monospace; width: {{.Width}}ch; margin: 0 auto; font-size: 12px; }
.center { text-align: center; }
.row { display: flex; justify-content: space-between; }
.total { font-size: 18px; font-weight: bold; }
hr { border: none; border-top: 1px dashed #000; }
img.logo { max-width: 180px; max-height: 80px; }
</style>
</head>
<body>
<div class="center">
{{- if .Logo}}
<img class="logo" src="{{.Logo}}" alt="{{.StoreName}}">
{{- else}}
<h2>{{.StoreName}}</h2>
{{- end}}
{{- if .StorePhone}}
<div>Ph: {{.StorePhone}}</div>
{{- end}}
</div>
<hr>
<div>Order #: {{.Order.OrderNumber}}</div>
<div>Date: {{.Date}}</div>
<div>Customer: {{.Order.Customer.Name}}</div>
<div>Phone: {{.Order.Customer.Phone}}</div>
<hr>
{{- range .Lines}}
<div>{{.Name}}</div>
<div class="row"><span>{{.Detail}}</span><span>{{.Amount}}</span></div>
{{- end}}
<hr>
<div class="row total"><span>TOTAL</span><span>{{.Total}}</span></div>
<hr>
{{- if .Footer}}
<div class="center"><strong>{{.Footer}}</strong></div>
{{- end}}
{{- if .QRImage}}
<div class="center">
<p>Scan to share your feedback</p>
<img src="{{.QRImage}}" alt="Feedback QR code" width="150" height="150">
</div>
{{- end}}
</body>
</html>
`))

type htmlData struct {
	Width      int
	StoreName  string
	StorePhone string
	Logo       template.URL
	Order      order.Order
	Date       string
	Lines      []line
	Total      string
	Footer     string
	QRImage    string
}

// WriteHTML renders the screen receipt for o.
func WriteHTML(w io.Writer, opts Options, o order.Order) error {
	data := htmlData{
		Width:      Width,
		StoreName:  opts.StoreName,
		StorePhone: opts.StorePhone,
		Order:      o,
		Date:       formatDate(o.Date),
		Lines:      itemLines(o, price.Format),
		Total:      price.Format(o.Total),
		Footer:     opts.Footer,
		QRImage:    opts.QRImageURL(o.OrderNumber),
	}
	if len(opts.Logo) > 0 {
		mime := http.DetectContentType(opts.Logo)
		data.Logo = template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(opts.Logo))
	}
	if err := htmlTemplate.Execute(w, data); err != nil {
		return errors.Wrap(err, "execute receipt template")
	}
	return nil
}
