package receipt

import (
	"bytes"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"

	"github.com/xenking/restaurant-mis/internal/domain/order"
	"github.com/xenking/restaurant-mis/internal/domain/price"
)

// PDF page geometry in millimetres.
const (
	pdfWidth    = 58.0
	pdfMargin   = 3.0
	pdfLineH    = 3.6
	pdfQRSize   = 30.0
	pdfFontSize = 7.5
)

// WritePDF renders o as a single 58 mm wide page whose height fits the
// receipt.
func WritePDF(w io.Writer, opts Options, o order.Order) error {
	var (
		text []pdfLine
		rule = strings.Repeat("-", Width)
	)
	add := func(s string, align string, bold bool) {
		text = append(text, pdfLine{text: s, align: align, bold: bold})
	}

	add(opts.StoreName, "C", true)
	if opts.StorePhone != "" {
		add("Ph: "+opts.StorePhone, "C", false)
	}
	add(rule, "L", false)
	add("Order #: "+o.OrderNumber, "L", false)
	add("Date: "+formatDate(o.Date), "L", false)
	add("Customer: "+o.Customer.Name, "L", false)
	add("Phone: "+o.Customer.Phone, "L", false)
	add(rule, "L", false)
	for _, l := range itemLines(o, price.FormatASCII) {
		add(l.Name, "L", false)
		add(PadLine("  "+l.Detail, l.Amount, Width), "L", false)
	}
	add(rule, "L", false)
	add("TOTAL "+price.FormatASCII(o.Total), "C", true)
	add(rule, "L", false)
	if opts.Footer != "" {
		add(opts.Footer, "C", true)
	}

	var qr []byte
	if opts.Origin != "" {
		png, err := qrcode.Encode(FeedbackURL(opts.Origin, o.OrderNumber), qrcode.Medium, 256)
		if err != nil {
			return errors.Wrap(err, "encode feedback qr")
		}
		qr = png
	}

	height := 2*pdfMargin + float64(len(text))*pdfLineH
	if qr != nil {
		height += pdfLineH + pdfQRSize
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: pdfWidth, Ht: height},
	})
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	inner := pdfWidth - 2*pdfMargin
	for _, l := range text {
		style := ""
		if l.bold {
			style = "B"
		}
		pdf.SetFont("Courier", style, pdfFontSize)
		pdf.CellFormat(inner, pdfLineH, tr(l.text), "", 1, l.align, false, 0, "")
	}

	if qr != nil {
		pdf.SetFont("Courier", "", pdfFontSize)
		pdf.CellFormat(inner, pdfLineH, "Scan to share your feedback", "", 1, "C", false, 0, "")
		opt := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("feedback-qr", opt, bytes.NewReader(qr))
		pdf.ImageOptions("feedback-qr", (pdfWidth-pdfQRSize)/2, pdf.GetY(), pdfQRSize, pdfQRSize, false, opt, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "write pdf")
	}
	return nil
}

type pdfLine struct {
	text  string
	align string
	bold  bool
}
