package receipt

import (
	"bytes"
	"strings"

	"github.com/xenking/restaurant-mis/internal/domain/order"
	"github.com/xenking/restaurant-mis/internal/domain/price"
)

const (
	esc = 0x1b
	gs  = 0x1d
)

// Alignment values for ESC a.
const (
	AlignLeft   byte = 0
	AlignCenter byte = 1
	AlignRight  byte = 2
)

// QR code parameters for the native print command.
const (
	qrModel2   = 50
	qrSize     = 8
	qrECLevelM = 49
)

// Builder accumulates an ESC/POS command stream.
type Builder struct {
	buf bytes.Buffer
}

// Init resets the printer to its default mode.
func (b *Builder) Init() *Builder {
	b.buf.Write([]byte{esc, '@'})
	return b
}

// Align sets justification for the following lines.
func (b *Builder) Align(a byte) *Builder {
	b.buf.Write([]byte{esc, 'a', a})
	return b
}

// Bold toggles emphasized printing.
func (b *Builder) Bold(on bool) *Builder {
	b.buf.Write([]byte{esc, 'E', flag(on)})
	return b
}

// DoubleSize toggles double width and height characters.
func (b *Builder) DoubleSize(on bool) *Builder {
	var n byte
	if on {
		n = 0x11
	}
	b.buf.Write([]byte{gs, '!', n})
	return b
}

// Line writes s followed by a line feed. Characters the printer cannot
// represent are replaced.
func (b *Builder) Line(s string) *Builder {
	b.buf.WriteString(ASCII(s))
	b.buf.WriteByte('\n')
	return b
}

// Feed advances the paper n lines.
func (b *Builder) Feed(n byte) *Builder {
	b.buf.Write([]byte{esc, 'd', n})
	return b
}

// Raw appends a prebuilt command.
func (b *Builder) Raw(cmd []byte) *Builder {
	b.buf.Write(cmd)
	return b
}

// QR prints data as a model 2 QR code of module size 8 with error
// correction level M.
func (b *Builder) QR(data string) *Builder {
	b.buf.Write([]byte{gs, '(', 'k', 4, 0, 49, 65, qrModel2, 0})
	b.buf.Write([]byte{gs, '(', 'k', 3, 0, 49, 67, qrSize})
	b.buf.Write([]byte{gs, '(', 'k', 3, 0, 49, 69, qrECLevelM})

	n := len(data) + 3
	b.buf.Write([]byte{gs, '(', 'k', byte(n % 256), byte(n / 256), 49, 80, 48})
	b.buf.WriteString(data)

	b.buf.Write([]byte{gs, '(', 'k', 3, 0, 49, 81, 48})
	return b
}

// Cut feeds past the tear bar and cuts the paper.
func (b *Builder) Cut() *Builder {
	b.buf.Write([]byte{gs, 'V', 65, 3})
	return b
}

// Bytes returns the accumulated stream.
func (b *Builder) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

func flag(on bool) byte {
	if on {
		return 1
	}
	return 0
}

// ASCII converts s to printable ASCII, spelling the rupee sign as "Rs." and
// replacing anything else outside the range with '?'.
func ASCII(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == '₹':
			sb.WriteString(price.ASCIISymbol)
		case r == '\n' || (r >= 0x20 && r < 0x7f):
			sb.WriteRune(r)
		default:
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

// boxedHeader frames the store name for printers without a logo.
func boxedHeader(name string) []string {
	inner := Width - 2
	border := "+" + strings.Repeat("-", inner) + "+"
	text := ASCII(name)
	if len(text) > inner {
		text = text[:inner]
	}
	left := (inner - len(text)) / 2
	mid := "|" + strings.Repeat(" ", left) + text + strings.Repeat(" ", inner-left-len(text)) + "|"
	return []string{border, mid, border}
}

// ESCPOS renders o as a printer command stream. logo is a raster command
// from LogoRaster; when empty a boxed text header is printed instead.
func ESCPOS(opts Options, o order.Order, logo []byte) []byte {
	b := &Builder{}
	b.Init().Align(AlignCenter)
	if len(logo) > 0 {
		b.Raw(logo).Line("")
		b.Bold(true).Line(opts.StoreName).Bold(false)
	} else {
		for _, l := range boxedHeader(opts.StoreName) {
			b.Line(l)
		}
	}
	writeBody(b, opts, o)
	return b.Bytes()
}

// ESCPOSSimple renders o without any bitmap, for printers that reject
// raster graphics.
func ESCPOSSimple(opts Options, o order.Order) []byte {
	b := &Builder{}
	b.Init().Align(AlignCenter)
	b.Bold(true).DoubleSize(true).Line(opts.StoreName).DoubleSize(false).Bold(false)
	writeBody(b, opts, o)
	return b.Bytes()
}

func writeBody(b *Builder, opts Options, o order.Order) {
	rule := strings.Repeat("-", Width)

	if opts.StorePhone != "" {
		b.Line("Ph: " + opts.StorePhone)
	}
	b.Align(AlignLeft).Line(rule)
	b.Line("Order #: " + o.OrderNumber)
	b.Line("Date: " + formatDate(o.Date))
	b.Line("Customer: " + o.Customer.Name)
	b.Line("Phone: " + o.Customer.Phone)
	b.Line(rule)

	for _, l := range itemLines(o, price.FormatASCII) {
		b.Line(l.Name)
		b.Line(PadLine("  "+l.Detail, l.Amount, Width))
	}
	b.Line(rule)

	b.Align(AlignCenter).Bold(true).DoubleSize(true)
	b.Line("TOTAL " + price.FormatASCII(o.Total))
	b.DoubleSize(false).Bold(false)
	b.Line(rule)

	if opts.Footer != "" {
		b.Bold(true).Line(opts.Footer).Bold(false)
	}
	if opts.PrintQR {
		b.Line("Scan to share your feedback")
		b.QR(FeedbackURL(opts.Origin, o.OrderNumber)).Line("")
	}
	b.Feed(3).Cut()
}
