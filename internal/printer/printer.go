// Package printer delivers ESC/POS payloads to receipt printers that accept
// small writes on a characteristic, the way Bluetooth LE printers do.
package printer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Defaults for BLE receipt printers.
const (
	DefaultChunkSize       = 20
	DefaultChunkDelay      = 50 * time.Millisecond
	DefaultDisconnectDelay = time.Second
)

// Properties describes how a characteristic may be written.
type Properties struct {
	Write                bool
	WriteWithoutResponse bool
}

// Characteristic is a writable endpoint on a connected device.
type Characteristic interface {
	Properties() Properties
	Write(ctx context.Context, p []byte, withResponse bool) error
}

// Service groups characteristics.
type Service interface {
	Characteristics(ctx context.Context) ([]Characteristic, error)
}

// Peripheral is a printer that can be connected to.
type Peripheral interface {
	Name() string
	Connect(ctx context.Context) error
	Services(ctx context.Context) ([]Service, error)
	Disconnect() error
}

// Scanner finds the printer to use. Implementations return *Error with
// KindCancelled or KindNotFound when no device is chosen.
type Scanner interface {
	Request(ctx context.Context) (Peripheral, error)
}

// Options tune delivery.
type Options struct {
	ChunkSize       int
	ChunkDelay      time.Duration
	DisconnectDelay time.Duration
}

func (o *Options) setDefaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkDelay < 0 {
		o.ChunkDelay = 0
	}
	if o.DisconnectDelay < 0 {
		o.DisconnectDelay = 0
	}
}

// Printer streams payloads to the device a Scanner yields.
type Printer struct {
	scanner Scanner
	opts    Options
}

// New creates a Printer.
func New(scanner Scanner, opts Options) *Printer {
	opts.setDefaults()
	return &Printer{scanner: scanner, opts: opts}
}

// Print finds a printer, connects, and writes data in chunks. Chunks that
// fail are logged and skipped; Print fails with KindWriteFailed only if none
// were written. Cancelling ctx aborts discovery and connection only: once
// connected, the job runs to the end so the printer never keeps half a
// receipt.
func (p *Printer) Print(ctx context.Context, data []byte) error {
	lg := zctx.From(ctx)

	dev, err := p.scanner.Request(ctx)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			return err
		}
		if ctx.Err() != nil {
			return newError(KindCancelled, "request", err)
		}
		return newError(KindNotFound, "request", err)
	}

	if err := dev.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return newError(KindCancelled, "connect", err)
		}
		return newError(KindNotFound, "connect", err)
	}
	ctx = context.WithoutCancel(ctx)
	connected := true
	defer func() {
		if connected {
			_ = dev.Disconnect()
		}
	}()

	ch, err := writable(ctx, dev)
	if err != nil {
		return err
	}
	withResponse := !ch.Properties().WriteWithoutResponse

	lg = lg.With(zap.String("printer", dev.Name()))
	lg.Info("Printing", zap.Int("bytes", len(data)))

	written, total := 0, 0
	for off := 0; off < len(data); off += p.opts.ChunkSize {
		end := min(off+p.opts.ChunkSize, len(data))
		total++
		if err := ch.Write(ctx, data[off:end], withResponse); err != nil {
			lg.Warn("Chunk write failed", zap.Int("offset", off), zap.Error(err))
		} else {
			written++
		}
		if end < len(data) {
			pause(p.opts.ChunkDelay)
		}
	}
	if total > 0 && written == 0 {
		return newError(KindWriteFailed, "write", errors.Errorf("all %d chunks failed", total))
	}

	// Let the device drain its buffer before dropping the link.
	pause(p.opts.DisconnectDelay)
	connected = false
	if err := dev.Disconnect(); err != nil {
		lg.Warn("Disconnect failed", zap.Error(err))
	}
	lg.Info("Printed", zap.Int("chunks", total), zap.Int("failed", total-written))
	return nil
}

// writable returns the first characteristic accepting writes.
func writable(ctx context.Context, dev Peripheral) (Characteristic, error) {
	services, err := dev.Services(ctx)
	if err != nil {
		return nil, newError(KindUnsupported, "discover services", err)
	}
	for _, s := range services {
		chars, err := s.Characteristics(ctx)
		if err != nil {
			continue
		}
		for _, c := range chars {
			if props := c.Properties(); props.Write || props.WriteWithoutResponse {
				return c, nil
			}
		}
	}
	return nil, newError(KindUnsupported, "discover services", errors.New("no writable characteristic"))
}

func pause(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
