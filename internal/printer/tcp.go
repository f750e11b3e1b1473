package printer

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/go-faster/errors"
)

// TCPScanner yields a network receipt printer listening on a raw port,
// usually 9100.
type TCPScanner struct {
	Addr        string
	DialTimeout time.Duration
}

// Request returns the configured printer, or KindNotFound if no address is
// set.
func (s TCPScanner) Request(ctx context.Context) (Peripheral, error) {
	if s.Addr == "" {
		return nil, newError(KindNotFound, "request", errors.New("no printer address configured"))
	}
	if err := ctx.Err(); err != nil {
		return nil, newError(KindCancelled, "request", err)
	}
	return &tcpPeripheral{addr: s.Addr, timeout: s.DialTimeout}, nil
}

type tcpPeripheral struct {
	addr    string
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

func (p *tcpPeripheral) Name() string { return p.addr }

func (p *tcpPeripheral) Connect(ctx context.Context) error {
	d := net.Dialer{Timeout: p.timeout}
	conn, err := d.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return errors.Wrapf(err, "dial %s", p.addr)
	}
	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
	return nil
}

func (p *tcpPeripheral) Services(context.Context) ([]Service, error) {
	return []Service{p}, nil
}

func (p *tcpPeripheral) Characteristics(context.Context) ([]Characteristic, error) {
	return []Characteristic{p}, nil
}

func (p *tcpPeripheral) Properties() Properties {
	return Properties{WriteWithoutResponse: true}
}

func (p *tcpPeripheral) Write(ctx context.Context, b []byte, _ bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return errors.New("not connected")
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = p.conn.SetWriteDeadline(deadline)
	}
	_, err := p.conn.Write(b)
	return err
}

func (p *tcpPeripheral) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
