package printer

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockCharacteristic struct {
	props  Properties
	failAt map[int]bool

	mu     sync.Mutex
	calls  int
	chunks [][]byte
}

func (c *mockCharacteristic) Properties() Properties { return c.props }

func (c *mockCharacteristic) Write(_ context.Context, p []byte, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.calls
	c.calls++
	if c.failAt[idx] {
		return errors.New("gatt write error")
	}
	c.chunks = append(c.chunks, bytes.Clone(p))
	return nil
}

type mockService struct {
	chars []Characteristic
}

func (s *mockService) Characteristics(context.Context) ([]Characteristic, error) {
	return s.chars, nil
}

type mockPeripheral struct {
	services     []Service
	connectErr   error
	disconnected int
}

func (p *mockPeripheral) Name() string                  { return "MTP-II" }
func (p *mockPeripheral) Connect(context.Context) error { return p.connectErr }
func (p *mockPeripheral) Services(context.Context) ([]Service, error) {
	return p.services, nil
}

func (p *mockPeripheral) Disconnect() error {
	p.disconnected++
	return nil
}

type mockScanner struct {
	dev Peripheral
	err error
}

func (s mockScanner) Request(context.Context) (Peripheral, error) { return s.dev, s.err }

// --- Helpers ---

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func deviceWith(chars ...Characteristic) *mockPeripheral {
	return &mockPeripheral{services: []Service{
		&mockService{},
		&mockService{chars: chars},
	}}
}

// --- Tests ---

func TestPrint_ChunksPayload(t *testing.T) {
	readOnly := &mockCharacteristic{}
	ch := &mockCharacteristic{props: Properties{WriteWithoutResponse: true}}
	dev := deviceWith(readOnly, ch)

	p := New(mockScanner{dev: dev}, Options{})
	p.opts.ChunkDelay, p.opts.DisconnectDelay = 0, 0

	data := payload(45)
	require.NoError(t, p.Print(context.Background(), data))

	require.Len(t, ch.chunks, 3)
	assert.Len(t, ch.chunks[0], 20)
	assert.Len(t, ch.chunks[1], 20)
	assert.Len(t, ch.chunks[2], 5)
	assert.Equal(t, data, bytes.Join(ch.chunks, nil))
	assert.Zero(t, readOnly.calls)
	assert.Equal(t, 1, dev.disconnected)
}

func TestPrint_SkipsFailedChunks(t *testing.T) {
	ch := &mockCharacteristic{props: Properties{Write: true}, failAt: map[int]bool{1: true}}
	p := New(mockScanner{dev: deviceWith(ch)}, Options{ChunkSize: 10})

	require.NoError(t, p.Print(context.Background(), payload(30)))
	assert.Equal(t, 3, ch.calls)
	require.Len(t, ch.chunks, 2)
	assert.Equal(t, payload(10), ch.chunks[0])
	assert.Equal(t, payload(30)[20:], ch.chunks[1])
}

func TestPrint_AllChunksFail(t *testing.T) {
	ch := &mockCharacteristic{props: Properties{Write: true}, failAt: map[int]bool{0: true, 1: true}}
	p := New(mockScanner{dev: deviceWith(ch)}, Options{ChunkSize: 10})

	err := p.Print(context.Background(), payload(15))
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindWriteFailed, perr.Kind)
	assert.Equal(t, OutcomeFailed, OutcomeOf(err))
}

func TestPrint_Errors(t *testing.T) {
	tests := []struct {
		name    string
		scanner Scanner
		kind    Kind
		outcome Outcome
	}{
		{
			name:    "user cancelled chooser",
			scanner: mockScanner{err: newError(KindCancelled, "request", nil)},
			kind:    KindCancelled,
			outcome: OutcomeCancelled,
		},
		{
			name:    "scan failed",
			scanner: mockScanner{err: errors.New("adapter off")},
			kind:    KindNotFound,
			outcome: OutcomeNotFound,
		},
		{
			name:    "connect failed",
			scanner: mockScanner{dev: &mockPeripheral{connectErr: errors.New("timeout")}},
			kind:    KindNotFound,
			outcome: OutcomeNotFound,
		},
		{
			name:    "no writable characteristic",
			scanner: mockScanner{dev: deviceWith(&mockCharacteristic{})},
			kind:    KindUnsupported,
			outcome: OutcomeFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.scanner, Options{}).Print(context.Background(), payload(5))
			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, tt.outcome, OutcomeOf(err))
			assert.NotEmpty(t, OutcomeOf(err).Message())
		})
	}
}

func TestPrint_RunsToCompletionAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := &mockCharacteristic{props: Properties{Write: true}}
	dev := deviceWith(ch)
	p := New(mockScanner{dev: dev}, Options{ChunkSize: 1, ChunkDelay: 20 * time.Millisecond})
	p.opts.DisconnectDelay = 0

	done := make(chan error, 1)
	go func() { done <- p.Print(ctx, payload(3)) }()

	require.Eventually(t, func() bool {
		ch.mu.Lock()
		defer ch.mu.Unlock()
		return ch.calls >= 1
	}, time.Second, time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, payload(3), bytes.Join(ch.chunks, nil))
	assert.Equal(t, 1, dev.disconnected)
}

func TestPrint_CancelledBeforeConnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dev := &mockPeripheral{connectErr: context.Canceled}
	err := New(mockScanner{dev: dev}, Options{}).Print(ctx, payload(3))
	assert.Equal(t, OutcomeCancelled, OutcomeOf(err))
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomePrinted, OutcomeOf(nil))
	assert.Equal(t, OutcomeFailed, OutcomeOf(errors.New("boom")))
	wrapped := errors.Wrap(newError(KindNotFound, "request", nil), "print receipt")
	assert.Equal(t, OutcomeNotFound, OutcomeOf(wrapped))
}

func TestTCPScanner(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		b, _ := io.ReadAll(conn)
		received <- b
	}()

	p := New(TCPScanner{Addr: ln.Addr().String(), DialTimeout: time.Second}, Options{ChunkSize: 7})
	p.opts.ChunkDelay, p.opts.DisconnectDelay = 0, 0

	data := payload(50)
	require.NoError(t, p.Print(context.Background(), data))

	select {
	case got := <-received:
		assert.Equal(t, data, got)
	case <-time.After(5 * time.Second):
		t.Fatal("printer did not receive data")
	}
}

func TestTCPScanner_NoAddress(t *testing.T) {
	err := New(TCPScanner{}, Options{}).Print(context.Background(), payload(1))
	assert.Equal(t, OutcomeNotFound, OutcomeOf(err))
}
