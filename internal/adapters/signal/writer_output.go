package signal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"traffic-reroute-service/internal/ports"
)

const (
	DefaultBanner  = "Listening for input..."
	defaultTimeout = 300 * time.Millisecond
)

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// WriterOutput drives signal hardware over a line protocol: one command per line,
// "<bank><index:02d><0|1>\n", each followed by a readback of the device response.
type WriterOutput struct {
	mu      sync.Mutex
	rw      io.ReadWriter
	buf     [256]byte
	Timeout time.Duration
}

func NewWriterOutput(rw io.ReadWriter) *WriterOutput {
	return &WriterOutput{rw: rw, Timeout: defaultTimeout}
}

// Set writes one command and reads the response. A missing response is an error,
// but the command has already been sent.
func (o *WriterOutput) Set(ctx context.Context, addr ports.SignalAddress, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	state := 0
	if on {
		state = 1
	}
	if _, err := fmt.Fprintf(o.rw, "%d%02d%d\n", addr.Bank, addr.Index, state); err != nil {
		return fmt.Errorf("set signal %d/%d: write: %w", addr.Bank, addr.Index, err)
	}

	o.deadline()
	if _, err := o.rw.Read(o.buf[:]); err != nil {
		return fmt.Errorf("set signal %d/%d: no response: %w", addr.Bank, addr.Index, err)
	}
	return nil
}

// WaitReady reads device output until banner appears or ctx is done.
func (o *WriterOutput) WaitReady(ctx context.Context, banner string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var seen []byte
	for !bytes.Contains(seen, []byte(banner)) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("wait for signal device: %w", err)
		}
		o.deadline()
		n, err := o.rw.Read(o.buf[:])
		seen = append(seen, o.buf[:n]...)
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("wait for signal device: %w", io.ErrUnexpectedEOF)
		}
		if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
			return fmt.Errorf("wait for signal device: %w", err)
		}
	}
	return nil
}

// ClearAll switches off every output of banks [0, banks) with indices [0, perBank).
// Failures are collected and returned together.
func (o *WriterOutput) ClearAll(ctx context.Context, banks, perBank int) error {
	var failed int
	var last error
	for bank := 0; bank < banks; bank++ {
		for idx := 0; idx < perBank; idx++ {
			if err := o.Set(ctx, ports.SignalAddress{Bank: bank, Index: idx}, false); err != nil {
				failed++
				last = err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("clear signals: %d outputs failed, last: %w", failed, last)
	}
	return nil
}

func (o *WriterOutput) deadline() {
	if d, ok := o.rw.(readDeadliner); ok && o.Timeout > 0 {
		_ = d.SetReadDeadline(time.Now().Add(o.Timeout))
	}
}
