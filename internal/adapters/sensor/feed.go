package sensor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"traffic-reroute-service/internal/domain"
)

// ParseLine parses whitespace-separated "id,x,y,velocity" tokens. Tokens that are not
// exactly four numbers, or whose id is not an integer in the uint64 range, are dropped.
func ParseLine(line string) []domain.Detection {
	fields := strings.Fields(line)
	out := make([]domain.Detection, 0, len(fields))

	for _, tok := range fields {
		parts := strings.Split(tok, ",")
		if len(parts) != 4 {
			continue
		}

		id, ok := parseID(parts[0])
		if !ok {
			continue
		}
		var vals [3]float64
		for i, p := range parts[1:] {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}

		out = append(out, domain.Detection{
			ID:       id,
			X:        vals[0],
			Y:        vals[1],
			Velocity: vals[2],
		})
	}

	return out
}

// parseID accepts a decimal integer, or a number like "3.0" with no fractional part.
func parseID(s string) (uint64, bool) {
	if id, err := strconv.ParseUint(s, 10, 64); err == nil {
		return id, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v != math.Trunc(v) || v >= maxIDFloat {
		return 0, false
	}
	return uint64(v), true
}

// Every float64 below 2^64 converts to uint64 without overflow.
const maxIDFloat = 1 << 64

// Feed reads detection lines from r and sends one batch per line on out, including
// empty batches, so the consumer can advance on every frame. It returns when r is
// exhausted or ctx is done. A read blocked on r does not delay the return; the
// reading goroutine exits once r yields or is closed.
func Feed(ctx context.Context, r io.Reader, out chan<- []domain.Detection) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case line := <-lines:
			select {
			case out <- ParseLine(line):
			case <-ctx.Done():
				return nil
			}

		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("sensor feed: read: %w", err)
			}
			return nil
		}
	}
}

// StartCommand launches the detector process and returns its stdout.
// The process is killed when ctx is cancelled.
func StartCommand(ctx context.Context, command string) (io.ReadCloser, *exec.Cmd, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("start sensor command: empty command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("start sensor command %q: stdout pipe: %w", args[0], err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start sensor command %q: %w", args[0], err)
	}
	return stdout, cmd, nil
}
