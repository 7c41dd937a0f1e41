package obs

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev, flags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prev)
		log.SetFlags(flags)
	})
	return &buf
}

func TestTimeLogsRequestID(t *testing.T) {
	buf := captureLog(t)
	ctx := WithRequestID(context.Background(), "run-7")

	func() {
		var err error
		defer Time(ctx, "route.cache.Flush")(&err)
	}()

	line := buf.String()
	if !strings.HasPrefix(line, "req_id=run-7 op=route.cache.Flush dur=") {
		t.Fatalf("log line = %q", line)
	}
}

func TestTimeLogsError(t *testing.T) {
	buf := captureLog(t)

	func() {
		err := errors.New("boom")
		defer Time(context.Background(), "signals.Refresh")(&err)
	}()

	if !strings.Contains(buf.String(), "err=boom") {
		t.Fatalf("log line = %q, want err", buf.String())
	}
}
