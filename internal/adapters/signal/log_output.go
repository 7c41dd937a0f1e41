package signal

import (
	"context"
	"log"
	"traffic-reroute-service/internal/ports"
)

// LogOutput only logs signal changes. Used when no signal hardware is attached.
type LogOutput struct{}

func (LogOutput) Set(_ context.Context, addr ports.SignalAddress, on bool) error {
	log.Printf("op=signals.output bank=%d index=%d on=%t", addr.Bank, addr.Index, on)
	return nil
}
