package ports

import "context"

// Address of one discrete signal output.
type SignalAddress struct {
	Bank  int
	Index int
}

// Port: a boundary for driving external signal lights.
type SignalOutput interface {
	// Switch a single output on or off.
	Set(ctx context.Context, addr SignalAddress, on bool) error
}

// Lookup from symbolic signal names to output addresses.
type SignalTable interface {
	Lookup(name string) (SignalAddress, bool)
}
