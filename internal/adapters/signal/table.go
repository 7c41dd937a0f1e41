package signal

import (
	"fmt"
	"slices"
	"traffic-reroute-service/internal/ports"

	"github.com/samber/lo"
)

// Table maps symbolic signal names to output addresses. It is built once and read only.
type Table map[string]ports.SignalAddress

// NewTable validates entries: names must be non-empty and no two names may share an address.
func NewTable(entries map[string]ports.SignalAddress) (Table, error) {
	byAddr := make(map[ports.SignalAddress]string, len(entries))
	names := lo.Keys(entries)
	slices.Sort(names)

	for _, name := range names {
		addr := entries[name]
		if name == "" {
			return nil, fmt.Errorf("signal table: empty signal name")
		}
		if addr.Bank < 0 || addr.Index < 0 || addr.Index > 99 {
			return nil, fmt.Errorf("signal table: %s: address %d/%d out of range", name, addr.Bank, addr.Index)
		}
		if other, dup := byAddr[addr]; dup {
			return nil, fmt.Errorf("signal table: %s and %s share address %d/%d", other, name, addr.Bank, addr.Index)
		}
		byAddr[addr] = name
	}

	return Table(lo.Assign(entries)), nil
}

func (t Table) Lookup(name string) (ports.SignalAddress, bool) {
	addr, ok := t[name]
	return addr, ok
}

// Addresses returns every address in the table ordered by bank and index.
func (t Table) Addresses() []ports.SignalAddress {
	addrs := lo.Values(t)
	slices.SortFunc(addrs, func(a, b ports.SignalAddress) int {
		if a.Bank != b.Bank {
			return a.Bank - b.Bank
		}
		return a.Index - b.Index
	})
	return addrs
}
