package signal

import (
	"context"
	"errors"
	"fmt"
	"traffic-reroute-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultRedisStateKey = "traffic:signals"
	DefaultRedisChannel  = "traffic:signals:events"
)

// RedisOutput publishes signal changes for remote controllers. The current state of
// every output is kept in a hash keyed "<bank>:<index>", and each change is published
// on a channel in the device line format.
type RedisOutput struct {
	Client  *redis.Client
	Key     string
	Channel string
}

func NewRedisOutput(client *redis.Client) *RedisOutput {
	return &RedisOutput{Client: client, Key: DefaultRedisStateKey, Channel: DefaultRedisChannel}
}

func (o *RedisOutput) Set(ctx context.Context, addr ports.SignalAddress, on bool) error {
	if o.Client == nil {
		return errors.New("redis signal output: client is nil")
	}

	state := 0
	if on {
		state = 1
	}
	field := fmt.Sprintf("%d:%d", addr.Bank, addr.Index)
	msg := fmt.Sprintf("%d%02d%d", addr.Bank, addr.Index, state)

	_, err := o.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, o.Key, field, state)
		p.Publish(ctx, o.Channel, msg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set signal %d/%d: %w", addr.Bank, addr.Index, err)
	}
	return nil
}
