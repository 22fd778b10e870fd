// Package rdstream decodes the rdstream screen streaming protocol.
//
// Example usage:
//
//	err := rdstream.Run(ctx, rdstream.Config{Address: "10.0.0.5"}, consumer)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For lifecycle control and options use pkg/rdstream directly.
package rdstream

import (
	"context"
	"errors"

	"github.com/bft-labs/rdstream/pkg/rdstream"
)

// Config holds the connection settings.
type Config = rdstream.Config

// Consumer receives the handshake and decoded frames in stream order.
type Consumer = rdstream.Consumer

// FrameEvent carries one decoded payload.
type FrameEvent = rdstream.FrameEvent

// DefaultPort is the port capture hosts listen on.
const DefaultPort = rdstream.DefaultPort

// Run connects and decodes until the stream ends, ctx is canceled or the
// stream turns out to be corrupt. It returns nil in the first two cases.
func Run(ctx context.Context, cfg Config, consumer Consumer, opts ...rdstream.Option) error {
	opts = append(opts, rdstream.WithConsumer(consumer))
	client, err := rdstream.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := client.Start(ctx); err != nil {
		return err
	}

	select {
	case <-client.Done():
		return client.Wait()
	case <-ctx.Done():
		if err := client.Stop(); err != nil && !errors.Is(err, rdstream.ErrNotRunning) {
			return err
		}
		return client.Wait()
	}
}
