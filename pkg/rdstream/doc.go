// Package rdstream provides an embeddable client for the rdstream screen
// streaming protocol.
//
// A capture host sends its frame dimensions once, then an endless series
// of gzip-compressed raw RGB frames. The client reads the socket on one
// goroutine, decodes on another and hands events to a [Consumer] on a
// third, always in stream order: width, height, then frames.
//
// # Basic Usage
//
//	client, err := rdstream.New(rdstream.Config{Address: "10.0.0.5"},
//	    rdstream.WithConsumer(myConsumer),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal or client.Done() ...
//
//	if err := client.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Errors
//
// Connection and socket failures wrap ErrTransport. A malformed stream ends
// the session with an error wrapping ErrCorruptStream; use errors.As with
// *ProtocolError for the failing state and offset. Both are returned by
// [Client.Wait].
//
// # Lifecycle States
//
// A Client is in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. A stream that ends
// cleanly returns the client to StateStopped; a fatal error leaves it in
// StateCrashed. Either way Start may be called again.
package rdstream
