// Package relay turns the token stream of a chat collaborator into the wire event
// protocol consumed by the browser frontend.
//
// A Relay pulls one event at a time from a types.TokenStream and forwards text
// fragments to a Sink as content events. Diagnostics and whitespace-only fragments are
// dropped. Every stream ends with exactly one terminal event: the [DONE] sentinel
// when the collaborator finished normally, or a single error event when it failed.
// When the sink itself fails the client is gone and nothing further is written.
//
// Basic usage:
//
//	r := relay.New(provider, relay.WithLogger(logger))
//	stats, err := r.Stream(ctx, prompt, sink)
package relay
