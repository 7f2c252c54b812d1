// Package hub implements the topic registry using the actor pattern.
//
// A single goroutine owns the subscriber maps and processes subscribe, unsubscribe
// and publish commands from a channel (no mutexes). Each connection gets its own
// write goroutine with a buffered outbound channel, so a slow or stalled client
// never delays delivery to other subscribers: when its buffer fills, the client
// is evicted (implicit unsubscribe).
package hub
