// Package worker consumes order events from Pub/Sub and adds them to the
// delivery list.
package worker

import "time"

// ReceiveConfig tunes the Pub/Sub subscriber.
type ReceiveConfig struct {
	// MaxOutstandingMessages caps messages being processed at once.
	// Default: 10
	MaxOutstandingMessages int

	// MaxExtension is how long a message's ack deadline is extended while
	// it is being processed.
	// Default: 1 minute
	MaxExtension time.Duration
}

// DefaultReceiveConfig returns the default subscriber settings.
func DefaultReceiveConfig() ReceiveConfig {
	return ReceiveConfig{
		MaxOutstandingMessages: 10,
		MaxExtension:           time.Minute,
	}
}

func (c ReceiveConfig) withDefaults() ReceiveConfig {
	def := DefaultReceiveConfig()
	if c.MaxOutstandingMessages <= 0 {
		c.MaxOutstandingMessages = def.MaxOutstandingMessages
	}
	if c.MaxExtension <= 0 {
		c.MaxExtension = def.MaxExtension
	}
	return c
}
