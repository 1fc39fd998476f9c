package config

import "time"

// Event bus buffering
const (
	// EventChannelBufferSize is the default event subscription buffer
	EventChannelBufferSize = 100

	// WebSocketSendBufferSize is the event buffer of one websocket client
	WebSocketSendBufferSize = 256
)

// Shutdown timeouts
const (
	// ShutdownHandlerTimeout bounds a single shutdown handler
	ShutdownHandlerTimeout = 5 * time.Second

	// ShutdownTotalTimeout bounds the whole shutdown sequence
	ShutdownTotalTimeout = 15 * time.Second
)
