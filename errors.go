package lrmp

import "errors"

// Errors returned by the lrmp package.
var (
	// ErrNilHandler is returned when a timer is registered without a handler.
	ErrNilHandler = errors.New("lrmp: nil timer handler")

	// ErrNegativeDelay is returned when a timer is registered with a delay below zero.
	ErrNegativeDelay = errors.New("lrmp: negative timer delay")

	// ErrTimerClosed is returned when registering on a closed timer service.
	ErrTimerClosed = errors.New("lrmp: timer service closed")

	// ErrNoTimer is returned when a recovery engine is built without a timer service.
	ErrNoTimer = errors.New("lrmp: no timer service")

	// ErrNoTransmitter is returned when a recovery engine is built without a transmitter.
	ErrNoTransmitter = errors.New("lrmp: no transmitter")

	// ErrBadProfile is returned for a profile with out of range settings.
	ErrBadProfile = errors.New("lrmp: invalid profile")

	// ErrNoPacket is returned when sending a repair that carries no payload.
	ErrNoPacket = errors.New("lrmp: repair has no packet")

	// ErrSessionClosed is returned when using a closed session.
	ErrSessionClosed = errors.New("lrmp: session closed")

	// ErrSessionStarted is returned when starting a session that already has a reader.
	ErrSessionStarted = errors.New("lrmp: session already started")
)
