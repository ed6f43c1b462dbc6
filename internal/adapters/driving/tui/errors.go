package tui

import "errors"

var (
	// ErrMissingRetrievalService means NewApp was given no retrieval service.
	ErrMissingRetrievalService = errors.New("tui: retrieval service is required")

	// ErrInvalidPorts means NewApp was given nil ports.
	ErrInvalidPorts = errors.New("tui: invalid ports configuration")
)
