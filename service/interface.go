package service

// Service is a long-lived subsystem of the studio: audio output, instrument set
//
// Lifecycle:
//  1. Construction
//  2. Init(args...) - configuration from parsed flags/env
//  3. Start() - open devices, launch goroutines
//  4. Stop() - release resources, idempotent
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init and Start before this one
	Dependencies() []string

	Init(args ...any) error
	Start() error

	// Stop must be safe to call more than once
	Stop() error
}
