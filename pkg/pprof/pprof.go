// Package pprof collects runtime profiles of the tool itself and
// writes them to rotating files, so slow or memory-hungry measurement
// runs can be diagnosed after the fact.
//
// Basic usage:
//
//	opts := pprof.DefaultOptions()
//	opts.OutputDir = "./pprof"
//
//	session, err := pprof.StartSession(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Stop()
//
//	// ... run the measurement ...
//
// For command-line wiring, StartGlobal and StopGlobal manage a single
// process-wide session.
package pprof

import (
	"context"
	"errors"
	"sync"
)

var (
	globalMu      sync.Mutex
	globalSession *Session
)

// StartGlobal starts the process-wide profiling session.
func StartGlobal(opts Options) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalSession != nil {
		return errors.New("profiling session already running")
	}

	session, err := StartSession(opts)
	if err != nil {
		return err
	}
	globalSession = session
	return nil
}

// StopGlobal stops the process-wide session. A no-op when none runs.
func StopGlobal() error {
	globalMu.Lock()
	session := globalSession
	globalSession = nil
	globalMu.Unlock()

	if session == nil {
		return nil
	}
	return session.Stop()
}

// GetGlobal returns the process-wide session, or nil.
func GetGlobal() *Session {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalSession
}

// Run profiles fn for its whole duration.
func Run(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	session, err := StartSession(opts)
	if err != nil {
		return err
	}
	defer session.Stop()

	return fn(ctx)
}
