package agent

import "errors"

var (
	// ErrNoSession is returned when a turn references an unknown or
	// expired session.
	ErrNoSession = errors.New("no active session")
	// ErrConfigNotFound is returned when a session's configuration can
	// not be resolved from the registry, the config store, or the
	// session's embedded copy.
	ErrConfigNotFound = errors.New("configuration not found")
	// ErrSessionExists is returned by StartSession for an id that is
	// already in use.
	ErrSessionExists = errors.New("session already exists")
)
