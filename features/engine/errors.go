package engine

import "errors"

var (
	ErrInvalidAdapter   = errors.New("adapter does not implement the target interface")
	ErrNotInitialized   = errors.New("engine not initialized")
	ErrNoUser           = errors.New("cannot determine logged user")
	ErrNoRemoteUser     = errors.New("cannot determine remote user")
	ErrNoIdentity       = errors.New("cannot determine entry identity")
	ErrIntervalTooShort = errors.New("poll interval below minimum")
)
