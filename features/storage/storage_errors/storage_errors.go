package storage_errors

import "errors"

var (
	ErrStoreNotInitialized = errors.New("store not initialized")
	ErrKeyNotFound         = errors.New("key not found in store")
	ErrUnknownBackend      = errors.New("unknown storage backend")
)
