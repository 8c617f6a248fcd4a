package db

type dbOptions struct {
	isTesting  bool
	isReadOnly bool
	inMemory   bool
	path       string
}

type Option func(*dbOptions)

func WithTesting(state bool) Option {
	return func(opts *dbOptions) {
		opts.isTesting = state
	}
}

func WithReadOnly(state bool) Option {
	return func(opts *dbOptions) {
		opts.isReadOnly = state
	}
}

func WithInMemory(state bool) Option {
	return func(opts *dbOptions) {
		opts.inMemory = state
	}
}

// WithPath sets the database file; the default comes from the storage config.
func WithPath(path string) Option {
	return func(opts *dbOptions) {
		opts.path = path
	}
}
