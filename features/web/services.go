package web

import (
	"errors"

	"entrylist/features/lists"
	"entrylist/features/sites"
	"entrylist/internal/collector"
)

var ErrMissingService = errors.New("missing service")

type Services struct {
	Registry *sites.Registry
	Env      *sites.Env
}

func NewServices(reg *sites.Registry, env *sites.Env) (*Services, error) {
	if reg == nil || env == nil || env.Store == nil {
		return nil, ErrMissingService
	}
	return &Services{Registry: reg, Env: env}, nil
}

func (s *Services) Store() *lists.Store {
	return s.Env.Store
}

func (s *Services) Metrics() *collector.MetricsCollector {
	return s.Env.Metrics
}
