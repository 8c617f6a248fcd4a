package sites

import (
	"context"
	"errors"

	"entrylist/features/engine"
	"entrylist/features/refresh"
	"entrylist/features/site"

	"github.com/rs/zerolog/log"
)

var ErrNotRefreshable = errors.New("site lists cannot be downloaded")

// Refreshable is implemented by sites whose lists can be downloaded without a
// page.
type Refreshable interface {
	Refresh(ctx context.Context, u site.User) (*refresh.Report, error)
	Clear(ctx context.Context, u site.User) error
}

func (r *Registry) refreshable(env *Env, name string) (site.Adapter, Refreshable, error) {
	a, err := r.Adapter(env, name)
	if err != nil {
		return nil, nil, err
	}
	rf, ok := a.(Refreshable)
	if !ok {
		return nil, nil, ErrNotRefreshable
	}
	return a, rf, nil
}

// IsRefreshable reports whether RefreshLists works for name.
func (r *Registry) IsRefreshable(env *Env, name string) bool {
	_, _, err := r.refreshable(env, name)
	return err == nil
}

// RefreshLists downloads the lists of u on site name. A zero u means the last
// user seen on the site.
func (r *Registry) RefreshLists(ctx context.Context, env *Env, name string, u site.User) (*refresh.Report, error) {
	a, rf, err := r.refreshable(env, name)
	if err != nil {
		return nil, err
	}
	if u, err = r.userOrLast(ctx, env, a.Name(), u); err != nil {
		return nil, err
	}

	log.Info().Str("site", a.Name()).Str("user", u.Name).Msg("Refreshing lists")
	return rf.Refresh(ctx, u)
}

// ClearLists removes the downloaded lists of u on site name.
func (r *Registry) ClearLists(ctx context.Context, env *Env, name string, u site.User) error {
	a, rf, err := r.refreshable(env, name)
	if err != nil {
		return err
	}
	if u, err = r.userOrLast(ctx, env, a.Name(), u); err != nil {
		return err
	}
	return rf.Clear(ctx, u)
}

func (r *Registry) userOrLast(ctx context.Context, env *Env, siteName string, u site.User) (site.User, error) {
	if u.Name != "" {
		return u, nil
	}
	name, payload, ok := env.Store.LastUser(ctx, siteName)
	if !ok {
		log.Error().Str("site", siteName).Msg("No user given and none ever seen on site")
		return u, engine.ErrNoUser
	}
	return site.User{Name: name, Payload: payload}, nil
}
