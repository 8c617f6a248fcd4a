package engine

import (
	"context"

	"entrylist/features/site"

	"github.com/rs/zerolog/log"
)

// GetLoggedUser resolves the user of c and records it as the site's last
// user. When the adapter finds nobody the last user is reused. Sites without a
// resolver get the anonymous user, which is never recorded.
func (e *Engine) GetLoggedUser(ctx context.Context, c *site.Context) error {
	r, ok := c.Adapter.(site.UserResolver)
	if !ok {
		c.User, c.Payload = site.AnonymousUser, ""
		return nil
	}

	u, found := r.ResolveUser(ctx)
	if !found || u.Name == "" {
		last, lastPayload, ok := e.store.LastUser(ctx, c.Name())
		if !ok || last == "" {
			log.Error().Str("site", c.Name()).Msg("Cannot find logged user and no last user is stored")
			return ErrNoUser
		}
		log.Warn().Str("site", c.Name()).Str("user", last).Msg("Cannot find logged user, using last user")
		c.User, c.Payload = last, lastPayload
		return nil
	}

	c.User, c.Payload = u.Name, u.Payload
	if err := e.store.SetLastUser(ctx, c.Name(), u.Name, u.Payload); err != nil {
		log.Warn().Err(err).Str("site", c.Name()).Msg("Could not store last user")
	}
	return nil
}

// GetRemoteUser resolves which user of source c matches the target user. Sites
// without a mapping fall back to the last user seen on c.
func (e *Engine) GetRemoteUser(ctx context.Context, c *site.Context) error {
	if m, ok := c.Adapter.(site.UserMapper); ok {
		target := e.Target()
		if target == nil {
			return ErrNotInitialized
		}

		u, found := m.SourceUser(ctx, target.Name(), site.User{Name: target.User, Payload: target.Payload})
		if !found || u.Name == "" {
			log.Error().Str("source", c.Name()).Str("target_user", target.User).Msg("Cannot map target user to source user")
			return ErrNoRemoteUser
		}
		c.User, c.Payload = u.Name, u.Payload
		return nil
	}

	name, payload, ok := e.store.LastUser(ctx, c.Name())
	if !ok || name == "" {
		log.Error().Str("source", c.Name()).Msg("No user ever seen on source")
		return ErrNoRemoteUser
	}
	c.User, c.Payload = name, payload
	return nil
}
