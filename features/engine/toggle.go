package engine

import (
	"context"

	"entrylist/features/entry"
	"entrylist/features/lists"
	"entrylist/features/site"

	"github.com/rs/zerolog/log"
)

type toggleOptions struct {
	list string
	typ  entry.ProcessingType
}

type ToggleOption func(*toggleOptions)

// InList names the list a toggle works on.
func InList(name string) ToggleOption {
	return func(o *toggleOptions) {
		o.list = name
	}
}

// AsType names the processing type applied when the entry is added.
func AsType(t entry.ProcessingType) ToggleOption {
	return func(o *toggleOptions) {
		o.typ = t
	}
}

func newToggleOptions(opts []ToggleOption) toggleOptions {
	o := toggleOptions{list: DefaultList, typ: entry.DefaultType}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Toggle adds h to a list of the target, or removes it when already there, and
// updates its rendering. It reports whether h was added.
func (e *Engine) Toggle(ctx context.Context, h entry.Handle, opts ...ToggleOption) (bool, error) {
	o := newToggleOptions(opts)

	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.target
	if c == nil {
		return false, ErrNotInitialized
	}
	t := c.Adapter.(site.Target)

	var d entry.Data
	if x, ok := t.(site.IdentityExtractor); ok {
		d, _ = x.ExtractIdentity(ctx, h)
	}
	if !d.Valid() {
		log.Error().Str("site", c.Name()).Msg("Cannot toggle entry, could not determine id")
		return false, ErrNoIdentity
	}

	l := c.List(o.list)
	added := !l.Has(d.ID)
	if added {
		l[d.ID] = map[string]any{"id": d.ID, "name": d.Name}
		c.Remember(d.ID)
		t.Render(ctx, h, d, o.typ)
		h.SetProcessingType(o.typ)
	} else {
		delete(l, d.ID)
		if u, ok := t.(site.Unrenderer); ok {
			u.Unrender(ctx, h, d, o.typ)
		}
		h.SetProcessingType(o.typ.Removed())
	}

	e.metrics.IncrementToggle(c.Name(), toggleAction(added))
	log.Info().
		Str("site", c.Name()).
		Str("list", o.list).
		Str("id", d.ID).
		Str("action", toggleAction(added)).
		Msg("Entry toggled")

	if err := e.store.Save(ctx, c.Owner(), o.list, l); err != nil {
		log.Error().Err(err).Str("list", o.list).Msg("Could not save list after toggle")
		return added, err
	}
	return added, nil
}

// Toggler binds a control type to the entries it belongs to. The returned
// function is what a click on control runs.
func Toggler[C any](e *Engine, locate func(C) (entry.Handle, bool), opts ...ToggleOption) func(context.Context, C) (bool, error) {
	return func(ctx context.Context, control C) (bool, error) {
		h, ok := locate(control)
		if !ok {
			log.Error().Msg("Cannot find the entry of the clicked control")
			return false, ErrNoIdentity
		}
		return e.Toggle(ctx, h, opts...)
	}
}

// ToggleData flips d on a stored list without any page. It reports whether d
// was added.
func ToggleData(ctx context.Context, s *lists.Store, o lists.Owner, d entry.Data, list string) (bool, error) {
	if !d.Valid() {
		return false, ErrNoIdentity
	}
	if list == "" {
		list = DefaultList
	}

	var added bool
	err := s.Update(ctx, o, list, func(l lists.List) (lists.List, error) {
		added = !l.Has(d.ID)
		if added {
			l[d.ID] = map[string]any{"id": d.ID, "name": d.Name}
		} else {
			delete(l, d.ID)
		}
		return l, nil
	})
	return added, err
}

func toggleAction(added bool) string {
	if added {
		return "add"
	}
	return "remove"
}
