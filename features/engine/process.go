package engine

import (
	"context"
	"time"

	"entrylist/features/entry"
	"entrylist/features/site"

	"github.com/rs/zerolog/log"
)

// processAll runs one pass. Callers hold e.mu.
func (e *Engine) processAll(ctx context.Context) error {
	defer e.timers.Track("pass")()
	start := time.Now()

	t := e.target.Adapter.(site.Target)
	entries, err := t.Entries(ctx)
	if err != nil {
		log.Error().Err(err).Str("site", t.Name()).Msg("Could not enumerate entries")
		return err
	}

	processed := 0
	for _, h := range entries {
		if e.processOne(ctx, t, h) {
			processed++
		}
	}

	e.metrics.ObservePass(t.Name(), time.Since(start))
	if processed > 0 {
		log.Debug().Str("site", t.Name()).Int("entries", len(entries)).Int("processed", processed).Msg("Pass complete")
	}
	return nil
}

// processOne reports whether h got marked processed.
func (e *Engine) processOne(ctx context.Context, t site.Target, h entry.Handle) bool {
	name := t.Name()
	if h.Processed() || h.Invalid() {
		return false
	}

	if v, ok := t.(site.Validator); ok && !v.IsValidEntry(ctx, h) {
		e.metrics.IncrementSkipped(name, "invalid")
		return false
	}

	var d entry.Data
	if x, ok := t.(site.IdentityExtractor); ok {
		stop := e.timers.Track("identity")
		d, ok = x.ExtractIdentity(ctx, h)
		stop()
		if !ok || !d.Valid() {
			log.Debug().Str("site", name).Msg("Could not determine id")
			e.metrics.IncrementSkipped(name, "unidentified")
			if e.skipUnidentified {
				h.SetInvalid()
			}
			return false
		}
	}

	if f, ok := t.(site.FirstSeer); ok {
		f.OnFirstSeen(ctx, h)
	}

	stop := e.timers.Track("membership")
	m := make(site.Membership)
	for _, c := range e.contexts() {
		c.Memberships(d, m)
	}
	stop()

	var typ entry.ProcessingType
	if cl, ok := t.(site.Classifier); ok {
		typ = cl.Classify(ctx, m, d, h)
	} else if m.Len() > 0 {
		typ = entry.DefaultType
	}

	if typ.Active() {
		stop := e.timers.Track("render")
		t.Render(ctx, h, d, typ)
		stop()
		h.SetProcessingType(typ)
		e.metrics.IncrementRendered(name, string(typ))
	}

	h.SetProcessed()
	e.metrics.IncrementProcessed(name)
	return true
}

// MarkInvalid excludes h from every later pass. It returns false so a
// validity predicate can end with it.
func MarkInvalid(h entry.Handle) bool {
	h.SetInvalid()
	return false
}
