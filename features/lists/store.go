// Package lists persists named membership lists per site and user.
package lists

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"

	"entrylist/features/storage"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// List maps an entry id to a display name or a metadata record.
type List map[string]any

func (l List) Has(id string) bool {
	if id == "" {
		return false
	}
	_, ok := l[id]
	return ok
}

// Store keeps list bodies and their per owner index in kv. Every index
// update runs under the lock of its owner.
type Store struct {
	kv    storage.Store
	locks sync.Map
}

func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

func (s *Store) KV() storage.Store {
	return s.kv
}

func (s *Store) lock(o Owner) func() {
	m, _ := s.locks.LoadOrStore(o.IndexKey(), &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// LoadIndex returns the list names of o. A missing or malformed index is
// rebuilt from the stored keys, so the result is never nil.
func (s *Store) LoadIndex(ctx context.Context, o Owner) []string {
	defer s.lock(o)()
	return s.loadIndex(ctx, o)
}

func (s *Store) loadIndex(ctx context.Context, o Owner) []string {
	raw := storage.Raw(ctx, s.kv, o.IndexKey())
	if raw == nil {
		return s.rebuildIndex(ctx, o)
	}

	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsArray() {
		log.Warn().Str("key", o.IndexKey()).Msg("List index is not an array, rebuilding it")
		return s.rebuildIndex(ctx, o)
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		log.Warn().Err(err).Str("key", o.IndexKey()).Msg("List index holds non-string names, rebuilding it")
		return s.rebuildIndex(ctx, o)
	}

	if names == nil {
		names = []string{}
	}
	return names
}

// RebuildIndex scans every stored key for list bodies of o and persists the
// resulting index.
func (s *Store) RebuildIndex(ctx context.Context, o Owner) []string {
	defer s.lock(o)()
	return s.rebuildIndex(ctx, o)
}

func (s *Store) rebuildIndex(ctx context.Context, o Owner) []string {
	prefix := o.ListPrefix()
	names := []string{}

	for _, key := range storage.ListAllKeys(ctx, s.kv) {
		if name, ok := strings.CutPrefix(key, prefix); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	if err := storage.SetObject(ctx, s.kv, o.IndexKey(), names); err != nil {
		log.Error().Err(err).Str("key", o.IndexKey()).Msg("Could not persist rebuilt list index")
	}

	log.Debug().Str("site", o.Site).Str("user", o.User).Strs("lists", names).Msg("List index rebuilt")
	return names
}

// Load reads one list. ok is false when the body is absent, corrupt or null.
func (s *Store) Load(ctx context.Context, o Owner, name string) (List, bool) {
	l, ok := storage.LoadObject[List](ctx, s.kv, o.ListKey(name))
	if !ok || l == nil {
		return nil, false
	}
	return l, true
}

// LoadAll reads every list named by the index. Lists that cannot be read are
// left out and the index is rebuilt afterwards.
func (s *Store) LoadAll(ctx context.Context, o Owner) map[string]List {
	defer s.lock(o)()

	all := make(map[string]List)
	stale := false

	for _, name := range s.loadIndex(ctx, o) {
		l, ok := s.Load(ctx, o, name)
		if !ok {
			log.Warn().Str("site", o.Site).Str("user", o.User).Str("list", name).Msg("Could not load list")
			stale = true
			continue
		}
		all[name] = l
	}

	if stale {
		s.rebuildIndex(ctx, o)
	}

	return all
}

// Save writes the body of list name and adds name to the index when new.
func (s *Store) Save(ctx context.Context, o Owner, name string, l List) error {
	defer s.lock(o)()
	return s.save(ctx, o, name, l)
}

func (s *Store) save(ctx context.Context, o Owner, name string, l List) error {
	if l == nil {
		l = List{}
	}

	names := s.loadIndex(ctx, o)
	var indexErr error
	if !slices.Contains(names, name) {
		names = append(names, name)
		indexErr = storage.SetObject(ctx, s.kv, o.IndexKey(), names)
	}

	return errors.Join(indexErr, storage.SetObject(ctx, s.kv, o.ListKey(name), l))
}

// Update loads list name, hands it to fn and saves what fn returns, all under
// the lock of o. A missing list reaches fn as an empty one.
func (s *Store) Update(ctx context.Context, o Owner, name string, fn func(List) (List, error)) error {
	defer s.lock(o)()

	l, ok := s.Load(ctx, o, name)
	if !ok {
		l = List{}
	}

	l, err := fn(l)
	if err != nil {
		return err
	}
	return s.save(ctx, o, name, l)
}

// Delete drops name from the index and removes its body. Absent lists are fine.
func (s *Store) Delete(ctx context.Context, o Owner, name string) error {
	defer s.lock(o)()

	names := s.loadIndex(ctx, o)

	var indexErr error
	if i := slices.Index(names, name); i >= 0 {
		names = slices.Delete(names, i, i+1)
		indexErr = storage.SetObject(ctx, s.kv, o.IndexKey(), names)
	}

	return errors.Join(indexErr, s.kv.Delete(ctx, o.ListKey(name)))
}

// DeleteAll removes the index and every list it references.
func (s *Store) DeleteAll(ctx context.Context, o Owner) error {
	defer s.lock(o)()

	names := s.loadIndex(ctx, o)

	errs := []error{s.kv.Delete(ctx, o.IndexKey())}
	for _, name := range names {
		errs = append(errs, s.kv.Delete(ctx, o.ListKey(name)))
	}

	return errors.Join(errs...)
}

// LastUser returns the user last resolved on site, with its payload.
func (s *Store) LastUser(ctx context.Context, site string) (name, payload string, ok bool) {
	name = storage.GetObject(ctx, s.kv, LastUserKey(site), "")
	payload = storage.GetObject(ctx, s.kv, LastUserPayloadKey(site), "")
	return name, payload, name != ""
}

// SetLastUser records name as the last user of site. An empty payload removes
// the stored one.
func (s *Store) SetLastUser(ctx context.Context, site, name, payload string) error {
	err := storage.SetObject(ctx, s.kv, LastUserKey(site), name)

	if payload != "" {
		return errors.Join(err, storage.SetObject(ctx, s.kv, LastUserPayloadKey(site), payload))
	}
	return errors.Join(err, s.kv.Delete(ctx, LastUserPayloadKey(site)))
}
