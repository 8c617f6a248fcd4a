package site

import (
	"slices"
	"strings"
)

const refSep = "|"

// ListRef names one list of one context.
type ListRef struct {
	Context string
	List    string
}

func Ref(ctx, list string) ListRef {
	return ListRef{Context: ctx, List: list}
}

func (r ListRef) String() string {
	return r.Context + refSep + r.List
}

func (r ListRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Membership is the set of lists an entry belongs to.
type Membership map[ListRef]struct{}

func (m Membership) Add(r ListRef) {
	m[r] = struct{}{}
}

func (m Membership) Has(r ListRef) bool {
	_, ok := m[r]
	return ok
}

func (m Membership) HasList(ctx, list string) bool {
	return m.Has(Ref(ctx, list))
}

func (m Membership) Len() int {
	return len(m)
}

// Refs returns the members sorted by context then list.
func (m Membership) Refs() []ListRef {
	refs := make([]ListRef, 0, len(m))
	for r := range m {
		refs = append(refs, r)
	}
	slices.SortFunc(refs, func(a, b ListRef) int {
		if c := strings.Compare(a.Context, b.Context); c != 0 {
			return c
		}
		return strings.Compare(a.List, b.List)
	})
	return refs
}
