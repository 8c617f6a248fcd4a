package site

import (
	"entrylist/features/entry"
	"entrylist/features/lists"
)

// AnonymousUser stands in for sites that have no notion of a logged user.
const AnonymousUser = "_"

// Context binds an adapter to the user and lists of one page session.
type Context struct {
	Adapter Adapter

	User    string
	Payload string
	Lists   map[string]lists.List

	IsEntryPage bool
	PageType    string

	filter *lists.Filter
}

func NewContext(a Adapter) *Context {
	return &Context{
		Adapter:     a,
		Lists:       make(map[string]lists.List),
		IsEntryPage: true,
	}
}

func (c *Context) Name() string {
	if c.Adapter == nil {
		return ""
	}
	return c.Adapter.Name()
}

func (c *Context) Owner() lists.Owner {
	return lists.Owner{Site: c.Name(), User: c.User}
}

// SetLists replaces the loaded lists. A non-nil filter is rebuilt from them.
func (c *Context) SetLists(all map[string]lists.List, withFilter bool) {
	if all == nil {
		all = make(map[string]lists.List)
	}
	c.Lists = all
	c.filter = nil
	if withFilter {
		c.filter = lists.NewFilter(all)
	}
}

// List returns the named list, creating an empty one when missing.
func (c *Context) List(name string) lists.List {
	if c.Lists == nil {
		c.Lists = make(map[string]lists.List)
	}
	l, ok := c.Lists[name]
	if !ok {
		l = lists.List{}
		c.Lists[name] = l
	}
	return l
}

// Remember keeps the filter in sync with an id added outside SetLists.
func (c *Context) Remember(id string) {
	c.filter.Add(id)
}

// InList applies the adapter's membership predicate, or exact id lookup.
func (c *Context) InList(d entry.Data, l lists.List) bool {
	if mc, ok := c.Adapter.(MembershipChecker); ok {
		return mc.InList(d, l)
	}
	return l.Has(d.ID)
}

// Memberships collects every list of c that holds d.
func (c *Context) Memberships(d entry.Data, into Membership) {
	if _, custom := c.Adapter.(MembershipChecker); !custom && !c.filter.MayContain(d.ID) {
		return
	}

	for name, l := range c.Lists {
		if c.InList(d, l) {
			into.Add(Ref(c.Name(), name))
		}
	}
}
