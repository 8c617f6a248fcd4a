package lists

const (
	keySep = "-"

	indexKeyPrefix = "Lists"
	listKeyPrefix  = "List"
)

// Owner scopes lists to one site and one user.
type Owner struct {
	Site string
	User string
}

func (o Owner) ident() string {
	return keySep + o.Site + keySep + o.User
}

// IndexKey is the key holding the array of list names.
func (o Owner) IndexKey() string {
	return indexKeyPrefix + o.ident()
}

// ListPrefix is shared by the body keys of every list of the owner.
func (o Owner) ListPrefix() string {
	return listKeyPrefix + o.ident() + keySep
}

func (o Owner) ListKey(name string) string {
	return o.ListPrefix() + name
}

func LastUserKey(site string) string {
	return site + keySep + "lastUser"
}

func LastUserPayloadKey(site string) string {
	return site + keySep + "lastUserPayload"
}
