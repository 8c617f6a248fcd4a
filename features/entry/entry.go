// Package entry describes the page items the engine works on.
package entry

import "strings"

// ProcessingType selects the visual treatment of an entry. The zero value means
// no treatment.
type ProcessingType string

const (
	None ProcessingType = ""

	// DefaultType is used when neither a classifier nor a toggle names a type.
	DefaultType ProcessingType = "_DEF_"

	removedPrefix = "-"
)

func (t ProcessingType) Active() bool {
	return t != None && !t.IsRemoved()
}

// Removed returns the marker recorded after a toggle took the entry off a list.
func (t ProcessingType) Removed() ProcessingType {
	return removedPrefix + t
}

func (t ProcessingType) IsRemoved() bool {
	return strings.HasPrefix(string(t), removedPrefix)
}

// Data identifies an entry.
type Data struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (d Data) Valid() bool {
	return d.ID != ""
}

// Handle is one entry found on a page. Markers live on the underlying element,
// so a handle obtained on a later scan sees the markers set earlier.
type Handle interface {
	Processed() bool
	SetProcessed()
	Invalid() bool
	SetInvalid()
	ProcessingType() ProcessingType
	SetProcessingType(t ProcessingType)
}

// Markers is an in-memory Handle, handy for adapters whose entries are not
// backed by a document.
type Markers struct {
	processed bool
	invalid   bool
	typ       ProcessingType
}

func (m *Markers) Processed() bool                    { return m.processed }
func (m *Markers) SetProcessed()                      { m.processed = true }
func (m *Markers) Invalid() bool                      { return m.invalid }
func (m *Markers) SetInvalid()                        { m.invalid = true }
func (m *Markers) ProcessingType() ProcessingType     { return m.typ }
func (m *Markers) SetProcessingType(t ProcessingType) { m.typ = t }
