package entry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessingType(t *testing.T) {
	assert.False(t, None.Active())
	assert.True(t, DefaultType.Active())

	removed := ProcessingType("H").Removed()
	assert.Equal(t, ProcessingType("-H"), removed)
	assert.True(t, removed.IsRemoved())
	assert.False(t, removed.Active())
}

func TestMarkers(t *testing.T) {
	var h Handle = &Markers{}

	assert.False(t, h.Processed())
	h.SetProcessed()
	h.SetInvalid()
	h.SetProcessingType("W")

	assert.True(t, h.Processed())
	assert.True(t, h.Invalid())
	assert.Equal(t, ProcessingType("W"), h.ProcessingType())
}
