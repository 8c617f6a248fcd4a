package dom

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"entrylist/features/entry"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gallery = `<html><body>
<div class="row">
  <div class="card" id="c1"><div class="inner"><span class="btn">H</span></div></div>
  <div class="card" id="c2" style="color: red"><div class="inner"></div></div>
</div>
</body></html>`

func loadGallery(t *testing.T) *Page {
	t.Helper()
	p, err := Load(strings.NewReader(gallery), "https://www.example.com/browse")
	require.NoError(t, err)
	return p
}

func TestMarkersSurviveReEnumeration(t *testing.T) {
	p := loadGallery(t)

	first := p.Entries(".card")
	require.Len(t, first, 2)
	first[0].SetProcessed()
	first[1].SetInvalid()
	first[0].SetProcessingType("H")

	again := p.Entries(".card")
	assert.True(t, again[0].Processed())
	assert.False(t, again[0].Invalid())
	assert.True(t, again[1].Invalid())
	assert.Equal(t, entry.ProcessingType("H"), again[0].ProcessingType())

	again[0].SetProcessingType(entry.None)
	assert.Equal(t, entry.None, first[0].ProcessingType())
}

func TestLocators(t *testing.T) {
	p := loadGallery(t)
	btn := p.Find(".btn")

	h, ok := Hops(2)(btn)
	require.True(t, ok)
	assert.Equal(t, "c1", Selection(h).AttrOr("id", ""))

	h, ok = Closest(".card")(btn)
	require.True(t, ok)
	assert.Equal(t, "c1", Selection(h).AttrOr("id", ""))

	_, ok = Closest(".missing")(btn)
	assert.False(t, ok)

	_, ok = Hops(50)(btn)
	assert.False(t, ok)
}

func TestClick(t *testing.T) {
	p := loadGallery(t)
	btn := p.Find(".btn")
	ctx := context.Background()

	assert.ErrorIs(t, p.Click(ctx, btn), ErrNoHandler)

	clicks := 0
	p.OnClick(btn, func(ctx context.Context, control *goquery.Selection) error {
		clicks++
		return nil
	})
	require.NoError(t, p.Click(ctx, p.Find(".btn")))
	require.NoError(t, p.Click(ctx, p.Find(".btn")))
	assert.Equal(t, 2, clicks)
}

func TestStyle(t *testing.T) {
	p := loadGallery(t)
	card := p.Find("#c2")

	SetOpacity(card, ".1")
	assert.Equal(t, ".1", Style(card, "opacity"))
	assert.Equal(t, "red", Style(card, "color"))

	SetOpacity(card, "1")
	assert.Equal(t, "color: red; opacity: 1", card.AttrOr("style", ""))

	SetStyle(card, "color", "")
	SetStyle(card, "opacity", "")
	_, ok := card.Attr("style")
	assert.False(t, ok)
}

func TestHTML(t *testing.T) {
	p := loadGallery(t)
	p.Entries(".card")[0].SetProcessed()

	out, err := p.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, `id="c1" data-el-processed="true"`)
	assert.Equal(t, "www.example.com", p.URL.Host)
}

func TestFilePageReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(gallery), 0o644))

	fp, err := OpenFile(path, "https://www.example.com/")
	require.NoError(t, err)
	assert.Equal(t, 2, fp.Find(".card").Length())

	changed, err := fp.Reload()
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(path, []byte(`<div class="card"></div>`), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	changed, err = fp.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, fp.Find(".card").Length())
}
