// Package youtube dims the thumbnails of videos that were watched to the end.
package youtube

import (
	"context"

	"entrylist/features/dom"
	"entrylist/features/entry"
	"entrylist/features/site"
)

const Name = "YouTube"

// Watched marks a video whose resume bar is full.
const Watched entry.ProcessingType = "W"

type Adapter struct {
	page *dom.Page
}

func New(page *dom.Page) *Adapter {
	return &Adapter{page: page}
}

func (a *Adapter) Name() string {
	return Name
}

func (a *Adapter) Entries(context.Context) ([]entry.Handle, error) {
	return a.page.Entries("a#thumbnail"), nil
}

// IsValidEntry waits for the overlays, which YouTube fills in after the
// thumbnail shows up.
func (a *Adapter) IsValidEntry(_ context.Context, h entry.Handle) bool {
	s := dom.Selection(h)
	if s == nil {
		return false
	}
	overlays := s.Find("#overlays").First()
	if overlays.Length() == 0 {
		return false
	}
	inner, err := overlays.Html()
	return err == nil && inner != ""
}

func (a *Adapter) Classify(_ context.Context, _ site.Membership, _ entry.Data, h entry.Handle) entry.ProcessingType {
	s := dom.Selection(h)
	if s == nil {
		return entry.None
	}
	progress := s.Find("#overlays #progress").First()
	if progress.Length() > 0 && dom.Style(progress, "width") == "100%" {
		return Watched
	}
	return entry.None
}

func (a *Adapter) Render(_ context.Context, h entry.Handle, _ entry.Data, _ entry.ProcessingType) {
	if s := dom.Selection(h); s != nil {
		dom.SetOpacity(s, ".1")
	}
}
