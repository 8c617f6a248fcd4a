// Package site defines the adapter contract a website plugs into the engine,
// and the per-site Context the engine works with.
package site

import (
	"context"
	"time"

	"entrylist/features/entry"
	"entrylist/features/lists"
)

// User is the account resolved on a site. Payload is opaque to the engine.
type User struct {
	Name    string `json:"name"`
	Payload string `json:"payload,omitempty"`
}

// Adapter is the only method a source site must provide.
type Adapter interface {
	Name() string
}

// Target is a site whose pages the engine scans and renders.
type Target interface {
	Adapter
	Entries(ctx context.Context) ([]entry.Handle, error)
	Render(ctx context.Context, e entry.Handle, d entry.Data, t entry.ProcessingType)
}

// Optional capabilities. The engine discovers them with type assertions.
type (
	PollIntervaler interface {
		// PollInterval below the engine minimum disables re-polling.
		PollInterval() time.Duration
	}

	ScannablePager interface {
		IsEntryPage(ctx context.Context) bool
	}

	PageTyper interface {
		// PageType returns "" when the page is not a management page.
		PageType(ctx context.Context) string
	}

	PageHandler interface {
		HandlePage(ctx context.Context, pageType string, isEntryPage bool)
	}

	Validator interface {
		IsValidEntry(ctx context.Context, e entry.Handle) bool
	}

	FirstSeer interface {
		OnFirstSeen(ctx context.Context, e entry.Handle)
	}

	Classifier interface {
		Classify(ctx context.Context, m Membership, d entry.Data, e entry.Handle) entry.ProcessingType
	}

	UserResolver interface {
		ResolveUser(ctx context.Context) (User, bool)
	}

	IdentityExtractor interface {
		ExtractIdentity(ctx context.Context, e entry.Handle) (entry.Data, bool)
	}

	Unrenderer interface {
		Unrender(ctx context.Context, e entry.Handle, d entry.Data, t entry.ProcessingType)
	}

	MembershipChecker interface {
		InList(d entry.Data, l lists.List) bool
	}

	UserMapper interface {
		SourceUser(ctx context.Context, targetSite string, targetUser User) (User, bool)
	}
)
