package refresh

import (
	"fmt"
	"strings"

	"entrylist/features/lists"
	"entrylist/internal/csvutil"

	"github.com/rs/zerolog/log"
)

const (
	KindTitles = "Titles"
	KindPeople = "People"
	KindImages = "Images"
)

// Columns holding the id and the display name, per list kind.
var kindColumns = map[string]struct{ id, name string }{
	KindTitles: {id: "Title", name: "Title"},
}

// ParseList reads a CSV export of the given kind. Rows without an id and
// repeated ids are logged and skipped.
func ParseList(body, kind, source string) (lists.List, error) {
	if strings.HasPrefix(body, "<!DOCTYPE html") {
		return nil, ErrHTMLInsteadOfCSV
	}

	cols, ok := kindColumns[kind]
	if !ok {
		return nil, &UnmanagedTypeError{Kind: kind}
	}

	tbl, err := csvutil.ParseTable(body)
	if err != nil {
		return nil, err
	}
	if _, ok := tbl.Columns[cols.id]; !ok {
		return nil, fmt.Errorf("column %q: %w", cols.id, csvutil.ErrNoColumn)
	}

	l := lists.List{}
	for i, row := range tbl.Rows {
		id, _ := tbl.Field(row, cols.id)
		name, _ := tbl.Field(row, cols.name)

		if id == "" {
			log.Warn().Str("source", source).Int("row", i+1).Msg("No id found in list row")
			continue
		}
		if _, dup := l[id]; dup {
			log.Warn().Str("source", source).Int("row", i+1).Str("id", id).Msg("Duplicate id found in list")
			continue
		}
		l[id] = name
	}
	return l, nil
}
