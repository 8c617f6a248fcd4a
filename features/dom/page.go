// Package dom holds parsed HTML pages and the entry handles the engine works
// on. Markers are stored as attributes so they survive re-enumeration.
package dom

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"sync"

	"entrylist/features/entry"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	ErrNoHandler = errors.New("no click handler bound to control")
	ErrEmptyPage = errors.New("page has no document")
)

const attrControl = "data-el-control"

// ClickHandler runs when a bound control is clicked.
type ClickHandler func(ctx context.Context, control *goquery.Selection) error

type Page struct {
	URL *url.URL
	Doc *goquery.Document

	mu       sync.Mutex
	handlers map[string]ClickHandler
	next     int
}

func NewPage(doc *goquery.Document, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", rawURL, err)
	}
	if doc.Url == nil {
		doc.Url = u
	}
	return &Page{URL: u, Doc: doc, handlers: make(map[string]ClickHandler)}, nil
}

// Load parses r as the page found at rawURL.
func Load(r io.Reader, rawURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return NewPage(doc, rawURL)
}

func LoadFile(path, rawURL string) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, rawURL)
}

func (p *Page) Find(selector string) *goquery.Selection {
	return p.Doc.Find(selector)
}

// Entries wraps every element matching selector.
func (p *Page) Entries(selector string) []entry.Handle {
	sel := p.Find(selector)
	out := make([]entry.Handle, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, Wrap(s))
	})
	return out
}

// OnClick binds h to control, replacing any earlier binding.
func (p *Page) OnClick(control *goquery.Selection, h ClickHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := control.Attr(attrControl)
	if !ok {
		p.next++
		id = strconv.Itoa(p.next)
		control.SetAttr(attrControl, id)
	}
	p.handlers[id] = h
}

// Click runs the handler bound to the first element of control.
func (p *Page) Click(ctx context.Context, control *goquery.Selection) error {
	id, ok := control.First().Attr(attrControl)
	if !ok {
		return ErrNoHandler
	}

	p.mu.Lock()
	h, ok := p.handlers[id]
	p.mu.Unlock()
	if !ok {
		return ErrNoHandler
	}
	return h(ctx, control.First())
}

// Replace swaps the document. Bindings belong to the old document and are
// dropped.
func (p *Page) Replace(doc *goquery.Document) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if doc.Url == nil {
		doc.Url = p.URL
	}
	p.Doc = doc
	p.handlers = make(map[string]ClickHandler)
}

func (p *Page) Render(w io.Writer) error {
	if p.Doc == nil || len(p.Doc.Nodes) == 0 {
		return ErrEmptyPage
	}
	return html.Render(w, p.Doc.Nodes[0])
}

// HTML returns the annotated document.
func (p *Page) HTML() (string, error) {
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
