package dom

import (
	"slices"
	"strings"

	"entrylist/features/entry"

	"github.com/PuerkitoBio/goquery"
)

const (
	attrProcessed = "data-el-processed"
	attrInvalid   = "data-el-invalid"
	attrType      = "data-el-type"
)

// Node is an entry.Handle over a single element.
type Node struct {
	Sel *goquery.Selection
}

func Wrap(s *goquery.Selection) *Node {
	return &Node{Sel: s.First()}
}

// Selection returns the element behind h, or nil when h is not a Node.
func Selection(h entry.Handle) *goquery.Selection {
	n, ok := h.(*Node)
	if !ok {
		return nil
	}
	return n.Sel
}

func (n *Node) Processed() bool {
	_, ok := n.Sel.Attr(attrProcessed)
	return ok
}

func (n *Node) SetProcessed() {
	n.Sel.SetAttr(attrProcessed, "true")
}

func (n *Node) Invalid() bool {
	_, ok := n.Sel.Attr(attrInvalid)
	return ok
}

func (n *Node) SetInvalid() {
	n.Sel.SetAttr(attrInvalid, "true")
}

func (n *Node) ProcessingType() entry.ProcessingType {
	return entry.ProcessingType(n.Sel.AttrOr(attrType, ""))
}

func (n *Node) SetProcessingType(t entry.ProcessingType) {
	if t == entry.None {
		n.Sel.RemoveAttr(attrType)
		return
	}
	n.Sel.SetAttr(attrType, string(t))
}

// Hops locates the entry n parents above a control.
func Hops(n int) func(*goquery.Selection) (entry.Handle, bool) {
	return func(control *goquery.Selection) (entry.Handle, bool) {
		s := control
		for range n {
			s = s.Parent()
		}
		if s.Length() == 0 {
			return nil, false
		}
		return Wrap(s), true
	}
}

// Closest locates the nearest ancestor of a control matching selector.
func Closest(selector string) func(*goquery.Selection) (entry.Handle, bool) {
	return func(control *goquery.Selection) (entry.Handle, bool) {
		s := control.Closest(selector)
		if s.Length() == 0 {
			return nil, false
		}
		return Wrap(s), true
	}
}

// Style returns one property of the inline style of s.
func Style(s *goquery.Selection, prop string) string {
	for _, decl := range strings.Split(s.AttrOr("style", ""), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == prop {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// SetStyle sets one inline style property of every element of s, keeping the
// others. An empty value removes the property.
func SetStyle(s *goquery.Selection, prop, value string) {
	s.Each(func(_ int, el *goquery.Selection) {
		var decls []string
		for _, decl := range strings.Split(el.AttrOr("style", ""), ";") {
			k, _, ok := strings.Cut(decl, ":")
			if !ok || strings.TrimSpace(k) == prop {
				continue
			}
			decls = append(decls, strings.TrimSpace(decl))
		}
		if value != "" {
			decls = append(decls, prop+": "+value)
		}
		decls = slices.DeleteFunc(decls, func(d string) bool { return d == "" })

		if len(decls) == 0 {
			el.RemoveAttr("style")
			return
		}
		el.SetAttr("style", strings.Join(decls, "; "))
	})
}

func SetOpacity(s *goquery.Selection, value string) {
	SetStyle(s, "opacity", value)
}
