package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Selector locates nodes inside an HTML document.
// Exactly one of XPath or CSS must be set.
type Selector struct {
	// XPath is an XPath 1.0 expression. Row-scoped selectors should start
	// with "./" or ".//"; a leading "//" always searches the whole document.
	XPath string `yaml:"xpath,omitempty" json:"xpath,omitempty"`

	// CSS is a CSS selector, matched against descendants of the context node.
	CSS string `yaml:"css,omitempty" json:"css,omitempty"`

	// Attr, when set, makes Value return this attribute of the first match
	// instead of its text.
	Attr string `yaml:"attr,omitempty" json:"attr,omitempty"`
}

// XPathSelector is shorthand for Selector{XPath: expr}.
func XPathSelector(expr string) Selector {
	return Selector{XPath: expr}
}

// CSSSelector is shorthand for Selector{CSS: expr}.
func CSSSelector(expr string) Selector {
	return Selector{CSS: expr}
}

// IsZero reports whether no expression is set.
func (s Selector) IsZero() bool {
	return s.XPath == "" && s.CSS == ""
}

// String returns the expression with its dialect, for logs and errors.
func (s Selector) String() string {
	var expr string
	switch {
	case s.XPath != "":
		expr = "xpath:" + s.XPath
	case s.CSS != "":
		expr = "css:" + s.CSS
	default:
		return "<empty>"
	}
	if s.Attr != "" {
		expr += "@" + s.Attr
	}
	return expr
}

// Validate compiles the expression without evaluating it.
func (s Selector) Validate() error {
	switch {
	case s.XPath != "" && s.CSS != "":
		return ErrAmbiguousSelector
	case s.XPath != "":
		if _, err := xpath.Compile(s.XPath); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSelector, s, err)
		}
	case s.CSS != "":
		if _, err := cascadia.Compile(s.CSS); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSelector, s, err)
		}
	default:
		return ErrEmptySelector
	}
	return nil
}

// All returns every node matched under n, in document order.
// A nil n matches nothing.
func (s Selector) All(n *html.Node) ([]*html.Node, error) {
	if s.XPath != "" && s.CSS != "" {
		return nil, ErrAmbiguousSelector
	}
	if n == nil {
		return nil, nil
	}

	switch {
	case s.XPath != "":
		nodes, err := htmlquery.QueryAll(n, s.XPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSelector, s, err)
		}
		return nodes, nil
	case s.CSS != "":
		return goquery.NewDocumentFromNode(n).Find(s.CSS).Nodes, nil
	default:
		return nil, ErrEmptySelector
	}
}

// Value returns the text (or Attr) of the first node matched under n.
// No match yields an empty string and no error.
func (s Selector) Value(n *html.Node) (string, error) {
	nodes, err := s.All(n)
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", nil
	}

	first := nodes[0]
	if s.Attr != "" {
		return strings.TrimSpace(htmlquery.SelectAttr(first, s.Attr)), nil
	}
	return Text(first), nil
}

// Text returns the inner text of n with runs of whitespace collapsed.
// Attribute nodes returned by an "@name" XPath yield the attribute value.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	return strings.Join(strings.Fields(htmlquery.InnerText(n)), " ")
}

// Parse parses an HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

// ParseBytes parses an HTML document held in memory.
func ParseBytes(body []byte) (*html.Node, error) {
	return Parse(bytes.NewReader(body))
}

// ParseDocument parses a response body, decoding it from the charset
// named in contentType or declared in the document. UTF-8 is assumed when
// neither says otherwise.
func ParseDocument(body []byte, contentType string) (*html.Node, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode html: %w", err)
	}
	return Parse(r)
}

// Attr returns the trimmed value of attribute key on n, or "" when absent.
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.SelectAttr(n, key))
}
