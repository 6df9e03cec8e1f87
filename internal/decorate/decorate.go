// Package decorate applies the page-load decoration of a generated
// documentation page: popover configuration for hint markers and the
// expanded state of the attribute named by the URL fragment.
package decorate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	attrToggle     = "data-bs-toggle"
	attrTarget     = "data-bs-target"
	attrHTML       = "data-bs-html"
	attrContent    = "data-bs-content"
	togglePopover  = "popover"
	fragmentPrefix = "attr-"
	idPrefix       = "attribute-"
	classShow      = "show"
)

var (
	// ErrTargetNotFound means a popover names a target absent from the page
	ErrTargetNotFound = errors.New("popover target not found")

	// ErrInvalidSelector means a popover target is not a valid CSS selector
	ErrInvalidSelector = errors.New("invalid popover target selector")
)

// PopoverOptions configures one popover instance
type PopoverOptions struct {
	// HTML enables markup in the popover body
	HTML bool

	// Content is the popover body; empty keeps the element's own content
	Content string
}

// PopoverFactory attaches a popover to an element
type PopoverFactory interface {
	Attach(el *html.Node, opts PopoverOptions) error
}

// Collapser shows a collapsible section, creating it if needed.
// Showing an already shown section is a no-op.
type Collapser interface {
	Show(el *html.Node) error
}

// ElementError is a decoration failure isolated to one element
type ElementError struct {
	Element string
	Err     error
}

func (e ElementError) Error() string {
	return fmt.Sprintf("%s: %v", e.Element, e.Err)
}

func (e ElementError) Unwrap() error {
	return e.Err
}

// Report summarizes a decoration pass
type Report struct {
	Popovers int
	Failures []ElementError

	// Expanded is the id of the section shown for the fragment, if any
	Expanded string
}

// Decorate configures every popover trigger in doc and expands the
// attribute named by fragment ("#attr-<name>"). A failing element is
// recorded in the report and does not stop the pass.
func Decorate(doc *html.Node, fragment string, popovers PopoverFactory, collapser Collapser) Report {
	var report Report

	for _, el := range findAll(doc, isPopoverTrigger) {
		opts, err := popoverOptions(doc, el)
		if err == nil {
			err = popovers.Attach(el, opts)
		}
		if err != nil {
			failure := ElementError{Element: describe(el), Err: err}
			log.Printf("Warning: Failed to attach popover: %v", failure)
			report.Failures = append(report.Failures, failure)
			continue
		}
		report.Popovers++
	}

	id, ok := FragmentTarget(fragment)
	if !ok {
		return report
	}
	target := findByID(doc, id)
	if target == nil {
		return report
	}
	if err := collapser.Show(target); err != nil {
		failure := ElementError{Element: describe(target), Err: err}
		log.Printf("Warning: Failed to expand attribute: %v", failure)
		report.Failures = append(report.Failures, failure)
		return report
	}
	report.Expanded = id

	return report
}

// DecorateHTML parses a page, decorates it with the static implementations
// and writes the result.
func DecorateHTML(r io.Reader, w io.Writer, fragment string) (Report, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Report{}, fmt.Errorf("failed to parse page: %w", err)
	}

	report := Decorate(doc, fragment, StaticPopovers{}, StaticCollapser{})

	if err := html.Render(w, doc); err != nil {
		return report, fmt.Errorf("failed to render page: %w", err)
	}
	return report, nil
}

// FragmentTarget maps "#attr-<name>" to the element id "attribute-<name>".
// The name is percent-decoded.
func FragmentTarget(fragment string) (string, bool) {
	fragment = strings.TrimPrefix(fragment, "#")
	name, ok := strings.CutPrefix(fragment, fragmentPrefix)
	if !ok || name == "" {
		return "", false
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return idPrefix + name, true
}

func popoverOptions(doc, el *html.Node) (PopoverOptions, error) {
	selector, ok := getAttr(el, attrTarget)
	if !ok {
		return PopoverOptions{}, nil
	}

	// First match in document order, as querySelector does
	sel, err := cascadia.Compile(strings.TrimSpace(selector))
	if err != nil {
		return PopoverOptions{}, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, selector, err)
	}

	target := sel.MatchFirst(doc)
	if target == nil {
		return PopoverOptions{}, fmt.Errorf("%w: %s", ErrTargetNotFound, selector)
	}

	content, err := innerHTML(target)
	if err != nil {
		return PopoverOptions{}, err
	}
	return PopoverOptions{HTML: true, Content: content}, nil
}

func isPopoverTrigger(n *html.Node) bool {
	value, ok := getAttr(n, attrToggle)
	return ok && value == togglePopover
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func findByID(root *html.Node, id string) *html.Node {
	found := findAll(root, func(n *html.Node) bool {
		value, ok := getAttr(n, "id")
		return ok && value == id
	})
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

func innerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render popover content: %w", err)
		}
	}
	return buf.String(), nil
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, value string) {
	for i, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// describe names an element for error reports, e.g. span#hint-1
func describe(n *html.Node) string {
	name := n.Data
	if n.DataAtom != 0 {
		name = n.DataAtom.String()
	}
	if id, ok := getAttr(n, "id"); ok && id != "" {
		return name + "#" + id
	}
	if n.DataAtom == atom.A {
		if href, ok := getAttr(n, "href"); ok {
			return fmt.Sprintf("%s[href=%q]", name, href)
		}
	}
	return name
}
