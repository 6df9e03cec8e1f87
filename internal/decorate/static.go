package decorate

import (
	"strings"

	"golang.org/x/net/html"
)

// StaticPopovers bakes popover options into data attributes so the page
// needs no script to show them
type StaticPopovers struct{}

func (StaticPopovers) Attach(el *html.Node, opts PopoverOptions) error {
	if !opts.HTML {
		return nil
	}
	setAttr(el, attrHTML, "true")
	setAttr(el, attrContent, opts.Content)
	return nil
}

// StaticCollapser marks a collapsible section as shown
type StaticCollapser struct{}

func (StaticCollapser) Show(el *html.Node) error {
	class, _ := getAttr(el, "class")
	for _, c := range strings.Fields(class) {
		if c == classShow {
			return nil
		}
	}
	setAttr(el, "class", strings.TrimSpace(class+" "+classShow))
	return nil
}
