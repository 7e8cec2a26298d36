// Package axtree provides generic search over a serialized accessibility
// tree. The accessibility tree is used instead of CSS selectors because
// the Social Schools frontend generates its class names; role and
// accessible name are the only stable hooks.
package axtree

import "regexp"

// Node is one entry in an accessibility snapshot. Children appear in
// document order.
type Node struct {
	// ID is the snapshot-local node identifier.
	ID string
	// Role is the computed ARIA role, e.g. "button", "image".
	Role string
	// Name is the accessible name. For media previews this embeds the
	// uploaded file's name.
	Name string
	// Disabled reports the node's disabled state, when exposed.
	Disabled bool
	// BackendDOMNodeID links the node back to its DOM element so it can
	// be clicked.
	BackendDOMNodeID int64
	Children         []*Node
}

// Predicate decides whether a node matches a search.
type Predicate func(*Node) bool

// FindFirst returns the first node under root, in pre-order depth-first
// document order, for which pred returns true. It returns nil when no
// node matches or when root is nil.
func FindFirst(root *Node, pred Predicate) *Node {
	if root == nil {
		return nil
	}
	if pred(root) {
		return root
	}
	for _, child := range root.Children {
		if found := FindFirst(child, pred); found != nil {
			return found
		}
	}
	return nil
}

// mediaNameRe matches a filename-like token with a known image or video
// extension inside an accessible name.
var mediaNameRe = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|heic|bmp|mp4|mov|m4v|webm)\b`)

// MediaPreviewButton matches the first clickable media preview in a post:
// a button whose accessible name embeds an uploaded file's name. Clicking
// it opens the lightbox viewer.
func MediaPreviewButton(n *Node) bool {
	if n == nil || n.Role != "button" {
		return false
	}
	return mediaNameRe.MatchString(n.Name)
}

// HasMediaFilename reports whether name embeds a filename-like token with
// an image or video extension.
func HasMediaFilename(name string) bool {
	return mediaNameRe.MatchString(name)
}
