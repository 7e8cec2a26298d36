package axtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id, role, name string, children ...*Node) *Node {
	return &Node{ID: id, Role: role, Name: name, Children: children}
}

func TestFindFirstNilRoot(t *testing.T) {
	assert.Nil(t, FindFirst(nil, func(*Node) bool { return true }))
}

func TestFindFirstRootMatches(t *testing.T) {
	root := node("1", "button", "IMG_2041.jpg")
	found := FindFirst(root, MediaPreviewButton)
	require.NotNil(t, found)
	assert.Equal(t, "1", found.ID)
}

func TestFindFirstPreOrder(t *testing.T) {
	// Both "3" (deep in the first subtree) and "5" (shallow in the
	// second) match; pre-order document order must pick "3".
	root := node("1", "RootWebArea", "",
		node("2", "generic", "",
			node("3", "button", "first"),
		),
		node("4", "generic", "",
			node("5", "button", "second"),
		),
	)

	found := FindFirst(root, func(n *Node) bool { return n.Role == "button" })
	require.NotNil(t, found)
	assert.Equal(t, "3", found.ID)
}

func TestFindFirstChildrenInDocumentOrder(t *testing.T) {
	root := node("1", "RootWebArea", "",
		node("2", "button", "left"),
		node("3", "button", "right"),
	)

	found := FindFirst(root, func(n *Node) bool { return n.Role == "button" })
	require.NotNil(t, found)
	assert.Equal(t, "left", found.Name)
}

func TestFindFirstNoMatch(t *testing.T) {
	root := node("1", "RootWebArea", "",
		node("2", "generic", "",
			node("3", "link", "Open post"),
		),
	)

	assert.Nil(t, FindFirst(root, MediaPreviewButton))
}

func TestFindFirstDeepTree(t *testing.T) {
	// Degenerate chain, match at the bottom.
	leaf := node("match", "button", "photo.png")
	current := leaf
	for i := 0; i < 200; i++ {
		current = node("x", "generic", "", current)
	}

	found := FindFirst(current, MediaPreviewButton)
	require.NotNil(t, found)
	assert.Equal(t, "match", found.ID)
}

func TestMediaPreviewButton(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want bool
	}{
		{"jpg image", node("1", "button", "Bekijk IMG_2041.jpg"), true},
		{"jpeg image", node("1", "button", "foto.JPEG groot"), true},
		{"video file", node("1", "button", "sportdag.mp4"), true},
		{"heic image", node("1", "button", "IMG_0001.HEIC"), true},
		{"wrong role", node("1", "link", "IMG_2041.jpg"), false},
		{"image role", node("1", "image", "IMG_2041.jpg"), false},
		{"no filename", node("1", "button", "Reageer"), false},
		{"extension not a token", node("1", "button", "jpgexport"), false},
		{"nil node", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MediaPreviewButton(tt.node))
		})
	}
}

func TestHasMediaFilename(t *testing.T) {
	assert.True(t, HasMediaFilename("groep4_uitje.webp"))
	assert.True(t, HasMediaFilename("film.MOV"))
	assert.False(t, HasMediaFilename("nieuwsbrief.pdf"))
	assert.False(t, HasMediaFilename(""))
}
