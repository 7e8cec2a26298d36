package browser

import (
	"context"
	"encoding/json"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/chromedp"

	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/axtree"
	errs "github.com/FooBarWidget/social-schools-photos-downloader/pkg/errors"
)

// Snapshot captures the page's full accessibility tree
func (s *Session) Snapshot() (*axtree.Node, error) {
	var nodes []*accessibility.Node
	err := s.run(0, "accessibility snapshot", chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		nodes, err = accessibility.GetFullAXTree().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return buildTree(nodes)
}

// buildTree links the flat CDP node list into a tree in document order.
// Ignored nodes are kept; their children still appear under them, and
// search predicates filter on role anyway.
func buildTree(nodes []*accessibility.Node) (*axtree.Node, error) {
	if len(nodes) == 0 {
		return nil, errs.Structural("accessibility snapshot is empty")
	}

	byID := make(map[accessibility.NodeID]*axtree.Node, len(nodes))
	childIDs := make(map[accessibility.NodeID][]accessibility.NodeID, len(nodes))
	isChild := make(map[accessibility.NodeID]bool)

	for _, n := range nodes {
		byID[n.NodeID] = &axtree.Node{
			ID:               string(n.NodeID),
			Role:             axValueString(n.Role),
			Name:             axValueString(n.Name),
			Disabled:         axDisabled(n),
			BackendDOMNodeID: int64(n.BackendDOMNodeID),
		}
		childIDs[n.NodeID] = n.ChildIDs
		for _, id := range n.ChildIDs {
			isChild[id] = true
		}
	}

	for id, node := range byID {
		for _, childID := range childIDs[id] {
			if child, ok := byID[childID]; ok {
				node.Children = append(node.Children, child)
			}
		}
	}

	// The root is the node nothing else references; CDP puts it first.
	for _, n := range nodes {
		if !isChild[n.NodeID] {
			return byID[n.NodeID], nil
		}
	}
	return byID[nodes[0].NodeID], nil
}

// axValueString decodes an AXValue whose payload is a JSON string
func axValueString(v *accessibility.Value) string {
	if v == nil || len(v.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(v.Value), &s); err != nil {
		return ""
	}
	return s
}

// axDisabled reads the "disabled" property from a node, when present
func axDisabled(n *accessibility.Node) bool {
	for _, p := range n.Properties {
		if p.Name != accessibility.PropertyNameDisabled {
			continue
		}
		if p.Value == nil || len(p.Value.Value) == 0 {
			return false
		}
		var b bool
		if err := json.Unmarshal([]byte(p.Value.Value), &b); err != nil {
			return false
		}
		return b
	}
	return false
}
