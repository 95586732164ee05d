// Package adf flattens tracker rich-text documents into plain text.
//
// The tracker returns description fields either as plain strings or as a
// nested document tree of typed nodes (paragraphs, text runs). Only the text
// leaves matter here; all structure is discarded.
package adf

import (
	"fmt"
	"strings"
)

// node is the parsed form of one document element: either a text leaf or a
// container holding child nodes. A single node may be both when the tracker
// attaches text and content to the same element.
type node struct {
	text     string
	hasText  bool
	children []node
}

// Extract flattens a rich-text document value into plain text. Plain strings
// pass through verbatim, so re-extracting an already-flattened string is a
// no-op. Document trees are walked depth-first and their text leaves joined
// with single spaces. Returns nil when the input is nil, empty, or holds no
// text leaves. Malformed shapes degrade to the value's string representation
// rather than failing the caller; Extract never panics.
func Extract(raw any) *string {
	if raw == nil {
		return nil
	}
	if s, ok := raw.(string); ok {
		if s == "" {
			return nil
		}
		return &s
	}

	nodes, ok := parseNodes(raw)
	if !ok {
		s := fmt.Sprint(raw)
		if s == "" {
			return nil
		}
		return &s
	}

	var leaves []string
	for _, n := range nodes {
		collectLeaves(n, &leaves)
	}
	if len(leaves) == 0 {
		return nil
	}
	joined := strings.Join(leaves, " ")
	return &joined
}

// parseNodes accepts either a single node object or a sequence of sibling
// nodes and normalizes both to a slice. Plain-string elements count as text
// leaves; anything else that is not node-shaped is skipped rather than
// failing the whole document.
func parseNodes(raw any) ([]node, bool) {
	switch v := raw.(type) {
	case map[string]any:
		n, ok := parseNode(v)
		if !ok {
			return nil, false
		}
		return []node{n}, true
	case []any:
		nodes := make([]node, 0, len(v))
		for _, child := range v {
			switch c := child.(type) {
			case string:
				nodes = append(nodes, node{text: c, hasText: true})
			case map[string]any:
				if n, ok := parseNode(c); ok {
					nodes = append(nodes, n)
				}
			}
		}
		return nodes, true
	default:
		return nil, false
	}
}

func parseNode(m map[string]any) (node, bool) {
	var n node

	typ, _ := m["type"].(string)
	if typ == "text" {
		if text, ok := m["text"].(string); ok {
			n.text = text
			n.hasText = true
		}
	}

	if content, ok := m["content"].([]any); ok {
		for _, child := range content {
			switch c := child.(type) {
			case string:
				n.children = append(n.children, node{text: c, hasText: true})
			case map[string]any:
				if cn, ok := parseNode(c); ok {
					n.children = append(n.children, cn)
				}
			}
		}
	}

	return n, true
}

// collectLeaves appends every text leaf under n in document order.
func collectLeaves(n node, leaves *[]string) {
	if n.hasText {
		*leaves = append(*leaves, n.text)
	}
	for _, child := range n.children {
		collectLeaves(child, leaves)
	}
}
