// Copyright 2025 The Golette Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package golette

import "strings"

// node is one level of a per-method route trie.
//
// Children are held in three tiers that mirror match precedence: literal
// edges first, then capture edges in registration order, then the greedy
// path-remainder edge. Linear scans over small slices beat map hashing for
// the child counts seen in real route tables.
//
// Thread safety: nodes are mutated only during the registration phase.
// After Freeze() the trie is immutable and safe for concurrent reads
// without locking.
type node struct {
	route     *Route        // terminal route, nil for interior nodes
	edges     []literalEdge // literal children, registration order
	captures  []captureEdge // capture children, registration order
	remainder *remainderEdge
}

// literalEdge is an exact-segment child.
type literalEdge struct {
	label string
	node  *node
}

// captureEdge is a typed capture child. Each (name, converter) pair gets its
// own child so that sibling converters can be tried in order during
// backtracking.
type captureEdge struct {
	name string
	conv converter
	node *node
}

// remainderEdge terminates a pattern whose final segment is a path capture.
// It consumes every remaining segment, slashes included.
type remainderEdge struct {
	name  string
	route *Route
}

func (n *node) findLiteral(label string) *node {
	for i := range n.edges {
		if n.edges[i].label == label {
			return n.edges[i].node
		}
	}
	return nil
}

func (n *node) findCapture(name string, cv converter) *node {
	for i := range n.captures {
		if n.captures[i].name == name && n.captures[i].conv == cv {
			return n.captures[i].node
		}
	}
	return nil
}

// insert adds a compiled pattern to the trie.
// Returns a ConflictError when the terminal slot is already occupied: exact
// duplicates of literal shape, or a capture segment with the same converter
// at the same depth, are ambiguous for every input and are rejected up front.
// First-registered wins; the rejection names the existing pattern.
func (n *node) insert(method string, segments []segment, r *Route) error {
	current := n
	for i, seg := range segments {
		if seg.capture && seg.conv == convPath {
			// Compile guarantees this is the final segment.
			if current.remainder != nil {
				return &ConflictError{Method: method, Pattern: r.pattern, Existing: current.remainder.route.pattern}
			}
			current.remainder = &remainderEdge{name: seg.name, route: r}
			return nil
		}

		if seg.capture {
			child := current.findCapture(seg.name, seg.conv)
			if child == nil {
				// A sibling capture with the same converter but a different
				// name matches exactly the same inputs at this depth; the
				// continuation decides whether the patterns truly collide,
				// so the ambiguity check happens at the terminal below.
				child = &node{}
				current.captures = append(current.captures, captureEdge{name: seg.name, conv: seg.conv, node: child})
			}
			current = child
		} else {
			child := current.findLiteral(seg.literal)
			if child == nil {
				child = &node{}
				current.edges = append(current.edges, literalEdge{label: seg.literal, node: child})
			}
			current = child
		}

		if i == len(segments)-1 {
			if current.route != nil {
				return &ConflictError{Method: method, Pattern: r.pattern, Existing: current.route.pattern}
			}
			// Ambiguity across sibling captures with equal converters:
			// "/a/{x:int}" vs "/a/{y:int}" both terminate here in shape.
			if seg.capture {
				parent := nodeParent(n, segments)
				for _, sib := range parent.captures {
					if sib.conv == seg.conv && sib.node != current && sib.node.route != nil {
						return &ConflictError{Method: method, Pattern: r.pattern, Existing: sib.node.route.pattern}
					}
				}
			}
			current.route = r
		}
	}

	if len(segments) == 0 {
		// Root pattern "/" terminates at the root node.
		if current.route != nil {
			return &ConflictError{Method: method, Pattern: r.pattern, Existing: current.route.pattern}
		}
		current.route = r
	}
	return nil
}

// nodeParent re-walks to the parent of the terminal node. Registration is a
// cold path; the extra walk keeps insert free of parent pointers.
func nodeParent(root *node, segments []segment) *node {
	current := root
	for _, seg := range segments[:len(segments)-1] {
		if seg.capture {
			current = current.findCapture(seg.name, seg.conv)
		} else {
			current = current.findLiteral(seg.literal)
		}
		if current == nil {
			return root
		}
	}
	return current
}

// capturedParam is one (name, value) pair accumulated during a trie walk.
type capturedParam struct {
	name  string
	value Value
}

// match resolves a request path against the trie with backtracking.
//
// At each depth, literal edges are tried before capture edges; a capture
// whose converter rejects the segment text, or whose subtree yields no
// terminal, is unwound and the next sibling is tried. The path-remainder
// edge is the last resort at any depth. The walk is deterministic: the same
// inputs always produce the same route and captures.
func (n *node) match(segs []string, captured *[]capturedParam) *Route {
	if len(segs) == 0 {
		return n.route
	}
	seg := segs[0]

	for i := range n.edges {
		if n.edges[i].label == seg {
			if r := n.edges[i].node.match(segs[1:], captured); r != nil {
				return r
			}
		}
	}

	for i := range n.captures {
		ce := &n.captures[i]
		v, ok := ce.conv.parse(seg)
		if !ok {
			continue
		}
		mark := len(*captured)
		*captured = append(*captured, capturedParam{name: ce.name, value: v})
		if r := ce.node.match(segs[1:], captured); r != nil {
			return r
		}
		*captured = (*captured)[:mark] // unwind on backtrack
	}

	if n.remainder != nil {
		rest := strings.Join(segs, "/")
		*captured = append(*captured, capturedParam{name: n.remainder.name, value: stringValue(rest)})
		return n.remainder.route
	}

	return nil
}
