// Package channels maintains the channel forest of a document.
//
// Every channel has at most one parent and an ordered list of children.
// The tree also records which annotation ids each channel owns; the
// annotations themselves live in package annotations.
package channels

import (
	"fmt"
	"slices"

	"github.com/vanderheijden86/tracklane/pkg/model"
)

type node struct {
	ch       model.Channel
	children []model.ChannelID
	anns     []model.AnnotationID
}

// Removed is a channel snapshot together with its former sibling position,
// enough to Insert it back in place.
type Removed struct {
	Channel model.Channel
	Index   int
}

// Tree is a forest of channels. The zero value is not usable; call New.
type Tree struct {
	nodes map[model.ChannelID]*node
	roots []model.ChannelID
	ids   model.IDSequence
}

// New returns an empty forest.
func New() *Tree {
	return &Tree{nodes: make(map[model.ChannelID]*node)}
}

// Reset removes every channel and rewinds the id sequence.
func (t *Tree) Reset() {
	clear(t.nodes)
	t.roots = nil
	t.ids.Reset()
}

// Len returns the number of channels.
func (t *Tree) Len() int { return len(t.nodes) }

// NextID returns the id Create would assign next.
func (t *Tree) NextID() model.ChannelID { return model.ChannelID(t.ids.Peek()) }

// Has reports whether id exists.
func (t *Tree) Has(id model.ChannelID) bool {
	_, ok := t.nodes[id]
	return ok
}

// Get returns a snapshot of channel id.
func (t *Tree) Get(id model.ChannelID) (model.Channel, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return model.Channel{}, false
	}
	return n.ch.Clone(), true
}

// Create adds a channel with a fresh id as the last child of parent
// (model.NoChannel for a root).
func (t *Tree) Create(name string, parent model.ChannelID, allowed []string) (model.Channel, error) {
	if parent != model.NoChannel && !t.Has(parent) {
		return model.Channel{}, fmt.Errorf("create %q under %d: %w", name, parent, ErrParentNotFound)
	}
	ch := model.Channel{
		ID:       model.ChannelID(t.ids.Next()),
		ParentID: parent,
		Name:     name,
	}
	if allowed != nil {
		ch.AllowedTypes = slices.Clone(allowed)
	}
	if err := t.Insert(ch, -1); err != nil {
		return model.Channel{}, err
	}
	return ch.Clone(), nil
}

// Insert adds ch with its own id at sibling position index. An index out of
// range (or negative) appends.
func (t *Tree) Insert(ch model.Channel, index int) error {
	if t.Has(ch.ID) {
		return fmt.Errorf("insert channel %d: %w", ch.ID, ErrDuplicateID)
	}
	siblings := &t.roots
	if ch.ParentID != model.NoChannel {
		p, ok := t.nodes[ch.ParentID]
		if !ok {
			return fmt.Errorf("insert channel %d under %d: %w", ch.ID, ch.ParentID, ErrParentNotFound)
		}
		siblings = &p.children
	}
	if index < 0 || index > len(*siblings) {
		index = len(*siblings)
	}
	*siblings = slices.Insert(*siblings, index, ch.ID)
	t.nodes[ch.ID] = &node{ch: ch.Clone()}
	t.ids.Observe(int(ch.ID))
	return nil
}

// Remove unlinks a single leaf channel that owns no annotations.
func (t *Tree) Remove(id model.ChannelID) (Removed, error) {
	n, ok := t.nodes[id]
	if !ok {
		return Removed{}, fmt.Errorf("remove channel %d: %w", id, ErrNotFound)
	}
	if len(n.children) > 0 {
		return Removed{}, fmt.Errorf("remove channel %d: %w", id, ErrHasChildren)
	}
	if len(n.anns) > 0 {
		return Removed{}, fmt.Errorf("remove channel %d: %w", id, ErrNotEmpty)
	}
	siblings := t.siblings(n.ch)
	idx := slices.Index(*siblings, id)
	if idx >= 0 {
		*siblings = slices.Delete(*siblings, idx, idx+1)
	}
	delete(t.nodes, id)
	return Removed{Channel: n.ch.Clone(), Index: idx}, nil
}

// Delete removes id and its whole subtree, children before parents, and
// returns the removed channels in that order. Annotation assignments of the
// removed channels are dropped.
func (t *Tree) Delete(id model.ChannelID) ([]model.Channel, error) {
	if !t.Has(id) {
		return nil, fmt.Errorf("delete channel %d: %w", id, ErrNotFound)
	}
	order := t.PostOrder(id)
	out := make([]model.Channel, 0, len(order))
	for _, cid := range order {
		t.nodes[cid].anns = nil
		r, err := t.Remove(cid)
		if err != nil {
			return out, err
		}
		out = append(out, r.Channel)
	}
	return out, nil
}

func (t *Tree) siblings(ch model.Channel) *[]model.ChannelID {
	if ch.ParentID == model.NoChannel {
		return &t.roots
	}
	if p, ok := t.nodes[ch.ParentID]; ok {
		return &p.children
	}
	return &t.roots
}

// IndexOf returns the sibling position of id, or -1.
func (t *Tree) IndexOf(id model.ChannelID) int {
	n, ok := t.nodes[id]
	if !ok {
		return -1
	}
	return slices.Index(*t.siblings(n.ch), id)
}

// Children returns the child ids of id in order.
func (t *Tree) Children(id model.ChannelID) []model.ChannelID {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return slices.Clone(n.children)
}

// Roots returns the root ids in order.
func (t *Tree) Roots() []model.ChannelID {
	return slices.Clone(t.roots)
}

// Depth returns 0 for a root, 1 for its children and so on; -1 if id does
// not exist.
func (t *Tree) Depth(id model.ChannelID) int {
	n, ok := t.nodes[id]
	if !ok {
		return -1
	}
	d := 0
	for n.ch.ParentID != model.NoChannel {
		n, ok = t.nodes[n.ch.ParentID]
		if !ok {
			break
		}
		d++
	}
	return d
}

// PostOrder returns id's subtree with every child before its parent. The
// last element is id itself.
func (t *Tree) PostOrder(id model.ChannelID) []model.ChannelID {
	var out []model.ChannelID
	var visit func(model.ChannelID)
	visit = func(cid model.ChannelID) {
		n, ok := t.nodes[cid]
		if !ok {
			return
		}
		for _, c := range n.children {
			visit(c)
		}
		out = append(out, cid)
	}
	visit(id)
	return out
}

// Walk visits every channel in display order (pre-order, roots in order)
// until fn returns false.
func (t *Tree) Walk(fn func(ch model.Channel, depth int) bool) {
	var visit func(id model.ChannelID, depth int) bool
	visit = func(id model.ChannelID, depth int) bool {
		n := t.nodes[id]
		if !fn(n.ch.Clone(), depth) {
			return false
		}
		for _, c := range n.children {
			if !visit(c, depth+1) {
				return false
			}
		}
		return true
	}
	for _, r := range t.roots {
		if !visit(r, 0) {
			return
		}
	}
}

// Ordered returns every channel in display order. Parents precede their
// children, so the result can be re-inserted in sequence.
func (t *Tree) Ordered() []model.Channel {
	out := make([]model.Channel, 0, len(t.nodes))
	t.Walk(func(ch model.Channel, _ int) bool {
		out = append(out, ch)
		return true
	})
	return out
}

// Rename changes the name of id.
func (t *Tree) Rename(id model.ChannelID, name string) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("rename channel %d: %w", id, ErrNotFound)
	}
	n.ch.Name = name
	return nil
}

// SetAllowedTypes replaces the value restriction of id. nil lifts it.
func (t *Tree) SetAllowedTypes(id model.ChannelID, types []string) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("restrict channel %d: %w", id, ErrNotFound)
	}
	if types == nil {
		n.ch.AllowedTypes = nil
	} else {
		n.ch.AllowedTypes = slices.Clone(types)
	}
	return nil
}

// Assign records that annotation ann belongs to channel ch.
func (t *Tree) Assign(ch model.ChannelID, ann model.AnnotationID) error {
	n, ok := t.nodes[ch]
	if !ok {
		return fmt.Errorf("assign annotation %d to channel %d: %w", ann, ch, ErrNotFound)
	}
	if !slices.Contains(n.anns, ann) {
		n.anns = append(n.anns, ann)
	}
	return nil
}

// Unassign drops ann from ch. It reports whether it was assigned.
func (t *Tree) Unassign(ch model.ChannelID, ann model.AnnotationID) bool {
	n, ok := t.nodes[ch]
	if !ok {
		return false
	}
	i := slices.Index(n.anns, ann)
	if i < 0 {
		return false
	}
	n.anns = slices.Delete(n.anns, i, i+1)
	return true
}

// AnnotationIDs returns the annotations assigned to ch, in assignment order.
func (t *Tree) AnnotationIDs(ch model.ChannelID) []model.AnnotationID {
	n, ok := t.nodes[ch]
	if !ok {
		return nil
	}
	return slices.Clone(n.anns)
}

// AnnotationsInSubtree returns the annotations of id and all its
// descendants, in post-order channel order.
func (t *Tree) AnnotationsInSubtree(id model.ChannelID) []model.AnnotationID {
	var out []model.AnnotationID
	for _, cid := range t.PostOrder(id) {
		out = append(out, t.nodes[cid].anns...)
	}
	return out
}
