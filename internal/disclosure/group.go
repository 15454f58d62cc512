// Package disclosure tracks which panel of a fixed group is expanded.
//
// A Group expands at most one panel at a time. Expanding a panel collapses
// whichever panel was open before it.
package disclosure

// Group is an ordered, fixed set of panel ids with at most one expanded.
// It is owned by a single view and is not safe for concurrent use.
type Group[K comparable] struct {
	items    []K
	index    map[K]struct{}
	expanded K
	open     bool
}

// New returns a group over items with every panel collapsed.
func New[K comparable](items ...K) *Group[K] {
	g := &Group[K]{
		items: make([]K, 0, len(items)),
		index: make(map[K]struct{}, len(items)),
	}
	for _, id := range items {
		if _, dup := g.index[id]; dup {
			continue
		}
		g.index[id] = struct{}{}
		g.items = append(g.items, id)
	}
	return g
}

// Toggle collapses id if it is expanded and expands it otherwise.
// Ids outside the group are ignored.
func (g *Group[K]) Toggle(id K) {
	if !g.Contains(id) {
		return
	}
	if g.open && g.expanded == id {
		g.Collapse()
		return
	}
	g.expanded = id
	g.open = true
}

// Collapse closes the expanded panel, if any.
func (g *Group[K]) Collapse() {
	var zero K
	g.expanded = zero
	g.open = false
}

func (g *Group[K]) IsExpanded(id K) bool {
	return g.open && g.expanded == id
}

// Expanded returns the expanded id and whether one is set.
func (g *Group[K]) Expanded() (K, bool) {
	return g.expanded, g.open
}

func (g *Group[K]) Contains(id K) bool {
	_, ok := g.index[id]
	return ok
}

// Items returns a copy of the group's ids in order.
func (g *Group[K]) Items() []K {
	out := make([]K, len(g.items))
	copy(out, g.items)
	return out
}

func (g *Group[K]) Len() int {
	return len(g.items)
}
