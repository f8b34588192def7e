// SPDX-License-Identifier: EPL-2.0

package sound

import "slices"

// minCompact is the capacity below which Scan never shrinks the backing
// slice.
const minCompact = 16

// Registry is the set of playing sources visited by Device.Update. Adding,
// removing and membership checks are O(1); removal swaps the last element
// into the hole.
type Registry struct {
	sources []*Source
	index   map[*Source]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[*Source]int)}
}

// Add appends s unless it is already a member. It reports whether s was
// added.
func (r *Registry) Add(s *Source) bool {
	if _, ok := r.index[s]; ok {
		return false
	}
	r.index[s] = len(r.sources)
	r.sources = append(r.sources, s)
	return true
}

// Remove drops s and reports whether it was a member.
func (r *Registry) Remove(s *Source) bool {
	i, ok := r.index[s]
	if !ok {
		return false
	}
	r.removeAt(i)
	return true
}

func (r *Registry) removeAt(i int) {
	s := r.sources[i]
	last := len(r.sources) - 1
	if i != last {
		moved := r.sources[last]
		r.sources[i] = moved
		r.index[moved] = i
	}
	r.sources[last] = nil
	r.sources = r.sources[:last]
	delete(r.index, s)
}

func (r *Registry) Contains(s *Source) bool {
	_, ok := r.index[s]
	return ok
}

func (r *Registry) Len() int { return len(r.sources) }

// Scan visits every member once. When visit returns false the member is
// removed and the element swapped into its slot is visited next, so no
// member is skipped or seen twice. visit must not add or remove members
// itself.
func (r *Registry) Scan(visit func(*Source) bool) {
	for i := 0; i < len(r.sources); {
		if visit(r.sources[i]) {
			i++
			continue
		}
		r.removeAt(i)
	}
	r.compact()
}

// compact shrinks the backing slice once fewer than half of it is in use.
func (r *Registry) compact() {
	if c := cap(r.sources); c > minCompact && len(r.sources) < c/2 {
		r.sources = slices.Clip(slices.Clone(r.sources))
	}
}
