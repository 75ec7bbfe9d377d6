package actors

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/sim/grid"
)

// Placed is an actor in the world.
type Placed struct {
	ID        ID
	Prototype int64
	Position  grid.Vec3i
	Rotation  mgl32.Quat
	Bounds    grid.Vec3i
}

func (p Placed) Box() grid.AABB { return grid.NewAABB(p.Position, p.Bounds) }

// Store indexes placed actors by id.
type Store struct {
	byID map[ID]Placed
}

func NewStore() *Store {
	return &Store{byID: map[ID]Placed{}}
}

func (s *Store) Put(p Placed) { s.byID[p.ID] = p }

func (s *Store) Remove(id ID) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	return true
}

func (s *Store) Get(id ID) (Placed, bool) {
	p, ok := s.byID[id]
	return p, ok
}

func (s *Store) Len() int { return len(s.byID) }

// SelectRange returns the ids of actors whose box intersects box, sorted.
func (s *Store) SelectRange(box grid.AABB) []ID {
	var out []ID
	for id, p := range s.byID {
		if p.ID == "" {
			continue
		}
		if p.Box().Intersects(box) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// All returns every placed actor ordered by id.
func (s *Store) All() []Placed {
	out := make([]Placed, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
