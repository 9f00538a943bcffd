package geometry

import (
	"slices"

	"github.com/Faultbox/scenegl/internal/scene"
)

// SamplerSlots assigns texture ids to sampler slots for one buffer. A slot,
// once assigned, never changes.
type SamplerSlots struct {
	slots map[scene.ObjectID]int
	order []scene.ObjectID
}

func NewSamplerSlots() *SamplerSlots {
	return &SamplerSlots{slots: make(map[scene.ObjectID]int)}
}

// Assign returns the slot for id, allocating the next free one on first sight.
// It fails without allocating when limit slots are already taken.
func (s *SamplerSlots) Assign(id scene.ObjectID, limit int) (int, error) {
	if slot, ok := s.slots[id]; ok {
		return slot, nil
	}
	if len(s.order) >= limit {
		return -1, ErrTextureUnitsExceeded
	}
	slot := len(s.order)
	s.slots[id] = slot
	s.order = append(s.order, id)
	return slot, nil
}

// Clone returns an independent copy of the assignment.
func (s *SamplerSlots) Clone() *SamplerSlots {
	c := &SamplerSlots{
		slots: make(map[scene.ObjectID]int, len(s.slots)),
		order: slices.Clone(s.order),
	}
	for id, slot := range s.slots {
		c.slots[id] = slot
	}
	return c
}

func (s *SamplerSlots) Slot(id scene.ObjectID) (int, bool) {
	slot, ok := s.slots[id]
	return slot, ok
}

// IDs lists texture ids by slot.
func (s *SamplerSlots) IDs() []scene.ObjectID {
	return s.order
}

func (s *SamplerSlots) Len() int {
	return len(s.order)
}
