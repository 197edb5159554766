package pipeline

import (
	"github.com/llehouerou/pulse/internal/decoder"
	"github.com/llehouerou/pulse/internal/surface"
)

// Role labels one slot of the buffer pair. Exactly one slot is Active and
// the other Standby at all times.
type Role int

const (
	RoleActive Role = iota
	RoleStandby
)

// String returns the role name.
func (r Role) String() string {
	if r == RoleActive {
		return "Active"
	}
	return "Standby"
}

// Slot is one decoder plus the render surface it draws into. Surfaces keep
// their identity for the slot's lifetime; swaps exchange role labels only.
type Slot struct {
	Decoder decoder.Decoder
	surf    *surface.Surface
}

// Surface returns the render surface bound to the slot.
func (s *Slot) Surface() *surface.Surface { return s.surf }

func (s *Slot) setSurface(surf *surface.Surface) { s.surf = surf }

// BufferPair owns the two playback slots and their Active/Standby roles.
// References obtained from Current or Standby are stale after SwapRoles and
// must be re-fetched.
type BufferPair struct {
	slots  [2]*Slot
	active int
}

// NewBufferPair creates the pair, allocating one surface per slot.
func NewBufferPair(a, b decoder.Decoder, alloc *surface.Allocator) *BufferPair {
	return &BufferPair{
		slots: [2]*Slot{
			{Decoder: a, surf: alloc.Allocate()},
			{Decoder: b, surf: alloc.Allocate()},
		},
	}
}

// Current returns the Active slot.
func (p *BufferPair) Current() *Slot { return p.slots[p.active] }

// Standby returns the Standby slot.
func (p *BufferPair) Standby() *Slot { return p.slots[1-p.active] }

// SwapRoles exchanges the two role labels. O(1); no surface is copied,
// recreated or reassigned.
func (p *BufferPair) SwapRoles() { p.active = 1 - p.active }

// RoleOf returns the role currently held by the slot.
func (p *BufferPair) RoleOf(s *Slot) Role {
	if s == p.slots[p.active] {
		return RoleActive
	}
	return RoleStandby
}

// Close stops and releases both decoders.
func (p *BufferPair) Close() error {
	var first error
	for _, s := range p.slots {
		if err := s.Decoder.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
