// Package memslot owns the set of memory_slot records: stack objects for
// spilled CANs and for secondary-move buffers.
package memslot

import (
	"fmt"

	"github.com/orizon-lang/regalloc-core/internal/stackslot"
	"github.com/orizon-lang/regalloc-core/internal/target"
)

// Slot is one memory_slot record.
type Slot struct {
	ID int

	// PreexistingRTL, when non-empty, names a source-provided equivalent
	// memory location this slot points at instead of a fresh stack
	// reservation.
	PreexistingRTL string

	Start int // -1 until placed
	Size int
	Align int
	RefCount int

	// owner identifies which CAN (by slot number, >=0) or copy (by
	// negative id, encoded as -(copyID+1)) this memory buffer belongs to,
	// used by ConflictsWith to consult the right conflict graph.
	ownerKind ownerKind
	ownerID int
}

type ownerKind int

const (
	ownerCAN ownerKind = iota
	ownerCopy
)

// ConflictOracle answers "are these two owners in conflict" for Slot
// ranges that overlap; progmodel supplies the concrete implementation
// over its CAN/copy conflict graphs.
type ConflictOracle interface {
	CANsConflict(a, b int) bool
	CopiesConflict(a, b int) bool
	CANConflictsWithCopy(can, copy int) bool
}

// Manager owns every Slot, the packer they're reserved from, and the
// deferred-free set used while a transaction is open.
type Manager struct {
	facade target.Facade
	packer *stackslot.Packer
	oracle ConflictOracle

	byCAN map[int]*Slot
	byCopy map[int]*Slot
	nextID int

	// deferred is non-nil while a transaction is active; slots released
	// to refcount 0 are parked here instead of being freed outright, so a
	// rollback can revive them without identity loss.
	deferred map[int]*Slot
}

func New(facade target.Facade, packer *stackslot.Packer, oracle ConflictOracle) *Manager {
	return &Manager{
		facade: facade,
		packer: packer,
		oracle: oracle,
		byCAN: make(map[int]*Slot),
		byCopy: make(map[int]*Slot),
	}
}

// BeginDeferredFree switches the manager into deferred-free mode; ends
// via EndDeferredFree(commit) at the outermost transaction boundary.
func (m *Manager) BeginDeferredFree() {
	if m.deferred == nil {
		m.deferred = make(map[int]*Slot)
	}
}

// EndDeferredFree either commits (drops) or discards (keeps refcount-0
// slots available for revival — they were never actually released from
// the packer on rollback paths that restored refcount) the deferred set.
// Deferred keys are CAN IDs (>=0) or copy IDs encoded as -(copyID+1),
// the same encoding DeallocateForCopy uses; committing must delete from
// whichever of byCAN/byCopy actually owns the slot, or a copy's buffer
// is released from the packer yet left dangling in byCopy.
func (m *Manager) EndDeferredFree(commit bool) {
	if commit {
		for id, s := range m.deferred {
			if s.RefCount == 0 && s.Start >= 0 && s.PreexistingRTL == "" {
				m.packer.Release(s.Start, s.Size)
				s.Start = -1
			}
			if id >= 0 {
				delete(m.byCAN, id)
			} else {
				delete(m.byCopy, -(id + 1))
			}
		}
	}
	m.deferred = nil
}

// AllocateForCAN implements allocate_for_allocno's CAN-level reservation:
// if the CAN already owns a slot, its refcount is bumped; otherwise a
// fresh slot of (size, align) is reserved via the packer, honoring
// equivalentRTL/equivalentSize when the pseudo carries a source-provided
// equivalent memory location wide enough to hold it.
func (m *Manager) AllocateForCAN(canID, size, align int, equivalentRTL string, equivalentSize int) *Slot {
	if s, ok := m.byCAN[canID]; ok {
		s.RefCount++
		return s
	}

	s := &Slot{ID: m.allocID(), Size: size, Align: align, ownerKind: ownerCAN, ownerID: canID}

	if equivalentRTL != "" && equivalentSize >= size {
		s.PreexistingRTL = equivalentRTL
		s.Size = equivalentSize
		s.Start = 0 // offset is meaningless for a pinned equivalent; callers must not pack it.
	} else {
		s.Start = m.packer.FindFree(size, align)
		m.packer.Reserve(s.Start, size)
		m.packer.RecordEnd(s.Start+size, align)
	}

	s.RefCount = 1
	m.byCAN[canID] = s
	return s
}

// DeallocateForCAN decrements refcount; at zero and not pinned to
// pre-existing memory, releases the packer range (or defers the release)
// and attempts opportunistic compaction of conflicting CANs.
func (m *Manager) DeallocateForCAN(canID int) {
	s, ok := m.byCAN[canID]
	if !ok {
		panic(fmt.Sprintf("memslot: DeallocateForCAN on unknown CAN %d", canID))
	}

	s.RefCount--
	if s.RefCount < 0 {
		panic(fmt.Sprintf("memslot: negative refcount for CAN %d", canID))
	}
	if s.RefCount > 0 {
		return
	}

	if s.PreexistingRTL != "" {
		delete(m.byCAN, canID)
		return
	}

	if m.deferred != nil {
		m.deferred[canID] = s
		return
	}

	m.packer.Release(s.Start, s.Size)
	m.packer.UnrecordEnd(s.Start+s.Size, s.Align)
	delete(m.byCAN, canID)

	m.compactConflictsOf(canID, nil)
}

// AllocateForCopy / DeallocateForCopy are the secondary-memory-buffer
// analogue of AllocateForCAN / DeallocateForCAN, for a copy's chosen move
// mode.
func (m *Manager) AllocateForCopy(copyID, size, align int) *Slot {
	if s, ok := m.byCopy[copyID]; ok {
		s.RefCount++
		return s
	}
	s := &Slot{ID: m.allocID(), Size: size, Align: align, ownerKind: ownerCopy, ownerID: copyID}
	s.Start = m.packer.FindFree(size, align)
	m.packer.Reserve(s.Start, size)
	m.packer.RecordEnd(s.Start+size, align)
	s.RefCount = 1
	m.byCopy[copyID] = s
	return s
}

func (m *Manager) DeallocateForCopy(copyID int) {
	s, ok := m.byCopy[copyID]
	if !ok {
		panic(fmt.Sprintf("memslot: DeallocateForCopy on unknown copy %d", copyID))
	}
	s.RefCount--
	if s.RefCount > 0 {
		return
	}
	if m.deferred != nil {
		m.deferred[-(copyID + 1)] = s
		return
	}
	m.packer.Release(s.Start, s.Size)
	m.packer.UnrecordEnd(s.Start+s.Size, s.Align)
	delete(m.byCopy, copyID)
}

func (m *Manager) allocID() int {
	m.nextID++
	return m.nextID
}

// SlotForCAN / SlotForCopy are read-only lookups.
func (m *Manager) SlotForCAN(canID int) (*Slot, bool) { s, ok := m.byCAN[canID]; return s, ok }
func (m *Manager) SlotForCopy(copyID int) (*Slot, bool) { s, ok := m.byCopy[copyID]; return s, ok }

// TryCANSlotMove implements try_can_slot_move: with all
// non-conflicting slots treated as free, re-run FindFree for can's slot;
// if a strictly lower offset is available, move it (recorded by the
// caller's transaction log) and recurse into conflicting CANs/copies,
// whose search space may have grown. Recursion is bounded by strict
// monotone decrease of the moved slot's start.
func (m *Manager) TryCANSlotMove(canID int, onMove func(canID, oldStart, newStart int)) {
	s, ok := m.byCAN[canID]
	if !ok || s.PreexistingRTL != "" {
		return
	}

	newStart := m.findFreeIgnoringConflictFree(canID, s.Size, s.Align)
	if newStart >= s.Start {
		return
	}

	old := s.Start
	m.packer.UnrecordEnd(s.Start+s.Size, s.Align)
	s.Start = newStart
	m.packer.RecordEnd(s.Start+s.Size, s.Align)

	if onMove != nil {
		onMove(canID, old, newStart)
	}

	m.compactConflictsOf(canID, onMove)
}

// findFreeIgnoringConflictFree scans for the lowest offset that is either
// genuinely free, or only occupied by slots belonging to CANs/copies that
// do NOT conflict with canID (those ranges are "free" from canID's point
// of view since they can never be live at the same time).
func (m *Manager) findFreeIgnoringConflictFree(canID, size, align int) int {
	occupied := func(off int) bool {
		for other, s := range m.byCAN {
			if other == canID || s.PreexistingRTL != "" || s.Start < 0 {
				continue
			}
			if off < s.Start || off >= s.Start+s.Size {
				continue
			}
			if m.oracle.CANsConflict(canID, other) {
				return true
			}
		}
		for other, s := range m.byCopy {
			if s.Start < 0 {
				continue
			}
			if off < s.Start || off >= s.Start+s.Size {
				continue
			}
			if m.oracle.CANConflictsWithCopy(canID, other) {
				return true
			}
		}
		return false
	}

	offset := 0
	for {
		offset = alignUp(offset, align)
		ok := true
		for i := offset; i < offset+size; i++ {
			if occupied(i) {
				ok = false
				offset = i + 1
				break
			}
		}
		if ok {
			return offset
		}
	}
}

func alignUp(v, align int) int {
	if align <= 1 {
		return v
	}
	if r := v % align; r != 0 {
		return v + (align - r)
	}
	return v
}

func (m *Manager) compactConflictsOf(canID int, onMove func(canID, oldStart, newStart int)) {
	for other := range m.byCAN {
		if other == canID {
			continue
		}
		if m.oracle.CANsConflict(canID, other) {
			m.TryCANSlotMove(other, onMove)
		}
	}
}
