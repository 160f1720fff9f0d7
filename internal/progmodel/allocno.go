// Package progmodel is the program model consumed by allocation: the
// allocno/copy/CAN graph. Allocnos are leaves, copies are edges, and CANs
// are equivalence classes of allocnos that share a pseudo across
// non-conflicting copies.
package progmodel

import (
	"github.com/orizon-lang/regalloc-core/internal/lir"
	"github.com/orizon-lang/regalloc-core/internal/target"
)

// Kind distinguishes the two allocno variants.
type Kind int

const (
	KindPseudo Kind = iota
	KindInsnOperand
)

// Location identifies where an INSN_ALLOCNO's value physically sits in
// the owning instruction: which operand, and which wrapping (none,
// SUBREG, or an address sub-part) surrounds it. This is a location
// handle in place of raw-IR traversal.
type Location struct {
	InsnIndex  int // global instruction index within the function
	OperandIdx int
	SubClass   lir.OperandSubClass
	SubregByte int
}

// Allocno is a candidate container for one value at one program point.
type Allocno struct {
	ID int

	Kind Kind
	Mode lir.Mode

	// Regno is >=0 for a specific pseudo/hard register, <0 for anonymous.
	Regno int

	// CAN is the owning CAN's dense slot number, or -1 if not yet
	// assigned to one.
	CAN int

	// ConflictVec lists other allocnos simultaneously live (by ID).
	ConflictVec []int
	// CopyConflictVec lists copies whose secondary reload cannot share
	// resources with this allocno's (by copy ID).
	CopyConflictVec []int

	CallCrossing bool

	HardRegno int // -1 if unassigned
	MemSlotID int // -1 if none; the owning memslot.Slot's ID (not the CAN slot number)

	LiveRange LiveRange

	// INSN_ALLOCNO-only fields below; zero-valued for KindPseudo.
	Loc          Location
	IO           lir.OperandIOMode
	TiedAllocno  int // -1 if none; the matched operand's allocno ID
	PossibleAlts AltSet
	// Op is the constraint-annotated operand view this allocno occupies,
	// kept around so the constraint evaluator can be consulted after
	// graph construction.
	Op lir.Operand

	Elimination            bool
	UseWithoutChange       bool
	UseEquivConst          bool
	ConstPool              bool
	EquivConstValue        string
	IntermEliminationRegno int // -1 if none
	IntermEliminationSet   []int
	OriginalP              bool // true if this is the "original"/write side of a tied pair

	// ElimCandidateTo/ElimOffset record the accepted direct-substitution
	// candidate when Elimination is true and IntermEliminationRegno is -1
	// (no intermediate was needed): the real hard register the virtual
	// register was replaced by, and the final byte displacement.
	ElimCandidateTo target.HardReg
	ElimOffset      int64
}

// NewPseudo constructs a PSEUDO_REG allocno.
func NewPseudo(id int, regno int, mode lir.Mode) *Allocno {
	return &Allocno{
		ID: id, Kind: KindPseudo, Regno: regno, Mode: mode,
		CAN: -1, HardRegno: -1, MemSlotID: -1,
		TiedAllocno: -1, IntermEliminationRegno: -1,
	}
}

// NewInsnAllocno constructs an INSN_ALLOCNO for one operand occurrence.
func NewInsnAllocno(id int, loc Location, mode lir.Mode, io lir.OperandIOMode, regno int) *Allocno {
	return &Allocno{
		ID: id, Kind: KindInsnOperand, Regno: regno, Mode: mode,
		CAN: -1, HardRegno: -1, MemSlotID: -1,
		Loc: loc, IO: io, TiedAllocno: -1, IntermEliminationRegno: -1,
	}
}

// AltSet is a bitset of feasible instruction alternatives.
type AltSet uint64

func FullAltSet(n int) AltSet {
	if n >= 64 {
		return ^AltSet(0)
	}
	return AltSet(1)<<uint(n) - 1
}

func (s AltSet) Has(i int) bool            { return s&(1<<uint(i)) != 0 }
func (s AltSet) With(i int) AltSet         { return s | (1 << uint(i)) }
func (s AltSet) Without(i int) AltSet      { return s &^ (1 << uint(i)) }
func (s AltSet) Empty() bool               { return s == 0 }
func (s AltSet) Intersect(o AltSet) AltSet { return s & o }

// LiveRange is a simple [start,end) instruction-index interval per basic
// block; allocnos spanning multiple blocks carry multiple ranges.
type LiveRange struct {
	Segments []Segment
}

type Segment struct{ Start, End int }

func (lr LiveRange) Overlaps(o LiveRange) bool {
	for _, a := range lr.Segments {
		for _, b := range o.Segments {
			if a.Start < b.End && b.Start < a.End {
				return true
			}
		}
	}
	return false
}

// AllocationMode returns the container's outer mode: for an INSN_ALLOCNO
// wrapped in a wider SUBREG container the container's mode would differ,
// but absent richer container metadata from the IR-visitor collaborator
// this core treats the allocno's own mode as authoritative, matching
// get_allocno_hard_regno's fallback path when no SUBREG wrapping is
// present.
func (a *Allocno) AllocationMode() lir.Mode { return a.Mode }
