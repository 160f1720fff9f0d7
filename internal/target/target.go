// Package target is a thin facade over target-machine tables: register
// classes, move costs, mode legality, and secondary-reload predicates. It
// holds no allocation logic of its own.
package target

//go:generate mockgen -source=target.go -destination=target_mock.go -package=target

import "github.com/orizon-lang/regalloc-core/internal/lir"

// RegClass is an opaque register-class identifier; 0 is reserved for
// NoRegs, the class meaning "no register, memory only".
type RegClass int

const NoRegs RegClass = 0

// LimRegClasses is the sentinel class meaning "no hard register is
// consumed at all": the allocno is either a direct use of the hard
// register it already names, or an immediate replaced by its pseudo's
// equivalent constant. It is distinct from NoRegs, which means "spill to
// memory".
const LimRegClasses RegClass = -1

// HardReg is a physical register number.
type HardReg int

// GrowthDirection records whether the simulated stack frame grows toward
// lower or higher addresses.
type GrowthDirection int

const (
	GrowsDownward GrowthDirection = iota
	GrowsUpward
)

// Capabilities holds explicit per-target flags in place of conditional
// compilation (HAVE_SECONDARY_RELOADS, SECONDARY_MEMORY_NEEDED,
// FRAME_GROWS_DOWNWARD).
type Capabilities struct {
	HasSecondaryReloads bool
	NeedsSecondaryMemory bool
	Growth GrowthDirection
	PreferredStackBoundary int // bytes
	// CostFactor scales register-to-register move costs relative to
	// memory move costs in global_allocation_cost.
	CostFactor int
}

// Facade is the full set of target queries the allocator core consumes.
// Collaborators outside this core's scope implement it once
// per backend; everything else in this module only ever calls through
// this interface.
type Facade interface {
	// HardRegnoNregs returns how many consecutive hard registers mode
	// occupies starting at regno.
	HardRegnoNregs(regno HardReg, mode lir.Mode) int

	// HardRegnoModeOK reports whether regno may hold a value of mode.
	HardRegnoModeOK(regno HardReg, mode lir.Mode) bool

	// ClassContents returns the set of hard registers belonging to class.
	ClassContents(class RegClass) HardRegSet

	// ClassHardRegs returns class's hard registers in allocation-preference
	// order.
	ClassHardRegs(class RegClass) []HardReg

	// RegisterMoveCost is the cost of a register-to-register move of mode
	// from one class to another (from == to is the common intra-class
	// case).
	RegisterMoveCost(mode lir.Mode, from, to RegClass) int

	// MemoryMoveCost is the cost of a load (loadP true) or store (false)
	// of mode between memory and class.
	MemoryMoveCost(mode lir.Mode, class RegClass, loadP bool) int

	// SecondaryInputReloadClass and SecondaryOutputReloadClass return the
	// class of an intermediate register needed to move between class and
	// the concrete operand x, or NoRegs if none is needed.
	SecondaryInputReloadClass(class RegClass, mode lir.Mode, x lir.Operand) RegClass
	SecondaryOutputReloadClass(class RegClass, mode lir.Mode, x lir.Operand) RegClass

	// ReloadInsnConstraints returns the constraint strings of a secondary
	// reload pattern's intermediate operand and, if the pattern names an
	// early-clobber scratch, the scratch's constraint string and ok=true.
	ReloadInsnConstraints(mode lir.Mode, inP bool) (intermConstraint string, scratchConstraint string, hasScratch bool, hasIcode bool)

	// SecondaryMemoryNeeded reports whether moving mode between from and
	// to requires a secondary memory buffer rather than a direct or
	// single-intermediate move.
	SecondaryMemoryNeeded(from, to RegClass, mode lir.Mode) bool
	SecondaryMemoryAlignment(from, to RegClass, mode lir.Mode) int

	// BaseRegs and IndexRegs return the hard registers legitimate as an
	// address base/index for mode.
	BaseRegs(mode lir.Mode) HardRegSet
	IndexRegs(mode lir.Mode) HardRegSet

	// RegnoRegClass returns the (smallest/natural) class containing regno.
	RegnoRegClass(regno HardReg) RegClass

	// ClassUnion and ClassIntersect combine two classes the way the
	// constraint evaluator needs to.
	ClassUnion(a, b RegClass) RegClass
	ClassIntersect(a, b RegClass) RegClass

	// ConstraintLetterClass maps one register-class constraint letter
	// (e.g. 'r') to a RegClass.
	ConstraintLetterClass(letter byte) (RegClass, bool)

	// CalleeSaved and CallUsed report the ABI role of a hard register.
	CalleeSaved(regno HardReg) bool
	CallUsed(regno HardReg) bool

	// Caps returns the capability/tuning block for this target.
	Caps() Capabilities
}

// HardRegSet is a small bitset of hard registers, sized generously for
// any realistic target (64 registers covers every ISA in the retrieval
// pack).
type HardRegSet uint64

func (s HardRegSet) Has(r HardReg) bool { return s&(1<<uint(r)) != 0 }
func (s HardRegSet) With(r HardReg) HardRegSet {
	return s | (1 << uint(r))
}
func (s HardRegSet) Without(r HardReg) HardRegSet {
	return s &^ (1 << uint(r))
}
func (s HardRegSet) Union(o HardRegSet) HardRegSet { return s | o }
func (s HardRegSet) Intersect(o HardRegSet) HardRegSet { return s & o }
func (s HardRegSet) Disjoint(o HardRegSet) bool { return s&o == 0 }
func (s HardRegSet) Empty() bool { return s == 0 }
func NewHardRegSet(regs ...HardReg) HardRegSet {
	var s HardRegSet
	for _, r := range regs {
		s = s.With(r)
	}
	return s
}

// Regs returns the members of s in increasing order, for deterministic
// iteration.
func (s HardRegSet) Regs(limit int) []HardReg {
	var out []HardReg
	for r := 0; r < limit; r++ {
		if s.Has(HardReg(r)) {
			out = append(out, HardReg(r))
		}
	}
	return out
}
