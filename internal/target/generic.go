package target

import "github.com/orizon-lang/regalloc-core/internal/lir"

// Generic register classes, modeled on the x64 GPR/XMM split the teacher's
// internal/codegen/regalloc package hard-codes (GPRRegisters/XMMRegisters).
const (
	ClassGPR RegClass = iota + 1
	ClassXMM
)

// hard register numbers for the generic target: 0..11 are GPRs (mirroring
// rax,rcx,rdx,r8,r9,r10,r11,rbx,r12,r13,r14,r15), 16..23 are XMMs.
const (
	RAX HardReg = iota
	RCX
	RDX
	R8
	R9
	R10
	R11
	RBX
	R12
	R13
	R14
	R15
)

const xmmBase HardReg = 16

var gprOrder = []HardReg{RAX, RCX, RDX, R8, R9, R10, R11, RBX, R12, R13, R14, R15}
var calleeSavedGPR = NewHardRegSet(RBX, R12, R13, R14, R15)
var callUsedGPR = NewHardRegSet(RAX, RCX, RDX, R8, R9, R10, R11)

func xmmOrder() []HardReg {
	out := make([]HardReg, 8)
	for i := range out {
		out[i] = xmmBase + HardReg(i)
	}
	return out
}

// Generic is a small, fully in-memory target facade used by the demo
// driver and by unit tests across the allocator core. It has no machine
// of its own; it just needs to be internally consistent for the engine to
// exercise every code path.
type Generic struct {
	caps Capabilities
}

// NewGeneric returns a Generic facade with secondary reloads and secondary
// memory both enabled (so tests can exercise reload planning end to end)
// and a downward-growing frame, matching the teacher's x64 target.
func NewGeneric() *Generic {
	return &Generic{
		caps: Capabilities{
			HasSecondaryReloads: true,
			NeedsSecondaryMemory: true,
			Growth: GrowsDownward,
			PreferredStackBoundary: 16,
			CostFactor: 4,
		},
	}
}

func (g *Generic) Caps() Capabilities { return g.caps }

func (g *Generic) HardRegnoNregs(regno HardReg, mode lir.Mode) int {
	if mode.Size <= 8 {
		return 1
	}
	return (mode.Size + 7) / 8
}

func (g *Generic) HardRegnoModeOK(regno HardReg, mode lir.Mode) bool {
	if regno >= xmmBase {
		return mode.Name == "f32" || mode.Name == "f64"
	}
	return mode.Name != "f32" && mode.Name != "f64"
}

func (g *Generic) ClassContents(class RegClass) HardRegSet {
	switch class {
	case ClassGPR:
		return NewHardRegSet(gprOrder...)
	case ClassXMM:
		return NewHardRegSet(xmmOrder()...)
	default:
		return 0
	}
}

func (g *Generic) ClassHardRegs(class RegClass) []HardReg {
	switch class {
	case ClassGPR:
		out := make([]HardReg, len(gprOrder))
		copy(out, gprOrder)
		return out
	case ClassXMM:
		return xmmOrder()
	default:
		return nil
	}
}

func (g *Generic) RegisterMoveCost(mode lir.Mode, from, to RegClass) int {
	if from == to {
		return 2
	}
	// cross-class (GPR<->XMM) moves are pricier: they need a secondary path.
	return 4
}

func (g *Generic) MemoryMoveCost(mode lir.Mode, class RegClass, loadP bool) int {
	if class == ClassXMM {
		return 6
	}
	return 4
}

func (g *Generic) SecondaryInputReloadClass(class RegClass, mode lir.Mode, x lir.Operand) RegClass {
	// GPR<->XMM is the only pair in this generic target needing an
	// intermediate; same-class never does.
	if class == ClassXMM && lir.IsVirtual(x.Reg) == false && x.Mode.Name != "f32" && x.Mode.Name != "f64" {
		return ClassGPR
	}
	return NoRegs
}

func (g *Generic) SecondaryOutputReloadClass(class RegClass, mode lir.Mode, x lir.Operand) RegClass {
	return g.SecondaryInputReloadClass(class, mode, x)
}

func (g *Generic) ReloadInsnConstraints(mode lir.Mode, inP bool) (string, string, bool, bool) {
	// The generic target's single reload pattern takes its intermediate in
	// any GPR and needs no earlyclobber scratch.
	return "r", "", false, true
}

func (g *Generic) SecondaryMemoryNeeded(from, to RegClass, mode lir.Mode) bool {
	return false
}

func (g *Generic) SecondaryMemoryAlignment(from, to RegClass, mode lir.Mode) int {
	return 8
}

func (g *Generic) BaseRegs(mode lir.Mode) HardRegSet {
	return NewHardRegSet(gprOrder...)
}

func (g *Generic) IndexRegs(mode lir.Mode) HardRegSet {
	return NewHardRegSet(RAX, RCX, RDX, R8, R9, R10, R11)
}

func (g *Generic) RegnoRegClass(regno HardReg) RegClass {
	if regno >= xmmBase {
		return ClassXMM
	}
	return ClassGPR
}

func (g *Generic) ClassUnion(a, b RegClass) RegClass {
	if a == b {
		return a
	}
	if a == NoRegs {
		return b
	}
	if b == NoRegs {
		return a
	}
	// generic target has no superclass spanning GPR+XMM.
	return NoRegs
}

func (g *Generic) ClassIntersect(a, b RegClass) RegClass {
	if a == b {
		return a
	}
	return NoRegs
}

func (g *Generic) ConstraintLetterClass(letter byte) (RegClass, bool) {
	switch letter {
	case 'r':
		return ClassGPR, true
	case 'x':
		return ClassXMM, true
	default:
		return NoRegs, false
	}
}

func (g *Generic) CalleeSaved(regno HardReg) bool {
	return calleeSavedGPR.Has(regno)
}

func (g *Generic) CallUsed(regno HardReg) bool {
	if regno >= xmmBase {
		return true
	}
	return callUsedGPR.Has(regno)
}

var _ Facade = (*Generic)(nil)
