// Package lir defines a low-level IR close to the target ISA, extended with
// the per-operand constraint metadata the register allocator needs. It is
// suitable for straightforward instruction selection and regalloc.
package lir

import (
	"fmt"
	"strings"
)

// Module bundles functions for one object file.
type Module struct {
	Name string
	Functions []*Function
}

// Function is a sequence of basic blocks of target-like instructions.
type Function struct {
	Name string
	Blocks []*BasicBlock
	// Freq is the execution frequency of each block, indexed by position in
	// Blocks. A nil/missing entry defaults to 1 (see BlockFreq).
	Freq []int64
}

// BlockFreq returns the execution frequency recorded for block i, defaulting
// to 1 when the function carries no frequency information.
func (f *Function) BlockFreq(i int) int64 {
	if i < 0 || i >= len(f.Freq) {
		return 1
	}
	if f.Freq[i] <= 0 {
		return 1
	}
	return f.Freq[i]
}

// BasicBlock contains a linear list of target-like instructions.
type BasicBlock struct {
	Label string
	Insns []Insn
	// Succ holds the labels of successor blocks, populated by the frontend
	// (out of scope). progmodel.Builder does not read it; its liveness works
	// on the global instruction order.
	Succ []string
}

// Insn is a target-agnostic instruction representation.
type Insn interface{ Op() string }

// Mode is a machine mode (the IR's notion of GCC's "machine_mode"): a
// register/memory width plus a coarse kind used for class legality checks.
type Mode struct {
	Name string // e.g. "i32", "i64", "f64"
	Size int // bytes
}

func (m Mode) String() string { return m.Name }

// OperandIOMode describes whether an operand is read, written, or both.
type OperandIOMode int

const (
	IOIn OperandIOMode = iota
	IOOut
	IOInOut
)

func (m OperandIOMode) String() string {
	switch m {
	case IOIn:
		return "in"
	case IOOut:
		return "out"
	case IOInOut:
		return "inout"
	default:
		return "?"
	}
}

// OperandSubClass distinguishes the kind of slot an INSN_ALLOCNO occupies:
// a normal operand, a base/index register inside an address, or an
// implicit clobber.
type OperandSubClass int

const (
	SubClassOperand OperandSubClass = iota // a normal numbered operand
	SubClassBaseReg
	SubClassIndexReg
	SubClassNonOperand // implicit register clobbered/used by the insn
)

// Operand describes one operand of an instruction: its storage location
// (named virtual/hard register, or a literal), its required mode, and the
// raw per-alternative constraint string supplied by the instruction-selection
// collaborator.
type Operand struct {
	// Reg is the virtual or hard register name. A name prefixed with "%" is
	// a pseudo/virtual register (mirrors the teacher's isVirtualRegister
	// convention); anything else is treated as a literal/immediate operand.
	Reg string

	Mode Mode

	// Constraints holds one constraint string per instruction alternative,
	// e.g. []string{"r", "m", "rm"}.
	Constraints []string

	IO       OperandIOMode
	SubClass OperandSubClass

	// MatchedOperand, if >= 0, names the operand index this one is tied to
	// (a matched-digit constraint), forming a tied-allocno pair.
	MatchedOperand int

	// SubregByte is the byte offset of this operand inside a wider
	// container, when the operand is a SUBREG of a bigger register/slot (0
	// otherwise).
	SubregByte int
}

// OperandProvider is implemented by instructions that carry an explicit
// operand list (ConstrainedInsn). progmodel.Builder uses that list when it is
// present and synthesizes one for the plain instruction kinds below otherwise.
type OperandProvider interface {
	Operands() []Operand
}

// Mov, Add, Sub, Mul are minimal sample instructions with textual form,
// carried from the teacher's lir package.
type Mov struct{ Dst, Src string }

func (Mov) Op() string { return "mov" }
func (m Mov) String() string { return fmt.Sprintf("mov %s, %s", m.Dst, m.Src) }

type Add struct{ Dst, LHS, RHS string }

func (Add) Op() string { return "add" }
func (a Add) String() string { return fmt.Sprintf("add %s, %s, %s", a.Dst, a.LHS, a.RHS) }

type Sub struct{ Dst, LHS, RHS string }

func (Sub) Op() string { return "sub" }
func (s Sub) String() string { return fmt.Sprintf("sub %s, %s, %s", s.Dst, s.LHS, s.RHS) }

type Mul struct{ Dst, LHS, RHS string }

func (Mul) Op() string { return "mul" }
func (m Mul) String() string { return fmt.Sprintf("mul %s, %s, %s", m.Dst, m.LHS, m.RHS) }

type Div struct{ Dst, LHS, RHS string }

func (Div) Op() string { return "div" }
func (d Div) String() string { return fmt.Sprintf("div %s, %s, %s", d.Dst, d.LHS, d.RHS) }

type Ret struct{ Src string }

func (Ret) Op() string { return "ret" }
func (r Ret) String() string {
	if r.Src == "" {
		return "ret"
	}

	return fmt.Sprintf("ret %s", r.Src)
}

type Call struct {
	Dst string
	Callee string
	RetClass string
	Args []string
	ArgClasses []string
}

func (Call) Op() string { return "call" }
func (c Call) String() string {
	var b strings.Builder
	if c.Dst != "" {
		fmt.Fprintf(&b, "%s = ", c.Dst)
	}

	fmt.Fprintf(&b, "call %s(", c.Callee)

	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(a)
	}

	b.WriteString(")")

	if len(c.ArgClasses) > 0 || c.RetClass != "" {
		b.WriteString(" ;")

		if len(c.ArgClasses) > 0 {
			b.WriteString(" args:")

			for i, cl := range c.ArgClasses {
				if i > 0 {
					b.WriteString(",")
				}

				if cl == "" {
					cl = "?"
				}

				b.WriteString(cl)
			}
		}

		if c.RetClass != "" {
			fmt.Fprintf(&b, " ret:%s", c.RetClass)
		}
	}

	return b.String()
}

// Compare and branching.
type Cmp struct{ Dst, Pred, LHS, RHS string }

func (Cmp) Op() string { return "cmp" }
func (c Cmp) String() string { return fmt.Sprintf("cmp.%s %s, %s, %s", c.Pred, c.Dst, c.LHS, c.RHS) }

type Br struct{ Target string }

func (Br) Op() string { return "br" }
func (b Br) String() string { return fmt.Sprintf("br %s", b.Target) }

type BrCond struct{ Cond, True, False string }

func (BrCond) Op() string { return "brcond" }
func (b BrCond) String() string { return fmt.Sprintf("brcond %s, %s, %s", b.Cond, b.True, b.False) }

// Memory operations.
type Alloc struct{ Dst, Name string }

func (Alloc) Op() string { return "alloca" }
func (a Alloc) String() string {
	if a.Name != "" {
		return fmt.Sprintf("%s = alloca %s", a.Dst, a.Name)
	}

	return fmt.Sprintf("%s = alloca", a.Dst)
}

type Load struct{ Dst, Addr string }

func (Load) Op() string { return "load" }
func (l Load) String() string { return fmt.Sprintf("%s = load %s", l.Dst, l.Addr) }

type Store struct{ Addr, Val string }

func (Store) Op() string { return "store" }
func (s Store) String() string { return fmt.Sprintf("store %s, %s", s.Addr, s.Val) }

// ConstrainedInsn wraps any Insn with the explicit per-operand constraint
// metadata the allocator core consumes. Instruction selection (out of
// scope here) is expected to produce these directly; plain teacher-style
// instructions without this wrapper get a synthesized single-alternative
// "r" operand view from progmodel's operandsOf.
type ConstrainedInsn struct {
	Inner Insn
	Ops []Operand
	Alts int // number of alternatives; len(Ops[i].Constraints) must equal this for every i
	Frequency int64
}

func (c ConstrainedInsn) Op() string { return c.Inner.Op() }
func (c ConstrainedInsn) Operands() []Operand { return c.Ops }
func (c ConstrainedInsn) String() string {
	if s, ok := c.Inner.(fmt.Stringer); ok {
		return s.String()
	}
	return c.Inner.Op()
}

func (m *Module) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "module %s\n", m.Name)

	for _, f := range m.Functions {
		b.WriteString(f.String())
		b.WriteByte('\n')
	}

	return b.String()
}

func (f *Function) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "func %s() {\n", f.Name)

	for _, bb := range f.Blocks {
		if bb.Label != "" {
			fmt.Fprintf(&b, "%s:\n", bb.Label)
		}

		for _, ins := range bb.Insns {
			if s, ok := any(ins).(fmt.Stringer); ok {
				b.WriteString(" ")
				b.WriteString(s.String())
				b.WriteByte('\n')
			} else {
				fmt.Fprintf(&b, " %s\n", ins.Op())
			}
		}
	}

	b.WriteString("}\n")

	return b.String()
}

// IsVirtual reports whether reg names a virtual/pseudo register, mirroring
// the teacher's isVirtualRegister convention.
func IsVirtual(reg string) bool {
	return strings.HasPrefix(reg, "%")
}
