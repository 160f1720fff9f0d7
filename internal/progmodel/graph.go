package progmodel

import (
	"fmt"

	"github.com/orizon-lang/regalloc-core/internal/lir"
)

// EquivalenceOracle supplies, for a pseudo register name, an optional
// equivalent constant or equivalent memory location — the "equivalence
// oracle" collaborator.
type EquivalenceOracle interface {
	EquivalentConstant(regno string) (value string, ok bool)
	EquivalentMemory(regno string) (rtl string, size int, ok bool)
}

// NoEquivalence is an EquivalenceOracle that never finds an equivalent,
// for callers with no such front-end information.
type NoEquivalence struct{}

func (NoEquivalence) EquivalentConstant(string) (string, bool) { return "", false }
func (NoEquivalence) EquivalentMemory(string) (string, int, bool) { return "", 0, false }

// Graph is the full program model: allocnos, copies, CANs and their
// conflict sets.
type Graph struct {
	Allocnos []*Allocno
	Copies []*Copy
	CANs map[int]*CAN

	byPseudoRegno map[int]int // regno -> PSEUDO allocno ID
	byPseudoName map[string]int // virtual reg name -> PSEUDO allocno ID

	oracle EquivalenceOracle

	nextAllocnoID int
	nextCopyID int
	nextCANSlot int

	// totalInsns is the number of instructions Build walked;
	// Location.InsnIndex numbers instructions across all blocks in order.
	totalInsns int
}

func NewGraph(oracle EquivalenceOracle) *Graph {
	if oracle == nil {
		oracle = NoEquivalence{}
	}
	return &Graph{
		CANs: make(map[int]*CAN),
		byPseudoRegno: make(map[int]int),
		byPseudoName: make(map[string]int),
		oracle: oracle,
	}
}

func (g *Graph) newAllocnoID() int { id := g.nextAllocnoID; g.nextAllocnoID++; return id }
func (g *Graph) newCopyID() int { id := g.nextCopyID; g.nextCopyID++; return id }

// AllocnoByID returns the allocno with the given ID; it panics on an
// unknown ID since the graph's IDs are dense and caller-controlled — an
// unknown ID is a structural programmer error.
func (g *Graph) AllocnoByID(id int) *Allocno {
	if id < 0 || id >= len(g.Allocnos) {
		panic(fmt.Sprintf("progmodel: unknown allocno id %d", id))
	}
	return g.Allocnos[id]
}

func (g *Graph) CopyByID(id int) *Copy {
	for _, c := range g.Copies {
		if c.ID == id {
			return c
		}
	}
	panic(fmt.Sprintf("progmodel: unknown copy id %d", id))
}

// Builder adapts a lir.Function plus the equivalence oracle into a Graph.
type Builder struct {
	Graph *Graph

	pseudoMode map[string]lir.Mode
	defs map[string][]int
	uses map[string][]int
}

func NewBuilder(oracle EquivalenceOracle) *Builder {
	return &Builder{
		Graph: NewGraph(oracle),
		pseudoMode: make(map[string]lir.Mode),
		defs: make(map[string][]int),
		uses: make(map[string][]int),
	}
}

// operandsOf returns the constraint-annotated operand view of insn,
// synthesizing a trivial one-alternative "any general register" view for
// legacy teacher-style instructions (Mov/Add/Sub/...) that carry no
// ConstrainedInsn wrapper, so the allocator still has something to work
// with without requiring every caller to hand-author constraint strings.
func operandsOf(insn lir.Insn) ([]lir.Operand, int64) {
	if p, ok := insn.(lir.OperandProvider); ok {
		if ci, ok := insn.(lir.ConstrainedInsn); ok && ci.Frequency > 0 {
			return p.Operands(), ci.Frequency
		}
		return p.Operands(), 1
	}

	reg := func(name string, io lir.OperandIOMode) lir.Operand {
		return lir.Operand{
			Reg: name, Mode: lir.Mode{Name: "i64", Size: 8},
			Constraints: []string{"r"}, IO: io, MatchedOperand: -1,
		}
	}

	var ops []lir.Operand
	switch v := insn.(type) {
	case lir.Mov:
		ops = []lir.Operand{reg(v.Dst, lir.IOOut), reg(v.Src, lir.IOIn)}
	case lir.Add:
		ops = []lir.Operand{reg(v.Dst, lir.IOOut), reg(v.LHS, lir.IOIn), reg(v.RHS, lir.IOIn)}
	case lir.Sub:
		ops = []lir.Operand{reg(v.Dst, lir.IOOut), reg(v.LHS, lir.IOIn), reg(v.RHS, lir.IOIn)}
	case lir.Mul:
		ops = []lir.Operand{reg(v.Dst, lir.IOOut), reg(v.LHS, lir.IOIn), reg(v.RHS, lir.IOIn)}
	case lir.Div:
		ops = []lir.Operand{reg(v.Dst, lir.IOOut), reg(v.LHS, lir.IOIn), reg(v.RHS, lir.IOIn)}
	case lir.Cmp:
		ops = []lir.Operand{reg(v.Dst, lir.IOOut), reg(v.LHS, lir.IOIn), reg(v.RHS, lir.IOIn)}
	case lir.Load:
		ops = []lir.Operand{reg(v.Dst, lir.IOOut), reg(v.Addr, lir.IOIn)}
	case lir.Store:
		ops = []lir.Operand{reg(v.Addr, lir.IOIn), reg(v.Val, lir.IOIn)}
	case lir.Alloc:
		ops = []lir.Operand{reg(v.Dst, lir.IOOut)}
	case lir.Ret:
		if v.Src != "" {
			ops = []lir.Operand{reg(v.Src, lir.IOIn)}
		}
	case lir.BrCond:
		ops = []lir.Operand{reg(v.Cond, lir.IOIn)}
	case lir.Call:
		if v.Dst != "" {
			ops = append(ops, reg(v.Dst, lir.IOOut))
		}
		for _, a := range v.Args {
			ops = append(ops, reg(a, lir.IOIn))
		}
	}
	for i := range ops {
		if ops[i].MatchedOperand == 0 && ops[i].Reg == "" {
			ops[i].MatchedOperand = -1
		}
	}
	return ops, 1
}

// Build walks fn and populates the graph's allocnos, copies, CANs, and
// conflict sets.
func (b *Builder) Build(fn *lir.Function) *Graph {
	g := b.Graph

	insnIndex := 0
	type occurrence struct {
		insnIdx int
		opIdx int
		op lir.Operand
		allocno int
	}
	var occs []occurrence

	for bi, block := range fn.Blocks {
		freq := fn.BlockFreq(bi)
		for _, insn := range block.Insns {
			ops, insnFreq := operandsOf(insn)
			if insnFreq > 1 {
				freq = insnFreq
			}

			opAllocnos := make([]int, len(ops))
			for oi, op := range ops {
				mode := op.Mode
				id := g.newAllocnoID()
				ia := NewInsnAllocno(id, Location{InsnIndex: insnIndex, OperandIdx: oi, SubClass: op.SubClass, SubregByte: op.SubregByte}, mode, op.IO, -1)
				ia.PossibleAlts = FullAltSet(maxInt(len(op.Constraints), 1))
				ia.Op = op
				g.Allocnos = append(g.Allocnos, ia)
				opAllocnos[oi] = id

				if lir.IsVirtual(op.Reg) {
					pid := b.ensurePseudo(g, op.Reg, mode)
					ia.Regno = g.Allocnos[pid].Regno
					occs = append(occs, occurrence{insnIdx: insnIndex, opIdx: oi, op: op, allocno: id})

					switch op.IO {
					case lir.IOIn:
						b.uses[op.Reg] = append(b.uses[op.Reg], insnIndex)
						g.Copies = append(g.Copies, NewCopy(g.newCopyID(), pid, id, freq, mode))
					case lir.IOOut:
						b.defs[op.Reg] = append(b.defs[op.Reg], insnIndex)
						g.Copies = append(g.Copies, NewCopy(g.newCopyID(), id, pid, freq, mode))
					case lir.IOInOut:
						b.defs[op.Reg] = append(b.defs[op.Reg], insnIndex)
						b.uses[op.Reg] = append(b.uses[op.Reg], insnIndex)
						g.Copies = append(g.Copies, NewCopy(g.newCopyID(), pid, id, freq, mode))
						g.Copies = append(g.Copies, NewCopy(g.newCopyID(), id, pid, freq, mode))
					}
				}
			}

			// Matched-operand ties.
			for oi, op := range ops {
				if op.MatchedOperand >= 0 && op.MatchedOperand < len(opAllocnos) && op.MatchedOperand != oi {
					a := g.AllocnoByID(opAllocnos[oi])
					b2 := g.AllocnoByID(opAllocnos[op.MatchedOperand])
					a.TiedAllocno = b2.ID
					b2.TiedAllocno = a.ID
					a.OriginalP = op.IO == lir.IOOut
					g.Copies = append(g.Copies, NewCopy(g.newCopyID(), b2.ID, a.ID, freq, a.Mode))
				}
			}

			// mov-like copy-propagation edge straight between the two
			// pseudos, in addition to the per-operand pseudo<->insn-allocno
			// edges above.
			if mv, ok := insn.(lir.Mov); ok && lir.IsVirtual(mv.Dst) && lir.IsVirtual(mv.Src) {
				dstID := b.ensurePseudo(g, mv.Dst, lir.Mode{Name: "i64", Size: 8})
				srcID := b.ensurePseudo(g, mv.Src, lir.Mode{Name: "i64", Size: 8})
				g.Copies = append(g.Copies, NewCopy(g.newCopyID(), srcID, dstID, freq, g.Allocnos[dstID].Mode))
			}

			insnIndex++
		}
	}
	g.totalInsns = insnIndex

	b.computeLiveness(g)
	b.computeConflicts(g)
	b.computeCANs(g)
	b.computeCANConflicts(g)

	return g
}

func (b *Builder) ensurePseudo(g *Graph, name string, mode lir.Mode) int {
	if id, ok := g.byPseudoName[name]; ok {
		return id
	}
	regno := len(g.byPseudoName)
	id := g.newAllocnoID()
	p := NewPseudo(id, regno, mode)
	g.Allocnos = append(g.Allocnos, p)
	g.byPseudoName[name] = id
	g.byPseudoRegno[regno] = id
	b.pseudoMode[name] = mode

	if v, ok := g.oracle.EquivalentConstant(name); ok {
		p.UseEquivConst = true
		p.EquivConstValue = v
	}
	return id
}

func (b *Builder) computeLiveness(g *Graph) {
	for name, defIdxs := range b.defs {
		id := g.byPseudoName[name]
		p := g.Allocnos[id]

		useIdxs := b.uses[name]
		if len(useIdxs) == 0 {
			continue // dead; no live range, never conflicts, never assigned.
		}

		start := defIdxs[0]
		for _, d := range defIdxs {
			if d < start {
				start = d
			}
		}
		end := start
		for _, u := range useIdxs {
			if u > end {
				end = u
			}
		}
		p.LiveRange = LiveRange{Segments: []Segment{{Start: start, End: end + 1}}}
	}
	// Pseudos that are used but never defined in this function (e.g.
	// incoming arguments) get a live range from instruction 0.
	for name, useIdxs := range b.uses {
		id := g.byPseudoName[name]
		p := g.Allocnos[id]
		if len(p.LiveRange.Segments) > 0 {
			continue
		}
		end := 0
		for _, u := range useIdxs {
			if u > end {
				end = u
			}
		}
		p.LiveRange = LiveRange{Segments: []Segment{{Start: 0, End: end + 1}}}
	}
}

func (b *Builder) computeConflicts(g *Graph) {
	var pseudos []*Allocno
	for _, a := range g.Allocnos {
		if a.Kind == KindPseudo && len(a.LiveRange.Segments) > 0 {
			pseudos = append(pseudos, a)
		}
	}

	for i := 0; i < len(pseudos); i++ {
		for j := i + 1; j < len(pseudos); j++ {
			if pseudos[i].Regno == pseudos[j].Regno {
				continue
			}
			if pseudos[i].LiveRange.Overlaps(pseudos[j].LiveRange) {
				pseudos[i].ConflictVec = append(pseudos[i].ConflictVec, pseudos[j].ID)
				pseudos[j].ConflictVec = append(pseudos[j].ConflictVec, pseudos[i].ID)
			}
		}
	}

	for _, a := range g.Allocnos {
		if a.Kind != KindInsnOperand {
			continue
		}
		at := a.Loc.InsnIndex
		for _, p := range pseudos {
			if p.Regno == a.Regno {
				continue
			}
			if p.LiveRange.Overlaps(LiveRange{Segments: []Segment{{Start: at, End: at + 1}}}) {
				a.ConflictVec = append(a.ConflictVec, p.ID)
				p.ConflictVec = append(p.ConflictVec, a.ID)
			}
		}
	}
}

func (b *Builder) computeCANs(g *Graph) {
	uf := newUnionFind(len(g.Allocnos))

	for _, cp := range g.Copies {
		if cp.Src < 0 || cp.Dst < 0 {
			continue
		}
		src, dst := g.Allocnos[cp.Src], g.Allocnos[cp.Dst]
		if src.Regno != dst.Regno || src.Regno < 0 {
			continue // only contract copies that share a pseudo
		}
		if conflicts(src, dst) {
			continue
		}
		uf.union(cp.Src, cp.Dst)
	}

	groups := make(map[int][]int)
	for _, a := range g.Allocnos {
		root := uf.find(a.ID)
		groups[root] = append(groups[root], a.ID)
	}

	for _, members := range groups {
		slot := g.nextCANSlot
		g.nextCANSlot++
		can := &CAN{Slot: slot, Members: members}
		for _, id := range members {
			a := g.Allocnos[id]
			a.CAN = slot
			if sz := a.Mode.Size; sz > can.MaxRefSize {
				can.MaxRefSize = sz
			}
			align := a.Mode.Size
			if align > 8 {
				align = 8
			}
			if align > can.MaxRefAlign {
				can.MaxRefAlign = align
			}
			if can.RepresentativeMode == "" {
				can.RepresentativeMode = a.Mode.Name
			}
		}
		if can.MaxRefAlign == 0 {
			can.MaxRefAlign = 1
		}
		g.CANs[slot] = can
	}
}

func conflicts(a, b *Allocno) bool {
	for _, id := range a.ConflictVec {
		if id == b.ID {
			return true
		}
	}
	return false
}

func (b *Builder) computeCANConflicts(g *Graph) {
	for _, ca := range g.CANs {
		for _, cb := range g.CANs {
			if ca.Slot >= cb.Slot {
				continue
			}
			if canMembersConflict(g, ca, cb) {
				ca.ConflictVec = append(ca.ConflictVec, cb.Slot)
				cb.ConflictVec = append(cb.ConflictVec, ca.Slot)
			}
		}
	}
}

func canMembersConflict(g *Graph, ca, cb *CAN) bool {
	for _, ma := range ca.Members {
		for _, mb := range cb.Members {
			if conflicts(g.Allocnos[ma], g.Allocnos[mb]) {
				return true
			}
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
