// Package constraint implements a per-alternative feasibility evaluator:
// given an instruction's alternatives and a proposed assignment, it
// reports which alternatives remain feasible and the resulting
// register-class intersections.
package constraint

import (
	"github.com/orizon-lang/regalloc-core/internal/lir"
	"github.com/orizon-lang/regalloc-core/internal/progmodel"
	"github.com/orizon-lang/regalloc-core/internal/target"
)

// bucketKind classifies one constraint letter into a semantic bucket, a
// data table in place of macro-built dispatch.
type bucketKind int

const (
	bucketClass bucketKind = iota
	bucketConst
	bucketFloat
	bucketMemory
	bucketAddress
	bucketGeneral // 'g': general reg, memory, or immediate
	bucketAnyReg // 'X': anything
	bucketIgnore // '?', '!', '=', '+', '0'-'9': preference/IO/tie markers, gate-neutral here
	bucketTerminator
	bucketSkipNext
)

var letterBuckets = map[byte]bucketKind{
	'i': bucketConst, 'n': bucketConst, 's': bucketConst,
	'I': bucketConst, 'J': bucketConst, 'K': bucketConst, 'L': bucketConst,
	'M': bucketConst, 'N': bucketConst, 'O': bucketConst, 'P': bucketConst,
	'E': bucketFloat, 'F': bucketFloat, 'G': bucketFloat, 'H': bucketFloat,
	'm': bucketMemory, 'o': bucketMemory, 'V': bucketMemory,
	'<': bucketMemory, '>': bucketMemory,
	'p': bucketAddress,
	'g': bucketGeneral,
	'X': bucketAnyReg,
	'?': bucketIgnore, '!': bucketIgnore, '=': bucketIgnore, '+': bucketIgnore,
	// Matched-digit ties ('0'-'9') are resolved structurally, not here: the
	// builder reads the same digit off lir.Operand.MatchedOperand and wires
	// progmodel.Allocno.TiedAllocno at graph-construction time (see
	// progmodel/graph.go), and the engine assigns a tied pair to one shared
	// hard register as a unit (engine.AssignAllocno). By the time a digit
	// character reaches this evaluator the tie is already either satisfied
	// or not yet decided, so it gates neither way, matching '?'/'!'/'='/'+'.
	'0': bucketIgnore, '1': bucketIgnore, '2': bucketIgnore, '3': bucketIgnore,
	'4': bucketIgnore, '5': bucketIgnore, '6': bucketIgnore, '7': bucketIgnore,
	'8': bucketIgnore, '9': bucketIgnore,
	'#': bucketTerminator,
	'*': bucketSkipNext,
}

// State is the tentative per-operand assignment the evaluator tests
// against a constraint string.
type State struct {
	HardRegno int // -1 if not in a register
	UseEquivConst bool
	InMemory bool
	Offset int64
	HasOffset bool
}

// Evaluator re-derives feasible-alternative bitsets from constraint
// strings given a Facade for class-letter lookups.
type Evaluator struct {
	Facade target.Facade
}

func New(facade target.Facade) *Evaluator {
	return &Evaluator{Facade: facade}
}

// AltFeasible reports whether alternative alt of operand op's constraint
// string admits state st. integerOK, when non-nil, is consulted for
// integer-constant constraint letters ('I'..'P') to decide whether a
// literal/offset value is admissible.
func (e *Evaluator) AltFeasible(op lir.Operand, alt int, st State, integerOK func(letter byte, offset int64) bool) bool {
	if alt < 0 || alt >= len(op.Constraints) {
		return false
	}
	cs := op.Constraints[alt]

	ok := false
	i := 0
	for i < len(cs) {
		c := cs[i]
		bucket, known := letterBuckets[c]
		if !known {
			// bare register-class letter, e.g. 'r'.
			if class, found := e.Facade.ConstraintLetterClass(c); found {
				if st.HardRegno >= 0 && class == e.Facade.RegnoRegClass(target.HardReg(st.HardRegno)) {
					ok = true
				}
			}
			i++
			continue
		}

		switch bucket {
		case bucketSkipNext:
			i++ // the '*' character itself marks the NEXT letter as non-preferred, not gating.
		case bucketTerminator:
			i = len(cs) // '#' terminates the alternative's matter for this operand.
		case bucketIgnore:
			// '?', '!', '=', '+', '0'-'9' never gate feasibility here; see
			// the matched-digit comment on letterBuckets above.
		case bucketConst:
			if st.UseEquivConst || st.HasOffset {
				if integerOK == nil || integerOK(c, st.Offset) {
					ok = true
				}
			}
		case bucketFloat:
			if st.UseEquivConst {
				ok = true
			}
		case bucketMemory, bucketAddress:
			if st.InMemory {
				ok = true
			}
		case bucketGeneral:
			ok = true
		case bucketAnyReg:
			ok = true
		case bucketClass:
			// handled via ConstraintLetterClass above for concrete letters;
			// reaching here means a class-bucket letter with no facade
			// mapping, which never gates true.
		}
		i++
	}

	return ok
}

// CheckHardRegnoMemoryOnConstraint tentatively assigns a's state,
// re-derives the possible-alternatives bitset, intersects pairwise across
// every INSN_ALLOCNO of the same instruction, and reports feasibility —
// without mutating a.
func (e *Evaluator) CheckHardRegnoMemoryOnConstraint(
	g *progmodel.Graph,
	insnOperands map[int]lir.Operand, // allocno ID -> its Operand, for every INSN_ALLOCNO at a's instruction
	a *progmodel.Allocno,
	proposed State,
	integerOK func(letter byte, offset int64) bool,
) bool {
	states := make(map[int]State, len(insnOperands))
	for id := range insnOperands {
		other := g.AllocnoByID(id)
		if id == a.ID {
			states[id] = proposed
			continue
		}
		states[id] = stateOf(other)
	}

	// Recompute each operand's feasible set under the tentative states and
	// intersect.
	var intersection progmodel.AltSet
	first := true
	for id, op := range insnOperands {
		var feas progmodel.AltSet
		n := len(op.Constraints)
		for alt := 0; alt < n; alt++ {
			if e.AltFeasible(op, alt, states[id], integerOK) {
				feas = feas.With(alt)
			}
		}
		if first {
			intersection = feas
			first = false
		} else {
			intersection = intersection.Intersect(feas)
		}
	}

	return !intersection.Empty()
}

func stateOf(a *progmodel.Allocno) State {
	return State{
		HardRegno: a.HardRegno,
		UseEquivConst: a.UseEquivConst,
		InMemory: a.MemSlotID >= 0 && a.HardRegno < 0,
	}
}

// PossibleAltRegIntersection returns the union over feasible alternatives
// of the union over constraint letters of each register class mentioned
// for a's operand position.
func (e *Evaluator) PossibleAltRegIntersection(op lir.Operand, feasible progmodel.AltSet) target.HardRegSet {
	var regs target.HardRegSet
	for alt := 0; alt < len(op.Constraints); alt++ {
		if !feasible.Has(alt) {
			continue
		}
		for i := 0; i < len(op.Constraints[alt]); i++ {
			c := op.Constraints[alt][i]
			if class, ok := e.Facade.ConstraintLetterClass(c); ok {
				regs = regs.Union(e.Facade.ClassContents(class))
			}
		}
	}
	return regs
}

// AllAltOffsetOK checks, for operand-in-PLUS-const elimination cases,
// that every feasible alternative's integer-constraint letters admit
// offset.
func (e *Evaluator) AllAltOffsetOK(op lir.Operand, feasible progmodel.AltSet, offset int64, integerOK func(letter byte, offset int64) bool) bool {
	if integerOK == nil {
		return true
	}
	for alt := 0; alt < len(op.Constraints); alt++ {
		if !feasible.Has(alt) {
			continue
		}
		cs := op.Constraints[alt]
		admitted := false
		for i := 0; i < len(cs); i++ {
			if letterBuckets[cs[i]] == bucketConst {
				if integerOK(cs[i], offset) {
					admitted = true
					break
				}
			}
		}
		if !admitted {
			return false
		}
	}
	return true
}
