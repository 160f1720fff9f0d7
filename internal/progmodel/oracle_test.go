package progmodel

import (
	"testing"

	"github.com/orizon-lang/regalloc-core/internal/lir"
)

func TestConflictOracleCANsConflict(t *testing.T) {
	g := NewGraph(nil)
	g.CANs[0] = &CAN{Slot: 0, ConflictVec: []int{1}}
	g.CANs[1] = &CAN{Slot: 1}

	o := ConflictOracle{Graph: g}
	if !o.CANsConflict(0, 1) {
		t.Error("expected CAN 0 and 1 to conflict per the recorded ConflictVec")
	}
	if o.CANsConflict(0, 2) {
		t.Error("expected no conflict for an unknown CAN")
	}
}

func TestConflictOracleCopiesConflictDefaultsFalse(t *testing.T) {
	o := ConflictOracle{}
	if o.CopiesConflict(1, 2) {
		t.Error("expected CopiesConflict to default to false when CopyConflict is nil")
	}
}

func TestConflictOracleCopiesConflictDelegates(t *testing.T) {
	o := ConflictOracle{CopyConflict: func(a, b int) bool { return a == 1 && b == 2 }}
	if !o.CopiesConflict(1, 2) {
		t.Error("expected CopiesConflict to delegate to CopyConflict")
	}
	if o.CopiesConflict(2, 1) {
		t.Error("expected CopiesConflict to respect argument order per the delegate")
	}
}

func TestConflictOracleCANConflictsWithCopy(t *testing.T) {
	g := NewGraph(nil)
	a := NewPseudo(0, 1, lir.Mode{Name: "i64", Size: 8})
	a.CAN = 5
	g.Allocnos = append(g.Allocnos, a)
	g.Copies = append(g.Copies, NewCopy(0, 0, -1, 1, lir.Mode{Name: "i64", Size: 8}))

	o := ConflictOracle{Graph: g}
	if !o.CANConflictsWithCopy(5, 0) {
		t.Error("expected CAN 5 to conflict with copy 0 since its endpoint belongs to CAN 5")
	}
	if o.CANConflictsWithCopy(6, 0) {
		t.Error("expected CAN 6 not to conflict with a copy whose endpoint belongs to CAN 5")
	}
}
