package progmodel

import (
	"testing"

	"github.com/orizon-lang/regalloc-core/internal/lir"
)

func TestNewCopyHasNoSubstitutionByDefault(t *testing.T) {
	cp := NewCopy(0, 1, 2, 1, lir.Mode{Name: "i64", Size: 8})

	if cp.SubstSrcHardRegno != -1 {
		t.Errorf("SubstSrcHardRegno = %d, want -1", cp.SubstSrcHardRegno)
	}
	if cp.Secondary != nil {
		t.Error("expected no secondary plan on a fresh copy")
	}
}

func TestSecondaryChangeCloneIsDeepValueCopy(t *testing.T) {
	sc := &SecondaryChange{IntermClass: 1, IntermRegno: 3, OccupiedHardRegs: 0xF}

	clone := sc.Clone()
	clone.IntermRegno = 9

	if sc.IntermRegno != 3 {
		t.Errorf("mutating the clone affected the original: IntermRegno = %d, want 3", sc.IntermRegno)
	}
}

func TestSecondaryChangeCloneNil(t *testing.T) {
	var sc *SecondaryChange
	if sc.Clone() != nil {
		t.Error("expected Clone of a nil *SecondaryChange to return nil")
	}
}
