package progmodel

// ConflictOracle adapts Graph to memslot.ConflictOracle, so the memory-
// slot manager can consult the CAN/copy conflict graph without importing
// progmodel (neither package imports the other; pass wires this adapter
// into memslot.New).
type ConflictOracle struct {
	Graph *Graph
	// CopyConflict reports whether two copies' secondary reloads cannot
	// share resources; pass.Init sets it from Config.Copy. A nil
	// CopyConflict treats all copy pairs as non-conflicting.
	CopyConflict func(a, b int) bool
}

func (o ConflictOracle) CANsConflict(a, b int) bool {
	ca, ok := o.Graph.CANs[a]
	if !ok {
		return false
	}
	for _, c := range ca.ConflictVec {
		if c == b {
			return true
		}
	}
	return false
}

func (o ConflictOracle) CopiesConflict(a, b int) bool {
	if o.CopyConflict == nil {
		return false
	}
	return o.CopyConflict(a, b)
}

func (o ConflictOracle) CANConflictsWithCopy(can, copyID int) bool {
	cp := o.Graph.CopyByID(copyID)
	for _, end := range []int{cp.Src, cp.Dst} {
		if end < 0 {
			continue
		}
		a := o.Graph.Allocnos[end]
		if a.CAN == can {
			return true
		}
		if o.CANsConflict(can, a.CAN) {
			return true
		}
	}
	return false
}
