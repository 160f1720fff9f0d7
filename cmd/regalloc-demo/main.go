// Command regalloc-demo drives the allocator core over a small built-in
// function and prints the resulting allocation.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/orizon-lang/regalloc-core/internal/lir"
	"github.com/orizon-lang/regalloc-core/internal/pass"
	"github.com/orizon-lang/regalloc-core/internal/progmodel"
	"github.com/orizon-lang/regalloc-core/internal/target"
	"github.com/spf13/cobra"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "regalloc-demo",
		Short: "Register allocator core demo — builds a sample function and allocates it",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build the sample function, allocate it with a first-fit driver, and report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(verbose)
		},
	}
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every allocno before and after allocation")

	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// sampleFunction builds a small function exercising register pressure: four
// live pseudos feeding into two arithmetic chains that both survive to the
// return.
func sampleFunction() *lir.Function {
	return &lir.Function{
		Name: "demo",
		Blocks: []*lir.BasicBlock{
			{
				Label: "entry",
				Insns: []lir.Insn{
					lir.Mov{Dst: "%a", Src: "1"},
					lir.Mov{Dst: "%b", Src: "2"},
					lir.Mov{Dst: "%c", Src: "3"},
					lir.Mov{Dst: "%d", Src: "4"},
					lir.Add{Dst: "%e", LHS: "%a", RHS: "%b"},
					lir.Sub{Dst: "%f", LHS: "%c", RHS: "%d"},
					lir.Mul{Dst: "%g", LHS: "%e", RHS: "%f"},
					lir.Add{Dst: "%h", LHS: "%g", RHS: "%a"},
					lir.Ret{Src: "%h"},
				},
			},
		},
		Freq: []int64{1},
	}
}

func runDemo(verbose bool) error {
	facade := target.NewGeneric()

	p := pass.Init(pass.Config{Facade: facade})
	p.BuildGraph(sampleFunction())

	fmt.Printf("built %d allocnos, %d copies, %d CANs\n", len(p.Graph.Allocnos), len(p.Graph.Copies), len(p.Graph.CANs))

	if verbose {
		printAllocnos(p.Graph, "before allocation")
	}

	p.StartTransaction()
	allocClass, _ := facade.ConstraintLetterClass('r')
	possible := facade.ClassContents(allocClass)

	ok := firstFitAllocate(p, allocClass, possible)
	if !ok {
		p.UndoTransaction()
		return fmt.Errorf("first-fit allocation failed to place every allocno")
	}
	p.EndTransaction()

	if verbose {
		printAllocnos(p.Graph, "after allocation")
	}

	stats := p.StackArea()
	fmt.Printf("global allocation cost: %d\n", p.GlobalAllocationCost())
	fmt.Printf("stack area: size=%d align=%d\n", stats.Size, stats.Alignment)
	return nil
}

// firstFitAllocate is a trivial non-speculative driver: it walks PSEUDO_REG
// allocnos in ID order and assigns each the first hard register the engine
// accepts, falling back to memory when none fits. It performs no search or
// spilling heuristic — that is deliberately out of scope for this driver.
func firstFitAllocate(p *pass.Pass, class target.RegClass, possible target.HardRegSet) bool {
	ids := make([]int, 0, len(p.Graph.Allocnos))
	for _, a := range p.Graph.Allocnos {
		if a.Kind == progmodel.KindPseudo {
			ids = append(ids, a.ID)
		}
	}
	sort.Ints(ids)

	for _, id := range ids {
		a := p.Graph.AllocnoByID(id)
		if p.AssignAllocno(a, class, possible, target.HardReg(-1)) {
			continue
		}
		if !p.AssignAllocno(a, target.NoRegs, 0, target.HardReg(-1)) {
			return false
		}
	}
	return true
}

func printAllocnos(g *progmodel.Graph, label string) {
	fmt.Printf("--- %s ---\n", label)
	for _, a := range g.Allocnos {
		if a.Kind != progmodel.KindPseudo {
			continue
		}
		loc := "unassigned"
		switch {
		case a.HardRegno >= 0:
			loc = fmt.Sprintf("hardreg %d", a.HardRegno)
		case a.MemSlotID >= 0:
			loc = fmt.Sprintf("memslot %d", a.MemSlotID)
		}
		fmt.Printf("  allocno %d (regno %d, mode %s): %s\n", a.ID, a.Regno, a.Mode, loc)
	}
}
