package exprs

import (
	"testing"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/ir"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

func newEvaluator() (*Evaluator, *ir.Module, *uhdm.ModuleDecl) {
	decl := uhdm.NewModuleDecl("m")
	decl.AddNet("a", 8)
	decl.AddNet("b", 8)
	decl.AddNet("sel", 1)
	mod := ir.NewModule("m")
	ev := &Evaluator{Decl: decl, Mod: mod, IDs: ir.NewIDGen()}
	return ev, mod, decl
}

func TestEvalConstFold(t *testing.T) {
	ev, _, _ := newEvaluator()
	e := &uhdm.Operation{
		Op:       uhdm.OpAdd,
		Operands: []uhdm.Expr{&uhdm.Constant{Value: 3, Width: 8}, &uhdm.Constant{Value: 4, Width: 8}},
		Width:    8,
	}
	got := ev.Eval(e, nil)
	if !got.IsFullyConst() || got.AsConstInt() != 7 {
		t.Fatalf("got %v, want constant 7", got)
	}
}

func TestEvalRefObjResolvesModuleWire(t *testing.T) {
	ev, mod, _ := newEvaluator()
	got := ev.Eval(&uhdm.RefObj{Name: "a"}, nil)
	if !got.IsWire() || got.Size() != 8 {
		t.Fatalf("got %v, want whole 8-bit wire a", got)
	}
	if mod.Wire("a") == nil {
		t.Fatalf("expected wire a to be lazily registered in the module")
	}
}

func TestEvalEnvShadowsModuleWire(t *testing.T) {
	ev, _, _ := newEvaluator()
	env := Env{"a": ir.FromConstInt(42, 8)}
	got := ev.Eval(&uhdm.RefObj{Name: "a"}, env)
	if !got.IsFullyConst() || got.AsConstInt() != 42 {
		t.Fatalf("got %v, want env override 42", got)
	}
}

func TestEvalNonConstBinaryEmitsCell(t *testing.T) {
	ev, mod, _ := newEvaluator()
	e := &uhdm.Operation{
		Op:       uhdm.OpAdd,
		Operands: []uhdm.Expr{&uhdm.RefObj{Name: "a"}, &uhdm.RefObj{Name: "b"}},
		Width:    8,
	}
	got := ev.Eval(e, nil)
	if got.IsFullyConst() {
		t.Fatalf("expected a non-const result")
	}
	cells := mod.Cells()
	if len(cells) != 1 || cells[0].Kind != ir.CellAdd {
		t.Fatalf("expected one $add cell, got %+v", cells)
	}
}

func TestEvalTernaryConstCondFolds(t *testing.T) {
	ev, _, _ := newEvaluator()
	e := &uhdm.Operation{
		Op: uhdm.OpTernary,
		Operands: []uhdm.Expr{
			&uhdm.Constant{Value: 1, Width: 1},
			&uhdm.Constant{Value: 5, Width: 8},
			&uhdm.Constant{Value: 9, Width: 8},
		},
	}
	got := ev.Eval(e, nil)
	if !got.IsFullyConst() || got.AsConstInt() != 5 {
		t.Fatalf("got %v, want constant 5 (then-branch)", got)
	}
}

func TestEvalTernaryDynamicCondEmitsMux(t *testing.T) {
	ev, mod, _ := newEvaluator()
	e := &uhdm.Operation{
		Op: uhdm.OpTernary,
		Operands: []uhdm.Expr{
			&uhdm.RefObj{Name: "sel"},
			&uhdm.RefObj{Name: "a"},
			&uhdm.RefObj{Name: "b"},
		},
	}
	got := ev.Eval(e, nil)
	if got.IsFullyConst() {
		t.Fatalf("expected a non-const result")
	}
	found := false
	for _, c := range mod.Cells() {
		if c.Kind == ir.CellMux {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a $mux cell among %+v", mod.Cells())
	}
}

func TestEvalConcatIsStructuralNoCell(t *testing.T) {
	ev, mod, _ := newEvaluator()
	e := &uhdm.Operation{
		Op:       uhdm.OpConcat,
		Operands: []uhdm.Expr{&uhdm.RefObj{Name: "a"}, &uhdm.RefObj{Name: "b"}},
	}
	got := ev.Eval(e, nil)
	if got.Size() != 16 {
		t.Fatalf("got size %d, want 16", got.Size())
	}
	if len(mod.Cells()) != 0 {
		t.Fatalf("concat should not emit a cell, got %+v", mod.Cells())
	}
}

func TestEvalBitSelectConstIndex(t *testing.T) {
	ev, _, _ := newEvaluator()
	e := &uhdm.BitSelect{Base: &uhdm.Constant{Value: 0b1010, Width: 8}, Index: &uhdm.Constant{Value: 1, Width: 8}}
	got := ev.Eval(e, nil)
	if !got.IsFullyConst() || got.AsConstInt() != 1 {
		t.Fatalf("got %v, want bit 1 of 8'b00001010 = 1", got)
	}
}

func TestEvalUnknownSignalReportsError(t *testing.T) {
	ev, _, _ := newEvaluator()
	var msg string
	ev.OnError = func(m string, _ uhdm.Loc) { msg = m }
	got := ev.Eval(&uhdm.RefObj{Name: "nope"}, nil)
	if got.Size() != 0 {
		t.Fatalf("expected zero-value SigSpec on unresolved signal")
	}
	if msg == "" {
		t.Fatalf("expected OnError to fire")
	}
}
