package classify

import (
	"testing"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

func ref(name string) *uhdm.RefObj { return &uhdm.RefObj{Name: name} }

func edge(kind uhdm.EdgeKind, name string) *uhdm.EdgeOp {
	return &uhdm.EdgeOp{Edge: kind, Signal: ref(name)}
}

func TestClassifyComb(t *testing.T) {
	p := &uhdm.Process{
		EventCtrl: &uhdm.EventControl{Expr: nil},
		Body:      &uhdm.Begin{},
	}
	got := Classify(p)
	if got.Tag != TagComb {
		t.Fatalf("Tag = %v, want Comb", got.Tag)
	}
}

func TestClassifyFF(t *testing.T) {
	p := &uhdm.Process{
		EventCtrl: &uhdm.EventControl{Expr: edge(uhdm.EdgePos, "clk")},
		Body: &uhdm.Assign{
			LHS: ref("q"), RHS: ref("d"),
		},
	}
	got := Classify(p)
	if got.Tag != TagFF {
		t.Fatalf("Tag = %v, want FF", got.Tag)
	}
	if !got.HasClock || !got.ClockPosEdge {
		t.Fatalf("expected posedge clock extracted, got %+v", got)
	}
}

func TestClassifyAsyncResetFF(t *testing.T) {
	p := &uhdm.Process{
		EventCtrl: &uhdm.EventControl{Expr: &uhdm.Operation{
			Op:       uhdm.OpOr,
			Operands: []uhdm.Expr{edge(uhdm.EdgePos, "clk"), edge(uhdm.EdgeNeg, "rst_n")},
		}},
		Body: &uhdm.If{Cond: ref("rst_n")},
	}
	got := Classify(p)
	if got.Tag != TagAsyncResetFF {
		t.Fatalf("Tag = %v, want AsyncResetFF", got.Tag)
	}
	if !got.HasReset || got.ResetPosEdge {
		t.Fatalf("expected negedge reset extracted, got %+v", got)
	}
}

func TestClassifySRFF(t *testing.T) {
	p := &uhdm.Process{
		EventCtrl: &uhdm.EventControl{Expr: &uhdm.Operation{
			Op: uhdm.OpOr,
			Operands: []uhdm.Expr{
				edge(uhdm.EdgePos, "clk"),
				edge(uhdm.EdgePos, "rst"),
				edge(uhdm.EdgePos, "start"),
			},
		}},
	}
	got := Classify(p)
	if got.Tag != TagSRFF {
		t.Fatalf("Tag = %v, want SRFF", got.Tag)
	}
	if len(got.ExtraEdges) != 1 {
		t.Fatalf("ExtraEdges = %v, want 1 extra edge", got.ExtraEdges)
	}
}

func TestClassifyNestedSensitivityList(t *testing.T) {
	// (posedge clk or (posedge rst or negedge x)) -- list-of-lists shape.
	inner := &uhdm.Operation{Op: uhdm.OpOr, Operands: []uhdm.Expr{edge(uhdm.EdgePos, "rst"), edge(uhdm.EdgeNeg, "x")}}
	p := &uhdm.Process{
		EventCtrl: &uhdm.EventControl{Expr: &uhdm.Operation{
			Op:       uhdm.OpOr,
			Operands: []uhdm.Expr{edge(uhdm.EdgePos, "clk"), inner},
		}},
	}
	got := Classify(p)
	if got.Tag != TagSRFF {
		t.Fatalf("Tag = %v, want SRFF (3 flattened edges)", got.Tag)
	}
}

func TestClassifyInitialSync(t *testing.T) {
	p := &uhdm.Process{Body: &uhdm.Assign{LHS: ref("q"), RHS: &uhdm.Constant{Value: 0, Width: 8}}}
	got := Classify(p)
	if got.Tag != TagInitialSync {
		t.Fatalf("Tag = %v, want InitialSync", got.Tag)
	}
}

func TestClassifyInitialComb(t *testing.T) {
	p := &uhdm.Process{Body: &uhdm.If{Cond: ref("sel"), Then: &uhdm.Assign{LHS: ref("y"), RHS: ref("a")}}}
	got := Classify(p)
	if got.Tag != TagInitialComb {
		t.Fatalf("Tag = %v, want InitialComb", got.Tag)
	}
}

func TestClassifyInitialInterpreted(t *testing.T) {
	p := &uhdm.Process{
		Body: &uhdm.For{
			LoopVar: &uhdm.VarDecl{Name: "i", Width: 32},
			Cond:    &uhdm.Operation{Op: uhdm.OpLt, Operands: []uhdm.Expr{ref("i"), &uhdm.Constant{Value: 4, Width: 32}}},
			Body:    &uhdm.Assign{LHS: &uhdm.BitSelect{Base: ref("memory"), Index: ref("i")}, RHS: ref("j")},
		},
	}
	got := Classify(p)
	if got.Tag != TagInitialInterpreted {
		t.Fatalf("Tag = %v, want InitialInterpreted", got.Tag)
	}
}
