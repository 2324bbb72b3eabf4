package translate

import (
	"testing"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/ir"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

func newDecl(name string) *uhdm.ModuleDecl {
	return uhdm.NewModuleDecl(name)
}

func newTranslator(decl *uhdm.ModuleDecl) (*Translator, *ir.Module) {
	mod := ir.NewModule(decl.Name)
	tr := New(mod, decl, ir.NewIDGen())
	return tr, mod
}

func ref(name string) *uhdm.RefObj { return &uhdm.RefObj{Name: name} }

func posedge(name string) *uhdm.EdgeOp { return &uhdm.EdgeOp{Edge: uhdm.EdgePos, Signal: ref(name)} }
func negedge(name string) *uhdm.EdgeOp { return &uhdm.EdgeOp{Edge: uhdm.EdgeNeg, Signal: ref(name)} }

func orExpr(edges ...*uhdm.EdgeOp) uhdm.Expr {
	if len(edges) == 1 {
		return edges[0]
	}
	ops := make([]uhdm.Expr, len(edges))
	for i, e := range edges {
		ops[i] = e
	}
	return &uhdm.Operation{Op: uhdm.OpOr, Operands: ops}
}

// --- Scenario 1: simple D flip-flop ---
//
//	always @(posedge clk) q <= d;
func TestSimpleDFlipFlop(t *testing.T) {
	decl := newDecl("dff")
	decl.AddNet("clk", 1)
	decl.AddNet("d", 8)
	decl.AddNet("q", 8)

	proc := &uhdm.Process{
		EventCtrl: &uhdm.EventControl{Expr: posedge("clk")},
		Body: &uhdm.Assign{LHS: ref("q"), RHS: ref("d")},
	}

	tr, mod := newTranslator(decl)
	p := tr.TranslateProcess(proc)

	if p.Kind != ir.ProcFF {
		t.Fatalf("kind = %v, want ProcFF", p.Kind)
	}
	if len(p.Syncs) != 1 {
		t.Fatalf("len(Syncs) = %d, want 1", len(p.Syncs))
	}
	sr := p.Syncs[0]
	if sr.Type != ir.TriggerPosEdge {
		t.Fatalf("sync type = %v, want posedge", sr.Type)
	}
	if len(sr.Actions) != 1 {
		t.Fatalf("len(Actions) = %d, want 1", len(sr.Actions))
	}
	q := mod.Wire("q")
	tmp := mod.Wire(`$0\q`)
	if tmp == nil {
		t.Fatalf(`expected temp wire $0\q to exist`)
	}
	if !sr.Actions[0].LHS.Equal(ir.FromWire(q)) || !sr.Actions[0].RHS.Equal(ir.FromWire(tmp)) {
		t.Fatalf("sync action = %s <= %s, want q <= $0\\q", sr.Actions[0].LHS, sr.Actions[0].RHS)
	}
	if len(p.RootCase.Actions) != 2 {
		t.Fatalf("root case actions = %d, want 2 (init + assign)", len(p.RootCase.Actions))
	}
}

// --- Scenario 2: async-reset counter ---
//
//	always @(posedge clk or negedge rst_n)
//	  if (!rst_n) count <= 8'd0;
//	  else count <= count + 1;
func TestAsyncResetCounter(t *testing.T) {
	decl := newDecl("counter")
	decl.AddNet("clk", 1)
	decl.AddNet("rst_n", 1)
	decl.AddNet("count", 8)

	notRstN := &uhdm.Operation{Op: uhdm.OpLogNot, Operands: []uhdm.Expr{ref("rst_n")}}
	ifStmt := &uhdm.If{
		Cond: notRstN,
		Then: &uhdm.Assign{LHS: ref("count"), RHS: &uhdm.Constant{Value: 0, Width: 8}},
		Else: &uhdm.Assign{LHS: ref("count"), RHS: &uhdm.Operation{
			Op: uhdm.OpAdd, Operands: []uhdm.Expr{ref("count"), &uhdm.Constant{Value: 1, Width: 8}},
		}},
	}
	proc := &uhdm.Process{
		EventCtrl: &uhdm.EventControl{Expr: orExpr(posedge("clk"), negedge("rst_n"))},
		Body:      ifStmt,
	}

	tr, mod := newTranslator(decl)
	p := tr.TranslateProcess(proc)

	if p.Kind != ir.ProcAsyncResetFF {
		t.Fatalf("kind = %v, want ProcAsyncResetFF", p.Kind)
	}
	if p.Attrs["has_async_reset"] != "1" {
		t.Fatalf("has_async_reset attribute missing")
	}
	if len(p.Syncs) != 2 {
		t.Fatalf("len(Syncs) = %d, want 2", len(p.Syncs))
	}
	if len(p.RootCase.Switches) != 1 {
		t.Fatalf("root case switches = %d, want 1", len(p.RootCase.Switches))
	}
	sw := p.RootCase.Switches[0]
	if len(sw.Cases) != 2 {
		t.Fatalf("switch cases = %d, want 2 (reset + default)", len(sw.Cases))
	}

	clkSync, rstSync := p.Syncs[0], p.Syncs[1]
	if clkSync.Type != ir.TriggerPosEdge || rstSync.Type != ir.TriggerNegEdge {
		t.Fatalf("sync trigger order wrong: %v, %v", clkSync.Type, rstSync.Type)
	}
	if len(clkSync.Actions) != len(rstSync.Actions) {
		t.Fatalf("clk/rst action counts differ: %d vs %d", len(clkSync.Actions), len(rstSync.Actions))
	}
	for i := range clkSync.Actions {
		if !clkSync.Actions[i].LHS.Equal(rstSync.Actions[i].LHS) || !clkSync.Actions[i].RHS.Equal(rstSync.Actions[i].RHS) {
			t.Fatalf("clk/rst action %d differs: %v vs %v", i, clkSync.Actions[i], rstSync.Actions[i])
		}
	}
	_ = mod
}

// --- Scenario 3: dual-port RAM with enable ---
//
//	always @(posedge clk) if (we) mem[addr] <= data; q <= mem[addr];
func TestMemoryWriteWithEnable(t *testing.T) {
	decl := newDecl("ram")
	decl.AddNet("clk", 1)
	decl.AddNet("we", 1)
	decl.AddNet("addr", 4)
	decl.AddNet("data", 8)
	decl.AddNet("q", 8)
	decl.AddArray("mem", 16, 8)

	writeStmt := &uhdm.If{
		Cond: ref("we"),
		Then: &uhdm.Assign{LHS: &uhdm.BitSelect{Base: ref("mem"), Index: ref("addr")}, RHS: ref("data")},
	}
	readStmt := &uhdm.Assign{LHS: ref("q"), RHS: &uhdm.BitSelect{Base: ref("mem"), Index: ref("addr")}}
	proc := &uhdm.Process{
		EventCtrl: &uhdm.EventControl{Expr: posedge("clk")},
		Body:      &uhdm.Begin{Stmts: []uhdm.Stmt{writeStmt, readStmt}},
	}

	tr, mod := newTranslator(decl)
	p := tr.TranslateProcess(proc)

	if p.Kind != ir.ProcFF {
		t.Fatalf("kind = %v, want ProcFF", p.Kind)
	}
	if len(p.Syncs) != 1 {
		t.Fatalf("len(Syncs) = %d, want 1", len(p.Syncs))
	}
	sr := p.Syncs[0]
	if len(sr.MemWrites) != 1 {
		t.Fatalf("mem writes = %d, want 1", len(sr.MemWrites))
	}
	mw := sr.MemWrites[0]
	if mw.Memory.Name != "mem" {
		t.Fatalf("mem write targets %q, want mem", mw.Memory.Name)
	}
	if mw.Enable.Size() != mw.Data.Size() || mw.Data.Size() != mw.Memory.DataWidth {
		t.Fatalf("enable/data/datawidth mismatch: en=%d data=%d dw=%d", mw.Enable.Size(), mw.Data.Size(), mw.Memory.DataWidth)
	}
	if mw.Address.Size() != mw.Memory.AddrWidth() {
		t.Fatalf("address width = %d, want %d", mw.Address.Size(), mw.Memory.AddrWidth())
	}

	// exactly one ordinary action (q <= $0\q); the memory write never
	// appears in the regular action list.
	foundQ := false
	for _, a := range sr.Actions {
		if a.LHS.Equal(ir.FromWire(mod.Wire("q"))) {
			foundQ = true
		}
		if mw.Memory != nil && a.LHS.Equal(mw.Address) {
			t.Fatalf("memory write address leaked into regular action list")
		}
	}
	if !foundQ {
		t.Fatalf("expected a regular action assigning q")
	}
}

// --- Scenario 5: combinational case with a block-local variable ---
//
//	always_comb begin
//	  int tmp; tmp = a + b;
//	  case (sel)
//	    2'b00: y = tmp;
//	    2'b01: y = tmp + 1;
//	    default: y = 0;
//	  endcase
//	end
func TestCombBlockLocalCase(t *testing.T) {
	decl := newDecl("combcase")
	decl.AddNet("a", 4)
	decl.AddNet("b", 4)
	decl.AddNet("sel", 2)
	decl.AddNet("y", 8)

	body := &uhdm.NamedBegin{
		Name:   "blk",
		Locals: []*uhdm.VarDecl{{Name: "tmp", Width: 8}},
		Stmts: []uhdm.Stmt{
			&uhdm.Assign{LHS: ref("tmp"), RHS: &uhdm.Operation{Op: uhdm.OpAdd, Operands: []uhdm.Expr{ref("a"), ref("b")}}, Blocking: true},
			&uhdm.Case{
				Selector: ref("sel"),
				Items: []*uhdm.CaseItem{
					{Compare: []uhdm.Expr{&uhdm.Constant{Value: 0, Width: 2}}, Body: &uhdm.Assign{LHS: ref("y"), RHS: ref("tmp")}},
					{Compare: []uhdm.Expr{&uhdm.Constant{Value: 1, Width: 2}}, Body: &uhdm.Assign{LHS: ref("y"), RHS: &uhdm.Operation{
						Op: uhdm.OpAdd, Operands: []uhdm.Expr{ref("tmp"), &uhdm.Constant{Value: 1, Width: 8}},
					}}},
					{Compare: nil, Body: &uhdm.Assign{LHS: ref("y"), RHS: &uhdm.Constant{Value: 0, Width: 8}}},
				},
			},
		},
	}
	proc := &uhdm.Process{EventCtrl: &uhdm.EventControl{}, Body: body}

	tr, mod := newTranslator(decl)
	p := tr.TranslateProcess(proc)

	if p.Kind != ir.ProcComb {
		t.Fatalf("kind = %v, want ProcComb", p.Kind)
	}
	if mod.Wire("blk.tmp") == nil {
		t.Fatalf("expected hierarchical wire blk.tmp")
	}
	if mod.Wire(`$0\blk.tmp`) == nil {
		t.Fatalf(`expected temp wire $0\blk.tmp`)
	}
	if len(p.Syncs) != 1 || p.Syncs[0].Type != ir.TriggerAlways {
		t.Fatalf("expected exactly one level-always sync rule")
	}
	sr := p.Syncs[0]
	sawY, sawTmp := false, false
	for _, a := range sr.Actions {
		if a.LHS.Equal(ir.FromWire(mod.Wire("y"))) {
			sawY = true
		}
		if a.LHS.Equal(ir.FromWire(mod.Wire("blk.tmp"))) {
			sawTmp = true
		}
	}
	if !sawY || !sawTmp {
		t.Fatalf("expected restore actions for both y and blk.tmp, got %+v", sr.Actions)
	}
	if len(p.RootCase.Switches) != 1 || len(p.RootCase.Switches[0].Cases) != 3 {
		t.Fatalf("expected one switch with 3 cases (2 compares + default)")
	}
}

// --- Scenario 6: shift register ---
//
//	always @(posedge clk) begin
//	  rA <= A; rB <= B;
//	  for (int i = 0; i < 3; i++) M[i+1] <= M[i];
//	  M[0] <= rA * rB;
//	end
func TestShiftRegister(t *testing.T) {
	decl := newDecl("shiftreg")
	decl.AddNet("clk", 1)
	decl.AddNet("A", 8)
	decl.AddNet("B", 8)
	decl.AddNet("rA", 8)
	decl.AddNet("rB", 8)

	forStmt := &uhdm.For{
		LoopVar: &uhdm.VarDecl{Name: "i", Width: 32},
		InitVal: &uhdm.Constant{Value: 0, Width: 32},
		Cond:    &uhdm.Operation{Op: uhdm.OpLt, Operands: []uhdm.Expr{ref("i"), &uhdm.Constant{Value: 3, Width: 32}}},
		Inc: &uhdm.Assign{LHS: ref("i"), RHS: &uhdm.Operation{Op: uhdm.OpAdd, Operands: []uhdm.Expr{ref("i"), &uhdm.Constant{Value: 1, Width: 32}}}, Blocking: true},
		Body: &uhdm.Assign{
			LHS: &uhdm.BitSelect{Base: ref("M"), Index: &uhdm.Operation{Op: uhdm.OpAdd, Operands: []uhdm.Expr{ref("i"), &uhdm.Constant{Value: 1, Width: 32}}}},
			RHS: &uhdm.BitSelect{Base: ref("M"), Index: ref("i")},
		},
	}
	seed := &uhdm.Assign{
		LHS: &uhdm.BitSelect{Base: ref("M"), Index: &uhdm.Constant{Value: 0, Width: 32}},
		RHS: &uhdm.Operation{Op: uhdm.OpMul, Operands: []uhdm.Expr{ref("rA"), ref("rB")}},
	}
	body := &uhdm.Begin{Stmts: []uhdm.Stmt{
		&uhdm.Assign{LHS: ref("rA"), RHS: ref("A")},
		&uhdm.Assign{LHS: ref("rB"), RHS: ref("B")},
		forStmt,
		seed,
	}}
	proc := &uhdm.Process{
		EventCtrl: &uhdm.EventControl{Expr: posedge("clk")},
		Body:      body,
	}

	tr, mod := newTranslator(decl)
	p := tr.TranslateProcess(proc)

	if p.Kind != ir.ProcFF {
		t.Fatalf("kind = %v, want ProcFF", p.Kind)
	}
	for i := 0; i <= 3; i++ {
		key := "M[" + itoaTest(i) + "]"
		if mod.Wire(`$0\`+key) == nil {
			t.Fatalf("expected temp wire $0\\%s", key)
		}
	}
	if len(p.Syncs) != 1 {
		t.Fatalf("len(Syncs) = %d, want 1", len(p.Syncs))
	}
	if len(p.Syncs[0].Actions) != 6 {
		t.Fatalf("sync actions = %d, want 6 (rA, rB, M[0..3])", len(p.Syncs[0].Actions))
	}
}

func itoaTest(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// --- Boundary: empty always block -> one process, empty root case, empty sync list ---
func TestEmptyCombProcess(t *testing.T) {
	decl := newDecl("empty")
	proc := &uhdm.Process{EventCtrl: &uhdm.EventControl{}, Body: &uhdm.Begin{}}

	tr, _ := newTranslator(decl)
	p := tr.TranslateProcess(proc)

	if p.Kind != ir.ProcComb {
		t.Fatalf("kind = %v, want ProcComb", p.Kind)
	}
	if len(p.RootCase.Actions) != 0 || len(p.RootCase.Switches) != 0 {
		t.Fatalf("expected empty root case, got %d actions, %d switches", len(p.RootCase.Actions), len(p.RootCase.Switches))
	}
	if len(p.Syncs) != 0 {
		t.Fatalf("expected no sync rule for an empty always block, got %d", len(p.Syncs))
	}
}

// --- Boundary: initial block with only a constant assignment ---
func TestInitialSyncConstant(t *testing.T) {
	decl := newDecl("initconst")
	decl.AddNet("rst", 1)
	proc := &uhdm.Process{Body: &uhdm.Assign{LHS: ref("rst"), RHS: &uhdm.Constant{Value: 1, Width: 1}}}

	tr, _ := newTranslator(decl)
	p := tr.TranslateProcess(proc)

	if p.Kind != ir.ProcInitialSync {
		t.Fatalf("kind = %v, want ProcInitialSync", p.Kind)
	}
	if len(p.Syncs) != 1 || p.Syncs[0].Type != ir.TriggerInit {
		t.Fatalf("expected one init sync rule")
	}
	if len(p.Syncs[0].Actions) != 1 || !p.Syncs[0].Actions[0].RHS.IsFullyConst() {
		t.Fatalf("expected one fully-const action")
	}
}

// --- Boundary: interpreted initial block only inits the addresses it wrote ---
//
//	initial for (int i = 0; i < 4; i = i + 2) mem[i] = i;
func TestInitialInterpretedOnlyWrittenAddresses(t *testing.T) {
	decl := newDecl("partialrom")
	decl.AddArray("mem", 4, 8)

	forStmt := &uhdm.For{
		LoopVar: &uhdm.VarDecl{Name: "i", Width: 32},
		InitVal: &uhdm.Constant{Value: 0, Width: 32},
		Cond: &uhdm.Operation{Op: uhdm.OpLt, Operands: []uhdm.Expr{ref("i"), &uhdm.Constant{Value: 4, Width: 32}}},
		Inc: &uhdm.Assign{LHS: ref("i"), RHS: &uhdm.Operation{Op: uhdm.OpAdd, Operands: []uhdm.Expr{ref("i"), &uhdm.Constant{Value: 2, Width: 32}}}, Blocking: true},
		Body: &uhdm.Assign{LHS: &uhdm.BitSelect{Base: ref("mem"), Index: ref("i")}, RHS: ref("i")},
	}
	proc := &uhdm.Process{Body: forStmt}

	tr, mod := newTranslator(decl)
	p := tr.TranslateProcess(proc)

	if p.Kind != ir.ProcInitialInterpreted {
		t.Fatalf("kind = %v, want ProcInitialInterpreted", p.Kind)
	}
	var meminitCells int
	for _, c := range mod.Cells() {
		if c.Kind == ir.CellMeminitV2 {
			meminitCells++
		}
	}
	if meminitCells != 2 {
		t.Fatalf("meminit_v2 cells = %d, want 2 (only indices 0 and 2 were written)", meminitCells)
	}
}

// --- Boundary: non-constant multi-bit if condition is boolean-reduced ---
//
//	always_comb if (count) y = 1; else y = 0;
func TestIfMultiBitConditionReducesToBool(t *testing.T) {
	decl := newDecl("ifreduce")
	decl.AddNet("count", 8)
	decl.AddNet("y", 1)

	ifStmt := &uhdm.If{
		Cond: ref("count"),
		Then: &uhdm.Assign{LHS: ref("y"), RHS: &uhdm.Constant{Value: 1, Width: 1}},
		Else: &uhdm.Assign{LHS: ref("y"), RHS: &uhdm.Constant{Value: 0, Width: 1}},
	}
	proc := &uhdm.Process{EventCtrl: &uhdm.EventControl{}, Body: ifStmt}

	tr, mod := newTranslator(decl)
	p := tr.TranslateProcess(proc)

	if len(p.RootCase.Switches) != 1 {
		t.Fatalf("root case switches = %d, want 1", len(p.RootCase.Switches))
	}
	sw := p.RootCase.Switches[0]
	if sw.Selector.Size() != 1 {
		t.Fatalf("switch selector width = %d, want 1 ($reduce_bool output)", sw.Selector.Size())
	}
	found := false
	for _, c := range mod.Cells() {
		if c.Kind == ir.CellReduceBool {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a $reduce_bool cell reducing the multi-bit condition, got %+v", mod.Cells())
	}
	if len(sw.Cases) != 2 || len(sw.Cases[0].Compare) != 1 || sw.Cases[0].Compare[0].Size() != 1 {
		t.Fatalf("expected a 1-bit compare value in the then-case, got %+v", sw.Cases)
	}
}

// --- Boundary: part-select LHS in a comb block is initialized and restored ---
//
//	always_comb y[3:0] = a;
func TestCombPartSelectLHSRestored(t *testing.T) {
	decl := newDecl("combslice")
	decl.AddNet("a", 4)
	decl.AddNet("y", 8)

	proc := &uhdm.Process{
		EventCtrl: &uhdm.EventControl{},
		Body: &uhdm.Assign{LHS: &uhdm.PartSelect{Base: ref("y"), Msb: 3, Lsb: 0}, RHS: ref("a")},
	}

	tr, mod := newTranslator(decl)
	p := tr.TranslateProcess(proc)

	tmp := mod.Wire(`$0\y[3:0]`)
	if tmp == nil {
		t.Fatalf(`expected temp wire $0\y[3:0] to exist`)
	}
	if len(p.RootCase.Actions) != 2 {
		t.Fatalf("root case actions = %d, want 2 (init + assign)", len(p.RootCase.Actions))
	}
	initAction := p.RootCase.Actions[0]
	if !initAction.LHS.Equal(ir.FromWire(tmp)) || initAction.RHS.Size() != 4 {
		t.Fatalf("expected init action $0\\y[3:0] <= y[3:0], got %v", initAction)
	}
	if len(p.Syncs) != 1 {
		t.Fatalf("len(Syncs) = %d, want 1", len(p.Syncs))
	}
	sr := p.Syncs[0]
	if len(sr.Actions) != 1 {
		t.Fatalf("sync actions = %d, want 1", len(sr.Actions))
	}
	restoreAction := sr.Actions[0]
	if restoreAction.LHS.Size() != 4 || !restoreAction.RHS.Equal(ir.FromWire(tmp)) {
		t.Fatalf("expected restore action y[3:0] <= $0\\y[3:0], got %v", restoreAction)
	}
}
