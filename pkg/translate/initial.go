// InitialLowering: an initial block picks one of three
// sub-strategies, mirroring pkg/classify's own selection order exactly
// (TagInitialInterpreted > TagInitialComb > TagInitialSync):
//
// - InitialSync: straight-line assigns only, no conditional and nothing
// the Interpreter is needed for. Lowers directly into real wires (no
// $0\ temp indirection), last-writer-wins, one TriggerInit sync rule.
// - InitialComb: contains an if/case but nothing interpreter-worthy.
// Reuses the exact temp-wire/case-routing machinery CombLowering uses,
// just with a TriggerInit sync instead of TriggerAlways.
// - InitialInterpreted: a for-loop with its own loop variable, a
// scalar-assigning for-loop, or a named-begin with locals — handed to
// pkg/interp wholesale, then read back out as plain actions plus
// $meminit_v2 cells for any memory array the interpreter wrote.
package translate

import (
	"sort"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/interp"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/ir"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

// resolveOrNamedWire resolves key to its real wire the way wireForKey does,
// falling back to a freshly materialized named wire for synthetic array-
// element/slice keys ("arr[3]", "v[7:4]") that never had a Decl entry of
// their own.
func (t *Translator) resolveOrNamedWire(key string, width int, src ir.Src) *ir.Wire {
	if w, err := t.wireForKey(key); err == nil {
		return w
	}
	return t.namedWire(key, width, src)
}

// lowerInitialSync lowers the simplest initial block shape: nothing but
// straight-line assignments, writing real wires directly with last-writer-
// wins semantics.
func (t *Translator) lowerInitialSync(p *uhdm.Process) *ir.Process {
	proc := ir.NewProcess(processName(p), ir.ProcInitialSync)
	src := procSrc(p)
	proc.Src = src
	sr := proc.AddSync(ir.TriggerInit, ir.SigSpec{})

	vals := map[string]ir.SigSpec{}
	widths := map[string]int{}
	var order []string
	record := func(key string, width int, val ir.SigSpec) {
		if _, ok := vals[key]; !ok {
			order = append(order, key)
		}
		vals[key] = val
		widths[key] = width
	}

	var walk func(uhdm.Stmt)
	walk = func(s uhdm.Stmt) {
		switch n := s.(type) {
		case nil:
			return
		case *uhdm.Begin:
			for _, c := range n.Stmts {
				walk(c)
			}
		case *uhdm.NamedBegin:
			for _, c := range n.Stmts {
				walk(c)
			}
		case *uhdm.For:
			if !t.forEachConstIter(n, walk) {
				t.reportError("translate: initial-sync for-loop bound not statically constant, skipping unroll", n.Loc())
			}
		case *uhdm.Repeat:
			cnt := t.evalExpr(n.Count, t.env)
			if !cnt.IsFullyConst() {
				t.reportError("translate: initial-sync repeat count not constant, skipping", n.Loc())
				return
			}
			for i := int64(0); i < int64(cnt.AsConstInt()); i++ {
				walk(n.Body)
			}
		case *uhdm.Assign:
			val := t.evalExpr(n.RHS, t.env)
			if n.HasCompound {
				cur := t.evalExpr(n.LHS, t.env)
				val = t.Eval.Combine(n.CompoundOp, cur, val, n.Loc())
			}
			key, width, _, ok := t.analyzeAssignTarget(n.LHS)
			if !ok {
				return
			}
			val = val.ExtendU0(width)
			if val.Size() > width {
				val = val.Extract(0, width)
			}
			record(key, width, val)
			if n.Blocking {
				if raw, ok := rawNameOf(n.LHS); ok {
					t.setEnvScoped(raw, val)
				}
			}
		case *uhdm.ImmediateAssert:
			t.dispatchAssert(n)
		default:
			t.reportError("translate: unsupported initial-sync statement kind %v", s.Loc(), s.Kind())
		}
	}
	walk(p.Body)

	for _, key := range order {
		w := t.resolveOrNamedWire(key, widths[key], src)
		sr.AddAction(ir.FromWire(w), vals[key])
	}
	return proc
}

// lowerInitialComb handles an initial block containing an if/case but
// nothing the Interpreter is needed for: the same temp-wire/switch-case
// machinery CombLowering uses, settled into a TriggerInit sync rule instead
// of TriggerAlways since it only ever fires once.
func (t *Translator) lowerInitialComb(p *uhdm.Process) *ir.Process {
	proc := ir.NewProcess(processName(p), ir.ProcInitialComb)
	src := procSrc(p)
	proc.Src = src

	signals := t.collectAssignedSignals(p.Body)
	t.initRootCaseTemps(proc.RootCase, signals, src)

	cs := newCaseStack(proc.RootCase)
	t.dispatchStmt(p.Body, cs, false)

	sr := proc.AddSync(ir.TriggerInit, ir.SigSpec{})
	for _, s := range signals {
		tmp, ok := t.tempWires[s.Key]
		if !ok {
			continue
		}
		real, err := t.realSigSpecFor(s)
		if err != nil {
			continue
		}
		sr.AddAction(real, ir.FromWire(tmp))
	}
	return proc
}

// allOnesConst returns a width-wide all-ones constant, used for a memory
// write's byte/word enable when the source made no finer distinction.
func allOnesConst(width int) ir.SigSpec {
	return ir.FromConstInt(-1, width)
}

// lowerInitialInterpreted runs the Interpreter (pkg/interp) over the whole
// body and reads the result back out: scalar variables become plain
// TriggerInit actions, and each written memory-array element becomes its
// own $meminit_v2 cell with a monotonically increasing PRIORITY.
func (t *Translator) lowerInitialInterpreted(p *uhdm.Process) *ir.Process {
	proc := ir.NewProcess(processName(p), ir.ProcInitialInterpreted)
	src := procSrc(p)
	proc.Src = src

	st := interp.NewState()
	for name, info := range t.Decl.Arrays {
		st.DeclareArray(name, info.Size)
	}
	it := interp.New(st)
	it.OnAbort = func(reason string, loc uhdm.Loc) {
		t.reportError("translate: initial-interpreted aborted: %s", loc, reason)
	}
	if ok := it.Run(p.Body); !ok {
		t.reportError("translate: interpreted initial block did not run to completion, no actions emitted", p.Loc())
		return proc
	}

	sr := proc.AddSync(ir.TriggerInit, ir.SigSpec{})
	for _, name := range sortedKeys(st.Vars) {
		w, err := t.Eval.ResolveWire(name)
		if err != nil {
			// Loop-scratch variables (the loop index itself, say) that never
			// back a real module net are interpreter-internal only.
			continue
		}
		sr.AddAction(ir.FromWire(w), ir.FromConstInt(st.Vars[name], w.Width))
	}

	priority := 0
	for _, name := range sortedKeys(st.Arrays) {
		info, isMem := t.Decl.Arrays[name]
		if !isMem {
			continue
		}
		mem := t.ensureMemory(name)
		vals := st.Arrays[name]
		addrs := make([]int, 0, len(st.Written[name]))
		for addr := range st.Written[name] {
			addrs = append(addrs, addr)
		}
		sort.Ints(addrs)
		for _, addr := range addrs {
			cellSrc := src
			cell := &ir.Cell{Name: t.IDs.CellName("meminit_v2$"+name, cellSrc), Kind: ir.CellMeminitV2, Src: cellSrc}
			cell.SetInput("ADDR", ir.FromConstInt(int64(addr), mem.AddrWidth()))
			cell.SetInput("DATA", ir.FromConstInt(vals[addr], mem.DataWidth))
			cell.SetInput("EN", allOnesConst(mem.DataWidth))
			cell.SetParam("PRIORITY", ir.ConstInt(int64(priority), 32))
			_ = t.Mod.AddCell(cell)
			priority++
		}
		_ = info
	}
	return proc
}
