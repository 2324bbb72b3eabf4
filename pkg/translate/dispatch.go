// Shared statement dispatcher: the single walker CombLowering,
// SimpleFFLowering's default/fast paths and AsyncResetLowering's
// branch bodies all drive to turn a procedural body into actions
// against an open ir.CaseRule, routing every full-signal or slice LHS
// through its $0\ temp wire.
package translate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/ir"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

// caseStack is the "currently open CaseRule" — a stack because an if/case
// nests further switches, and every assignment made while a deeper frame is
// open targets that frame, not the root.
type caseStack struct {
	frames []*ir.CaseRule
}

func newCaseStack(root *ir.CaseRule) *caseStack { return &caseStack{frames: []*ir.CaseRule{root}} }

func (c *caseStack) current() *ir.CaseRule { return c.frames[len(c.frames)-1] }
func (c *caseStack) push(cr *ir.CaseRule)  { c.frames = append(c.frames, cr) }
func (c *caseStack) pop()                  { c.frames = c.frames[:len(c.frames)-1] }

// assignedSignal is one full-signal or slice LHS discovered by a pre-scan:
// collectAssignedSignals records one entry per unique LHS key, and
// initRootCaseTemps allocates its $0\name temp.
type assignedSignal struct {
	Key string
	Width int
	IsPartSelect bool
}

// collectAssignedSignals walks body once, recording every distinct
// assignment target. NamedBegin scopes are entered/exited here (via
// pushScope/localWire/popScope) exactly as the real dispatch walk will
// later enter them, so block-local wires end up materialized before the
// root case is initialized from them.
func (t *Translator) collectAssignedSignals(body uhdm.Stmt) []assignedSignal {
	var out []assignedSignal
	seen := map[string]bool{}
	var walk func(uhdm.Stmt)
	walk = func(s uhdm.Stmt) {
		if s == nil {
			return
		}
		switch n := s.(type) {
		case *uhdm.Begin:
			for _, c := range n.Stmts {
				walk(c)
			}
		case *uhdm.NamedBegin:
			scopeName := n.Name
			if scopeName == "" {
				scopeName = "$anon"
			}
			t.pushScope()
			for _, l := range n.Locals {
				hier := scopeName + "." + l.Name
				t.localWire(hier, l.Width, ir.Src{})
				t.bindLocal(l.Name, hier)
			}
			for _, c := range n.Stmts {
				walk(c)
			}
			t.popScope()
		case *uhdm.If:
			walk(n.Then)
			walk(n.Else)
		case *uhdm.Case:
			for _, item := range n.Items {
				walk(item.Body)
			}
		case *uhdm.For:
			walk(n.Body)
		case *uhdm.Repeat:
			walk(n.Body)
		case *uhdm.Assign:
			key, width, isPS, ok := t.analyzeAssignTarget(n.LHS)
			if !ok || seen[key] {
				return
			}
			seen[key] = true
			out = append(out, assignedSignal{Key: key, Width: width, IsPartSelect: isPS})
		}
	}
	walk(body)
	return out
}

// collectMemoryWrites returns the distinct memory names written anywhere in
// body, in first-encountered order.
func (t *Translator) collectMemoryWrites(body uhdm.Stmt) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(uhdm.Stmt)
	walk = func(s uhdm.Stmt) {
		if s == nil {
			return
		}
		switch n := s.(type) {
		case *uhdm.Begin:
			for _, c := range n.Stmts {
				walk(c)
			}
		case *uhdm.NamedBegin:
			for _, c := range n.Stmts {
				walk(c)
			}
		case *uhdm.If:
			walk(n.Then)
			walk(n.Else)
		case *uhdm.Case:
			for _, item := range n.Items {
				walk(item.Body)
			}
		case *uhdm.For:
			walk(n.Body)
		case *uhdm.Repeat:
			walk(n.Body)
		case *uhdm.Assign:
			if bs, ok := n.LHS.(*uhdm.BitSelect); ok {
				if name, isMem := t.memoryBase(bs.Base); isMem && !seen[name] {
					seen[name] = true
					out = append(out, name)
				}
			}
		}
	}
	walk(body)
	return out
}

// wireForKey resolves a collectAssignedSignals key back to its real (not
// temp) wire: a promoted block-local wire, or an ordinary module net.
func (t *Translator) wireForKey(key string) (*ir.Wire, error) {
	if w, ok := t.localWires[key]; ok {
		return w, nil
	}
	return t.Eval.ResolveWire(key)
}

// initRootCaseTemps emits the "initialize $0\name from name" action every
// full-signal or slice temp needs before the body that may override it is
// lowered.
func (t *Translator) initRootCaseTemps(root *ir.CaseRule, signals []assignedSignal, src ir.Src) {
	for _, sig := range signals {
		real, err := t.realSigSpecFor(sig)
		if err != nil {
			t.reportError("%v", uhdm.Loc{}, err)
			continue
		}
		tmp := t.tempWireFor(sig.Key, sig.Width, src)
		root.AddAction(ir.FromWire(tmp), real)
		t.markTouched(sig.Key)
	}
}

// parseSliceKey splits a collectAssignedSignals slice key ("base[idx]" or
// "base[msb:lsb]") into its base signal key and LSB-relative bit range
// [lo, hi]. ok is false for a plain full-signal key (no trailing bracket).
func parseSliceKey(key string) (base string, lo, hi int, ok bool) {
	if !strings.HasSuffix(key, "]") {
		return "", 0, 0, false
	}
	open := strings.LastIndexByte(key, '[')
	if open < 0 {
		return "", 0, 0, false
	}
	base = key[:open]
	inner := key[open+1 : len(key)-1]
	if colon := strings.IndexByte(inner, ':'); colon >= 0 {
		hiV, err1 := strconv.Atoi(inner[:colon])
		loV, err2 := strconv.Atoi(inner[colon+1:])
		if err1 != nil || err2 != nil {
			return "", 0, 0, false
		}
		return base, loV, hiV, true
	}
	idx, err := strconv.Atoi(inner)
	if err != nil {
		return "", 0, 0, false
	}
	return base, idx, idx, true
}

// sliceSigSpec resolves a part-/bit-select key back to the sub-range of the
// real wire it slices.
func (t *Translator) sliceSigSpec(key string) (ir.SigSpec, error) {
	base, lo, hi, ok := parseSliceKey(key)
	if !ok {
		return ir.SigSpec{}, fmt.Errorf("translate: malformed slice key %q", key)
	}
	w, err := t.wireForKey(base)
	if err != nil {
		return ir.SigSpec{}, err
	}
	return ir.FromWireSlice(w, lo, hi-lo+1), nil
}

// realSigSpecFor resolves sig back to the real SigSpec its temp wire
// initializes from and restores into: the whole wire for a full-signal key,
// the sliced sub-range for a part-/bit-select key.
func (t *Translator) realSigSpecFor(sig assignedSignal) (ir.SigSpec, error) {
	if sig.IsPartSelect {
		return t.sliceSigSpec(sig.Key)
	}
	w, err := t.wireForKey(sig.Key)
	if err != nil {
		return ir.SigSpec{}, err
	}
	return ir.FromWire(w), nil
}

func rawNameOf(e uhdm.Expr) (string, bool) {
	switch n := e.(type) {
	case *uhdm.RefObj:
		return n.Name, true
	case *uhdm.RefVar:
		return n.Name, true
	}
	return "", false
}

func constIndex(e uhdm.Expr) (int, bool) {
	if c, ok := e.(*uhdm.Constant); ok {
		return int(c.Value), true
	}
	return 0, false
}

// analyzeAssignTarget resolves an LHS expression to its temp-wire key, the
// width that key's temp wire should have, and whether it is a slice
// (bit-select/part-select) rather than a full signal. Memory-write targets
// are rejected here (ok=false) — those are MemoryWriteLowering's concern.
func (t *Translator) analyzeAssignTarget(lhs uhdm.Expr) (key string, width int, isPartSelect bool, ok bool) {
	switch n := lhs.(type) {
	case *uhdm.RefObj:
		return t.resolveFullSignal(n.Name, n.Loc())
	case *uhdm.RefVar:
		return t.resolveFullSignal(n.Name, n.Loc())

	case *uhdm.BitSelect:
		if _, isMem := t.memoryBase(n.Base); isMem {
			return "", 0, false, false
		}
		base, baseOk := rawNameOf(n.Base)
		if !baseOk {
			t.reportError("translate: unsupported bit-select LHS base", n.Loc())
			return "", 0, false, false
		}
		if w, ok := t.arrayElemWidth[base]; ok {
			idx, constOk := constIndex(n.Index)
			if !constOk {
				t.reportError("translate: non-constant array-element LHS index on %q", n.Loc(), base)
				return "", 0, false, false
			}
			hier := t.shadowLookup(base)
			return fmt.Sprintf("%s[%d]", hier, idx), w, true, true
		}
		idx, constOk := constIndex(n.Index)
		if !constOk {
			t.reportError("translate: non-constant bit-select LHS index on %q", n.Loc(), base)
			return "", 0, false, false
		}
		hier := t.shadowLookup(base)
		return fmt.Sprintf("%s[%d]", hier, idx), 1, true, true

	case *uhdm.PartSelect:
		base, baseOk := rawNameOf(n.Base)
		if !baseOk {
			t.reportError("translate: unsupported part-select LHS base", n.Loc())
			return "", 0, false, false
		}
		hier := t.shadowLookup(base)
		lo, hi := n.Lsb, n.Msb
		if lo > hi {
			lo, hi = hi, lo
		}
		return fmt.Sprintf("%s[%d:%d]", hier, hi, lo), hi - lo + 1, true, true

	case *uhdm.IndexedPartSelect:
		base, baseOk := rawNameOf(n.Base)
		if !baseOk {
			t.reportError("translate: unsupported indexed part-select LHS base", n.Loc())
			return "", 0, false, false
		}
		hier := t.shadowLookup(base)
		start, constOk := constIndex(n.BaseIndex)
		if !constOk {
			t.reportError("translate: non-constant indexed part-select base on %q", n.Loc(), base)
			return "", 0, false, false
		}
		off := start
		if !n.Increment {
			off = start - n.Width + 1
		}
		return fmt.Sprintf("%s[%d:%d]", hier, off+n.Width-1, off), n.Width, true, true

	default:
		t.reportError("translate: unsupported assignment LHS shape", lhs.Loc())
		return "", 0, false, false
	}
}

func (t *Translator) resolveFullSignal(name string, loc uhdm.Loc) (string, int, bool, bool) {
	hier := t.shadowLookup(name)
	if w, ok := t.localWires[hier]; ok {
		return hier, w.Width, false, true
	}
	w, err := t.Eval.ResolveWire(name)
	if err != nil {
		t.reportError("%v", loc, err)
		return "", 0, false, false
	}
	return name, w.Width, false, true
}

// dispatchStmt lowers one statement into cs, the currently open case. Reads
// and conditions go through t.evalExpr (and hence t.env) so blocking
// assignment's read-your-own-write semantics hold.
func (t *Translator) dispatchStmt(s uhdm.Stmt, cs *caseStack, skipPartSelects bool) {
	switch n := s.(type) {
	case nil:
		return
	case *uhdm.Begin:
		for _, c := range n.Stmts {
			t.dispatchStmt(c, cs, skipPartSelects)
		}
	case *uhdm.NamedBegin:
		scopeName := n.Name
		if scopeName == "" {
			scopeName = "$anon"
		}
		t.pushScope()
		for _, l := range n.Locals {
			hier := scopeName + "." + l.Name
			t.localWire(hier, l.Width, ir.Src{})
			t.bindLocal(l.Name, hier)
		}
		for _, c := range n.Stmts {
			t.dispatchStmt(c, cs, skipPartSelects)
		}
		t.popScope()
	case *uhdm.Assign:
		t.dispatchAssign(n, cs, skipPartSelects)
	case *uhdm.If:
		t.dispatchIf(n, cs, skipPartSelects)
	case *uhdm.Case:
		t.dispatchCase(n, cs, skipPartSelects)
	case *uhdm.For:
		if ok := t.unrollFor(n, cs, skipPartSelects); !ok {
			t.reportError("translate: for-loop bound not statically constant, skipping unroll", n.Loc())
		}
	case *uhdm.Repeat:
		t.dispatchRepeat(n, cs, skipPartSelects)
	case *uhdm.ImmediateAssert:
		t.dispatchAssert(n)
	case *uhdm.TaskCall:
		t.dispatchTaskCall(n, cs, skipPartSelects)
	case *uhdm.SysTaskCall:
		// SynthAudit has already stubbed or elided every non-synth call by
		// the time translation runs; whatever remains is inert here.
	case *uhdm.BreakStmt, *uhdm.ContinueStmt:
		// Only meaningful inside the interpreted/unroll paths.
	default:
		t.reportError("translate: unsupported statement kind %v", s.Loc(), s.Kind())
	}
}

func (t *Translator) dispatchAssign(n *uhdm.Assign, cs *caseStack, skipPartSelects bool) {
	if bs, ok := n.LHS.(*uhdm.BitSelect); ok {
		if memName, isMem := t.memoryBase(bs.Base); isMem {
			val := t.evalExpr(n.RHS, t.env)
			t.emitMemWrite(memName, bs, val, cs, n.Loc())
			return
		}
	}

	val := t.evalExpr(n.RHS, t.env)
	if n.HasCompound {
		cur := t.evalExpr(n.LHS, t.env)
		val = t.Eval.Combine(n.CompoundOp, cur, val, n.Loc())
	}

	key, width, isPartSelect, ok := t.analyzeAssignTarget(n.LHS)
	if !ok {
		return
	}
	if isPartSelect && skipPartSelects {
		t.reportError("translate: part-select LHS %q skipped in this context", n.Loc(), key)
		return
	}

	val = val.ExtendU0(width)
	if val.Size() > width {
		val = val.Extract(0, width)
	}
	tmp := t.tempWireFor(key, width, locToSrc(n.Loc()))
	cs.current().AddAction(ir.FromWire(tmp), val)
	t.markTouched(key)

	if n.Blocking {
		if raw, ok := rawNameOf(n.LHS); ok {
			t.setEnvScoped(raw, val)
		}
	}
}

func (t *Translator) dispatchIf(n *uhdm.If, cs *caseStack, skipPartSelects bool) {
	cond := t.evalExpr(n.Cond, t.env)
	if cond.IsFullyConst() {
		if cond.AsConstInt() != 0 {
			t.dispatchStmt(n.Then, cs, skipPartSelects)
		} else {
			t.dispatchStmt(n.Else, cs, skipPartSelects)
		}
		return
	}
	cond = t.Eval.ReduceBool(cond, n.Loc())
	sw := cs.current().AddSwitch(cond)

	thenBody := sw.AddCase(ir.FromConstInt(1, 1))
	cs.push(thenBody)
	t.dispatchStmt(n.Then, cs, skipPartSelects)
	cs.pop()

	elseBody := sw.AddCase()
	cs.push(elseBody)
	t.dispatchStmt(n.Else, cs, skipPartSelects)
	cs.pop()
}

func (t *Translator) dispatchCase(n *uhdm.Case, cs *caseStack, skipPartSelects bool) {
	sel := t.evalExpr(n.Selector, t.env)
	if sel.IsFullyConst() {
		selVal := sel.AsConstInt()
		for _, item := range n.Items {
			if len(item.Compare) == 0 {
				continue
			}
			for _, c := range item.Compare {
				cv := t.evalExpr(c, t.env)
				if cv.IsFullyConst() && cv.AsConstInt() == selVal {
					t.dispatchStmt(item.Body, cs, skipPartSelects)
					return
				}
			}
		}
		for _, item := range n.Items {
			if len(item.Compare) == 0 {
				t.dispatchStmt(item.Body, cs, skipPartSelects)
				return
			}
		}
		return
	}

	sw := cs.current().AddSwitch(sel)
	for _, item := range n.Items {
		var compares []ir.SigSpec
		for _, c := range item.Compare {
			compares = append(compares, t.evalExpr(c, t.env))
		}
		body := sw.AddCase(compares...)
		cs.push(body)
		t.dispatchStmt(item.Body, cs, skipPartSelects)
		cs.pop()
	}
}

func loopVarWidth(f *uhdm.For) int {
	if f.LoopVar != nil && f.LoopVar.Width > 0 {
		return f.LoopVar.Width
	}
	return 32
}

// unrollFor implements the non-interpreted "loop-variable substitution"
// mechanism: it walks a constant-bound for-loop directly, rebinding
// the loop variable's env entry to a constant SigSpec each iteration rather
// than handing the whole loop to pkg/interp. Returns false the moment any
// part of the bound or increment isn't foldable, so the caller can report
// the loop as an unroll failure; iterations already visited by then stay
// emitted.
func (t *Translator) unrollFor(n *uhdm.For, cs *caseStack, skipPartSelects bool) bool {
	return t.forEachConstIter(n, func(body uhdm.Stmt) {
			t.dispatchStmt(body, cs, skipPartSelects)
	})
}

// forEachConstIter drives a constant-bound for-loop, rebinding the loop
// variable's env entry to a constant SigSpec each iteration and invoking
// visit with the loop body ( loop-variable substitution). Shared by
// unrollFor (dispatch-driven bodies) and InitialSync's own straight-line
// walk, which needs the same bound-folding but a different per-iteration
// action. Returns false the moment any part of the bound isn't foldable.
func (t *Translator) forEachConstIter(n *uhdm.For, visit func(body uhdm.Stmt)) bool {
	var loopVar string
	var start int64

	if n.LoopVar != nil {
		loopVar = n.LoopVar.Name
		initVal := t.evalExpr(n.InitVal, t.env)
		if !initVal.IsFullyConst() {
			return false
		}
		start = int64(initVal.AsConstInt())
	} else {
		asg, ok := n.Init.(*uhdm.Assign)
		if !ok {
			return false
		}
		name, ok2 := rawNameOf(asg.LHS)
		if !ok2 {
			return false
		}
		initVal := t.evalExpr(asg.RHS, t.env)
		if !initVal.IsFullyConst() {
			return false
		}
		loopVar = name
		start = int64(initVal.AsConstInt())
	}

	width := loopVarWidth(n)
	const maxIters = 4096
	i := start
	iters := 0
	for {
		t.setEnvScoped(loopVar, ir.FromConstInt(i, width))
		condVal := t.evalExpr(n.Cond, t.env)
		if !condVal.IsFullyConst() {
			return false
		}
		if condVal.AsConstInt() == 0 {
			break
		}
		visit(n.Body)

		next, ok := t.evalConstInc(n.Inc, loopVar, i, width)
		if !ok {
			return false
		}
		i = next
		iters++
		if iters > maxIters {
			t.reportError("translate: for-loop unroll exceeded %d iterations, aborting", n.Loc(), maxIters)
			return false
		}
	}
	return true
}

func (t *Translator) evalConstInc(inc uhdm.Stmt, loopVar string, cur int64, width int) (int64, bool) {
	asg, ok := inc.(*uhdm.Assign)
	if !ok {
		return 0, false
	}
	name, ok2 := rawNameOf(asg.LHS)
	if !ok2 || name != loopVar {
		return 0, false
	}
	val := t.evalExpr(asg.RHS, t.env)
	if asg.HasCompound {
		val = t.Eval.Combine(asg.CompoundOp, ir.FromConstInt(cur, width), val, asg.Loc())
	}
	if !val.IsFullyConst() {
		return 0, false
	}
	return int64(val.AsConstInt()), true
}

func (t *Translator) dispatchRepeat(n *uhdm.Repeat, cs *caseStack, skipPartSelects bool) {
	cnt := t.evalExpr(n.Count, t.env)
	if !cnt.IsFullyConst() {
		t.reportError("translate: repeat count not constant, skipping", n.Loc())
		return
	}
	for i := int64(0); i < int64(cnt.AsConstInt()); i++ {
		t.dispatchStmt(n.Body, cs, skipPartSelects)
	}
}

func (t *Translator) dispatchAssert(n *uhdm.ImmediateAssert) {
	cond := t.evalExpr(n.Cond, t.env)
	src := locToSrc(n.Loc())
	cell := &ir.Cell{Name: t.IDs.CellName("check", src), Kind: ir.CellCheck, Src: src}
	cell.SetInput("A", cond)
	_ = t.Mod.AddCell(cell)
}

// dispatchTaskCall inlines a task body at its call site ( Task-call
// inlining): a fresh nosync wire per formal, copied in before the body
// lowers and copied back to the actual argument afterward for out/inout
// parameters.
func (t *Translator) dispatchTaskCall(n *uhdm.TaskCall, cs *caseStack, skipPartSelects bool) {
	if n.Task == nil {
		return
	}
	src := locToSrc(n.Loc())
	ctx := ir.ContextName(n.Task.Name, locToSrc(n.Loc()), t.IDs.Next())
	t.pushScope()

	for i, param := range n.Task.Params {
		hier := ctx + "." + param.Name
		w := t.localWire(hier, param.Width, src)
		w.NoSync = true
		t.bindLocal(param.Name, hier)
		if param.Dir == uhdm.DirOut {
			continue
		}
		var val ir.SigSpec
		if i < len(n.Args) {
			val = t.evalExpr(n.Args[i], t.env)
		}
		tmp := t.tempWireFor(hier, param.Width, src)
		cs.current().AddAction(ir.FromWire(tmp), val.ExtendU0(param.Width))
		t.setEnvScoped(param.Name, val)
		t.markTouched(hier)
	}

	t.dispatchStmt(n.Task.Body, cs, skipPartSelects)

	for i, param := range n.Task.Params {
		if param.Dir == uhdm.DirIn || i >= len(n.Args) {
			continue
		}
		outVal, ok := t.env[param.Name]
		if !ok {
			continue
		}
		argName, ok2 := rawNameOf(n.Args[i])
		if !ok2 {
			continue
		}
		argHier := t.shadowLookup(argName)
		argW, err := t.wireForKey(argHier)
		if err != nil {
			continue
		}
		argTmp := t.tempWireFor(argHier, argW.Width, src)
		cs.current().AddAction(ir.FromWire(argTmp), outVal.ExtendU0(argW.Width))
		t.markTouched(argHier)
	}

	t.popScope()
}

// inlineFuncCall evaluates a function call by lowering its body into a
// scratch case and reading back the env entry its return variable ends up
// holding ( Function-call inlining: the function's own name is the
// implicit return variable).
func (t *Translator) inlineFuncCall(n *uhdm.FuncCall, env map[string]ir.SigSpec) ir.SigSpec {
	if n.Func == nil {
		t.reportError("translate: call to undefined function", n.Loc())
		return ir.SigSpec{}
	}
	src := locToSrc(n.Loc())
	ctx := ir.ContextName(n.Func.Name, locToSrc(n.Loc()), t.IDs.Next())
	t.pushScope()

	for i, param := range n.Func.Params {
		hier := ctx + "." + param.Name
		w := t.localWire(hier, param.Width, src)
		w.NoSync = true
		t.bindLocal(param.Name, hier)
		var val ir.SigSpec
		if i < len(n.Args) {
			val = t.evalExpr(n.Args[i], env)
		}
		t.setEnvScoped(param.Name, val)
	}

	resHier := ctx + "." + n.Func.Name
	w := t.localWire(resHier, n.Func.ReturnWidth, src)
	w.NoSync = true
	t.bindLocal(n.Func.Name, resHier)

	scratch := &ir.CaseRule{}
	cs := newCaseStack(scratch)
	t.dispatchStmt(n.Func.Body, cs, false)

	result, ok := t.env[n.Func.Name]
	t.popScope()
	if !ok {
		t.reportError("translate: function %q never assigned its return variable", n.Loc(), n.Func.Name)
		return ir.SigSpec{}
	}
	return result
}
