// SimpleFFLowering: a process with exactly one clock edge.
// Three sub-strategies are tried in order: shift-register detection,
// memory-write detection (delegated to the generic dispatcher which already
// routes bit-selects on a registered memory through MemoryWriteLowering),
// and otherwise the same generic temp-wire/case-routing scheme CombLowering
// uses (covering both the "fast path" single if/else shape and the general
// default path uniformly; there is no separate mux-emitting default path).
package translate

import (
	"fmt"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/classify"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/ir"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

func (t *Translator) lowerSimpleFF(p *uhdm.Process, res classify.Result) *ir.Process {
	proc := ir.NewProcess(processName(p), ir.ProcFF)
	proc.SetAttr("always_ff", "1")
	proc.Src = procSrc(p)

	if t.lowerShiftRegister(p, res, proc) {
		return proc
	}

	src := proc.Src
	memNames := t.collectMemoryWrites(p.Body)
	signals := t.collectAssignedSignals(p.Body)
	t.initRootCaseTemps(proc.RootCase, signals, src)
	if len(memNames) > 0 {
		t.initMemoryEnables(proc.RootCase, memNames, p.Loc())
	}

	cs := newCaseStack(proc.RootCase)
	t.dispatchStmt(p.Body, cs, false)

	clkVal := t.evalExpr(res.Clock, t.env)
	sr := proc.AddSync(edgeTrigger(res.ClockPosEdge), clkVal)
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
	if len(memNames) > 0 {
		t.attachMemWriteActions(sr)
	}
	return proc
}

// shiftShape is the structural match for `ARR[i+lhsOff] <= ARR[i+rhsOff]`
// inside a constant-bound for-loop.
type shiftShape struct {
	arrName string
	loopVar string
	lhsOff int
	rhsOff int
	step int
}

func unwrapSingleStmt(s uhdm.Stmt) uhdm.Stmt {
	switch n := s.(type) {
	case *uhdm.Begin:
		if len(n.Stmts) == 1 {
			return unwrapSingleStmt(n.Stmts[0])
		}
	case *uhdm.NamedBegin:
		if len(n.Stmts) == 1 {
			return unwrapSingleStmt(n.Stmts[0])
		}
	}
	return s
}

// offsetFromLoopVar reports the constant k such that e == loopVar + k (k
// may be negative; e == loopVar alone is k == 0).
func offsetFromLoopVar(e uhdm.Expr, loopVar string) (int, bool) {
	if name, ok := rawNameOf(e); ok && name == loopVar {
		return 0, true
	}
	op, ok := e.(*uhdm.Operation)
	if !ok || len(op.Operands) != 2 {
		return 0, false
	}
	var varOperand, constOperand uhdm.Expr
	if name, ok := rawNameOf(op.Operands[0]); ok && name == loopVar {
		varOperand, constOperand = op.Operands[0], op.Operands[1]
	} else if name, ok := rawNameOf(op.Operands[1]); ok && name == loopVar {
		varOperand, constOperand = op.Operands[1], op.Operands[0]
	} else {
		return 0, false
	}
	_ = varOperand
	c, ok := constIndex(constOperand)
	if !ok {
		return 0, false
	}
	switch op.Op {
	case uhdm.OpAdd:
		return c, true
	case uhdm.OpSub:
		return -c, true
	}
	return 0, false
}

func detectShiftShape(f *uhdm.For) (shiftShape, bool) {
	body := unwrapSingleStmt(f.Body)
	asg, ok := body.(*uhdm.Assign)
	if !ok {
		return shiftShape{}, false
	}
	lhsBS, ok1 := asg.LHS.(*uhdm.BitSelect)
	rhsBS, ok2 := asg.RHS.(*uhdm.BitSelect)
	if !ok1 || !ok2 {
		return shiftShape{}, false
	}
	lhsName, ok3 := rawNameOf(lhsBS.Base)
	rhsName, ok4 := rawNameOf(rhsBS.Base)
	if !ok3 || !ok4 || lhsName != rhsName {
		return shiftShape{}, false
	}

	var loopVar string
	if f.LoopVar != nil {
		loopVar = f.LoopVar.Name
	} else if initAsg, ok := f.Init.(*uhdm.Assign); ok {
		if name, ok2 := rawNameOf(initAsg.LHS); ok2 {
			loopVar = name
		}
	}
	if loopVar == "" {
		return shiftShape{}, false
	}

	lhsOff, ok5 := offsetFromLoopVar(lhsBS.Index, loopVar)
	rhsOff, ok6 := offsetFromLoopVar(rhsBS.Index, loopVar)
	if !ok5 || !ok6 {
		return shiftShape{}, false
	}
	step := lhsOff - rhsOff
	if step == 0 {
		return shiftShape{}, false
	}
	return shiftShape{arrName: lhsName, loopVar: loopVar, lhsOff: lhsOff, rhsOff: rhsOff, step: step}, true
}

// constLoopRange evaluates a for-loop's start value and iteration count,
// assuming (as every shift-register source this engine has seen does) an
// ascending, step-1, less-than-bound counting loop. A more general bound
// parser is future work.
func (t *Translator) constLoopRange(f *uhdm.For) (start, count int64, ok bool) {
	if f.LoopVar != nil {
		initVal := t.evalExpr(f.InitVal, t.env)
		if !initVal.IsFullyConst() {
			return 0, 0, false
		}
		start = int64(initVal.AsConstInt())
	} else {
		asg, ok2 := f.Init.(*uhdm.Assign)
		if !ok2 {
			return 0, 0, false
		}
		initVal := t.evalExpr(asg.RHS, t.env)
		if !initVal.IsFullyConst() {
			return 0, 0, false
		}
		start = int64(initVal.AsConstInt())
	}
	op, ok2 := f.Cond.(*uhdm.Operation)
	if !ok2 || op.Op != uhdm.OpLt || len(op.Operands) != 2 {
		return 0, 0, false
	}
	bound := t.evalExpr(op.Operands[1], t.env)
	if !bound.IsFullyConst() {
		return 0, 0, false
	}
	count = int64(bound.AsConstInt()) - start
	if count < 0 {
		return 0, 0, false
	}
	return start, count, true
}

// lowerShiftRegister recognizes a begin-block containing ordinary scalar
// assigns plus exactly one for-loop shaped like `ARR[i+k] <= ARR[i]`, plus
// (typically) a seed assign to one constant ARR element, and lowers the
// whole thing without ever materializing ARR as a memory: each element
// becomes its own $0\ARR[n] temp and real wire, chained by the loop's
// constant offset.
func (t *Translator) lowerShiftRegister(p *uhdm.Process, res classify.Result, proc *ir.Process) bool {
	begin, ok := p.Body.(*uhdm.Begin)
	if !ok {
		return false
	}
	forIdx := -1
	var forStmt *uhdm.For
	for i, s := range begin.Stmts {
		if f, ok := s.(*uhdm.For); ok {
			if forStmt != nil {
				return false
			}
			forStmt, forIdx = f, i
		}
	}
	if forStmt == nil {
		return false
	}
	shape, ok := detectShiftShape(forStmt)
	if !ok {
		return false
	}
	start, count, ok := t.constLoopRange(forStmt)
	if !ok {
		return false
	}

	src := proc.Src

	seedIdx := -1
	var seedPos = -1
	var seedAssign *uhdm.Assign
	for i, s := range begin.Stmts {
		if i == forIdx {
			continue
		}
		asg, ok := s.(*uhdm.Assign)
		if !ok {
			continue
		}
		bs, ok := asg.LHS.(*uhdm.BitSelect)
		if !ok {
			continue
		}
		name, ok := rawNameOf(bs.Base)
		if !ok || name != shape.arrName {
			continue
		}
		idx, ok := constIndex(bs.Index)
		if !ok {
			continue
		}
		seedIdx, seedPos, seedAssign = idx, i, asg
		break
	}

	arrWidth := 1
	if seedAssign != nil {
		arrWidth = t.evalExpr(seedAssign.RHS, t.env).Size()
		if arrWidth == 0 {
			arrWidth = 1
		}
	}
	t.arrayElemWidth[shape.arrName] = arrWidth

	var scalarStmts []uhdm.Stmt
	for i, s := range begin.Stmts {
		if i == forIdx || i == seedPos {
			continue
		}
		scalarStmts = append(scalarStmts, s)
	}
	scalarBody := &uhdm.Begin{Stmts: scalarStmts}
	signals := t.collectAssignedSignals(scalarBody)
	t.initRootCaseTemps(proc.RootCase, signals, src)

	for i := count - 1; i >= 0; i-- {
		iVal := start + i
		dstIdx := iVal + int64(shape.lhsOff)
		srcIdx := iVal + int64(shape.rhsOff)
		dstKey := fmt.Sprintf("%s[%d]", shape.arrName, dstIdx)
		srcKey := fmt.Sprintf("%s[%d]", shape.arrName, srcIdx)
		dstTmp := t.tempWireFor(dstKey, arrWidth, src)
		srcTmp := t.tempWireFor(srcKey, arrWidth, src)
		proc.RootCase.AddAction(ir.FromWire(dstTmp), ir.FromWire(srcTmp))
		t.markTouched(dstKey)
		t.markTouched(srcKey)
	}

	if seedAssign != nil {
		dstKey := fmt.Sprintf("%s[%d]", shape.arrName, seedIdx)
		dstTmp := t.tempWireFor(dstKey, arrWidth, src)
		val := t.evalExpr(seedAssign.RHS, t.env).ExtendU0(arrWidth)
		proc.RootCase.AddAction(ir.FromWire(dstTmp), val)
		t.markTouched(dstKey)
	}

	cs := newCaseStack(proc.RootCase)
	t.dispatchStmt(scalarBody, cs, false)

	clkVal := t.evalExpr(res.Clock, t.env)
	sr := proc.AddSync(edgeTrigger(res.ClockPosEdge), clkVal)
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
	for _, key := range t.touched {
		arrKeyWidth, isArrKey := t.arrayKeyWidth(key, shape.arrName)
		if !isArrKey {
			continue
		}
		tmp, ok := t.tempWires[key]
		if !ok {
			continue
		}
		realW := t.namedWire(key, arrKeyWidth, src)
		sr.AddAction(ir.FromWire(realW), ir.FromWire(tmp))
	}
	return true
}

// arrayKeyWidth reports whether key is one of arrName's element keys
// ("arrName[n]"), and if so the element width this process assigned it.
func (t *Translator) arrayKeyWidth(key, arrName string) (int, bool) {
	prefix := arrName + "["
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		return 0, false
	}
	w, ok := t.arrayElemWidth[arrName]
	return w, ok
}
