// Package interp implements the Interpreter: a small, strict,
// big-step evaluator over the UHDM statement tree, used by InitialInterpreted
// to execute constant-bound for-loops and block-local array writes that the
// unrolling path can't represent directly.
//
// A per-kind switch dispatch mutates a shared State struct: each case
// executes one statement against vars/arrays state.
package interp

import (
	"fmt"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

// State is the interpreter's mutable store.
type State struct {
	Vars map[string]int64
	Arrays map[string][]int64

	// Written records which array indices were actually assigned, keyed by
	// array name then index, so a caller emitting one cell per written
	// element can skip a fixed-length array's untouched (default-0) slots.
	Written map[string]map[int]bool

	breakFlag bool
	continueFlag bool
}

// NewState allocates an empty interpreter state.
func NewState() *State {
	return &State{
		Vars: make(map[string]int64),
		Arrays: make(map[string][]int64),
		Written: make(map[string]map[int]bool),
	}
}

// DeclareArray preallocates a fixed-length array, sized from the owning
// wire/array's elaborated width.
func (s *State) DeclareArray(name string, length int) {
	s.Arrays[name] = make([]int64, length)
}

// abortSignal is panicked to unwind out of a deeply nested exec/eval call
// when an unevaluatable node is reached; Run recovers it at the top.
type abortSignal struct {
	reason string
	loc uhdm.Loc
}

// Interp runs one interpretation of a statement tree against a State.
type Interp struct {
	State *State

	// OnAbort is invoked when the interpreter reaches a node it cannot
	// evaluate; the caller is expected to fall back to a gentler lowering
	// strategy and log the occurrence.
	OnAbort func(reason string, loc uhdm.Loc)
}

// New builds an Interp over an existing State (callers pre-populate Vars
// for loop variables carried in from an enclosing scope, if any).
func New(s *State) *Interp {
	return &Interp{State: s}
}

// Run executes body to completion. ok is false if execution aborted on an
// unevaluatable node; in that case State may be partially updated and
// should be discarded by the caller.
func (it *Interp) Run(body uhdm.Stmt) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			sig, isAbort := r.(abortSignal)
			if !isAbort {
				panic(r)
			}
			if it.OnAbort != nil {
				it.OnAbort(sig.reason, sig.loc)
			}
			ok = false
		}
	}()
	it.exec(body)
	return true
}

func (it *Interp) abort(loc uhdm.Loc, format string, args...any) {
	panic(abortSignal{reason: fmt.Sprintf(format, args...), loc: loc})
}

func (it *Interp) exec(s uhdm.Stmt) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case *uhdm.Begin:
		it.execBlock(n.Stmts)

	case *uhdm.NamedBegin:
		for _, v := range n.Locals {
			if v.ArrayLen > 0 {
				it.State.DeclareArray(v.Name, v.ArrayLen)
			} else if _, exists := it.State.Vars[v.Name]; !exists {
				it.State.Vars[v.Name] = 0
			}
		}
		it.execBlock(n.Stmts)

	case *uhdm.Assign:
		it.execAssign(n)

	case *uhdm.If:
		if it.eval(n.Cond) != 0 {
			it.exec(n.Then)
		} else if n.Else != nil {
			it.exec(n.Else)
		}

	case *uhdm.Case:
		sel := it.eval(n.Selector)
		it.execCase(n, sel)

	case *uhdm.For:
		it.execFor(n)

	case *uhdm.Repeat:
		count := it.eval(n.Count)
		for i := int64(0); i < count; i++ {
			it.exec(n.Body)
			if it.State.breakFlag {
				it.State.breakFlag = false
				break
			}
			it.State.continueFlag = false
		}

	case *uhdm.BreakStmt:
		it.State.breakFlag = true

	case *uhdm.ContinueStmt:
		it.State.continueFlag = true

	case *uhdm.ImmediateAssert:
		// Assertions have no compile-time effect on vars/arrays; $check
		// cell emission belongs to the caller's sync-action lowering, not
		// this pure evaluator.

	case *uhdm.SysTaskCall, *uhdm.TaskCall:
		// Non-synthesizable or side-effect-only calls: SynthAudit is the
		// authority on whether this is even reachable; the interpreter
		// treats it as a no-op rather than aborting the whole unroll.

	default:
		it.abort(s.Loc(), "interp: unsupported statement kind %v", s.Kind())
	}
}

// execBlock runs stmts in order, stopping early on a break/continue so the
// enclosing loop construct can observe and clear the flag.
func (it *Interp) execBlock(stmts []uhdm.Stmt) {
	for _, c := range stmts {
		it.exec(c)
		if it.State.breakFlag || it.State.continueFlag {
			return
		}
	}
}

func (it *Interp) execAssign(n *uhdm.Assign) {
	val := it.eval(n.RHS)
	if n.HasCompound {
		val = foldBinary(n.CompoundOp, it.eval(n.LHS), val, n.Loc(), it)
	}
	switch lhs := n.LHS.(type) {
	case *uhdm.RefObj:
		it.State.Vars[lhs.Name] = val
	case *uhdm.RefVar:
		it.State.Vars[lhs.Name] = val
	case *uhdm.BitSelect:
		name, ok := arrayBase(lhs.Base)
		if !ok {
			it.abort(n.Loc(), "interp: assignment LHS base is not a plain array reference")
		}
		idx := int(it.eval(lhs.Index))
		arr, ok := it.State.Arrays[name]
		if !ok {
			it.abort(n.Loc(), "interp: unknown array %q", name)
		}
		if idx < 0 || idx >= len(arr) {
			it.abort(n.Loc(), "interp: array %q index %d out of range [0,%d)", name, idx, len(arr))
		}
		arr[idx] = val
		if it.State.Written[name] == nil {
			it.State.Written[name] = make(map[int]bool)
		}
		it.State.Written[name][idx] = true
	default:
		it.abort(n.Loc(), "interp: unsupported assignment LHS shape")
	}
}

func arrayBase(e uhdm.Expr) (string, bool) {
	switch n := e.(type) {
	case *uhdm.RefObj:
		return n.Name, true
	case *uhdm.RefVar:
		return n.Name, true
	}
	return "", false
}

func (it *Interp) execCase(n *uhdm.Case, sel int64) {
	var defaultItem *uhdm.CaseItem
	for _, item := range n.Items {
		if len(item.Compare) == 0 {
			defaultItem = item
			continue
		}
		for _, cmp := range item.Compare {
			if it.eval(cmp) == sel {
				it.exec(item.Body)
				return
			}
		}
	}
	if defaultItem != nil {
		it.exec(defaultItem.Body)
	}
}

func (it *Interp) execFor(n *uhdm.For) {
	if n.LoopVar != nil {
		it.State.Vars[n.LoopVar.Name] = it.eval(n.InitVal)
		if n.LoopVar.ArrayLen > 0 {
			it.State.DeclareArray(n.LoopVar.Name, n.LoopVar.ArrayLen)
		}
	} else {
		it.exec(n.Init)
	}

	for it.eval(n.Cond) != 0 {
		it.exec(n.Body)
		if it.State.breakFlag {
			it.State.breakFlag = false
			break
		}
		it.State.continueFlag = false
		it.exec(n.Inc)
	}
}

// eval implements the "Expression evaluation" subset: integer
// operators, ternary, indexed part-select, bit-select, concatenation,
// ref-obj, constant. Anything else aborts the interpreter.
func (it *Interp) eval(e uhdm.Expr) int64 {
	switch n := e.(type) {
	case nil:
		return 0

	case *uhdm.Constant:
		return int64(n.Value)

	case *uhdm.RefObj:
		return it.evalRef(n.Name, n.Loc())
	case *uhdm.RefVar:
		return it.evalRef(n.Name, n.Loc())

	case *uhdm.BitSelect:
		if name, ok := arrayBase(n.Base); ok {
			if arr, isArr := it.State.Arrays[name]; isArr {
				idx := int(it.eval(n.Index))
				if idx < 0 || idx >= len(arr) {
					it.abort(n.Loc(), "interp: array %q read index %d out of range [0,%d)", name, idx, len(arr))
				}
				return arr[idx]
			}
		}
		base := it.eval(n.Base)
		idx := it.eval(n.Index)
		return (base >> uint(idx)) & 1

	case *uhdm.IndexedPartSelect:
		base := it.eval(n.Base)
		start := it.eval(n.BaseIndex)
		off := start
		if !n.Increment {
			off = start - int64(n.Width) + 1
		}
		mask := int64(1)<<uint(n.Width) - 1
		return (base >> uint(off)) & mask

	case *uhdm.PartSelect:
		base := it.eval(n.Base)
		lo, hi := n.Lsb, n.Msb
		if lo > hi {
			lo, hi = hi, lo
		}
		mask := int64(1)<<uint(hi-lo+1) - 1
		return (base >> uint(lo)) & mask

	case *uhdm.Operation:
		return it.evalOperation(n)

	default:
		it.abort(e.Loc(), "interp: unsupported expression node %v", e.Kind())
		return 0
	}
}

func (it *Interp) evalRef(name string, loc uhdm.Loc) int64 {
	if v, ok := it.State.Vars[name]; ok {
		return v
	}
	it.abort(loc, "interp: unknown variable %q", name)
	return 0
}

func (it *Interp) evalOperation(n *uhdm.Operation) int64 {
	switch n.Op {
	case uhdm.OpTernary:
		if it.eval(n.Operands[0]) != 0 {
			return it.eval(n.Operands[1])
		}
		return it.eval(n.Operands[2])

	case uhdm.OpConcat:
		var v int64
		for _, operand := range n.Operands {
			w := exprWidth(operand)
			v = (v << uint(w)) | it.eval(operand)
		}
		return v

	case uhdm.OpLogNot:
		if it.eval(n.Operands[0]) == 0 {
			return 1
		}
		return 0

	case uhdm.OpBitNot:
		return ^it.eval(n.Operands[0])

	case uhdm.OpUnaryMinus:
		return -it.eval(n.Operands[0])

	case uhdm.OpReduceOr:
		if it.eval(n.Operands[0]) != 0 {
			return 1
		}
		return 0

	case uhdm.OpReduceAnd:
		v := it.eval(n.Operands[0])
		w := exprWidth(n.Operands[0])
		if w > 0 && v == int64(1)<<uint(w)-1 {
			return 1
		}
		return 0

	default:
		a := it.eval(n.Operands[0])
		b := it.eval(n.Operands[1])
		return foldBinary(n.Op, a, b, n.Loc(), it)
	}
}

// exprWidth returns a constant's own width, or a conservative 32 for
// anything else — used only to size concatenation/reduce-and shifts, never
// to decide foldability.
func exprWidth(e uhdm.Expr) int {
	if c, ok := e.(*uhdm.Constant); ok {
		return c.Width
	}
	return 32
}

func foldBinary(op uhdm.OpKind, a, b int64, loc uhdm.Loc, it *Interp) int64 {
	switch op {
	case uhdm.OpAdd:
		return a + b
	case uhdm.OpSub:
		return a - b
	case uhdm.OpMul:
		return a * b
	case uhdm.OpDiv:
		if b == 0 {
			return 0
		}
		return a / b
	case uhdm.OpMod:
		if b == 0 {
			return 0
		}
		return a % b
	case uhdm.OpAnd:
		return a & b
	case uhdm.OpOr:
		return a | b
	case uhdm.OpXor:
		return a ^ b
	case uhdm.OpShl, uhdm.OpSShl:
		return a << uint(b)
	case uhdm.OpShr, uhdm.OpSShr:
		return a >> uint(b)
	case uhdm.OpLogAnd:
		if a != 0 && b != 0 {
			return 1
		}
		return 0
	case uhdm.OpLogOr:
		if a != 0 || b != 0 {
			return 1
		}
		return 0
	case uhdm.OpEq:
		if a == b {
			return 1
		}
		return 0
	case uhdm.OpNeq:
		if a != b {
			return 1
		}
		return 0
	case uhdm.OpLt:
		if a < b {
			return 1
		}
		return 0
	case uhdm.OpLe:
		if a <= b {
			return 1
		}
		return 0
	case uhdm.OpGt:
		if a > b {
			return 1
		}
		return 0
	case uhdm.OpGe:
		if a >= b {
			return 1
		}
		return 0
	default:
		it.abort(loc, "interp: unsupported binary operator %v", op)
		return 0
	}
}
