// Package exprs implements ExprEval and the import_expression contract:
// pure expression lowering with best-effort constant folding, backed by
// operator-cell emission for anything that doesn't fold. Arithmetic is
// evaluated directly over a value struct, ir.SigSpec, the same shape as a
// precomputed folding table.
package exprs

import (
	"fmt"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/ir"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

// Env is the lowering environment: signal name -> currently tracked value.
// import_expression reads ref_obj nodes against Env first, then against the
// module's wire map.
type Env map[string]ir.SigSpec

// Evaluator lowers uhdm.Expr into ir.SigSpec against one module, allocating
// temp wires and operator cells as needed through IDs.
type Evaluator struct {
	Decl *uhdm.ModuleDecl
	Mod *ir.Module
	IDs *ir.IDGen

	// OnError receives a description of any expression this evaluator
	// could not lower (non-foldable system calls, dynamic indices without
	// a constant fallback); it never aborts the evaluation — the caller
	// decides whether a zero SigSpec is an acceptable degrade.
	OnError func(msg string, loc uhdm.Loc)
}

func (ev *Evaluator) reportError(format string, loc uhdm.Loc, args ...any) {
	if ev.OnError != nil {
		ev.OnError(fmt.Sprintf(format, args...), loc)
	}
}

// ResolveWire returns the ir.Wire backing name, creating it from the
// module's net declaration on first reference (a UHDM module's elaborated
// nets are all known up front; the IR wire is allocated lazily here the
// first time lowering touches it).
func (ev *Evaluator) ResolveWire(name string) (*ir.Wire, error) {
	if w := ev.Mod.Wire(name); w != nil {
		return w, nil
	}
	net, ok := ev.Decl.Nets[name]
	if !ok {
		return nil, fmt.Errorf("exprs: unknown signal %q", name)
	}
	w := &ir.Wire{Name: name, Width: net.Width}
	if err := ev.Mod.AddWire(w); err != nil {
		return nil, err
	}
	return w, nil
}

// Eval lowers e into a SigSpec, reading env first and falling back to the
// module's wire map (import_expression).
func (ev *Evaluator) Eval(e uhdm.Expr, env Env) ir.SigSpec {
	switch n := e.(type) {
	case nil:
		return ir.SigSpec{}

	case *uhdm.Constant:
		return ir.FromConstInt(int64(n.Value), n.Width)

	case *uhdm.RefObj:
		if env != nil {
			if v, ok := env[n.Name]; ok {
				return v
			}
		}
		w, err := ev.ResolveWire(n.Name)
		if err != nil {
			ev.reportError("%v", n.Loc(), err)
			return ir.SigSpec{}
		}
		return ir.FromWire(w)

	case *uhdm.RefVar:
		if env != nil {
			if v, ok := env[n.Name]; ok {
				return v
			}
		}
		w, err := ev.ResolveWire(n.Name)
		if err != nil {
			ev.reportError("%v", n.Loc(), err)
			return ir.SigSpec{}
		}
		return ir.FromWire(w)

	case *uhdm.BitSelect:
		base := ev.Eval(n.Base, env)
		idx := ev.Eval(n.Index, env)
		if !idx.IsFullyConst() {
			ev.reportError("non-constant bit-select index not supported by this expression lowering", n.Loc())
			return ir.SigSpec{}
		}
		off := int(idx.AsConstInt())
		if off < 0 || off >= base.Size() {
			ev.reportError("bit-select index %d out of range for width %d", n.Loc(), off, base.Size())
			return ir.SigSpec{}
		}
		return base.Extract(off, 1)

	case *uhdm.PartSelect:
		base := ev.Eval(n.Base, env)
		lo, hi := n.Lsb, n.Msb
		if lo > hi {
			lo, hi = hi, lo
		}
		return base.Extract(lo, hi-lo+1)

	case *uhdm.IndexedPartSelect:
		base := ev.Eval(n.Base, env)
		idx := ev.Eval(n.BaseIndex, env)
		if !idx.IsFullyConst() {
			ev.reportError("non-constant indexed part-select base not supported by this expression lowering", n.Loc())
			return ir.SigSpec{}
		}
		start := int(idx.AsConstInt())
		off := start
		if !n.Increment {
			off = start - n.Width + 1
		}
		if off < 0 || off+n.Width > base.Size() {
			ev.reportError("indexed part-select [%d +: %d] out of range for width %d", n.Loc(), off, n.Width, base.Size())
			return ir.SigSpec{}
		}
		return base.Extract(off, n.Width)

	case *uhdm.Operation:
		return ev.evalOperation(n, env)

	case *uhdm.FuncCall:
		// Function inlining is the caller's (pkg/translate) responsibility,
		// since it requires statement-level lowering of the function body;
		// a bare ExprEval has nothing to inline into.
		ev.reportError("func_call reached bare expression evaluator without inlining", n.Loc())
		return ir.SigSpec{}

	case *uhdm.SysFuncCall:
		ev.reportError("sys_func_call %q is not synthesizable", n.Loc(), n.Name)
		return ir.SigSpec{}

	default:
		ev.reportError("unhandled expression node", e.Loc())
		return ir.SigSpec{}
	}
}

var binaryCellKind = map[uhdm.OpKind]ir.CellKind{
	uhdm.OpAdd: ir.CellAdd,
	uhdm.OpSub: ir.CellSub,
	uhdm.OpMul: ir.CellMul,
	uhdm.OpDiv: ir.CellDiv,
	uhdm.OpMod: ir.CellMod,
	uhdm.OpAnd: ir.CellAnd,
	uhdm.OpOr: ir.CellOr,
	uhdm.OpXor: ir.CellXor,
	uhdm.OpShl: ir.CellShl,
	uhdm.OpShr: ir.CellShr,
	uhdm.OpSShl: ir.CellSshl,
	uhdm.OpSShr: ir.CellSshr,
	uhdm.OpEq: ir.CellEq,
}

func (ev *Evaluator) evalOperation(n *uhdm.Operation, env Env) ir.SigSpec {
	switch n.Op {
	case uhdm.OpConcat:
		var out ir.SigSpec
		for _, operand := range n.Operands {
			out = out.Append(ev.Eval(operand, env))
		}
		return out

	case uhdm.OpTernary:
		cond := ev.Eval(n.Operands[0], env)
		then := ev.Eval(n.Operands[1], env)
		els := ev.Eval(n.Operands[2], env)
		width := opWidth(n, then.Size(), els.Size())
		then = then.ExtendU0(width)
		els = els.ExtendU0(width)
		if cond.IsFullyConst() {
			if cond.AsConstInt() != 0 {
				return then
			}
			return els
		}
		return ev.emitMux(n, cond, then, els, width)

	case uhdm.OpLogNot, uhdm.OpBitNot, uhdm.OpUnaryMinus, uhdm.OpReduceOr, uhdm.OpReduceAnd:
		return ev.evalUnary(n, env)

	case uhdm.OpLogAnd, uhdm.OpLogOr:
		return ev.evalLogical(n, env)

	case uhdm.OpNeq:
		eq := ev.evalBinary(&uhdm.Operation{Op: uhdm.OpEq, Operands: n.Operands, Width: 1}, env)
		if eq.IsFullyConst() {
			if eq.AsConstInt() == 0 {
				return ir.FromConstInt(1, 1)
			}
			return ir.FromConstInt(0, 1)
		}
		return ev.emitUnaryCell(n, ir.CellNot, eq, 1)
	case uhdm.OpLt, uhdm.OpLe, uhdm.OpGt, uhdm.OpGe:
		return ev.evalCompare(n, env)

	default:
		return ev.evalBinary(n, env)
	}
}

func opWidth(n *uhdm.Operation, fallback...int) int {
	if n.Width > 0 {
		return n.Width
	}
	w := 0
	for _, f := range fallback {
		if f > w {
			w = f
		}
	}
	if w == 0 {
		w = 1
	}
	return w
}

func (ev *Evaluator) evalBinary(n *uhdm.Operation, env Env) ir.SigSpec {
	a := ev.Eval(n.Operands[0], env)
	b := ev.Eval(n.Operands[1], env)
	width := opWidth(n, a.Size(), b.Size())
	a = a.ExtendU0(width)
	b = b.ExtendU0(width)

	if a.IsFullyConst() && b.IsFullyConst() {
		return ir.FromConst(foldConst(n.Op, a.AsConstInt(), b.AsConstInt(), width))
	}

	kind, ok := binaryCellKind[n.Op]
	if !ok {
		ev.reportError("unsupported binary operator %v", n.Loc(), n.Op)
		return ir.SigSpec{}
	}
	resultWidth := width
	if n.Op == uhdm.OpEq {
		resultWidth = 1
	}
	out := ev.newTempWire(resultWidth)
	cell := &ir.Cell{Name: ev.IDs.CellName(string(kind), locToSrc(n.Loc())), Kind: kind, Src: locToSrc(n.Loc())}
	cell.SetInput("A", a)
	cell.SetInput("B", b)
	cell.SetOutput("Y", ir.FromWire(out))
	cell.SetParam("WIDTH", ir.ConstInt(int64(width), 32))
	_ = ev.Mod.AddCell(cell)
	return ir.FromWire(out)
}

// Combine applies a binary operator directly to two already-lowered
// SigSpecs, without an enclosing uhdm.Operation node. pkg/translate uses it
// to lower compound assignment (`x OP= e` as `x := x_current OP e`), where
// the "current value" operand is already a SigSpec, not an expression to
// re-evaluate.
func (ev *Evaluator) Combine(op uhdm.OpKind, a, b ir.SigSpec, loc uhdm.Loc) ir.SigSpec {
	width := max(a.Size(), b.Size())
	a = a.ExtendU0(width)
	b = b.ExtendU0(width)

	if a.IsFullyConst() && b.IsFullyConst() {
		return ir.FromConst(foldConst(op, a.AsConstInt(), b.AsConstInt(), width))
	}

	kind, ok := binaryCellKind[op]
	if !ok {
		ev.reportError("unsupported compound operator %v", loc, op)
		return ir.SigSpec{}
	}
	resultWidth := width
	if op == uhdm.OpEq {
		resultWidth = 1
	}
	out := ev.newTempWire(resultWidth)
	src := locToSrc(loc)
	cell := &ir.Cell{Name: ev.IDs.CellName(string(kind), src), Kind: kind, Src: src}
	cell.SetInput("A", a)
	cell.SetInput("B", b)
	cell.SetOutput("Y", ir.FromWire(out))
	cell.SetParam("WIDTH", ir.ConstInt(int64(width), 32))
	_ = ev.Mod.AddCell(cell)
	return ir.FromWire(out)
}

func (ev *Evaluator) evalCompare(n *uhdm.Operation, env Env) ir.SigSpec {
	a := ev.Eval(n.Operands[0], env)
	b := ev.Eval(n.Operands[1], env)
	width := max(a.Size(), b.Size())
	a = a.ExtendU0(width)
	b = b.ExtendU0(width)

	if a.IsFullyConst() && b.IsFullyConst() {
		av, bv := int64(a.AsConstInt()), int64(b.AsConstInt())
		var result bool
		switch n.Op {
		case uhdm.OpLt:
			result = av < bv
		case uhdm.OpLe:
			result = av <= bv
		case uhdm.OpGt:
			result = av > bv
		case uhdm.OpGe:
			result = av >= bv
		}
		if result {
			return ir.FromConstInt(1, 1)
		}
		return ir.FromConstInt(0, 1)
	}

	// Non-foldable ordering comparisons cannot be expressed as $eq; emit a
	// dedicated cell named after the comparison so downstream tooling can
	// recognize it.
	out := ev.newTempWire(1)
	kindName := map[uhdm.OpKind]string{uhdm.OpLt: "$lt", uhdm.OpLe: "$le", uhdm.OpGt: "$gt", uhdm.OpGe: "$ge"}[n.Op]
	cell := &ir.Cell{Name: ev.IDs.CellName(kindName, locToSrc(n.Loc())), Kind: ir.CellKind(kindName), Src: locToSrc(n.Loc())}
	cell.SetInput("A", a)
	cell.SetInput("B", b)
	cell.SetOutput("Y", ir.FromWire(out))
	_ = ev.Mod.AddCell(cell)
	return ir.FromWire(out)
}

func (ev *Evaluator) evalUnary(n *uhdm.Operation, env Env) ir.SigSpec {
	a := ev.Eval(n.Operands[0], env)
	switch n.Op {
	case uhdm.OpLogNot, uhdm.OpReduceOr, uhdm.OpReduceAnd:
		if a.IsFullyConst() {
			v := a.AsConstInt()
			nz := v != 0
			isAnd := n.Op == uhdm.OpReduceAnd
			full := v == (uint64(1)<<uint(a.Size()))-1 || a.Size() >= 64
			var bit uint64
			switch {
			case n.Op == uhdm.OpLogNot:
				if !nz {
					bit = 1
				}
			case isAnd:
				if full {
					bit = 1
				}
			default:
				if nz {
					bit = 1
				}
			}
			return ir.FromConstInt(int64(bit), 1)
		}
		return ev.emitUnaryCell(n, ir.CellReduceBool, a, 1)

	case uhdm.OpBitNot, uhdm.OpUnaryMinus:
		if a.IsFullyConst() {
			v := a.AsConstInt()
			if n.Op == uhdm.OpBitNot {
				v = ^v
			} else {
				v = -v
			}
			return ir.FromConst(ir.ConstInt(int64(v), a.Size()))
		}
		kind := ir.CellNot
		if n.Op == uhdm.OpUnaryMinus {
			kind = ir.CellSub // 0 - a
		}
		return ev.emitUnaryCell(n, kind, a, a.Size())

	default:
		ev.reportError("unsupported unary operator %v", n.Loc(), n.Op)
		return ir.SigSpec{}
	}
}

func (ev *Evaluator) evalLogical(n *uhdm.Operation, env Env) ir.SigSpec {
	a := ev.Eval(n.Operands[0], env)
	b := ev.Eval(n.Operands[1], env)
	if a.IsFullyConst() && b.IsFullyConst() {
		av, bv := a.AsConstInt() != 0, b.AsConstInt() != 0
		var r bool
		if n.Op == uhdm.OpLogAnd {
			r = av && bv
		} else {
			r = av || bv
		}
		if r {
			return ir.FromConstInt(1, 1)
		}
		return ir.FromConstInt(0, 1)
	}
	kind := ir.CellAnd
	if n.Op == uhdm.OpLogOr {
		kind = ir.CellOr
	}
	out := ev.newTempWire(1)
	cell := &ir.Cell{Name: ev.IDs.CellName(string(kind)+"_reduce", locToSrc(n.Loc())), Kind: kind, Src: locToSrc(n.Loc())}
	cell.SetInput("A", a)
	cell.SetInput("B", b)
	cell.SetOutput("Y", ir.FromWire(out))
	_ = ev.Mod.AddCell(cell)
	return ir.FromWire(out)
}

func (ev *Evaluator) emitUnaryCell(n *uhdm.Operation, kind ir.CellKind, a ir.SigSpec, width int) ir.SigSpec {
	out := ev.newTempWire(width)
	cell := &ir.Cell{Name: ev.IDs.CellName(string(kind), locToSrc(n.Loc())), Kind: kind, Src: locToSrc(n.Loc())}
	cell.SetInput("A", a)
	cell.SetOutput("Y", ir.FromWire(out))
	_ = ev.Mod.AddCell(cell)
	return ir.FromWire(out)
}

// ReduceBool boolean-reduces s to a single bit: nonzero -> 1'b1, zero ->
// 1'b0. Verilog treats any width>1 value used as a condition (`if (count)`,
// a case-as-if switch) as a truth test, not a bit-for-bit comparison against
// 1 — callers that build a switch over a raw condition must reduce it first.
func (ev *Evaluator) ReduceBool(s ir.SigSpec, loc uhdm.Loc) ir.SigSpec {
	if s.Size() == 1 {
		return s
	}
	if s.IsFullyConst() {
		if s.AsConstInt() != 0 {
			return ir.FromConstInt(1, 1)
		}
		return ir.FromConstInt(0, 1)
	}
	out := ev.newTempWire(1)
	src := locToSrc(loc)
	cell := &ir.Cell{Name: ev.IDs.CellName(string(ir.CellReduceBool), src), Kind: ir.CellReduceBool, Src: src}
	cell.SetInput("A", s)
	cell.SetOutput("Y", ir.FromWire(out))
	_ = ev.Mod.AddCell(cell)
	return ir.FromWire(out)
}

func (ev *Evaluator) emitMux(n *uhdm.Operation, cond, then, els ir.SigSpec, width int) ir.SigSpec {
	out := ev.newTempWire(width)
	cell := &ir.Cell{Name: ev.IDs.CellName(string(ir.CellMux), locToSrc(n.Loc())), Kind: ir.CellMux, Src: locToSrc(n.Loc())}
	cell.SetInput("A", els)
	cell.SetInput("B", then)
	cell.SetInput("S", cond)
	cell.SetOutput("Y", ir.FromWire(out))
	_ = ev.Mod.AddCell(cell)
	return ir.FromWire(out)
}

func (ev *Evaluator) newTempWire(width int) *ir.Wire {
	name := fmt.Sprintf("$%d", ev.IDs.Next())
	w := &ir.Wire{Name: name, Width: width}
	_ = ev.Mod.AddWire(w)
	return w
}

func foldConst(op uhdm.OpKind, a, b uint64, width int) ir.Const {
	var v uint64
	switch op {
	case uhdm.OpAdd:
		v = a + b
	case uhdm.OpSub:
		v = a - b
	case uhdm.OpMul:
		v = a * b
	case uhdm.OpDiv:
		if b == 0 {
			v = 0
		} else {
			v = a / b
		}
	case uhdm.OpMod:
		if b == 0 {
			v = 0
		} else {
			v = a % b
		}
	case uhdm.OpAnd:
		v = a & b
	case uhdm.OpOr:
		v = a | b
	case uhdm.OpXor:
		v = a ^ b
	case uhdm.OpShl, uhdm.OpSShl:
		v = a << uint(b)
	case uhdm.OpShr, uhdm.OpSShr:
		v = a >> uint(b)
	case uhdm.OpEq:
		if a == b {
			v = 1
		}
		width = 1
	}
	return ir.ConstInt(int64(v), width)
}

func locToSrc(l uhdm.Loc) ir.Src {
	return ir.Src{File: l.File, Line: l.Line}
}
