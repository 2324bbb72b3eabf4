// Package rewrite implements RewriteEngine: seven local,
// idempotent, pattern-guarded transformations applied to the UHDM tree
// before lowering. Each rewrite is its own method, matching a specific
// shape and doing nothing when the shape isn't present, and the engine
// applies every matching rewrite exactly once per run.
package rewrite

import (
	"fmt"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

// Engine applies the seven rewrites. TempSeq is the counter behind
// nextTemp; the one synthetic wire the rewrites add is named after the
// signals it combines (synlig_tmp_<a>_or_<b>) and does not use it.
type Engine struct {
	TempSeq int

	// Report receives a one-line diagnostic whenever a rewrite fires,
	// emitted whenever a rewrite fires.
	Report func(msg string)
}

func (e *Engine) report(format string, args...any) {
	if e.Report != nil {
		e.Report(fmt.Sprintf(format, args...))
	}
}

// ApplyAll runs every rewrite across mod's processes and declarations once,
// returning how many times each fired.
func (e *Engine) ApplyAll(mod *uhdm.ModuleDecl) map[string]int {
	counts := make(map[string]int)
	for _, p := range mod.Processes {
		if e.ThreeSignalSensitivityFlatten(mod, p) {
			counts["sensitivity_flatten"]++
		}
		if e.NonConstantLoopBoundFlatten(mod, p) {
			counts["loop_bound_flatten"]++
		}
		if e.LogAndForLoopFlatten(p) {
			counts["log_and_for_flatten"]++
		}
		if e.RAMBlockingToNonblocking(mod, p) {
			counts["ram_nonblocking"]++
		}
	}
	if e.SignedPortStrip(mod) {
		counts["signed_port_strip"]++
	}
	if e.CanonicalizeTypedefAlias(mod) {
		counts["typedef_alias_canon"]++
	}
	if e.NormalizeArrayElemTypespec(mod) {
		counts["array_elem_typespec_norm"]++
	}
	return counts
}

func (e *Engine) nextTemp(prefix string) string {
	e.TempSeq++
	return fmt.Sprintf("%s_%d", prefix, e.TempSeq)
}

// collectEdgeOps flattens a sensitivity-list expression into its edge
// operands; duplicated from pkg/classify rather than imported, since that
// package's helper is unexported and this concern is a one-liner.
func collectEdgeOps(ex uhdm.Expr) []*uhdm.EdgeOp {
	var out []*uhdm.EdgeOp
	var walk func(uhdm.Expr)
	walk = func(ex uhdm.Expr) {
		switch n := ex.(type) {
		case *uhdm.EdgeOp:
			out = append(out, n)
		case *uhdm.Operation:
			if n.Op == uhdm.OpOr || n.Op == uhdm.OpLogOr {
				for _, operand := range n.Operands {
					walk(operand)
				}
			}
		}
	}
	walk(ex)
	return out
}

func refName(e uhdm.Expr) (string, bool) {
	switch n := e.(type) {
	case *uhdm.RefObj:
		return n.Name, true
	case *uhdm.RefVar:
		return n.Name, true
	}
	return "", false
}

// ThreeSignalSensitivityFlatten: a 3-edge
// sensitivity list `(posedge clk or posedge rst or posedge start)` whose
// body contains `if (rst | start)...` anywhere gets a synthetic flattening wire.
func (e *Engine) ThreeSignalSensitivityFlatten(mod *uhdm.ModuleDecl, p *uhdm.Process) bool {
	if p.EventCtrl == nil {
		return false
	}
	edges := collectEdgeOps(p.EventCtrl.Expr)
	if len(edges) != 3 {
		return false
	}
	clk, a, b := edges[0], edges[1], edges[2]
	nameA, ok := refName(a.Signal)
	if !ok {
		return false
	}
	nameB, ok := refName(b.Signal)
	if !ok {
		return false
	}

	innerIf := findInnerOrCondition(p.Body, nameA, nameB)
	if innerIf == nil {
		return false
	}

	tempName := fmt.Sprintf("synlig_tmp_%s_or_%s", nameA, nameB)
	if mod.Nets != nil {
		if _, exists := mod.Nets[tempName]; exists {
			return false // already flattened this pair
		}
	}
	mod.AddNet(tempName, 1)
	mod.ContAssigns = append(mod.ContAssigns, uhdm.ContAssign{
			LHS: &uhdm.RefObj{Name: tempName},
			RHS: &uhdm.Operation{Op: uhdm.OpOr, Operands: []uhdm.Expr{a.Signal, b.Signal}},
	})
	p.EventCtrl.Expr = &uhdm.Operation{
		Op: uhdm.OpOr,
		Operands: []uhdm.Expr{
			clk,
			&uhdm.EdgeOp{Edge: b.Edge, Signal: &uhdm.RefObj{Name: tempName}},
		},
	}
	innerIf.Cond = &uhdm.RefObj{Name: tempName}
	e.report("flattened 3-signal sensitivity list into %s", tempName)
	return true
}

// findInnerOrCondition locates the first `if` anywhere in body whose
// condition is exactly `nameA | nameB` (either order).
func findInnerOrCondition(body uhdm.Stmt, nameA, nameB string) *uhdm.If {
	var found *uhdm.If
	walkStmt(body, func(s uhdm.Stmt) bool {
			if found != nil {
				return false
			}
			ifs, ok := s.(*uhdm.If)
			if !ok {
				return true
			}
			op, ok := ifs.Cond.(*uhdm.Operation)
			if !ok || (op.Op != uhdm.OpOr && op.Op != uhdm.OpLogOr) || len(op.Operands) != 2 {
				return true
			}
			n0, ok0 := refName(op.Operands[0])
			n1, ok1 := refName(op.Operands[1])
			if !ok0 || !ok1 {
				return true
			}
			if (n0 == nameA && n1 == nameB) || (n0 == nameB && n1 == nameA) {
				found = ifs
				return false
			}
			return true
	})
	return found
}

// NonConstantLoopBoundFlatten: inside an
// always process, `for (j=0; j<bound; j++)` with a variable bound is
// rewritten to a case over every value the bound's declared width admits.
func (e *Engine) NonConstantLoopBoundFlatten(mod *uhdm.ModuleDecl, p *uhdm.Process) bool {
	if p.EventCtrl == nil {
		return false
	}
	applied := false
	p.Body = rewriteInPlace(p.Body, func(s uhdm.Stmt) uhdm.Stmt {
			forStmt, ok := s.(*uhdm.For)
			if !ok || forStmt.Cond == nil {
				return s
			}
			cmp, ok := forStmt.Cond.(*uhdm.Operation)
			if !ok || cmp.Op != uhdm.OpLt || len(cmp.Operands) != 2 {
				return s
			}
			boundName, ok := refName(cmp.Operands[1])
			if !ok {
				return s
			}
			net, ok := mod.Nets[boundName]
			if !ok || net.Width == 0 || net.Width > 6 {
				// Unknown or too-wide bound: guard fails exactly, skip rather
				// than enumerating an impractically large case statement.
				return s
			}
			n := 1 << uint(net.Width)
			items := make([]*uhdm.CaseItem, 0, n)
			for v := 0; v < n; v++ {
				iter := cloneFor(forStmt)
				iter.Cond = &uhdm.Operation{Op: uhdm.OpLt, Operands: []uhdm.Expr{cmp.Operands[0], &uhdm.Constant{Value: uint64(v), Width: net.Width}}}
				items = append(items, &uhdm.CaseItem{Compare: []uhdm.Expr{&uhdm.Constant{Value: uint64(v), Width: net.Width}}, Body: iter})
			}
			applied = true
			e.report("flattened non-constant loop bound %q into a %d-way case", boundName, n)
			return &uhdm.Case{Selector: &uhdm.RefObj{Name: boundName}, Items: items}
	})
	return applied
}

func cloneFor(f *uhdm.For) *uhdm.For {
	cp := *f
	return &cp
}

// LogAndForLoopFlatten: a for-loop condition
// `bound && earlyExit` becomes `bound` alone with `if (earlyExit) break;`
// prepended to the body.
func (e *Engine) LogAndForLoopFlatten(p *uhdm.Process) bool {
	applied := false
	p.Body = rewriteInPlace(p.Body, func(s uhdm.Stmt) uhdm.Stmt {
			forStmt, ok := s.(*uhdm.For)
			if !ok {
				return s
			}
			op, ok := forStmt.Cond.(*uhdm.Operation)
			if !ok || op.Op != uhdm.OpLogAnd || len(op.Operands) != 2 {
				return s
			}
			forStmt.Cond = op.Operands[0]
			forStmt.Body = &uhdm.Begin{Stmts: []uhdm.Stmt{
					&uhdm.If{Cond: op.Operands[1], Then: &uhdm.BreakStmt{}},
					forStmt.Body,
			}}
			applied = true
			e.report("flattened && for-loop condition into an explicit break")
			return forStmt
	})
	return applied
}

// RAMBlockingToNonblocking: a blocking
// write-then-read pair against a memory array, each occurring exactly once
// in the process body, is switched to nonblocking.
func (e *Engine) RAMBlockingToNonblocking(mod *uhdm.ModuleDecl, p *uhdm.Process) bool {
	writes := map[string][]*uhdm.Assign{}
	reads := map[string][]*uhdm.Assign{}
	walkStmt(p.Body, func(s uhdm.Stmt) bool {
			a, ok := s.(*uhdm.Assign)
			if !ok || !a.Blocking {
				return true
			}
			if bs, ok := a.LHS.(*uhdm.BitSelect); ok {
				if name, ok := refName(bs.Base); ok && mod.IsMemory(name) {
					writes[name] = append(writes[name], a)
				}
			}
			if bs, ok := a.RHS.(*uhdm.BitSelect); ok {
				if name, ok := refName(bs.Base); ok && mod.IsMemory(name) {
					reads[name] = append(reads[name], a)
				}
			}
			return true
	})
	applied := false
	for name, ws := range writes {
		rs := reads[name]
		if len(ws) != 1 || len(rs) != 1 {
			continue
		}
		ws[0].Blocking = false
		rs[0].Blocking = false
		applied = true
		e.report("converted single blocking write/read of %q to nonblocking", name)
	}
	return applied
}

// SignedPortStrip: a port whose low-conn is
// unsigned but whose high-conn is signed has the high-conn's signed
// attribute cleared.
func (e *Engine) SignedPortStrip(mod *uhdm.ModuleDecl) bool {
	applied := false
	for _, port := range mod.Ports {
		if !port.LowConnSigned && port.HighConnSigned {
			port.HighConnSigned = false
			applied = true
			e.report("stripped signed high-conn qualifier from unsigned port %q", port.Name)
		}
	}
	return applied
}

// CanonicalizeTypedefAlias: a named ref_typespec whose AliasOf names a
// different typespec is redirected to the aliased typespec. Kinds are not
// compared: TypespecRef carries a single Kind, so an alias is redirected
// whatever the base typespec's kind.
func (e *Engine) CanonicalizeTypedefAlias(mod *uhdm.ModuleDecl) bool {
	applied := false
	for _, ref := range mod.TypespecRefs {
		if ref.Name != "" && ref.AliasOf != "" && ref.AliasOf != ref.Name {
			e.report("redirected typespec alias %q to %q", ref.Name, ref.AliasOf)
			ref.Name = ref.AliasOf
			applied = true
		}
	}
	return applied
}

// NormalizeArrayElemTypespec: an array
// variable whose element typespec has a single range and is still shared
// gets that typespec decoupled (modeled here as clearing the shared flag,
// since lowering never re-derives identity from it afterward).
func (e *Engine) NormalizeArrayElemTypespec(mod *uhdm.ModuleDecl) bool {
	applied := false
	for name, arr := range mod.Arrays {
		if arr.ElemRanges == 1 && arr.ElemTypespecShared {
			arr.ElemTypespecShared = false
			mod.Arrays[name] = arr
			applied = true
			e.report("decoupled shared single-range element typespec for array %q", name)
		}
	}
	return applied
}

// walkStmt visits every statement reachable from s, stopping early once fn
// returns false for a node (still visiting that node, just not recursing
// past it).
func walkStmt(s uhdm.Stmt, fn func(uhdm.Stmt) bool) {
	if s == nil {
		return
	}
	if !fn(s) {
		return
	}
	switch n := s.(type) {
	case *uhdm.Begin:
		for _, c := range n.Stmts {
			walkStmt(c, fn)
		}
	case *uhdm.NamedBegin:
		for _, c := range n.Stmts {
			walkStmt(c, fn)
		}
	case *uhdm.If:
		walkStmt(n.Then, fn)
		walkStmt(n.Else, fn)
	case *uhdm.Case:
		for _, item := range n.Items {
			walkStmt(item.Body, fn)
		}
	case *uhdm.For:
		walkStmt(n.Body, fn)
	case *uhdm.Repeat:
		walkStmt(n.Body, fn)
	}
}

// rewriteInPlace walks s depth-first, replacing each child with fn's
// result; fn is always called after children have been rewritten (bottom
// up), so a rewrite that fires on a For node sees an already-rewritten
// body.
func rewriteInPlace(s uhdm.Stmt, fn func(uhdm.Stmt) uhdm.Stmt) uhdm.Stmt {
	if s == nil {
		return nil
	}
	switch n := s.(type) {
	case *uhdm.Begin:
		for i, c := range n.Stmts {
			n.Stmts[i] = rewriteInPlace(c, fn)
		}
	case *uhdm.NamedBegin:
		for i, c := range n.Stmts {
			n.Stmts[i] = rewriteInPlace(c, fn)
		}
	case *uhdm.If:
		n.Then = rewriteInPlace(n.Then, fn)
		n.Else = rewriteInPlace(n.Else, fn)
	case *uhdm.Case:
		for _, item := range n.Items {
			item.Body = rewriteInPlace(item.Body, fn)
		}
	case *uhdm.For:
		n.Body = rewriteInPlace(n.Body, fn)
	case *uhdm.Repeat:
		n.Body = rewriteInPlace(n.Body, fn)
	}
	return fn(s)
}
