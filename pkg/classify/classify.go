// Package classify implements ProcessClassifier: it inspects
// a procedural block's sensitivity list and decides whether it lowers as
// combinational, a simple flop, an async-reset flop, a set-reset flop, or
// one of the three initial-block sub-strategies.
//
// The dispatch itself is one big switch on a tagged enum (Tag).
package classify

import "github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"

// Tag is the classification result.
type Tag int

const (
	TagComb Tag = iota
	TagFF
	TagAsyncResetFF
	TagSRFF
	TagInitialSync
	TagInitialComb
	TagInitialInterpreted
)

func (t Tag) String() string {
	switch t {
	case TagComb:
		return "Comb"
	case TagFF:
		return "FF"
	case TagAsyncResetFF:
		return "AsyncResetFF"
	case TagSRFF:
		return "SRFF"
	case TagInitialSync:
		return "InitialSync"
	case TagInitialComb:
		return "InitialComb"
	case TagInitialInterpreted:
		return "InitialInterpreted"
	default:
		return "unknown"
	}
}

// Result is the classifier's full output: the tag plus any extracted
// clock/reset signals.
type Result struct {
	Tag Tag

	Clock uhdm.Expr
	ClockPosEdge bool
	HasClock bool

	Reset uhdm.Expr
	ResetPosEdge bool
	HasReset bool

	// ExtraEdges holds any sensitivity edges beyond clock+reset, present
	// only when Tag == TagSRFF (three-or-more-edge sensitivity list).
	ExtraEdges []uhdm.EdgeOp
}

// Classify inspects a procedural block's event control and sensitivity
// list and returns its classification tag plus any extracted clock/reset
// signals.
func Classify(p *uhdm.Process) Result {
	if p.EventCtrl == nil {
		return classifyInitial(p.Body)
	}

	edges := collectEdgeOps(p.EventCtrl.Expr)
	switch {
	case len(edges) == 0:
		return Result{Tag: TagComb}
	case len(edges) == 1:
		e := edges[0]
		return Result{
			Tag: TagFF, Clock: e.Signal, ClockPosEdge: e.Edge == uhdm.EdgePos, HasClock: true,
		}
	default:
		clk, rst := edges[0], edges[1]
		res := Result{
			Tag: TagAsyncResetFF,
			Clock: clk.Signal,
			ClockPosEdge: clk.Edge == uhdm.EdgePos,
			HasClock: true,
			Reset: rst.Signal,
			ResetPosEdge: rst.Edge == uhdm.EdgePos,
			HasReset: true,
		}
		if len(edges) >= 3 {
			res.Tag = TagSRFF
			res.ExtraEdges = edges[2:]
		}
		return res
	}
}

// collectEdgeOps recurses into nested list operators: the elaborator
// sometimes produces `or`-lists-of-lists rather than a flat n-ary
// Operation{Op: OpOr}.
func collectEdgeOps(e uhdm.Expr) []uhdm.EdgeOp {
	var out []uhdm.EdgeOp
	var walk func(e uhdm.Expr)
	walk = func(e uhdm.Expr) {
		switch n := e.(type) {
		case *uhdm.EdgeOp:
			out = append(out, *n)
		case *uhdm.Operation:
			if n.Op == uhdm.OpOr || n.Op == uhdm.OpLogOr {
				for _, operand := range n.Operands {
					walk(operand)
				}
			}
		}
	}
	walk(e)
	return out
}

// classifyInitial picks among {InitialSync, InitialComb, InitialInterpreted}
// for a process with no event control.
func classifyInitial(body uhdm.Stmt) Result {
	if needsInterpreter(body) {
		return Result{Tag: TagInitialInterpreted}
	}
	if containsConditional(body) {
		return Result{Tag: TagInitialComb}
	}
	return Result{Tag: TagInitialSync}
}

// needsInterpreter implements the InitialInterpreted trigger conditions:
// a for-loop whose initializer declares a new variable, a named-begin with
// local variable declarations, or a for-loop whose body assigns to scalars
// (not just bit-selects).
func needsInterpreter(s uhdm.Stmt) bool {
	found := false
	walkStmt(s, func(s uhdm.Stmt) bool {
			switch n := s.(type) {
			case *uhdm.For:
				if n.LoopVar != nil {
					found = true
					return false
				}
				if forBodyAssignsScalars(n.Body) {
					found = true
					return false
				}
			case *uhdm.NamedBegin:
				if len(n.Locals) > 0 {
					found = true
					return false
				}
			}
			return true
	})
	return found
}

// forBodyAssignsScalars reports whether a for-loop body contains an
// assignment whose LHS is a bare RefObj/RefVar (a scalar), as opposed to
// only bit-selects/part-selects into an array.
func forBodyAssignsScalars(body uhdm.Stmt) bool {
	found := false
	walkStmt(body, func(s uhdm.Stmt) bool {
			if a, ok := s.(*uhdm.Assign); ok {
				switch a.LHS.(type) {
				case *uhdm.RefObj, *uhdm.RefVar:
					found = true
					return false
				}
			}
			return true
	})
	return found
}

// containsConditional reports whether an if/else or case appears anywhere
// in the statement tree.
func containsConditional(s uhdm.Stmt) bool {
	found := false
	walkStmt(s, func(s uhdm.Stmt) bool {
			switch s.(type) {
			case *uhdm.If, *uhdm.Case:
				found = true
				return false
			}
			return true
	})
	return found
}

// walkStmt visits every statement reachable from s in source order,
// stopping early once fn returns false (it is still called on the stopping
// node; it will simply not recurse further from there). This shared walker
// backs the Initial sub-strategy heuristics above; the real statement
// dispatcher lives in pkg/translate.
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
