// AsyncResetLowering: a process with two or three sensitivity
// edges (clock plus async reset, plus further SR-FF edges) whose body is a
// single outermost if/else. Both branches share the same pre-allocated
// $0\name temps (allocated up front regardless of which branch a given run
// actually takes, since both branches assign the same LHS set in every real
// design this engine sees), and every sync rule restores every temp to its
// real wire, identically.
package translate

import (
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/classify"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/ir"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

func edgeTrigger(posEdge bool) ir.TriggerType {
	if posEdge {
		return ir.TriggerPosEdge
	}
	return ir.TriggerNegEdge
}

// findOutermostIf unwraps single-statement Begin/NamedBegin wrappers down
// to the if/else the body is actually built from.
func findOutermostIf(body uhdm.Stmt) (*uhdm.If, bool) {
	switch n := body.(type) {
	case *uhdm.If:
		return n, true
	case *uhdm.Begin:
		if len(n.Stmts) == 1 {
			return findOutermostIf(n.Stmts[0])
		}
	case *uhdm.NamedBegin:
		if len(n.Stmts) == 1 {
			return findOutermostIf(n.Stmts[0])
		}
	}
	return nil, false
}

func (t *Translator) lowerAsyncReset(p *uhdm.Process, res classify.Result) *ir.Process {
	kind := ir.ProcAsyncResetFF
	if res.Tag == classify.TagSRFF {
		kind = ir.ProcSRFF
	}
	proc := ir.NewProcess(processName(p), kind)
	src := procSrc(p)
	proc.Src = src
	proc.SetAttr("always_ff", "1")
	proc.SetAttr("has_async_reset", "1")
	if res.Tag == classify.TagSRFF {
		proc.SetAttr("is_sr_ff", "1")
	}

	signals := t.collectAssignedSignals(p.Body)
	var full []assignedSignal
	for _, s := range signals {
		if s.IsPartSelect {
			t.reportError("translate: async-reset LHS %q is a part-select, skipped", p.Loc(), s.Key)
			continue
		}
		full = append(full, s)
	}
	t.initRootCaseTemps(proc.RootCase, full, src)

	ifStmt, ok := findOutermostIf(p.Body)
	if !ok {
		t.reportError("translate: async-reset process body is not a single outermost if/else", p.Loc())
	} else {
		cond := t.evalExpr(ifStmt.Cond, t.env)
		cond = t.Eval.ReduceBool(cond, ifStmt.Loc())
		sw := proc.RootCase.AddSwitch(cond)

		resetBody := sw.AddCase(ir.FromConstInt(1, 1))
		csThen := newCaseStack(resetBody)
		t.dispatchStmt(ifStmt.Then, csThen, true)

		elseBody := sw.AddCase()
		csElse := newCaseStack(elseBody)
		t.dispatchStmt(ifStmt.Else, csElse, true)
	}

	type edge struct {
		typ ir.TriggerType
		sig uhdm.Expr
	}
	var edges []edge
	if res.HasClock {
		edges = append(edges, edge{edgeTrigger(res.ClockPosEdge), res.Clock})
	}
	if res.HasReset {
		edges = append(edges, edge{edgeTrigger(res.ResetPosEdge), res.Reset})
	}
	for _, ee := range res.ExtraEdges {
		edges = append(edges, edge{edgeTrigger(ee.Edge == uhdm.EdgePos), ee.Signal})
	}

	for _, e := range edges {
		sigVal := t.evalExpr(e.sig, t.env)
		sr := proc.AddSync(e.typ, sigVal)
		for _, s := range full {
			w, err := t.wireForKey(s.Key)
			if err != nil {
				continue
			}
			tmp, ok := t.tempWires[s.Key]
			if !ok {
				continue
			}
			sr.AddAction(ir.FromWire(w), ir.FromWire(tmp))
		}
	}
	return proc
}
