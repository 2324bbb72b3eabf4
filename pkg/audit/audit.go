// Package audit implements SynthAudit, a peer subsystem to the lowering
// engine proper: it walks the elaborated design marking constructs outside
// the synthesizable subset, reports each unique offender once, and
// optionally substitutes a stub statement so the surrounding tree stays
// well-formed for any caller that still wants to walk it.
//
// Findings dedup on the flagged node itself rather than walking up to an
// enclosing statement, and $error/$finish/$display calls inside an initial
// block are elided (removed without a stub or a finding).
package audit

import (
	"fmt"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

// Finding is one reported non-synthesizable construct.
type Finding struct {
	Kind string // construct kind for opaque/formal constructs, else the node kind (sys_task_call, sys_func_call, task)
	Name string
	Loc uhdm.Loc
}

// nonSynthSysCalls is the fixed list of system task/function names this
// engine refuses to synthesize.
var nonSynthSysCalls = buildNonSynthSet()

func buildNonSynthSet() map[string]bool {
	names := []string{
		"write", "strobe", "monitor", "monitoron", "monitoroff", "displayb",
		"writeb", "strobeb", "monitorb", "displayo", "writeo", "strobeo",
		"monitoro", "displayh", "writeh", "strobeh", "monitorh", "fopen",
		"fclose", "frewind", "fflush", "fseek", "ftell", "fdisplay", "fwrite",
		"swrite", "fstrobe", "fmonitor", "fread", "fscanf", "fdisplayb",
		"fwriteb", "swriteb", "fstrobeb", "fmonitorb", "fdisplayo", "fwriteo",
		"swriteo", "fstrobeo", "fmonitoro", "fdisplayh", "fwriteh", "swriteh",
		"fstrobeh", "fmonitorh", "sscanf", "sdf_annotate", "sformat",
		"assertkill", "assertoff", "asserton",
		"countones", "coverage_control", "coverage_merge", "coverage_save",
		"exit", "fell", "get_coverage", "coverage_get", "coverage_get_max",
		"info", "isunbounded", "isunknown", "load_coverage_db", "onehot",
		"past", "root", "rose", "sampled", "set_coverage_db_name", "stable",
		"unit", "urandom", "srandom", "urandom_range", "set_randstate",
		"get_randstate", "dist_uniform", "dist_normal", "dist_exponential",
		"dist_poisson", "dist_chi_square", "dist_t", "dist_erlang",
		"value$plusargs",
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set["$"+n] = true
	}
	return set
}

// Audit walks one module, collecting Findings and optionally substituting
// stub statements in place of flagged ones.
type Audit struct {
	AllowFormal bool
	Substitute bool // replace flagged statements with a stub, keeping the tree well-formed

	Findings []Finding

	// OnError is invoked once per unique finding.
	OnError func(f Finding)

	seen map[string]bool
}

// New builds an Audit with substitution enabled by default (the common
// case: the caller wants a well-formed tree back).
func New(allowFormal bool) *Audit {
	return &Audit{AllowFormal: allowFormal, Substitute: true, seen: make(map[string]bool)}
}

func (a *Audit) record(kind, name string, loc uhdm.Loc) {
	if a.seen == nil {
		a.seen = make(map[string]bool)
	}
	key := fmt.Sprintf("%s|%s|%s:%d", kind, name, loc.File, loc.Line)
	if a.seen[key] {
		return
	}
	a.seen[key] = true
	f := Finding{Kind: kind, Name: name, Loc: loc}
	a.Findings = append(a.Findings, f)
	if a.OnError != nil {
		a.OnError(f)
	}
}

func isNonSynthName(name string) bool {
	return nonSynthSysCalls[name]
}

func isElideName(name string) bool {
	return name == "$error" || name == "$finish" || name == "$display"
}

func (a *Audit) makeStub() uhdm.Stmt {
	return &uhdm.SysTaskCall{
		Name: "$display",
		Args: []uhdm.Expr{&uhdm.Constant{Value: 0, Width: 0}},
	}
}

// AuditModule walks every task, function, and process body in mod,
// reporting and (if Substitute) replacing non-synthesizable constructs.
func (a *Audit) AuditModule(mod *uhdm.ModuleDecl) {
	for _, t := range mod.Tasks {
		a.auditTaskForOpaqueConstructs(t.Name, t.Body)
		t.Body = a.auditBlockStmt(t.Body, false)
	}
	for _, fn := range mod.Functions {
		fn.Body = a.auditBlockStmt(fn.Body, false)
	}
	for _, p := range mod.Processes {
		inInitial := p.EventCtrl == nil
		p.Body = a.auditBlockStmt(p.Body, inInitial)
	}
}

// auditTaskForOpaqueConstructs: a task body containing a wait/fork/disable/
// force/release/event_stmt anywhere reports the owning task itself, not
// just the inner node, since a task containing any of these can never be
// inlined into synthesizable code.
func (a *Audit) auditTaskForOpaqueConstructs(taskName string, body uhdm.Stmt) {
	found := false
	var walk func(uhdm.Stmt)
	walk = func(s uhdm.Stmt) {
		if s == nil || found {
			return
		}
		switch n := s.(type) {
		case *uhdm.OpaqueConstruct:
			found = true
		case *uhdm.Begin:
			for _, c := range n.Stmts {
				walk(c)
			}
		case *uhdm.NamedBegin:
			for _, c := range n.Stmts {
				walk(c)
			}
		}
	}
	walk(body)
	if found {
		a.record("task", taskName, uhdm.Loc{})
	}
}

func flaggedName(s uhdm.Stmt) (string, bool) {
	switch n := s.(type) {
	case *uhdm.SysTaskCall:
		if isNonSynthName(n.Name) {
			return n.Name, true
		}
	case *uhdm.OpaqueConstruct:
		return n.ConstructKind, true
	}
	return "", false
}

// findingKind is the Finding.Kind recorded for a flagged statement.
func findingKind(s uhdm.Stmt) string {
	if oc, ok := s.(*uhdm.OpaqueConstruct); ok {
		return oc.ConstructKind
	}
	return s.Kind().String()
}

// elided reports whether s is a $error/$finish/$display call inside an
// initial block that substitution removes outright.
func (a *Audit) elided(s uhdm.Stmt, inInitial bool) bool {
	tc, ok := s.(*uhdm.SysTaskCall)
	return ok && inInitial && a.Substitute && isElideName(tc.Name)
}

// auditStmtList drops flagged items from a statement list; if the whole
// list becomes empty, a stub is appended unless the last-removed call is
// $error/$finish/$display inside an initial block, which is elided instead.
func (a *Audit) auditStmtList(stmts []uhdm.Stmt, inInitial bool) []uhdm.Stmt {
	kept := make([]uhdm.Stmt, 0, len(stmts))
	removedAny := false
	lastRemoved := ""
	for _, s := range stmts {
		if a.elided(s, inInitial) {
			removedAny = true
			lastRemoved = s.(*uhdm.SysTaskCall).Name
			continue
		}
		if name, flagged := flaggedName(s); flagged {
			a.record(findingKind(s), name, s.Loc())
			if !a.Substitute {
				kept = append(kept, s)
				continue
			}
			removedAny = true
			lastRemoved = name
			continue
		}
		kept = append(kept, a.auditBlockStmt(s, inInitial))
	}
	if a.Substitute && removedAny && len(kept) == 0 {
		if isElideName(lastRemoved) && inInitial {
			return kept
		}
		return append(kept, a.makeStub())
	}
	return kept
}

// auditBlockStmt applies the same stub-or-elide rule for single-statement
// slots (If.Then/Else, For.Body, Repeat.Body, a task/process's lone Stmt).
func (a *Audit) auditBlockStmt(s uhdm.Stmt, inInitial bool) uhdm.Stmt {
	if s == nil || a.elided(s, inInitial) {
		return nil
	}
	if name, flagged := flaggedName(s); flagged {
		a.record(findingKind(s), name, s.Loc())
		if !a.Substitute {
			return s
		}
		if isElideName(name) && inInitial {
			return nil
		}
		return a.makeStub()
	}

	switch n := s.(type) {
	case *uhdm.Begin:
		n.Stmts = a.auditStmtList(n.Stmts, inInitial)
		return n
	case *uhdm.NamedBegin:
		n.Stmts = a.auditStmtList(n.Stmts, inInitial)
		return n
	case *uhdm.If:
		a.auditExpr(n.Cond)
		n.Then = a.auditBlockStmt(n.Then, inInitial)
		n.Else = a.auditBlockStmt(n.Else, inInitial)
		return n
	case *uhdm.Case:
		a.auditExpr(n.Selector)
		for _, item := range n.Items {
			for _, c := range item.Compare {
				a.auditExpr(c)
			}
			item.Body = a.auditBlockStmt(item.Body, inInitial)
		}
		return n
	case *uhdm.For:
		a.auditExpr(n.Cond)
		n.Body = a.auditBlockStmt(n.Body, inInitial)
		return n
	case *uhdm.Repeat:
		a.auditExpr(n.Count)
		n.Body = a.auditBlockStmt(n.Body, inInitial)
		return n
	case *uhdm.Assign:
		a.auditExpr(n.LHS)
		a.auditExpr(n.RHS)
		return n
	case *uhdm.ImmediateAssert:
		a.auditExpr(n.Cond)
		return n
	case *uhdm.FormalConstruct:
		if !a.AllowFormal {
			a.record(n.ConstructKind, "", n.Loc())
		}
		n.Body = a.auditBlockStmt(n.Body, inInitial)
		return n
	case *uhdm.TaskCall:
		for _, arg := range n.Args {
			a.auditExpr(arg)
		}
		return n
	default:
		return s
	}
}

// auditExpr recurses through an expression tree reporting any
// non-synthesizable system function call found inside it.
func (a *Audit) auditExpr(e uhdm.Expr) {
	switch n := e.(type) {
	case nil:
		return
	case *uhdm.SysFuncCall:
		if isNonSynthName(n.Name) {
			a.record(n.Kind().String(), n.Name, n.Loc())
		}
		for _, arg := range n.Args {
			a.auditExpr(arg)
		}
	case *uhdm.Operation:
		for _, operand := range n.Operands {
			a.auditExpr(operand)
		}
	case *uhdm.BitSelect:
		a.auditExpr(n.Base)
		a.auditExpr(n.Index)
	case *uhdm.IndexedPartSelect:
		a.auditExpr(n.Base)
		a.auditExpr(n.BaseIndex)
	case *uhdm.PartSelect:
		a.auditExpr(n.Base)
	case *uhdm.FuncCall:
		for _, arg := range n.Args {
			a.auditExpr(arg)
		}
	}
}
