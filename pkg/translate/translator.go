// Package translate wires ExprEval, the Interpreter and ProcessClassifier
// together into the five lowering strategies (RewriteEngine and SynthAudit
// are run on the input beforehand by cmd/uhdm2rtlil, not by this package):
// AsyncResetLowering, SimpleFFLowering, MemoryWriteLowering, CombLowering
// and InitialLowering. Translator is the mutable-state context: one struct,
// passed by reference, holding the in-progress root_case/sync-rule state,
// the value-tracking map, the loop-variable substitution map, the
// name-resolution shadow stack, the signal-to-temp-wire map and the
// per-process memory-write temp wires.
package translate

import (
	"fmt"
	"sort"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/classify"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/exprs"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/interp"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/ir"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

// Translator owns the module-wide shared state plus, between calls to
// TranslateProcess, the transient per-process state that each lowering
// strategy reads and mutates.
type Translator struct {
	Mod *ir.Module
	Decl *uhdm.ModuleDecl
	IDs *ir.IDGen
	Eval *exprs.Evaluator

	// OnError receives every diagnostic raised while lowering: unsupported
	// constructs, failed unroll probes, interpreter aborts.
	OnError func(msg string, loc uhdm.Loc)

	// --- per-process state, reset by resetProcessState at the top of
	// TranslateProcess ('s three bulleted pieces of state, expanded to
	// the six this package actually needs). ---

	env exprs.Env // value-tracking map: signal name -> current symbolic value
	tempWires map[string]*ir.Wire // signal name -> its $0\name (or $0\name[msb:lsb]) temp wire
	localWires map[string]*ir.Wire // hierarchical block-local name -> promoted wire
	shadow []map[string]string // name-resolution shadow stack: local var name -> hierarchical name
	envSaves [][]envSave // per-scope env overwrite log, restored on popScope
	memCtx map[string]*memTemps // memory name -> its per-process $memwr$ temp wires
	touched []string // temp-wire keys assigned (full signals, slices, array elements), in first-touch order
	touchedSet map[string]bool
	memPriority int

	// arrayElemWidth overrides a bit-select's natural 1-bit width: set by
	// SimpleFFLowering's shift-register detector (Open Question: "any
	// array appearing on both LHS and RHS of a bit-select assignment whose
	// indices differ by a constant") for a discrete register array name, so
	// ARR[k] lowers to a whole-element temp instead of a single bit.
	arrayElemWidth map[string]int
}

// envSave is one entry in an envSaves frame: the previous value (if any) of
// a raw name the current scope is about to overwrite in t.env, restored
// when the scope that shadowed it closes.
type envSave struct {
	name string
	had bool
	val ir.SigSpec
}

// New builds a Translator over one module. ids is the process-wide autoidx
// counter ("shared across all modules in one translation unit — do not
// reset it per module"), so callers translating many modules in one run
// must pass the same *ir.IDGen to every New call.
func New(mod *ir.Module, decl *uhdm.ModuleDecl, ids *ir.IDGen) *Translator {
	t := &Translator{Mod: mod, Decl: decl, IDs: ids}
	t.Eval = &exprs.Evaluator{
		Decl: decl,
		Mod: mod,
		IDs: ids,
		OnError: func(msg string, loc uhdm.Loc) {
			t.reportError("%s", loc, msg)
		},
	}
	return t
}

func (t *Translator) reportError(format string, loc uhdm.Loc, args...any) {
	if t.OnError != nil {
		t.OnError(fmt.Sprintf(format, args...), loc)
	}
}

func (t *Translator) resetProcessState() {
	t.env = exprs.Env{}
	t.tempWires = make(map[string]*ir.Wire)
	t.localWires = make(map[string]*ir.Wire)
	t.shadow = nil
	t.envSaves = nil
	t.memCtx = make(map[string]*memTemps)
	t.touched = nil
	t.touchedSet = make(map[string]bool)
	t.memPriority = 0
	t.arrayElemWidth = make(map[string]int)
}

// TranslateProcess classifies p and dispatches to the matching
// lowering strategy, registering the resulting ir.Process with Mod.
func (t *Translator) TranslateProcess(p *uhdm.Process) *ir.Process {
	t.resetProcessState()
	res := classify.Classify(p)

	var proc *ir.Process
	switch res.Tag {
	case classify.TagComb:
		proc = t.lowerComb(p)
	case classify.TagFF:
		proc = t.lowerSimpleFF(p, res)
	case classify.TagAsyncResetFF, classify.TagSRFF:
		proc = t.lowerAsyncReset(p, res)
	case classify.TagInitialSync:
		proc = t.lowerInitialSync(p)
	case classify.TagInitialComb:
		proc = t.lowerInitialComb(p)
	case classify.TagInitialInterpreted:
		proc = t.lowerInitialInterpreted(p)
	default:
		t.reportError("translate: unknown classification tag %v", p.Loc(), res.Tag)
		proc = ir.NewProcess(processName(p), ir.ProcComb)
	}
	t.Mod.AddProcess(proc)
	return proc
}

func processName(p *uhdm.Process) string {
	if p.Name != "" {
		return p.Name
	}
	return "$proc"
}

func procSrc(p *uhdm.Process) ir.Src { return locToSrc(p.Loc()) }

func locToSrc(l uhdm.Loc) ir.Src { return ir.Src{File: l.File, Line: l.Line} }

// --- name-resolution shadow stack (block-local variables) ---

func (t *Translator) pushScope() {
	t.shadow = append(t.shadow, map[string]string{})
	t.envSaves = append(t.envSaves, nil)
}

func (t *Translator) popScope() {
	saves := t.envSaves[len(t.envSaves)-1]
	for i := len(saves) - 1; i >= 0; i-- {
		s := saves[i]
		if s.had {
			t.env[s.name] = s.val
		} else {
			delete(t.env, s.name)
		}
	}
	t.envSaves = t.envSaves[:len(t.envSaves)-1]
	t.shadow = t.shadow[:len(t.shadow)-1]
}

func (t *Translator) bindLocal(local, hier string) {
	t.shadow[len(t.shadow)-1][local] = hier
}

// setEnvScoped updates the value-tracking map, recording the previous
// binding (if any) so the innermost open scope's popScope call can restore
// it. At top level (no scope open) this behaves like a plain map write.
func (t *Translator) setEnvScoped(name string, val ir.SigSpec) {
	if len(t.envSaves) > 0 {
		old, had := t.env[name]
		i := len(t.envSaves) - 1
		t.envSaves[i] = append(t.envSaves[i], envSave{name: name, had: had, val: old})
	}
	t.env[name] = val
}

// shadowLookup resolves a bare reference name against every open scope,
// innermost first, falling through to the name unchanged if nothing shadows
// it (it is then an ordinary module signal).
func (t *Translator) shadowLookup(name string) string {
	for i := len(t.shadow) - 1; i >= 0; i-- {
		if hier, ok := t.shadow[i][name]; ok {
			return hier
		}
	}
	return name
}

// localWire returns (creating on first use) the promoted wire backing a
// block-local variable's hierarchical name ( "blockname.var").
func (t *Translator) localWire(hier string, width int, src ir.Src) *ir.Wire {
	if w, ok := t.localWires[hier]; ok {
		return w
	}
	if w := t.Mod.Wire(hier); w != nil {
		t.localWires[hier] = w
		return w
	}
	w := &ir.Wire{Name: hier, Width: width, Src: src, NoSync: true}
	_ = t.Mod.AddWire(w)
	t.localWires[hier] = w
	return w
}

// resolveLHSWire returns the real (non-temp) wire an assignment target
// names: a module net/var, resolved through the shadow stack first so
// block-local variables resolve to their promoted hierarchical wire.
func (t *Translator) resolveLHSWire(name string, src ir.Src) (*ir.Wire, error) {
	hier := t.shadowLookup(name)
	if w, ok := t.localWires[hier]; ok {
		return w, nil
	}
	if hier != name {
		// Shadowed but not yet materialized (e.g. read before any write) -
		// fall through to ResolveWire, which will fail; callers needing a
		// local wire always materialize it via localWire at declaration time.
	}
	return t.Eval.ResolveWire(name)
}

// --- temp-wire allocation ($0\name, $0\name[msb:lsb]) ---

func (t *Translator) tempWireFor(key string, width int, src ir.Src) *ir.Wire {
	if w, ok := t.tempWires[key]; ok {
		return w
	}
	name := `$0\` + key
	if w := t.Mod.Wire(name); w != nil {
		t.tempWires[key] = w
		return w
	}
	w := &ir.Wire{Name: name, Width: width, Src: src}
	_ = t.Mod.AddWire(w)
	t.tempWires[key] = w
	return w
}

func (t *Translator) markTouched(key string) {
	if !t.touchedSet[key] {
		t.touchedSet[key] = true
		t.touched = append(t.touched, key)
	}
}

// evalExpr lowers e the way ExprEval would, except that a bit-select whose
// base names a registered memory is intercepted and turned into a $memrd
// cell ( Downstream: "$memrd for interpreted loop-substituted reads" -
// generalized here to every memory read this package lowers, since
// MemoryWriteLowering's memory-awareness is this package's concern, not
// ExprEval's pure-function one).
func (t *Translator) evalExpr(e uhdm.Expr, env exprs.Env) ir.SigSpec {
	switch n := e.(type) {
	case *uhdm.BitSelect:
		if name, isMem := t.memoryBase(n.Base); isMem {
			return t.emitMemRead(name, n, env)
		}
	case *uhdm.FuncCall:
		return t.inlineFuncCall(n, env)
	}
	return t.Eval.Eval(e, env)
}

func (t *Translator) memoryBase(e uhdm.Expr) (string, bool) {
	var name string
	switch n := e.(type) {
	case *uhdm.RefObj:
		name = n.Name
	case *uhdm.RefVar:
		name = n.Name
	default:
		return "", false
	}
	return name, t.Decl.IsMemory(name)
}

func (t *Translator) emitMemRead(memName string, bs *uhdm.BitSelect, env exprs.Env) ir.SigSpec {
	mem := t.ensureMemory(memName)
	addr := t.evalExpr(bs.Index, env)
	out := &ir.Wire{Name: fmt.Sprintf("$%d", t.IDs.Next()), Width: mem.DataWidth}
	_ = t.Mod.AddWire(out)
	cell := &ir.Cell{Name: t.IDs.CellName("memrd$"+memName, locToSrc(bs.Loc())), Kind: ir.CellMemRd, Src: locToSrc(bs.Loc())}
	cell.SetInput("ADDR", addr)
	cell.SetOutput("DATA", ir.FromWire(out))
	_ = t.Mod.AddCell(cell)
	return ir.FromWire(out)
}

// sortedKeys returns m's keys sorted, for deterministic emission order where
// the source model doesn't otherwise give one (map iteration over
// interp.State.Vars/Arrays).
func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// interpState is an unexported, package-local alias for interp.State; it is
// not visible to callers of this package.
type interpState = interp.State
