// CombLowering: a process with no sensitivity edges at all
// (an `always @*` or equivalent). The whole body dispatches into one root
// case via the shared dispatcher, and every full-signal or slice temp it
// touched restores into a single TriggerAlways sync rule, along with any
// memory writes the body made. A body that assigns and writes nothing (an
// empty always block) gets no sync rule at all.
package translate

import (
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/ir"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

func (t *Translator) lowerComb(p *uhdm.Process) *ir.Process {
	proc := ir.NewProcess(processName(p), ir.ProcComb)
	src := procSrc(p)
	proc.Src = src

	memNames := t.collectMemoryWrites(p.Body)
	signals := t.collectAssignedSignals(p.Body)
	t.initRootCaseTemps(proc.RootCase, signals, src)
	if len(memNames) > 0 {
		t.initMemoryEnables(proc.RootCase, memNames, p.Loc())
	}

	cs := newCaseStack(proc.RootCase)
	t.dispatchStmt(p.Body, cs, false)

	if len(signals) == 0 && len(memNames) == 0 {
		return proc
	}

	sr := proc.AddSync(ir.TriggerAlways, ir.SigSpec{})
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
