// MemoryWriteLowering: a memory write site routes through a
// trio of per-memory, per-process wires ($memwr$name$addr/data/en) instead
// of a $0\ temp, so many write sites across a process's different branches
// can share one MemWriteAction per memory with the enable wire choosing
// which branch actually fires.
package translate

import (
	"fmt"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/ir"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

// memTemps holds one memory's per-process write-port wires plus the
// priority mask this process assigned it ("memory writes get
// monotonically increasing priority masks in source order").
type memTemps struct {
	Addr, Data, En *ir.Wire
	Mem *ir.Memory
	Priority int
}

// ensureMemory returns (registering on first use) the ir.Memory backing
// name, built from the elaborated array's size/element-width.
func (t *Translator) ensureMemory(name string) *ir.Memory {
	if m := t.Mod.Memory(name); m != nil {
		return m
	}
	info := t.Decl.Arrays[name]
	m := &ir.Memory{Name: name, Size: info.Size, DataWidth: info.ElemWidth}
	_ = t.Mod.AddMemory(m)
	return m
}

func (t *Translator) namedWire(name string, width int, src ir.Src) *ir.Wire {
	if w := t.Mod.Wire(name); w != nil {
		return w
	}
	w := &ir.Wire{Name: name, Width: width, Src: src}
	_ = t.Mod.AddWire(w)
	return w
}

// memTempsFor lazily allocates (and caches per-process) one memory's
// $memwr$name$addr/data/en wires.
func (t *Translator) memTempsFor(name string, loc uhdm.Loc) *memTemps {
	if mt, ok := t.memCtx[name]; ok {
		return mt
	}
	mem := t.ensureMemory(name)
	src := locToSrc(loc)
	addr := t.namedWire(fmt.Sprintf(`$memwr$%s$addr`, name), mem.AddrWidth(), src)
	data := t.namedWire(fmt.Sprintf(`$memwr$%s$data`, name), mem.DataWidth, src)
	en := t.namedWire(fmt.Sprintf(`$memwr$%s$en`, name), 1, src)
	mt := &memTemps{Addr: addr, Data: data, En: en, Mem: mem, Priority: t.memPriority}
	t.memPriority++
	t.memCtx[name] = mt
	return mt
}

// broadcastBit replicates a 1-bit enable SigSpec width times, satisfying
// the invariant enable.size == data.size == memory.data_width.
func broadcastBit(bit ir.SigSpec, width int) ir.SigSpec {
	var out ir.SigSpec
	for i := 0; i < width; i++ {
		out = out.Append(bit)
	}
	return out
}

// initMemoryEnables emits the "enable defaults to 0" root-case action every
// memory this process might write needs before any conditional write site
// can set it to 1.
func (t *Translator) initMemoryEnables(root *ir.CaseRule, memNames []string, loc uhdm.Loc) {
	for _, name := range memNames {
		mt := t.memTempsFor(name, loc)
		root.AddAction(ir.FromWire(mt.En), ir.FromConstInt(0, 1))
	}
}

// emitMemWrite lowers `mem[addr] <= data` into the three write-port
// actions, in whatever case is currently open (so a write gated by an
// enclosing if/case only asserts its enable along that branch).
func (t *Translator) emitMemWrite(memName string, bs *uhdm.BitSelect, val ir.SigSpec, cs *caseStack, loc uhdm.Loc) {
	mt := t.memTempsFor(memName, loc)
	addr := t.evalExpr(bs.Index, t.env)
	cur := cs.current()
	cur.AddAction(ir.FromWire(mt.Addr), addr.ExtendU0(mt.Mem.AddrWidth()))
	cur.AddAction(ir.FromWire(mt.Data), val.ExtendU0(mt.Mem.DataWidth))
	cur.AddAction(ir.FromWire(mt.En), ir.FromConstInt(1, 1))
}

// attachMemWriteActions appends one MemWriteAction per memory this process
// wrote to sr, in deterministic (name-sorted) order.
func (t *Translator) attachMemWriteActions(sr *ir.SyncRule) {
	for _, name := range sortedKeys(t.memCtx) {
		mt := t.memCtx[name]
		sr.MemWrites = append(sr.MemWrites, ir.MemWriteAction{
				Memory: mt.Mem,
				Address: ir.FromWire(mt.Addr),
				Data: ir.FromWire(mt.Data),
				Enable: broadcastBit(ir.FromWire(mt.En), mt.Mem.DataWidth),
				Priority: mt.Priority,
		})
	}
}
