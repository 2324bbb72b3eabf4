package ir

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Persisting a Design verbatim via gob would serialize Wire pointers, and
// gob does not preserve pointer identity across a Decode (each occurrence
// of *Wire would come back as a distinct value) — that would silently
// break SigSpec.Equal's pointer comparisons on reload. Snapshot types
// below flatten wire references to names instead before handing them to
// gob.

// ChunkSnapshot is a gob-safe Chunk: wire references are by name.
type ChunkSnapshot struct {
	IsConst  bool
	ConstVal uint64
	ConstW   int
	WireName string
	Offset   int
	Width    int
}

func snapshotSigSpec(s SigSpec) []ChunkSnapshot {
	chunks := s.Chunks()
	out := make([]ChunkSnapshot, len(chunks))
	for i, c := range chunks {
		if c.IsConst {
			out[i] = ChunkSnapshot{IsConst: true, ConstVal: c.Const.Value, ConstW: c.Const.Width}
			continue
		}
		out[i] = ChunkSnapshot{WireName: c.Wire.Name, Offset: c.Offset, Width: c.Width}
	}
	return out
}

func (m *Module) restoreSigSpec(cs []ChunkSnapshot) (SigSpec, error) {
	var s SigSpec
	for _, c := range cs {
		if c.IsConst {
			s = s.Append(FromConst(Const{Value: c.ConstVal, Width: c.ConstW}))
			continue
		}
		w := m.Wire(c.WireName)
		if w == nil {
			return SigSpec{}, fmt.Errorf("ir: snapshot references unknown wire %q", c.WireName)
		}
		s = s.Append(FromWireSlice(w, c.Offset, c.Width))
	}
	return s, nil
}

// ActionSnapshot is a gob-safe Action.
type ActionSnapshot struct {
	LHS []ChunkSnapshot
	RHS []ChunkSnapshot
}

// MemWriteSnapshot is a gob-safe MemWriteAction.
type MemWriteSnapshot struct {
	Memory   string
	Address  []ChunkSnapshot
	Data     []ChunkSnapshot
	Enable   []ChunkSnapshot
	Priority int
}

// SwitchCaseSnapshot/SwitchSnapshot/CaseSnapshot mirror CaseRule/SwitchRule.
type CaseSnapshot struct {
	Actions  []ActionSnapshot
	Switches []SwitchSnapshot
}

type SwitchSnapshot struct {
	Selector []ChunkSnapshot
	Cases    []SwitchCaseSnapshot
}

type SwitchCaseSnapshot struct {
	Compare [][]ChunkSnapshot
	Body    CaseSnapshot
}

type SyncSnapshot struct {
	Type      TriggerType
	Signal    []ChunkSnapshot
	Actions   []ActionSnapshot
	MemWrites []MemWriteSnapshot
}

// ProcessSnapshot is a gob-safe Process.
type ProcessSnapshot struct {
	Name     string
	Kind     ProcKind
	Attrs    map[string]string
	RootCase CaseSnapshot
	Syncs    []SyncSnapshot
}

// WireSnapshot is a gob-safe Wire.
type WireSnapshot struct {
	Name    string
	Width   int
	Attrs   map[string]string
	NoSync  bool
	IsReg   bool
	HDLName string
}

// MemorySnapshot is a gob-safe Memory.
type MemorySnapshot struct {
	Name      string
	Size      int
	DataWidth int
}

// CellSnapshot is a gob-safe Cell.
type CellSnapshot struct {
	Name    string
	Kind    CellKind
	Params  map[string]Const
	Inputs  map[string][]ChunkSnapshot
	Outputs map[string][]ChunkSnapshot
}

// ModuleSnapshot is the gob-safe form of a Module, the unit persisted by
// SaveDesign/LoadDesign.
type ModuleSnapshot struct {
	Name      string
	Wires     []WireSnapshot
	Memories  []MemorySnapshot
	Cells     []CellSnapshot
	Processes []ProcessSnapshot
	Conns     []ActionSnapshot
}

// DesignSnapshot is the top-level gob-encoded artifact.
type DesignSnapshot struct {
	Modules []ModuleSnapshot
}

func snapshotAction(a Action) ActionSnapshot {
	return ActionSnapshot{LHS: snapshotSigSpec(a.LHS), RHS: snapshotSigSpec(a.RHS)}
}

func snapshotCase(c *CaseRule) CaseSnapshot {
	out := CaseSnapshot{}
	for _, a := range c.Actions {
		out.Actions = append(out.Actions, snapshotAction(a))
	}
	for _, sw := range c.Switches {
		out.Switches = append(out.Switches, snapshotSwitch(sw))
	}
	return out
}

func snapshotSwitch(sw *SwitchRule) SwitchSnapshot {
	out := SwitchSnapshot{Selector: snapshotSigSpec(sw.Selector)}
	for _, sc := range sw.Cases {
		cmp := make([][]ChunkSnapshot, len(sc.Compare))
		for i, v := range sc.Compare {
			cmp[i] = snapshotSigSpec(v)
		}
		out.Cases = append(out.Cases, SwitchCaseSnapshot{Compare: cmp, Body: snapshotCase(sc.Body)})
	}
	return out
}

// Snapshot converts a Module into its gob-safe form.
func (m *Module) Snapshot() ModuleSnapshot {
	out := ModuleSnapshot{Name: m.Name}
	for _, w := range m.Wires() {
		out.Wires = append(out.Wires, WireSnapshot{
			Name: w.Name, Width: w.Width, Attrs: w.Attrs,
			NoSync: w.NoSync, IsReg: w.IsReg, HDLName: w.HDLName,
		})
	}
	for _, mem := range m.Memories() {
		out.Memories = append(out.Memories, MemorySnapshot{Name: mem.Name, Size: mem.Size, DataWidth: mem.DataWidth})
	}
	for _, c := range m.Cells() {
		cs := CellSnapshot{Name: c.Name, Kind: c.Kind, Params: c.Params}
		if len(c.Inputs) > 0 {
			cs.Inputs = make(map[string][]ChunkSnapshot, len(c.Inputs))
			for k, v := range c.Inputs {
				cs.Inputs[k] = snapshotSigSpec(v)
			}
		}
		if len(c.Outputs) > 0 {
			cs.Outputs = make(map[string][]ChunkSnapshot, len(c.Outputs))
			for k, v := range c.Outputs {
				cs.Outputs[k] = snapshotSigSpec(v)
			}
		}
		out.Cells = append(out.Cells, cs)
	}
	for _, p := range m.Processes() {
		ps := ProcessSnapshot{Name: p.Name, Kind: p.Kind, Attrs: p.Attrs, RootCase: snapshotCase(p.RootCase)}
		for _, sr := range p.Syncs {
			ss := SyncSnapshot{Type: sr.Type, Signal: snapshotSigSpec(sr.Signal)}
			for _, a := range sr.Actions {
				ss.Actions = append(ss.Actions, snapshotAction(a))
			}
			for _, mw := range sr.MemWrites {
				ss.MemWrites = append(ss.MemWrites, MemWriteSnapshot{
					Memory: mw.Memory.Name, Address: snapshotSigSpec(mw.Address),
					Data: snapshotSigSpec(mw.Data), Enable: snapshotSigSpec(mw.Enable),
					Priority: mw.Priority,
				})
			}
			ps.Syncs = append(ps.Syncs, ss)
		}
		out.Processes = append(out.Processes, ps)
	}
	for _, a := range m.Conns() {
		out.Conns = append(out.Conns, snapshotAction(a))
	}
	return out
}

// FromModuleSnapshot rebuilds a Module from its gob-safe form.
func FromModuleSnapshot(s ModuleSnapshot) (*Module, error) {
	m := NewModule(s.Name)
	for _, ws := range s.Wires {
		if err := m.AddWire(&Wire{Name: ws.Name, Width: ws.Width, Attrs: ws.Attrs, NoSync: ws.NoSync, IsReg: ws.IsReg, HDLName: ws.HDLName}); err != nil {
			return nil, err
		}
	}
	for _, memS := range s.Memories {
		if err := m.AddMemory(&Memory{Name: memS.Name, Size: memS.Size, DataWidth: memS.DataWidth}); err != nil {
			return nil, err
		}
	}
	restoreSig := m.restoreSigSpec
	for _, cs := range s.Cells {
		c := &Cell{Name: cs.Name, Kind: cs.Kind, Params: cs.Params}
		for k, v := range cs.Inputs {
			sig, err := restoreSig(v)
			if err != nil {
				return nil, err
			}
			c.SetInput(k, sig)
		}
		for k, v := range cs.Outputs {
			sig, err := restoreSig(v)
			if err != nil {
				return nil, err
			}
			c.SetOutput(k, sig)
		}
		if err := m.AddCell(c); err != nil {
			return nil, err
		}
	}
	for _, ps := range s.Processes {
		p := NewProcess(ps.Name, ps.Kind)
		p.Attrs = ps.Attrs
		root, err := restoreCase(m, ps.RootCase)
		if err != nil {
			return nil, err
		}
		p.RootCase = root
		for _, ss := range ps.Syncs {
			sig, err := restoreSig(ss.Signal)
			if err != nil {
				return nil, err
			}
			sr := p.AddSync(ss.Type, sig)
			for _, as := range ss.Actions {
				lhs, err := restoreSig(as.LHS)
				if err != nil {
					return nil, err
				}
				rhs, err := restoreSig(as.RHS)
				if err != nil {
					return nil, err
				}
				sr.AddAction(lhs, rhs)
			}
			for _, mws := range ss.MemWrites {
				mem := m.Memory(mws.Memory)
				if mem == nil {
					return nil, fmt.Errorf("ir: snapshot references unknown memory %q", mws.Memory)
				}
				addr, err := restoreSig(mws.Address)
				if err != nil {
					return nil, err
				}
				data, err := restoreSig(mws.Data)
				if err != nil {
					return nil, err
				}
				en, err := restoreSig(mws.Enable)
				if err != nil {
					return nil, err
				}
				sr.MemWrites = append(sr.MemWrites, MemWriteAction{Memory: mem, Address: addr, Data: data, Enable: en, Priority: mws.Priority})
			}
		}
		m.AddProcess(p)
	}
	for _, as := range s.Conns {
		lhs, err := restoreSig(as.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := restoreSig(as.RHS)
		if err != nil {
			return nil, err
		}
		m.Connect(lhs, rhs)
	}
	return m, nil
}

func restoreCase(m *Module, cs CaseSnapshot) (*CaseRule, error) {
	c := &CaseRule{}
	for _, as := range cs.Actions {
		lhs, err := m.restoreSigSpec(as.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := m.restoreSigSpec(as.RHS)
		if err != nil {
			return nil, err
		}
		c.AddAction(lhs, rhs)
	}
	for _, sws := range cs.Switches {
		sel, err := m.restoreSigSpec(sws.Selector)
		if err != nil {
			return nil, err
		}
		sw := c.AddSwitch(sel)
		for _, scs := range sws.Cases {
			cmp := make([]SigSpec, len(scs.Compare))
			for i, v := range scs.Compare {
				sig, err := m.restoreSigSpec(v)
				if err != nil {
					return nil, err
				}
				cmp[i] = sig
			}
			body := sw.AddCase(cmp...)
			restored, err := restoreCase(m, scs.Body)
			if err != nil {
				return nil, err
			}
			*body = *restored
		}
	}
	return c, nil
}

// SaveDesign persists a Design to path using gob, the same checkpoint save
// format used elsewhere in this engine, applied here to the lowered IR
// rather than search progress.
func SaveDesign(path string, d *Design) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var snap DesignSnapshot
	for _, m := range d.Modules() {
		snap.Modules = append(snap.Modules, m.Snapshot())
	}
	return gob.NewEncoder(f).Encode(snap)
}

// LoadDesign reads back a Design previously written by SaveDesign.
func LoadDesign(path string) (*Design, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snap DesignSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, err
	}
	d := NewDesign()
	for _, ms := range snap.Modules {
		m, err := FromModuleSnapshot(ms)
		if err != nil {
			return nil, err
		}
		d.AddModule(m)
	}
	return d, nil
}
