package ir

import (
	"fmt"
	"sort"
	"sync"
)

// Module holds the wires, cells, memories, and processes lowered for one
// elaborated UHDM module. Wire/cell names are unique within a Module;
// collisions are a fatal error, surfaced by AddWire/AddCell returning an
// error rather than silently overwriting.
type Module struct {
	Name string

	mu sync.Mutex
	wires map[string]*Wire
	wireOrder []string
	cells map[string]*Cell
	cellOrder []string
	memories map[string]*Memory
	memOrder []string
	processes []*Process
	conns []Action // continuous assignments imported upstream
}

// NewModule allocates an empty module.
func NewModule(name string) *Module {
	return &Module{
		Name: name,
		wires: make(map[string]*Wire),
		cells: make(map[string]*Cell),
		memories: make(map[string]*Memory),
	}
}

// AddWire registers a new wire. Returns an error if the name already exists
// in this module.
func (m *Module) AddWire(w *Wire) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.wires[w.Name]; exists {
		return fmt.Errorf("ir: duplicate wire %q in module %q", w.Name, m.Name)
	}
	m.wires[w.Name] = w
	m.wireOrder = append(m.wireOrder, w.Name)
	return nil
}

// Wire looks up a wire by name, or nil if absent.
func (m *Module) Wire(name string) *Wire {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wires[name]
}

// Wires returns all wires in creation order.
func (m *Module) Wires() []*Wire {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Wire, len(m.wireOrder))
	for i, n := range m.wireOrder {
		out[i] = m.wires[n]
	}
	return out
}

// AddCell registers a new cell, erroring on a name collision.
func (m *Module) AddCell(c *Cell) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cells[c.Name]; exists {
		return fmt.Errorf("ir: duplicate cell %q in module %q", c.Name, m.Name)
	}
	m.cells[c.Name] = c
	m.cellOrder = append(m.cellOrder, c.Name)
	return nil
}

// Cells returns all cells in creation order.
func (m *Module) Cells() []*Cell {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Cell, len(m.cellOrder))
	for i, n := range m.cellOrder {
		out[i] = m.cells[n]
	}
	return out
}

// AddMemory registers a new memory, erroring on a name collision.
func (m *Module) AddMemory(mem *Memory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.memories[mem.Name]; exists {
		return fmt.Errorf("ir: duplicate memory %q in module %q", mem.Name, m.Name)
	}
	m.memories[mem.Name] = mem
	m.memOrder = append(m.memOrder, mem.Name)
	return nil
}

// Memory looks up a memory by name, or nil if absent.
func (m *Module) Memory(name string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memories[name]
}

// Memories returns all memories in creation order.
func (m *Module) Memories() []*Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Memory, len(m.memOrder))
	for i, n := range m.memOrder {
		out[i] = m.memories[n]
	}
	return out
}

// AddProcess appends a finished Process to the module.
func (m *Module) AddProcess(p *Process) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processes = append(m.processes, p)
}

// Processes returns all processes in creation order.
func (m *Module) Processes() []*Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Process, len(m.processes))
	copy(out, m.processes)
	return out
}

// Connect records a continuous assignment (structural lowering, "out of
// scope" collaborator; kept here only as the import target for the module-
// import component's output).
func (m *Module) Connect(lhs, rhs SigSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns = append(m.conns, Action{LHS: lhs, RHS: rhs})
}

func (m *Module) Conns() []Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Action, len(m.conns))
	copy(out, m.conns)
	return out
}

// Design is a collection of modules, the top-level artifact this engine
// produces.
type Design struct {
	mu sync.Mutex
	modules map[string]*Module
	order []string
}

func NewDesign() *Design {
	return &Design{modules: make(map[string]*Module)}
}

// AddModule registers a module, replacing any existing module of the same
// name (module re-elaboration is the upstream driver's concern, not this
// package's; last writer wins here).
func (d *Design) AddModule(m *Module) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.modules[m.Name]; !exists {
		d.order = append(d.order, m.Name)
	}
	d.modules[m.Name] = m
}

func (d *Design) Module(name string) *Module {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modules[name]
}

// Modules returns all modules, sorted by name for deterministic output.
func (d *Design) Modules() []*Module {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, len(d.order))
	copy(names, d.order)
	sort.Strings(names)
	out := make([]*Module, len(names))
	for i, n := range names {
		out[i] = d.modules[n]
	}
	return out
}
