package ir

import "math/bits"

// Memory is a named 2-D array: Size addressable rows of DataWidth bits.
type Memory struct {
	Name string
	Size int
	DataWidth int
	Src Src
}

// AddrWidth returns ceil(log2(Size)), the width MemWriteAction.Address must
// have (Memory-write shape invariant).
func (m *Memory) AddrWidth() int {
	if m.Size <= 1 {
		return 1
	}
	return bits.Len(uint(m.Size - 1))
}

// CellKind names one of the fixed arithmetic/logic/init/check cells this
// engine emits.
type CellKind string

const (
	CellAdd CellKind = "$add"
	CellSub CellKind = "$sub"
	CellMul CellKind = "$mul"
	CellDiv CellKind = "$div"
	CellMod CellKind = "$mod"
	CellAnd CellKind = "$and"
	CellOr CellKind = "$or"
	CellXor CellKind = "$xor"
	CellShl CellKind = "$shl"
	CellShr CellKind = "$shr"
	CellSshl CellKind = "$sshl"
	CellSshr CellKind = "$sshr"
	CellMux CellKind = "$mux"
	CellNot CellKind = "$not"
	CellEq CellKind = "$eq"
	CellReduceBool CellKind = "$reduce_bool"
	CellCheck CellKind = "$check"
	CellMeminitV2 CellKind = "$meminit_v2"
	CellMemRd CellKind = "$memrd"
)

// Cell is one instantiated combinational/memory-init/assertion cell.
type Cell struct {
	Name string
	Kind CellKind
	Src Src
	Params map[string]Const
	Inputs map[string]SigSpec
	Outputs map[string]SigSpec
}

// SetParam stores a named constant parameter (e.g. PRIORITY, EN on a
// $meminit_v2 cell, or WIDTH on an arithmetic cell).
func (c *Cell) SetParam(name string, v Const) {
	if c.Params == nil {
		c.Params = make(map[string]Const)
	}
	c.Params[name] = v
}

func (c *Cell) SetInput(name string, s SigSpec) {
	if c.Inputs == nil {
		c.Inputs = make(map[string]SigSpec)
	}
	c.Inputs[name] = s
}

func (c *Cell) SetOutput(name string, s SigSpec) {
	if c.Outputs == nil {
		c.Outputs = make(map[string]SigSpec)
	}
	c.Outputs[name] = s
}
