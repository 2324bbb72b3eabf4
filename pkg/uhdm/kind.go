// Package uhdm is a minimal, typed stand-in for the Unified Hardware Data
// Model object graph this translator consumes. The real UHDM library is an
// external collaborator (out of scope); this package models exactly the
// node kinds the lowering engine needs to visit, as a tagged Kind enum plus
// concrete node structs.
package uhdm

// Kind tags every node kind the lowering engine's visitor interface reaches,
// mirroring the upstream "leave<Kind>" callback set.
type Kind int

const (
	KProcess Kind = iota
	KEventControl
	KEdgeOp
	KBegin
	KNamedBegin
	KAssign
	KIf
	KCase
	KCaseItem
	KFor
	KRepeat
	KBreakStmt
	KContinueStmt
	KImmediateAssert
	KTaskCall
	KFuncCall
	KSysTaskCall
	KSysFuncCall
	KOperation
	KRefObj
	KRefVar
	KConstant
	KBitSelect
	KIndexedPartSelect
	KPartSelect
	KIODecl
	KLogicNet
	KLogicVar
	KArrayNet
	KArrayVar
	KVarDecl
	KOpaqueConstruct
	KFormalConstruct
)

// KindInfo is the static, per-kind metadata table (name + whether the node
// is a statement or an expression), mirroring pkg/inst.Info/Catalog.
type KindInfo struct {
	Name string
	IsStmt bool
}

// Catalog maps each Kind to its Info, exactly like pkg/inst.Catalog maps
// OpCode to Info.
var Catalog = map[Kind]KindInfo{
	KProcess: {"process", true},
	KEventControl: {"event_control", false},
	KEdgeOp: {"edge_op", false},
	KBegin: {"begin", true},
	KNamedBegin: {"named_begin", true},
	KAssign: {"assignment", true},
	KIf: {"if_else", true},
	KCase: {"case", true},
	KCaseItem: {"case_item", true},
	KFor: {"for", true},
	KRepeat: {"repeat", true},
	KBreakStmt: {"break", true},
	KContinueStmt: {"continue", true},
	KImmediateAssert: {"immediate_assert", true},
	KTaskCall: {"task_call", true},
	KFuncCall: {"func_call", false},
	KSysTaskCall: {"sys_task_call", true},
	KSysFuncCall: {"sys_func_call", false},
	KOperation: {"operation", false},
	KRefObj: {"ref_obj", false},
	KRefVar: {"ref_var", false},
	KConstant: {"constant", false},
	KBitSelect: {"bit_select", false},
	KIndexedPartSelect: {"indexed_part_select", false},
	KPartSelect: {"part_select", false},
	KIODecl: {"io_decl", false},
	KLogicNet: {"logic_net", false},
	KLogicVar: {"logic_var", false},
	KArrayNet: {"array_net", false},
	KArrayVar: {"array_var", false},
	KVarDecl: {"var_decl", false},
	KOpaqueConstruct: {"opaque_construct", true},
	KFormalConstruct: {"formal_construct", true},
}

func (k Kind) String() string {
	if info, ok := Catalog[k]; ok {
		return info.Name
	}
	return "unknown"
}

// Loc is the (file, line) the node was stamped with at elaboration time.
type Loc struct {
	File string
	Line int
}

// Node is implemented by every statement and expression node kind.
type Node interface {
	Kind() Kind
	Loc() Loc
}

type base struct {
	L Loc
}

func (b base) Loc() Loc { return b.L }