package uhdm

// Stmt is the subset of Node implemented by statement kinds.
type Stmt interface {
	Node
	stmtNode
}

// stmtNode is the marker method that restricts Stmt to the statement kinds
// declared in this file.
type stmtNode interface {
	stmtNode()
}

// EventControl is the `@(...)` wrapper on a procedural block. Expr is nil
// for `always_comb`-shaped blocks that the elaborator gives no explicit
// sensitivity list; a nil Expr yields no edge operators, so such a block
// classifies as combinational.
type EventControl struct {
	base
	Expr Expr // an EdgeOp, or an Operation{Op: OpLogOr/OpOr} tree of EdgeOps
}

func (*EventControl) Kind() Kind { return KEventControl }

// Process is a procedural block: `always`/`always_ff`/`always_comb`/
// `initial`, optionally wrapped in an EventControl.
type Process struct {
	base
	EventCtrl *EventControl // nil => no event control (initial block)
	Body      Stmt
	Name      string // hierarchical name, used to derive emitted names
}

func (*Process) Kind() Kind { return KProcess }

// Assign is one blocking (`=`) or nonblocking (`<=`) assignment, optionally
// a compound assignment (`x OP= e`, HasCompound set and CompoundOp naming OP).
type Assign struct {
	base
	LHS         Expr
	RHS         Expr
	Blocking    bool
	CompoundOp  OpKind
	HasCompound bool
}

func (*Assign) Kind() Kind { return KAssign }
func (*Assign) stmtNode()  {}

// Begin is an anonymous `begin... end` block.
type Begin struct {
	base
	Stmts []Stmt
}

func (*Begin) Kind() Kind { return KBegin }
func (*Begin) stmtNode()  {}

// VarDecl is a block-local variable declaration (scalar, unless ArrayLen>0).
type VarDecl struct {
	base
	Name     string
	Width    int
	ArrayLen int // > 0 for a fixed-length local array
}

func (*VarDecl) Kind() Kind { return KVarDecl }
func (*VarDecl) stmtNode()  {}

// NamedBegin is a `begin: name... end` block with local declarations,
// giving its locals hierarchical wire names "name.var".
type NamedBegin struct {
	base
	Name   string
	Locals []*VarDecl
	Stmts  []Stmt
}

func (*NamedBegin) Kind() Kind { return KNamedBegin }
func (*NamedBegin) stmtNode()  {}

// If is `if (Cond) Then [else Else]`; Else is nil for a bare if.
type If struct {
	base
	Cond Expr
	Then Stmt
	Else Stmt
}

func (*If) Kind() Kind { return KIf }
func (*If) stmtNode()  {}

// CaseItem is one `compare: body` arm; an empty Compare list is `default`.
type CaseItem struct {
	base
	Compare []Expr
	Body    Stmt
}

func (*CaseItem) Kind() Kind { return KCaseItem }
func (*CaseItem) stmtNode()  {}

// Case is a `case (Selector)... endcase` statement.
type Case struct {
	base
	Selector Expr
	Items    []*CaseItem
}

func (*Case) Kind() Kind { return KCase }
func (*Case) stmtNode()  {}

// For is a C-style for loop. LoopVar is non-nil when the initializer
// declares a new variable (`for (int i = 0;...)`), which is used to pick
// the InitialInterpreted sub-strategy.
type For struct {
	base
	LoopVar *VarDecl
	Init    Stmt // nil if LoopVar != nil (the declaration doubles as init)
	InitVal Expr // initial value when LoopVar != nil
	Cond    Expr
	Inc     Stmt
	Body    Stmt
}

func (*For) Kind() Kind { return KFor }
func (*For) stmtNode()  {}

// Repeat is `repeat (Count) Body` with a compile-time-constant Count.
type Repeat struct {
	base
	Count Expr
	Body  Stmt
}

func (*Repeat) Kind() Kind { return KRepeat }
func (*Repeat) stmtNode()  {}

// BreakStmt/ContinueStmt are loop control statements.
type BreakStmt struct{ base }

func (*BreakStmt) Kind() Kind { return KBreakStmt }
func (*BreakStmt) stmtNode()  {}

type ContinueStmt struct{ base }

func (*ContinueStmt) Kind() Kind { return KContinueStmt }
func (*ContinueStmt) stmtNode()  {}

// OpaqueConstruct stands in for every unconditionally non-synthesizable
// statement kind this engine never lowers: final/wait/wait_fork/disable/
// disable_fork/force/deassign/release/fork/named_fork/event_stmt, and
// similar. ConstructKind carries which one, for diagnostics.
type OpaqueConstruct struct {
	base
	ConstructKind string
}

func (*OpaqueConstruct) Kind() Kind { return KOpaqueConstruct }
func (*OpaqueConstruct) stmtNode()  {}

// FormalConstruct stands in for assume/cover/restrict/immediate_assume/
// immediate_cover: flagged only when formal constructs are disabled.
type FormalConstruct struct {
	base
	ConstructKind string
	Body          Stmt // nested action block, if any
}

func (*FormalConstruct) Kind() Kind { return KFormalConstruct }
func (*FormalConstruct) stmtNode()  {}

// ImmediateAssert lowers to a $check cell.
type ImmediateAssert struct {
	base
	Cond  Expr
	Label string
}

func (*ImmediateAssert) Kind() Kind { return KImmediateAssert }
func (*ImmediateAssert) stmtNode()  {}

// ParamDir is a task/function argument's direction.
type ParamDir int

const (
	DirIn ParamDir = iota
	DirOut
	DirInOut
)

// Param is one task/function formal argument.
type Param struct {
	Name  string
	Dir   ParamDir
	Width int
}

// Task is a task definition, inlined at each call site.
type Task struct {
	Name   string
	Params []Param
	Body   Stmt
}

// Function is a function definition; its name also names the implicit
// return variable.
type Function struct {
	Name        string
	Params      []Param
	Body        Stmt
	ReturnWidth int
}

// TaskCall invokes a Task by value; arguments are copied in/out around the
// inlined body.
type TaskCall struct {
	base
	Task *Task
	Args []Expr
}

func (*TaskCall) Kind() Kind { return KTaskCall }
func (*TaskCall) stmtNode()  {}

// SysTaskCall is a system task call (`$display`, `$monitor`,...); most are
// non-synthesizable and are audited, not lowered.
type SysTaskCall struct {
	base
	Name string
	Args []Expr
}

func (*SysTaskCall) Kind() Kind { return KSysTaskCall }
func (*SysTaskCall) stmtNode()  {}
