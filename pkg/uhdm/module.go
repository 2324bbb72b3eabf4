package uhdm

// Direction is a port/io_decl direction.
type Direction int

const (
	DirInput Direction = iota
	DirOutput
	DirInout
)

// IODecl is a module port declaration. HighConnSigned/LowConnSigned back the
// sign-qualifier-stripping rewrite.
type IODecl struct {
	base
	Name string
	Width int
	Dir Direction
	LowConnSigned bool
	HighConnSigned bool
}

func (*IODecl) Kind() Kind { return KIODecl }

// NetInfo is a module-scope net/variable's width, looked up by RefObj
// resolution when no lowering-environment entry shadows it.
type NetInfo struct {
	Name string
	Width int
}

// ArrayInfo describes a memory: a 2-D array net/var, addressed by a
// BitSelect on its name.
type ArrayInfo struct {
	Name string
	Size int
	ElemWidth int

	// ElemRanges and ElemTypespecShared back the array-var width-1
	// typespec normalization rewrite: an array whose element
	// typespec has a single range and is still shared with another
	// declaration gets that typespec decoupled (the rewrite clears
	// ElemTypespecShared).
	ElemRanges int
	ElemTypespecShared bool
}

// TypespecRef models a `ref_typespec` site: the name currently resolved,
// and (if that name is itself an alias) the base typespec's name and kind
// that the typedef-alias canonicalization rewrite redirects to.
type TypespecRef struct {
	Name string
	AliasOf string
	Kind string
}

// ContAssign is a structural continuous assignment, imported by the sibling
// module-import component; carried here only as the shape that
// component hands off.
type ContAssign struct {
	LHS, RHS Expr
}

// ModuleDecl is the elaborated module this engine lowers: its nets, memory
// arrays, ports, continuous assigns, tasks/functions, and procedural
// blocks.
type ModuleDecl struct {
	Name string

	Nets map[string]NetInfo
	Arrays map[string]ArrayInfo
	Ports []*IODecl
	ContAssigns []ContAssign
	Tasks map[string]*Task
	Functions map[string]*Function
	Processes []*Process

	TypespecRefs []*TypespecRef
}

// NewModuleDecl allocates an empty module declaration.
func NewModuleDecl(name string) *ModuleDecl {
	return &ModuleDecl{
		Name: name,
		Nets: make(map[string]NetInfo),
		Arrays: make(map[string]ArrayInfo),
		Tasks: make(map[string]*Task),
		Functions: make(map[string]*Function),
	}
}

// AddNet registers a scalar net/variable's width.
func (m *ModuleDecl) AddNet(name string, width int) {
	m.Nets[name] = NetInfo{Name: name, Width: width}
}

// AddArray registers a memory array.
func (m *ModuleDecl) AddArray(name string, size, elemWidth int) {
	m.Arrays[name] = ArrayInfo{Name: name, Size: size, ElemWidth: elemWidth}
}

// IsMemory reports whether name was registered as a memory array.
func (m *ModuleDecl) IsMemory(name string) bool {
	_, ok := m.Arrays[name]
	return ok
}
