package uhdm

// Design is the top-level elaborated input this engine consumes: every
// module the upstream elaborator produced, in whatever order the driver
// discovered them. The real UHDM object graph is an external collaborator
// a separate deserializer builds; Design is this engine's own typed
// stand-in for that graph's root.
type Design struct {
	Modules []*ModuleDecl
}

// NewDesign allocates an empty Design.
func NewDesign() *Design { return &Design{} }

// AddModule appends a module declaration.
func (d *Design) AddModule(m *ModuleDecl) { d.Modules = append(d.Modules, m) }

// Module looks up a module by name, or nil if absent.
func (d *Design) Module(name string) *ModuleDecl {
	for _, m := range d.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}
