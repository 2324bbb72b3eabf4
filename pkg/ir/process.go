package ir

// TriggerType is the kind of edge or level a SyncRule fires on.
type TriggerType int

const (
	TriggerPosEdge TriggerType = iota
	TriggerNegEdge
	TriggerAlways // level-always: combinational restore of temp wires
	TriggerInit // compile-time initialization
)

func (t TriggerType) String() string {
	switch t {
	case TriggerPosEdge:
		return "posedge"
	case TriggerNegEdge:
		return "negedge"
	case TriggerAlways:
		return "always"
	case TriggerInit:
		return "init"
	default:
		return "unknown"
	}
}

// Action is one `lhs <= rhs` (or, in the root case, `lhs := rhs`) entry.
type Action struct {
	LHS SigSpec
	RHS SigSpec
}

// MemWriteAction is one memory write: write Data to Memory[Address] under
// Enable, with later-source-order writes taking priority over earlier ones
//
type MemWriteAction struct {
	Memory *Memory
	Address SigSpec
	Data SigSpec
	Enable SigSpec // broadcast to Memory.DataWidth bits
	Priority int
}

// CaseRule is an ordered list of unconditional actions plus an ordered list
// of nested switches. The root case of a Process has no compare value; a
// CaseRule reached as a SwitchRule child carries one in its parent.
type CaseRule struct {
	Actions []Action
	Switches []*SwitchRule
}

// AddAction appends an unconditional assignment to this case.
func (c *CaseRule) AddAction(lhs, rhs SigSpec) {
	c.Actions = append(c.Actions, Action{LHS: lhs, RHS: rhs})
}

// AddSwitch appends (and returns) a new nested SwitchRule.
func (c *CaseRule) AddSwitch(selector SigSpec) *SwitchRule {
	sw := &SwitchRule{Selector: selector}
	c.Switches = append(c.Switches, sw)
	return sw
}

// SwitchRule selects among child CaseRules by comparing Selector against
// each case's Compare list in order; an empty Compare list is the default.
type SwitchRule struct {
	Selector SigSpec
	Src Src
	Cases []*SwitchCase
}

// SwitchCase pairs a set of compare values with the CaseRule that runs when
// one of them matches the selector (or, if Compare is empty, by default).
type SwitchCase struct {
	Compare []SigSpec
	Body *CaseRule
}

// AddCase appends a new case with the given compare values (none = default)
// and returns its body for the caller to populate.
func (s *SwitchRule) AddCase(compare...SigSpec) *CaseRule {
	body := &CaseRule{}
	s.Cases = append(s.Cases, &SwitchCase{Compare: compare, Body: body})
	return body
}

// SyncRule is a trigger (edge/level/init) paired with the assignments and
// memory writes applied at that trigger.
type SyncRule struct {
	Type TriggerType
	Signal SigSpec // empty for TriggerAlways / TriggerInit
	Actions []Action
	MemWrites []MemWriteAction
}

// AddAction appends an assignment to this sync rule's action list.
func (r *SyncRule) AddAction(lhs, rhs SigSpec) {
	r.Actions = append(r.Actions, Action{LHS: lhs, RHS: rhs})
}

// ProcKind classifies the process the way ProcessClassifier tagged it,
// retained on the emitted Process for downstream attribute stamping.
type ProcKind int

const (
	ProcComb ProcKind = iota
	ProcFF
	ProcAsyncResetFF
	ProcSRFF
	ProcInitialSync
	ProcInitialComb
	ProcInitialInterpreted
)

// Process owns one root CaseRule plus an ordered list of SyncRules.
type Process struct {
	Name string
	Kind ProcKind
	Src Src
	Attrs map[string]string

	RootCase *CaseRule
	Syncs []*SyncRule
}

// NewProcess allocates a Process with an empty root case.
func NewProcess(name string, kind ProcKind) *Process {
	return &Process{Name: name, Kind: kind, RootCase: &CaseRule{}}
}

// AddSync appends and returns a new SyncRule of the given trigger type.
func (p *Process) AddSync(typ TriggerType, signal SigSpec) *SyncRule {
	r := &SyncRule{Type: typ, Signal: signal}
	p.Syncs = append(p.Syncs, r)
	return r
}

func (p *Process) SetAttr(key, value string) {
	if p.Attrs == nil {
		p.Attrs = make(map[string]string)
	}
	p.Attrs[key] = value
}
