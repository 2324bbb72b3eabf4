package uhdm

import (
	"encoding/gob"
	"os"
)

// The real UHDM frontend driver deserializes the upstream elaborator's
// binary format directly into an object graph; this package doesn't
// reimplement that format. Instead it persists its own Design as a gob
// stream, the same way pkg/ir/serialize.go persists the lowered output, so
// cmd/uhdm2rtlil can drive the translator end-to-end without a real UHDM
// deserializer on hand. Every concrete Stmt/Expr type has to be registered
// once so gob can round-trip the interface-typed fields (Process.Body,
// Assign.LHS/RHS, and so on).
func init() {
	gob.Register(&Operation{})
	gob.Register(&EdgeOp{})
	gob.Register(&RefObj{})
	gob.Register(&RefVar{})
	gob.Register(&Constant{})
	gob.Register(&BitSelect{})
	gob.Register(&IndexedPartSelect{})
	gob.Register(&PartSelect{})
	gob.Register(&FuncCall{})
	gob.Register(&SysFuncCall{})

	gob.Register(&Begin{})
	gob.Register(&NamedBegin{})
	gob.Register(&Assign{})
	gob.Register(&If{})
	gob.Register(&Case{})
	gob.Register(&For{})
	gob.Register(&Repeat{})
	gob.Register(&BreakStmt{})
	gob.Register(&ContinueStmt{})
	gob.Register(&ImmediateAssert{})
	gob.Register(&TaskCall{})
	gob.Register(&SysTaskCall{})
	gob.Register(&OpaqueConstruct{})
	gob.Register(&FormalConstruct{})
}

// SaveDesign persists d to path via gob.
func SaveDesign(path string, d *Design) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(d)
}

// LoadDesign reads back a Design previously written by SaveDesign. A
// missing file or a stream that doesn't decode as a Design is reported to
// the caller as-is — cmd/uhdm2rtlil treats either as malformed input.
func LoadDesign(path string) (*Design, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d := &Design{}
	if err := gob.NewDecoder(f).Decode(d); err != nil {
		return nil, err
	}
	return d, nil
}
