package main

import (
	"path/filepath"
	"testing"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/ir"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
)

// buildFixture hand-builds a one-module design: a plain D flip-flop.
func buildFixture() *uhdm.Design {
	decl := uhdm.NewModuleDecl("dff")
	decl.AddNet("clk", 1)
	decl.AddNet("d", 8)
	decl.AddNet("q", 8)
	decl.Processes = append(decl.Processes, &uhdm.Process{
		EventCtrl: &uhdm.EventControl{Expr: &uhdm.EdgeOp{Edge: uhdm.EdgePos, Signal: &uhdm.RefObj{Name: "clk"}}},
		Body:      &uhdm.Assign{LHS: &uhdm.RefObj{Name: "q"}, RHS: &uhdm.RefObj{Name: "d"}},
	})

	d := uhdm.NewDesign()
	d.AddModule(decl)
	return d
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "design.gob")
	outPath := filepath.Join(dir, "out.rtlil")

	if err := uhdm.SaveDesign(inPath, buildFixture()); err != nil {
		t.Fatalf("SaveDesign: %v", err)
	}

	if err := run(inPath, outPath, false, false, true); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, err := ir.LoadDesign(outPath)
	if err != nil {
		t.Fatalf("LoadDesign: %v", err)
	}
	if len(out.Modules()) != 1 {
		t.Fatalf("len(Modules()) = %d, want 1", len(out.Modules()))
	}
	mod := out.Modules()[0]
	if mod.Name != "dff" {
		t.Fatalf("module name = %q, want dff", mod.Name)
	}
	if len(mod.Processes()) != 1 {
		t.Fatalf("len(Processes()) = %d, want 1", len(mod.Processes()))
	}
	if mod.Processes()[0].Kind != ir.ProcFF {
		t.Fatalf("process kind = %v, want ProcFF", mod.Processes()[0].Kind)
	}
}

func TestRunEmptyDesignFails(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "empty.gob")
	if err := uhdm.SaveDesign(inPath, uhdm.NewDesign()); err != nil {
		t.Fatalf("SaveDesign: %v", err)
	}
	if err := run(inPath, filepath.Join(dir, "out.rtlil"), false, false, true); err == nil {
		t.Fatalf("run: expected error on empty design, got nil")
	}
}

func TestRunMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	if err := run(filepath.Join(dir, "nope.gob"), filepath.Join(dir, "out.rtlil"), false, false, true); err == nil {
		t.Fatalf("run: expected error on missing input file, got nil")
	}
}
