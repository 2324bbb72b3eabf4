package ir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestModuleWireUniqueness(t *testing.T) {
	m := NewModule("top")
	if err := m.AddWire(&Wire{Name: "clk", Width: 1}); err != nil {
		t.Fatalf("first AddWire should succeed: %v", err)
	}
	if err := m.AddWire(&Wire{Name: "clk", Width: 1}); err == nil {
		t.Fatalf("duplicate wire name must be rejected")
	}
}

func buildSampleModule() *Module {
	m := NewModule("dff")
	d := &Wire{Name: "d", Width: 8}
	q := &Wire{Name: "q", Width: 8}
	clk := &Wire{Name: "clk", Width: 1}
	tmp := &Wire{Name: `$0\q`, Width: 8}
	m.AddWire(d)
	m.AddWire(q)
	m.AddWire(clk)
	m.AddWire(tmp)

	p := NewProcess("$proc$dff", ProcFF)
	p.SetAttr("always_ff", "1")
	p.RootCase.AddAction(FromWire(tmp), FromWire(q))
	p.RootCase.AddAction(FromWire(tmp), FromWire(d))
	sr := p.AddSync(TriggerPosEdge, FromWire(clk))
	sr.AddAction(FromWire(q), FromWire(tmp))
	m.AddProcess(p)
	return m
}

func TestModuleSnapshotRoundTrip(t *testing.T) {
	m := buildSampleModule()
	snap := m.Snapshot()
	restored, err := FromModuleSnapshot(snap)
	if err != nil {
		t.Fatalf("FromModuleSnapshot: %v", err)
	}

	if diff := cmp.Diff(m.Snapshot(), restored.Snapshot()); diff != "" {
		t.Fatalf("round-trip snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoadDesign(t *testing.T) {
	d := NewDesign()
	d.AddModule(buildSampleModule())

	path := filepath.Join(t.TempDir(), "design.gob")
	if err := SaveDesign(path, d); err != nil {
		t.Fatalf("SaveDesign: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected design file to exist: %v", err)
	}

	loaded, err := LoadDesign(path)
	if err != nil {
		t.Fatalf("LoadDesign: %v", err)
	}
	got := loaded.Module("dff")
	if got == nil {
		t.Fatalf("loaded design missing module %q", "dff")
	}
	if diff := cmp.Diff(d.Module("dff").Snapshot(), got.Snapshot()); diff != "" {
		t.Fatalf("design round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryAddrWidth(t *testing.T) {
	cases := []struct {
		size int
		want int
	}{
		{1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {256, 8}, {257, 9},
	}
	for _, c := range cases {
		mem := &Memory{Name: "m", Size: c.size, DataWidth: 8}
		if got := mem.AddrWidth(); got != c.want {
			t.Errorf("AddrWidth() for size %d = %d, want %d", c.size, got, c.want)
		}
	}
}
