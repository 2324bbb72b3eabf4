package ir

import "testing"

func TestSigSpecSizeAndExtend(t *testing.T) {
	w := &Wire{Name: "d", Width: 8}
	s := FromWire(w)
	if got := s.Size(); got != 8 {
		t.Fatalf("Size() = %d, want 8", got)
	}
	ext := s.ExtendU0(16)
	if got := ext.Size(); got != 16 {
		t.Fatalf("ExtendU0(16).Size() = %d, want 16", got)
	}
	// Extending to a width not larger than the current one is a no-op.
	same := s.ExtendU0(4)
	if !same.Equal(s) {
		t.Fatalf("ExtendU0(4) on an 8-bit SigSpec should be unchanged")
	}
}

func TestSigSpecExtract(t *testing.T) {
	w := &Wire{Name: "q", Width: 8}
	s := FromWire(w)
	lo := s.Extract(0, 4)
	if lo.Size() != 4 {
		t.Fatalf("lo.Size() = %d, want 4", lo.Size())
	}
	c := lo.Chunks()
	if len(c) != 1 || c[0].Wire != w || c[0].Offset != 0 || c[0].Width != 4 {
		t.Fatalf("unexpected chunk: %+v", c)
	}

	hi := s.Extract(4, 4)
	hc := hi.Chunks()
	if len(hc) != 1 || hc[0].Offset != 4 || hc[0].Width != 4 {
		t.Fatalf("unexpected chunk: %+v", hc)
	}
}

func TestSigSpecExtractAcrossConcat(t *testing.T) {
	a := &Wire{Name: "a", Width: 4}
	b := &Wire{Name: "b", Width: 4}
	s := FromWire(a).Append(FromWire(b)) // [a(4) b(4)], b is LSBs

	if s.Size() != 8 {
		t.Fatalf("Size() = %d, want 8", s.Size())
	}

	// bits [0:4) are entirely within b
	low := s.Extract(0, 4)
	lc := low.Chunks()
	if len(lc) != 1 || lc[0].Wire != b {
		t.Fatalf("Extract(0,4) = %+v, want whole of b", lc)
	}

	// bits [2:6) straddle both wires
	mid := s.Extract(2, 4)
	mc := mid.Chunks()
	if len(mc) != 2 {
		t.Fatalf("Extract(2,4) should straddle two chunks, got %+v", mc)
	}
	if mc[0].Wire != a || mc[0].Offset != 0 || mc[0].Width != 2 {
		t.Fatalf("first (MSB) chunk wrong: %+v", mc[0])
	}
	if mc[1].Wire != b || mc[1].Offset != 2 || mc[1].Width != 2 {
		t.Fatalf("second (LSB) chunk wrong: %+v", mc[1])
	}
}

func TestSigSpecConstFolding(t *testing.T) {
	c1 := FromConstInt(0x3, 4)
	c2 := FromConstInt(0xA, 4)
	cat := c1.Append(c2)
	if !cat.IsFullyConst() {
		t.Fatalf("concatenation of two consts should be fully const")
	}
	if got := cat.AsConstInt(); got != 0x3A {
		t.Fatalf("AsConstInt() = %#x, want 0x3a", got)
	}
	if got := cat.Size(); got != 8 {
		t.Fatalf("Size() = %d, want 8", got)
	}
}

func TestSigSpecIsWire(t *testing.T) {
	w := &Wire{Name: "x", Width: 4}
	if !FromWire(w).IsWire() {
		t.Fatalf("FromWire should report IsWire() == true")
	}
	if FromWireSlice(w, 0, 2).IsWire() {
		t.Fatalf("a partial slice must not report IsWire() == true")
	}
	if FromConstInt(0, 4).IsWire() {
		t.Fatalf("a constant must not report IsWire() == true")
	}
}

func TestSigSpecEqualIsStructural(t *testing.T) {
	w := &Wire{Name: "y", Width: 8}
	whole := FromWire(w)
	asTwoSlices := FromWireSlice(w, 4, 4).Append(FromWireSlice(w, 0, 4))
	if whole.Equal(asTwoSlices) {
		t.Fatalf("structurally different chunkings must not compare Equal, even with the same flattened value space")
	}
	if !whole.Equal(FromWire(w)) {
		t.Fatalf("identical single-chunk SigSpecs must compare Equal")
	}
}
