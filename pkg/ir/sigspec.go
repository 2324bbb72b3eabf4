// Package ir defines the netlist-plus-process intermediate representation
// produced by the behavioral-lowering engine: wires, cells, memories, and
// processes built from switch/case trees and synchronous update rules.
package ir

import (
	"fmt"
	"strings"
)

// Const is a fixed-width bit pattern. Bit i (0 = LSB) is 1 if the i'th bit
// of the bit vector is set. Values are always masked to Width bits.
type Const struct {
	Value uint64
	Width int
}

// ConstInt builds a Const of the given width from a signed/unsigned Go int.
func ConstInt(value int64, width int) Const {
	if width <= 0 {
		width = 1
	}
	mask := widthMask(width)
	return Const{Value: uint64(value) & mask, Width: width}
}

func widthMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

func (c Const) String() string {
	return fmt.Sprintf("%d'%0*b", c.Width, c.Width, c.Value)
}

// Chunk is one piece of a SigSpec: either a constant bit pattern or a slice
// of a wire. Exactly one of IsConst / the wire fields is meaningful.
type Chunk struct {
	IsConst bool
	Const Const

	Wire *Wire
	Offset int // LSB-relative bit offset into Wire
	Width int
}

func (c Chunk) size() int {
	if c.IsConst {
		return c.Const.Width
	}
	return c.Width
}

// SigSpec is an ordered concatenation of chunks, MSB chunk first, forming a
// value of known total width. SigSpec is immutable and value-typed: every
// operation on it returns a new SigSpec.
type SigSpec struct {
	chunks []Chunk
}

// FromWire builds a SigSpec referencing the whole of a wire.
func FromWire(w *Wire) SigSpec {
	return SigSpec{chunks: []Chunk{{Wire: w, Offset: 0, Width: w.Width}}}
}

// FromWireSlice builds a SigSpec referencing offset..offset+width of a wire.
func FromWireSlice(w *Wire, offset, width int) SigSpec {
	if offset < 0 || width <= 0 || offset+width > w.Width {
		panic(fmt.Sprintf("ir: slice [%d:+%d] out of range for wire %s (width %d)", offset, width, w.Name, w.Width))
	}
	return SigSpec{chunks: []Chunk{{Wire: w, Offset: offset, Width: width}}}
}

// FromConst builds a SigSpec holding a single constant chunk.
func FromConst(c Const) SigSpec {
	return SigSpec{chunks: []Chunk{{IsConst: true, Const: c}}}
}

// FromConstInt is a convenience wrapper around ConstInt + FromConst.
func FromConstInt(value int64, width int) SigSpec {
	return FromConst(ConstInt(value, width))
}

// Size returns the total bit width of the SigSpec.
func (s SigSpec) Size() int {
	total := 0
	for _, c := range s.chunks {
		total += c.size()
	}
	return total
}

// Chunks exposes the underlying chunk list (read-only use by callers).
func (s SigSpec) Chunks() []Chunk {
	out := make([]Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Extract returns the sub-SigSpec covering bits [offset, offset+width) using
// LSB-relative, whole-SigSpec addressing (bit 0 is the LSB of the last chunk).
func (s SigSpec) Extract(offset, width int) SigSpec {
	if width <= 0 {
		return SigSpec{}
	}
	if offset < 0 || offset+width > s.Size() {
		panic(fmt.Sprintf("ir: SigSpec.Extract([%d:+%d]) out of range for size %d", offset, width, s.Size()))
	}

	// Chunks are stored MSB-first; walk from the LSB end (last chunk) to
	// locate the starting chunk, then accumulate until width is consumed.
	var out []Chunk
	pos := 0 // LSB-relative bit offset of the chunk currently being visited
	for i := len(s.chunks) - 1; i >= 0 && width > 0; i-- {
		c := s.chunks[i]
		n := c.size()
		chunkLo, chunkHi := pos, pos+n // [chunkLo, chunkHi)
		wantLo, wantHi := offset, offset+width
		if wantHi > chunkLo && wantLo < chunkHi {
			lo := max(chunkLo, wantLo)
			hi := min(chunkHi, wantHi)
			sub := sliceChunk(c, lo-chunkLo, hi-lo)
			out = append(out, sub)
		}
		pos += n
	}
	// out was accumulated LSB-first (we walked from the last chunk
	// outward); reverse it to restore MSB-first storage order.
	reverseChunks(out)
	return SigSpec{chunks: out}
}

func sliceChunk(c Chunk, lo, width int) Chunk {
	if c.IsConst {
		return Chunk{IsConst: true, Const: ConstInt(int64(c.Const.Value>>uint(lo)), width)}
	}
	return Chunk{Wire: c.Wire, Offset: c.Offset + lo, Width: width}
}

func reverseChunks(cs []Chunk) {
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
}

// Append concatenates other after s (other becomes the new LSBs, matching
// the MSB-first chunk storage: s is the MSB half of the result).
func (s SigSpec) Append(other SigSpec) SigSpec {
	out := make([]Chunk, 0, len(s.chunks)+len(other.chunks))
	out = append(out, s.chunks...)
	out = append(out, other.chunks...)
	return SigSpec{chunks: coalesce(out)}
}

// coalesce merges adjacent constant chunks so equality and width-inference
// stay cheap; wire chunks are left distinct (merging them would require
// proving contiguity, which callers don't need).
func coalesce(cs []Chunk) []Chunk {
	if len(cs) < 2 {
		return cs
	}
	out := make([]Chunk, 0, len(cs))
	for _, c := range cs {
		if len(out) > 0 {
			last := out[len(out)-1]
			if last.IsConst && c.IsConst {
				merged := Const{
					Value: (last.Const.Value << uint(c.Const.Width)) | c.Const.Value,
					Width: last.Const.Width + c.Const.Width,
				}
				out[len(out)-1] = Chunk{IsConst: true, Const: merged}
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// ExtendU0 zero-extends s up to targetWidth by prepending a zero constant
// chunk. If s is already at least targetWidth wide it is returned unchanged
// (truncation is never implicit).
func (s SigSpec) ExtendU0(targetWidth int) SigSpec {
	cur := s.Size()
	if targetWidth <= cur {
		return s
	}
	pad := FromConst(ConstInt(0, targetWidth-cur))
	return pad.Append(s)
}

// IsWire reports whether s is a single chunk referencing a whole wire (no
// constant chunks, no concatenation, no partial slice).
func (s SigSpec) IsWire() bool {
	if len(s.chunks) != 1 {
		return false
	}
	c := s.chunks[0]
	return !c.IsConst && c.Offset == 0 && c.Width == c.Wire.Width
}

// IsFullyConst reports whether every chunk of s is constant.
func (s SigSpec) IsFullyConst() bool {
	for _, c := range s.chunks {
		if !c.IsConst {
			return false
		}
	}
	return true
}

// AsConstInt returns the concatenated constant value of a fully-const
// SigSpec. Panics if s is not fully constant; callers must check
// IsFullyConst first.
func (s SigSpec) AsConstInt() uint64 {
	if !s.IsFullyConst() {
		panic("ir: AsConstInt on non-constant SigSpec")
	}
	var v uint64
	for _, c := range s.chunks {
		v = (v << uint(c.Const.Width)) | c.Const.Value
	}
	return v
}

// Equal reports structural equality: same chunk sequence, same widths, same
// wire identities and offsets. Two SigSpecs with different chunking but the
// same flattened value are NOT equal.
func (s SigSpec) Equal(o SigSpec) bool {
	if len(s.chunks) != len(o.chunks) {
		return false
	}
	for i := range s.chunks {
		a, b := s.chunks[i], o.chunks[i]
		if a.IsConst != b.IsConst {
			return false
		}
		if a.IsConst {
			if a.Const != b.Const {
				return false
			}
			continue
		}
		if a.Wire != b.Wire || a.Offset != b.Offset || a.Width != b.Width {
			return false
		}
	}
	return true
}

func (s SigSpec) String() string {
	parts := make([]string, len(s.chunks))
	for i, c := range s.chunks {
		if c.IsConst {
			parts[i] = c.Const.String()
			continue
		}
		if c.Offset == 0 && c.Width == c.Wire.Width {
			parts[i] = c.Wire.Name
			continue
		}
		parts[i] = fmt.Sprintf("%s[%d:%d]", c.Wire.Name, c.Offset+c.Width-1, c.Offset)
	}
	return strings.Join(parts, " ")
}
