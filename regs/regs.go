// Package regs models memory-mapped 32-bit registers as a Bank of words and
// named bit-fields inside them. The sequencing code only ever touches
// hardware through a Bank, so a simulator, a recorder or a bridge to real
// silicon can sit underneath without the callers noticing.
package regs

import "strconv"

// Bank is a window of 32-bit registers addressed by byte address.
type Bank interface {
	Read(addr uint32) (uint32, error)
	Write(addr, val uint32) error
}

// FieldWriter is implemented by banks that want to observe writes at field
// granularity (recorders). Field.Set delegates to it when present.
type FieldWriter interface {
	WriteField(f Field, v uint32) error
}

// Field describes a contiguous bit range inside one register.
type Field struct {
	Name  string
	Reg   uint32 // register byte address
	Pos   uint8
	Width uint8
}

// Bit is shorthand for a single-bit field.
func Bit(name string, reg uint32, pos uint8) Field {
	return Field{Name: name, Reg: reg, Pos: pos, Width: 1}
}

// Mask returns the in-register mask of the field.
func (f Field) Mask() uint32 {
	if f.Width >= 32 {
		return ^uint32(0)
	}
	return ((uint32(1) << f.Width) - 1) << f.Pos
}

// Extract pulls the field value out of a raw register word.
func (f Field) Extract(word uint32) uint32 {
	return (word & f.Mask()) >> f.Pos
}

// Insert returns word with the field replaced by v (v is truncated to width).
func (f Field) Insert(word, v uint32) uint32 {
	return (word &^ f.Mask()) | ((v << f.Pos) & f.Mask())
}

// Get reads the field.
func (f Field) Get(b Bank) (uint32, error) {
	w, err := b.Read(f.Reg)
	if err != nil {
		return 0, err
	}
	return f.Extract(w), nil
}

// IsSet reports whether any bit of the field reads as one.
func (f Field) IsSet(b Bank) (bool, error) {
	v, err := f.Get(b)
	return v != 0, err
}

// Set performs a read-modify-write of the field.
func (f Field) Set(b Bank, v uint32) error {
	if fw, ok := b.(FieldWriter); ok {
		return fw.WriteField(f, v)
	}
	return f.RMW(b, v)
}

// RMW is the plain read-modify-write, bypassing any FieldWriter.
func (f Field) RMW(b Bank, v uint32) error {
	w, err := b.Read(f.Reg)
	if err != nil {
		return err
	}
	return b.Write(f.Reg, f.Insert(w, v))
}

// SetBool writes 1 or 0.
func (f Field) SetBool(b Bank, on bool) error {
	if on {
		return f.Set(b, 1)
	}
	return f.Set(b, 0)
}

func (f Field) String() string {
	if f.Name != "" {
		return f.Name
	}
	return "0x" + strconv.FormatUint(uint64(f.Reg), 16) + "[" + strconv.Itoa(int(f.Pos)) + "]"
}
