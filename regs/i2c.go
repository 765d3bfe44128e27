package regs

import "tinygo.org/x/drivers"

// I2CBank reaches a 32-bit register window through an I2C bridge
// (debug companion or test fixture). Frames:
//
//	write: [a2, a1, a0, v0, v1, v2, v3]   (offset big-endian, value little-endian)
//	read:  write [a2, a1, a0], repeated-start read 4 bytes (little-endian)
//
// The wire carries a 24-bit offset from Base.
//
// An I2CBank is not safe for concurrent use.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided, without releasing the bus.
type I2CBank struct {
	i2c  drivers.I2C
	addr uint16
	Base uint32

	// Fixed buffers to avoid per-call heap allocations.
	w [7]byte
	r [4]byte
}

// AddressDefault is the bridge's 7-bit address.
const AddressDefault = 0x2A

func NewI2CBank(bus drivers.I2C, addr uint16, base uint32) *I2CBank {
	if addr == 0 {
		addr = AddressDefault
	}
	return &I2CBank{i2c: bus, addr: addr, Base: base}
}

func (b *I2CBank) putOffset(addr uint32) {
	off := addr - b.Base
	b.w[0] = byte(off >> 16)
	b.w[1] = byte(off >> 8)
	b.w[2] = byte(off)
}

func (b *I2CBank) Read(addr uint32) (uint32, error) {
	b.putOffset(addr)
	if err := b.i2c.Tx(b.addr, b.w[:3], b.r[:4]); err != nil {
		return 0, err
	}
	return uint32(b.r[0]) | uint32(b.r[1])<<8 | uint32(b.r[2])<<16 | uint32(b.r[3])<<24, nil
}

func (b *I2CBank) Write(addr, val uint32) error {
	b.putOffset(addr)
	b.w[3] = byte(val)
	b.w[4] = byte(val >> 8)
	b.w[5] = byte(val >> 16)
	b.w[6] = byte(val >> 24)
	return b.i2c.Tx(b.addr, b.w[:7], nil)
}
