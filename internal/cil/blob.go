package cil

import (
	"encoding/binary"
	"fmt"
)

// blobReader walks a byte slice with the ECMA-335 compressed integer
// encodings. Errors are sticky; callers check err once at the end.
type blobReader struct {
	data []byte
	pos  int
	err  error
}

func (r *blobReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

func (r *blobReader) byte() byte {
	if r.err != nil {
		return 0
	}
	if r.pos >= len(r.data) {
		r.fail("unexpected end of blob at %d", r.pos)
		return 0
	}
	b := r.data[r.pos]
	r.pos++
	return b
}

func (r *blobReader) peek() byte {
	if r.err != nil || r.pos >= len(r.data) {
		return 0
	}
	return r.data[r.pos]
}

func (r *blobReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.fail("unexpected end of blob at %d (want %d bytes)", r.pos, n)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *blobReader) uint16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *blobReader) uint32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *blobReader) uint64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// compressed reads an ECMA-335 compressed unsigned integer (II.23.2).
func (r *blobReader) compressed() uint32 {
	b0 := r.byte()
	switch {
	case b0&0x80 == 0:
		return uint32(b0)
	case b0&0xC0 == 0x80:
		b1 := r.byte()
		return uint32(b0&0x3F)<<8 | uint32(b1)
	case b0&0xE0 == 0xC0:
		b1, b2, b3 := r.byte(), r.byte(), r.byte()
		return uint32(b0&0x1F)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3)
	default:
		r.fail("invalid compressed integer prefix 0x%02x", b0)
		return 0
	}
}

// compressedInt reads a compressed signed integer (II.23.2): the sign bit
// is rotated into the LSB, and the magnitude sign-extends from the value
// width of the encoding (6, 13 or 28 bits).
func (r *blobReader) compressedInt() int32 {
	b0 := r.peek()
	u := r.compressed()
	v := int32(u >> 1)
	if u&1 == 0 {
		return v
	}
	switch {
	case b0&0x80 == 0:
		return v - 1<<6
	case b0&0xC0 == 0x80:
		return v - 1<<13
	default:
		return v - 1<<28
	}
}

// serString reads a SerString from a custom-attribute blob: a compressed
// length followed by UTF-8 bytes, with 0xFF meaning null.
func (r *blobReader) serString() (string, bool) {
	if r.peek() == 0xFF {
		r.byte()
		return "", false
	}
	n := r.compressed()
	b := r.bytes(int(n))
	return string(b), true
}
