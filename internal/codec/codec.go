// Package codec implements the minimal SCALE framing the wallet needs to
// assemble extrinsic envelopes and read account records. The full wire codec
// belongs to the node-facing tooling; only compact integers, options, and
// length-prefixed byte strings are required here.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrCompactTooLarge = errors.New("compact value exceeds encodable range")
	ErrShortBuffer     = errors.New("buffer too short")
)

// AppendCompact appends the SCALE compact encoding of v to dst.
func AppendCompact(dst []byte, v uint64) []byte {
	switch {
	case v < 1<<6:
		return append(dst, byte(v)<<2)
	case v < 1<<14:
		return binary.LittleEndian.AppendUint16(dst, uint16(v)<<2|0b01)
	case v < 1<<30:
		return binary.LittleEndian.AppendUint32(dst, uint32(v)<<2|0b10)
	default:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], v)
		n := 8
		for n > 4 && buf[n-1] == 0 {
			n--
		}
		dst = append(dst, byte(n-4)<<2|0b11)
		return append(dst, buf[:n]...)
	}
}

// Compact returns the SCALE compact encoding of v.
func Compact(v uint64) []byte {
	return AppendCompact(nil, v)
}

// AppendCompactBig appends the compact encoding of a non-negative big integer
// of up to 2^536-1 (the SCALE limit). Values that fit in a uint64 take the
// short forms.
func AppendCompactBig(dst []byte, v *big.Int) ([]byte, error) {
	if v == nil || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative or nil value", ErrCompactTooLarge)
	}
	if v.IsUint64() {
		return AppendCompact(dst, v.Uint64()), nil
	}
	raw := v.Bytes() // big-endian
	if len(raw) > 67 {
		return nil, ErrCompactTooLarge
	}
	dst = append(dst, byte(len(raw)-4)<<2|0b11)
	for i := len(raw) - 1; i >= 0; i-- { // little-endian on the wire
		dst = append(dst, raw[i])
	}
	return dst, nil
}

// DecodeCompact decodes a compact integer from the front of b, returning the
// value and the number of bytes consumed. Big-mode values wider than 8 bytes
// are rejected; the wallet never reads them.
func DecodeCompact(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrShortBuffer
	}
	switch b[0] & 0b11 {
	case 0b00:
		return uint64(b[0] >> 2), 1, nil
	case 0b01:
		if len(b) < 2 {
			return 0, 0, ErrShortBuffer
		}
		return uint64(binary.LittleEndian.Uint16(b[:2]) >> 2), 2, nil
	case 0b10:
		if len(b) < 4 {
			return 0, 0, ErrShortBuffer
		}
		return uint64(binary.LittleEndian.Uint32(b[:4]) >> 2), 4, nil
	default:
		n := int(b[0]>>2) + 4
		if n > 8 {
			return 0, 0, fmt.Errorf("%w: %d byte big-mode compact", ErrCompactTooLarge, n)
		}
		if len(b) < 1+n {
			return 0, 0, ErrShortBuffer
		}
		var buf [8]byte
		copy(buf[:], b[1:1+n])
		return binary.LittleEndian.Uint64(buf[:]), 1 + n, nil
	}
}

// AppendBytes appends a length-prefixed byte string (compact length, then the
// raw bytes).
func AppendBytes(dst, b []byte) []byte {
	dst = AppendCompact(dst, uint64(len(b)))
	return append(dst, b...)
}

// AppendOption appends an Option: 0x00 for None, 0x01 followed by the encoded
// inner value for Some.
func AppendOption(dst []byte, inner []byte) []byte {
	if inner == nil {
		return append(dst, 0x00)
	}
	dst = append(dst, 0x01)
	return append(dst, inner...)
}

// AppendUint32 appends a fixed-width little-endian u32.
func AppendUint32(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

// DecodeUint32 reads a fixed-width little-endian u32 from the front of b.
func DecodeUint32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, ErrShortBuffer
	}
	return binary.LittleEndian.Uint32(b[:4]), nil
}

// DecodeUint128 reads a fixed-width little-endian u128 from the front of b.
func DecodeUint128(b []byte) (*big.Int, error) {
	if len(b) < 16 {
		return nil, ErrShortBuffer
	}
	be := make([]byte, 16)
	for i := 0; i < 16; i++ {
		be[15-i] = b[i]
	}
	return new(big.Int).SetBytes(be), nil
}
