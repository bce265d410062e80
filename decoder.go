package binpack

import (
	"encoding/binary"
	"reflect"
)

// decode populates one instance of s from data, returning the instance and
// the number of bytes consumed. The buffer is borrowed for the duration of
// the call: tail bytes are copied out, never aliased.
//
// Preconditions run in a fixed order before any field is interpreted:
// buffer size limit, nesting depth limit, then the schema's minimum size.
// Decoding either returns a fully populated instance or exactly one typed
// error; no partial instances escape.
func decode(data []byte, s *Schema, depth int) (reflect.Value, int, error) {
	maxBuf := MaxBufferSize()
	if len(data) > maxBuf {
		return reflect.Value{}, 0, newOverflowError(len(data), maxBuf)
	}
	maxDepth := MaxNestingDepth()
	if depth > maxDepth {
		return reflect.Value{}, 0, newDepthError(depth, maxDepth)
	}
	if len(data) < s.minSize {
		return reflect.Value{}, 0, newTruncatedError(s.minSize, len(data), s.firstMissing(len(data)))
	}

	inst := reflect.New(s.goType).Elem()
	off := 0

	for i := range s.fields {
		f := &s.fields[i]
		if f.When != nil && !f.When.holds(inst) {
			continue
		}

		switch f.Kind {
		case kindUint, kindInt:
			if off+f.Size > len(data) {
				return reflect.Value{}, 0, newTruncatedError(off+f.Size, len(data), f.Name)
			}
			u := getUint(data[off:], f.Size)
			fv := inst.FieldByIndex(f.Index)
			if f.Signed {
				fv.SetInt(signExtend(u, f.Size))
			} else {
				fv.SetUint(u)
			}
			if f.Validate != nil {
				if err := f.Validate.check(f.Name, u); err != nil {
					return reflect.Value{}, 0, err
				}
			}
			off += f.Size

		case kindArray:
			if off+f.Size > len(data) {
				return reflect.Value{}, 0, newTruncatedError(off+f.Size, len(data), f.Name)
			}
			reflect.Copy(inst.FieldByIndex(f.Index), reflect.ValueOf(data[off:off+f.Size]))
			off += f.Size

		case kindBits:
			if off+f.Size > len(data) {
				return reflect.Value{}, 0, newTruncatedError(off+f.Size, len(data), f.Name)
			}
			word := getUint(data[off:], f.Size)
			for j := range f.Group {
				g := &f.Group[j]
				val := (word >> g.Shift) & (uint64(1)<<g.Bits - 1)
				inst.FieldByIndex(g.Index).SetUint(val)
				if g.Validate != nil {
					if err := g.Validate.check(g.Name, val); err != nil {
						return reflect.Value{}, 0, err
					}
				}
			}
			off += f.Size

		case kindStruct:
			nested, n, err := decode(data[off:], f.Nested, depth+1)
			if err != nil {
				return reflect.Value{}, 0, err
			}
			fv := inst.FieldByIndex(f.Index)
			if f.Pointer {
				p := reflect.New(f.Nested.goType)
				p.Elem().Set(nested)
				fv.Set(p)
			} else {
				fv.Set(nested)
			}
			off += n

		case kindTail:
			if off < len(data) {
				tail := make([]byte, len(data)-off)
				copy(tail, data[off:])
				inst.FieldByIndex(f.Index).SetBytes(tail)
				off = len(data)
			}
		}
	}

	return inst, off, nil
}

// getUint reads a big-endian unsigned value of the given byte width.
func getUint(b []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	default:
		return binary.BigEndian.Uint64(b)
	}
}

// signExtend reinterprets the low size bytes of u as a two's complement
// signed value.
func signExtend(u uint64, size int) int64 {
	shift := uint(64 - size*8)
	return int64(u<<shift) >> shift
}
