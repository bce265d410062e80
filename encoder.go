package binpack

import (
	"encoding/binary"
	"reflect"
)

// encode serializes one instance against its schema. The output buffer is
// freshly allocated and sized exactly; the size limit is consulted before
// any allocation happens.
func encode(v reflect.Value, s *Schema) ([]byte, error) {
	size := encodedSize(v, s)
	maxBuf := MaxBufferSize()
	if size > maxBuf {
		return nil, newOverflowError(size, maxBuf)
	}

	buf := make([]byte, size)
	if _, err := encodeTo(buf, v, s); err != nil {
		return nil, err
	}
	return buf, nil
}

// encodedSize computes the exact encoded size of one instance: the schema's
// fixed layout, minus absent conditional fields, plus the runtime length of
// the tail.
func encodedSize(v reflect.Value, s *Schema) int {
	size := 0
	for i := range s.fields {
		f := &s.fields[i]
		if f.When != nil && !f.When.holds(v) {
			continue
		}
		switch f.Kind {
		case kindTail:
			size += v.FieldByIndex(f.Index).Len()
		case kindStruct:
			size += encodedSize(nestedValue(v, f), f.Nested)
		default:
			size += f.Size
		}
	}
	return size
}

// nestedValue resolves the instance of a nested structure field.
// A nil pointer encodes as the zero structure.
func nestedValue(v reflect.Value, f *Field) reflect.Value {
	fv := v.FieldByIndex(f.Index)
	if !f.Pointer {
		return fv
	}
	if fv.IsNil() {
		return reflect.Zero(f.Nested.goType)
	}
	return fv.Elem()
}

// encodeTo writes one instance at the start of buf, walking fields in
// declaration order, and returns the number of bytes written.
//
// An auto-checksum field whose value is the sentinel 0 is left zeroed during
// the walk and patched after the rest of the structure is assembled, since
// the checksum covers bytes that are only known once assembly completes.
func encodeTo(buf []byte, v reflect.Value, s *Schema) (int, error) {
	off := 0
	tailOff := -1
	checksumOff := -1
	ckScope := checksumNone

	for i := range s.fields {
		f := &s.fields[i]
		if f.When != nil && !f.When.holds(v) {
			continue
		}

		switch f.Kind {
		case kindUint, kindInt:
			fv := v.FieldByIndex(f.Index)
			var u uint64
			if f.Signed {
				u = uint64(fv.Int())
			} else {
				u = fv.Uint()
			}
			if f.Checksum != checksumNone && u == 0 {
				checksumOff = off
				ckScope = f.Checksum
			}
			putUint(buf[off:], u, f.Size)
			off += f.Size

		case kindArray:
			fv := v.FieldByIndex(f.Index)
			reflect.Copy(reflect.ValueOf(buf[off:off+f.Size]), fv)
			off += f.Size

		case kindBits:
			var word uint64
			for j := range f.Group {
				g := &f.Group[j]
				mask := uint64(1)<<g.Bits - 1
				word |= (v.FieldByIndex(g.Index).Uint() & mask) << g.Shift
			}
			putUint(buf[off:], word, f.Size)
			off += f.Size

		case kindStruct:
			n, err := encodeTo(buf[off:], nestedValue(v, f), f.Nested)
			if err != nil {
				return 0, err
			}
			off += n

		case kindTail:
			tailOff = off
			off += copy(buf[off:], v.FieldByIndex(f.Index).Bytes())
		}
	}

	if checksumOff >= 0 {
		scope := buf[:off]
		if ckScope == checksumHeader && tailOff >= 0 {
			scope = buf[:tailOff]
		}
		binary.BigEndian.PutUint16(buf[checksumOff:], InternetChecksum(scope))
	}

	return off, nil
}

// putUint writes a big-endian unsigned value of the given byte width.
func putUint(b []byte, v uint64, size int) {
	switch size {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(v))
	case 8:
		binary.BigEndian.PutUint64(b, v)
	}
}
