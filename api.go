// Package binpack builds and parses raw network packets from tagged Go
// structs.
//
// A wire schema is derived once per structure type from its declaration
// order and bin tags, cached, and reused by every Marshal and Unmarshal of
// that type. All multi-byte integers are big-endian (network byte order).
// Decoding enforces process-wide security limits on buffer size and nesting
// depth at every step, so untrusted network bytes cannot drive unbounded
// allocation or recursion.
//
// # Field Layout
//
// Layout is inferred from the Go field type:
//
//   - uint8/int8, uint16/int16, uint32/int32, uint64/int64 - fixed-width
//     big-endian integers
//   - [N]byte - fixed-length byte strings (addresses, magic values)
//   - struct or *struct - nested structures, encoded in place
//   - []byte - the variable-length tail; at most one, and it must be the
//     final field
//
// # Tag Syntax
//
// Tags refine the inferred layout:
//
//	bin:"-"                        - not on the wire
//	bin.bits:"4"                   - 4-bit field inside a packed bit group
//	bin.when:"Flags!=0"            - present only when the predicate holds
//	bin.validate:"min=5,max=15"    - constraint checked during decode
//	bin.checksum:"internet"        - RFC 1071 auto-checksum over the buffer
//	bin.checksum:"internet-header" - auto-checksum over the fixed prefix
//
// Consecutive bit fields pack most-significant-first and must close on a
// byte boundary. An auto-checksum field set to 0 is computed and patched in
// after assembly; any other value is written as-is.
//
// # Basic Usage
//
//	type Echo struct {
//	    Type           uint8
//	    Code           uint8
//	    Checksum       uint16 `bin.checksum:"internet"`
//	    Identifier     uint16
//	    SequenceNumber uint16
//	    Data           []byte
//	}
//
//	pkt := Echo{Type: 8, Identifier: 1234, SequenceNumber: 1, Data: payload}
//	wire, err := binpack.Marshal(&pkt)
//
//	// ... socket send / receive ...
//
//	reply, err := binpack.Unmarshal[Echo](wire)
//
// # Security Limits
//
// SetMaxBufferSize, SetMaxNestingDepth and strict mode form a process-wide
// configuration consulted by every operation; ResetLimits restores the
// defaults (10 MiB, depth 100, strict off). Limit violations surface as
// typed errors (OverflowError, DepthError) before any field is interpreted.
//
// # Rate Limiting
//
// RateLimiter is a token bucket for callers that move packets on sockets:
//
//	rl, _ := binpack.NewRateLimiter(100, time.Minute)
//	if err := rl.CheckLimit("icmp send"); err != nil {
//	    // depleted; wait and retry
//	}
//
// The codec itself never rate limits, never retries, and never logs; it
// emits capitan signals around schema derivation, encode and decode for
// hosts that want observability.
package binpack

import (
	"reflect"
	"time"
)

// Marshal encodes an instance of T into a freshly allocated wire buffer.
// The schema is derived from T on first use. Encoding is deterministic:
// the same instance always yields identical bytes, and the returned buffer
// length equals the schema-computed size exactly.
func Marshal[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, ErrNilInstance
	}
	schema, err := SchemaFor[T]()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	emitEncodeStart(schema.typeName)

	buf, err := encode(instanceValue(v), schema)
	emitEncodeComplete(schema.typeName, len(buf), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Unmarshal decodes a wire buffer into a new instance of T. The buffer is
// only borrowed: no reference to it is retained after the call. It either
// returns a fully populated instance or exactly one typed error.
func Unmarshal[T any](data []byte) (*T, error) {
	schema, err := SchemaFor[T]()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	emitDecodeStart(schema.typeName, len(data))

	inst, _, err := decode(data, schema, 0)
	emitDecodeComplete(schema.typeName, len(data), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	out := inst.Addr().Interface().(*T)
	return out, nil
}

// instanceValue dereferences an instance pointer for the reflective walk.
func instanceValue[T any](v *T) reflect.Value {
	return reflect.ValueOf(v).Elem()
}
