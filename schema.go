package binpack

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register wire tags with sentinel
	sentinel.Tag("bin")
	sentinel.Tag("bin.bits")
	sentinel.Tag("bin.when")
	sentinel.Tag("bin.validate")
	sentinel.Tag("bin.checksum")
}

// binTagKeys lists every tag key the schema builder understands.
var binTagKeys = []string{
	"bin",
	"bin.bits",
	"bin.when",
	"bin.validate",
	"bin.checksum",
}

// fieldKind classifies how a field is laid out on the wire.
type fieldKind int

const (
	kindUint   fieldKind = iota // fixed-width unsigned integer
	kindInt                     // fixed-width signed integer (two's complement)
	kindArray                   // fixed-length byte array
	kindBits                    // packed group of sub-byte fields
	kindStruct                  // nested structure
	kindTail                    // trailing variable-length bytes
)

// checksumScope selects which bytes an auto-checksum covers.
type checksumScope int

const (
	checksumNone   checksumScope = iota
	checksumPacket               // the whole encoded buffer
	checksumHeader               // the fixed prefix only, excluding any tail
)

// condition is a presence predicate over a previously processed field.
type condition struct {
	field   string
	index   []int // reflect access path of the referenced field
	op      byte  // 0: nonzero, '=': equal, '!': not equal
	operand uint64
}

// constraint is a declared value check, evaluated immediately after decode.
type constraint struct {
	raw    string // constraint as written in the tag, for error messages
	hasMin bool
	min    uint64
	hasMax bool
	max    uint64
	hasEq  bool
	eq     uint64
}

func (c *constraint) check(field string, v uint64) error {
	if c.hasEq && v != c.eq {
		return newValidationError(field, v, c.raw)
	}
	if c.hasMin && v < c.min {
		return newValidationError(field, v, c.raw)
	}
	if c.hasMax && v > c.max {
		return newValidationError(field, v, c.raw)
	}
	return nil
}

// bitField is one member of a packed bit group.
type bitField struct {
	Name     string
	Index    []int
	Bits     int
	Shift    int // shift from the group's least significant bit
	Validate *constraint
}

// Field describes one wire field of a structure.
type Field struct {
	Name     string
	Kind     fieldKind
	Size     int // encoded byte width; zero for kindTail
	Index    []int
	Signed   bool
	Pointer  bool    // nested field declared as *struct
	Nested   *Schema // schema of the nested structure, for kindStruct
	Group    []bitField
	When     *condition
	Validate *constraint
	Checksum checksumScope
}

// Schema is the derived wire layout of one structure type.
// A schema is computed once per type, cached, and never mutated afterward;
// concurrent encode and decode calls share it freely.
type Schema struct {
	typeName  string
	goType    reflect.Type
	fields    []Field
	minSize   int // bytes required by unconditional fixed fields
	fixedSize int // bytes of all fixed fields, conditionals included
	hasTail   bool
	checksum  int // index of the auto-checksum field, -1 if none
}

// TypeName returns the name of the structure type the schema was derived from.
func (s *Schema) TypeName() string { return s.typeName }

// MinSize returns the minimum buffer length a decode can succeed against:
// the total width of all unconditional fixed fields.
func (s *Schema) MinSize() int { return s.minSize }

// FixedSize returns the width of the fixed-length prefix with every
// conditional field present, excluding any trailing variable-length field.
func (s *Schema) FixedSize() int { return s.fixedSize }

// HasTail reports whether the schema ends in a variable-length byte field.
func (s *Schema) HasTail() bool { return s.hasTail }

// Fields returns the ordered field descriptors.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// schemaOf derives a schema for T from its struct tags.
func schemaOf[T any]() (*Schema, error) {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct {
		return nil, newSchemaError(ErrUnsupportedField, rt.String(), "", "not a struct type")
	}
	meta := sentinel.Scan[T]()
	return buildSchema(rt, meta, map[reflect.Type]bool{rt: true})
}

// buildSchema walks the scanned metadata in declaration order and resolves
// every field's wire layout. visiting carries the chain of nested types
// currently being derived, for cycle detection.
func buildSchema(rt reflect.Type, meta sentinel.Metadata, visiting map[reflect.Type]bool) (*Schema, error) {
	s := &Schema{
		typeName: meta.TypeName,
		goType:   rt,
		checksum: -1,
	}

	var pending []bitField
	pendingBits := 0

	closeGroup := func() {
		total := pendingBits
		consumed := 0
		group := make([]bitField, len(pending))
		copy(group, pending)
		for i := range group {
			group[i].Shift = total - consumed - group[i].Bits
			consumed += group[i].Bits
		}
		f := Field{
			Name:  group[0].Name,
			Kind:  kindBits,
			Size:  total / 8,
			Group: group,
		}
		s.fields = append(s.fields, f)
		s.minSize += f.Size
		s.fixedSize += f.Size
		pending = nil
		pendingBits = 0
	}

	for _, fm := range meta.Fields {
		tags := fm.Tags
		if tags["bin"] == "-" {
			continue
		}
		if s.hasTail {
			return nil, newSchemaError(ErrAmbiguousLayout, s.typeName, fm.Name, "field follows variable-length tail")
		}

		ft := fm.ReflectType

		if bv, ok := tags["bin.bits"]; ok {
			width, err := strconv.Atoi(bv)
			if err != nil || width < 1 || width > 32 {
				return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, "bin.bits must be 1..32")
			}
			switch ft.Kind() {
			case reflect.Uint8, reflect.Uint16, reflect.Uint32:
				if width > ft.Bits() {
					return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, "bit width exceeds field type")
				}
			default:
				return nil, newSchemaError(ErrUnsupportedField, s.typeName, fm.Name, "bit fields must be unsigned integers")
			}
			if _, ok := tags["bin.when"]; ok {
				return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, "bit fields cannot be conditional")
			}
			if _, ok := tags["bin.checksum"]; ok {
				return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, "bit fields cannot hold a checksum")
			}
			if pendingBits+width > 32 {
				return nil, newSchemaError(ErrAmbiguousLayout, s.typeName, fm.Name, "bit group exceeds 32 bits")
			}
			bf := bitField{Name: fm.Name, Index: fm.Index, Bits: width}
			if cv, ok := tags["bin.validate"]; ok {
				cons, err := parseConstraint(cv)
				if err != nil {
					return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, err.Error())
				}
				bf.Validate = cons
			}
			pending = append(pending, bf)
			pendingBits += width
			if pendingBits%8 == 0 {
				closeGroup()
			}
			continue
		}

		if pendingBits != 0 {
			return nil, newSchemaError(ErrAmbiguousLayout, s.typeName, fm.Name, "bit group does not close on a byte boundary")
		}

		f := Field{Name: fm.Name, Index: fm.Index}

		switch ft.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			f.Kind = kindUint
			f.Size = ft.Bits() / 8
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f.Kind = kindInt
			f.Signed = true
			f.Size = ft.Bits() / 8
		case reflect.Array:
			if ft.Elem().Kind() != reflect.Uint8 {
				return nil, newSchemaError(ErrUnsupportedField, s.typeName, fm.Name, "arrays must have byte elements")
			}
			f.Kind = kindArray
			f.Size = ft.Len()
		case reflect.Struct:
			nested, err := nestedSchema(ft, visiting)
			if err != nil {
				return nil, err
			}
			f.Kind = kindStruct
			f.Nested = nested
			f.Size = nested.fixedSize
		case reflect.Ptr:
			if ft.Elem().Kind() != reflect.Struct {
				return nil, newSchemaError(ErrUnsupportedField, s.typeName, fm.Name, "pointers must reference structures")
			}
			nested, err := nestedSchema(ft.Elem(), visiting)
			if err != nil {
				return nil, err
			}
			f.Kind = kindStruct
			f.Pointer = true
			f.Nested = nested
			f.Size = nested.fixedSize
		case reflect.Slice:
			if ft.Elem().Kind() != reflect.Uint8 {
				return nil, newSchemaError(ErrUnsupportedField, s.typeName, fm.Name, "slices must have byte elements")
			}
			f.Kind = kindTail
		default:
			return nil, newSchemaError(ErrUnsupportedField, s.typeName, fm.Name, ft.String())
		}

		if wv, ok := tags["bin.when"]; ok {
			if f.Kind == kindTail {
				return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, "tail fields cannot be conditional")
			}
			cond, err := parseWhen(wv)
			if err != nil {
				return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, err.Error())
			}
			idx, ok := s.lookupUint(cond.field)
			if !ok {
				return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, "bin.when references unknown or later field "+cond.field)
			}
			cond.index = idx
			f.When = cond
		}

		if cv, ok := tags["bin.validate"]; ok {
			if f.Kind == kindStruct || f.Kind == kindTail {
				return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, "bin.validate requires an integer field")
			}
			cons, err := parseConstraint(cv)
			if err != nil {
				return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, err.Error())
			}
			f.Validate = cons
		}

		if kv, ok := tags["bin.checksum"]; ok {
			if f.Kind != kindUint || f.Size != 2 {
				return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, "checksum fields must be uint16")
			}
			if f.When != nil {
				return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, "checksum fields cannot be conditional")
			}
			if s.checksum >= 0 {
				return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, "multiple checksum fields")
			}
			switch kv {
			case "internet":
				f.Checksum = checksumPacket
			case "internet-header":
				f.Checksum = checksumHeader
			default:
				return nil, newSchemaError(ErrInvalidTag, s.typeName, fm.Name, "unknown checksum kind "+kv)
			}
			s.checksum = len(s.fields)
		}

		switch f.Kind {
		case kindTail:
			s.hasTail = true
		case kindStruct:
			s.fixedSize += f.Size
			if f.When == nil {
				s.minSize += f.Nested.minSize
			}
		default:
			s.fixedSize += f.Size
			if f.When == nil {
				s.minSize += f.Size
			}
		}

		s.fields = append(s.fields, f)
	}

	if pendingBits != 0 {
		return nil, newSchemaError(ErrAmbiguousLayout, s.typeName, pending[0].Name, "bit group does not close on a byte boundary")
	}
	return s, nil
}

// nestedSchema derives the schema of a nested structure type, detecting
// reference cycles along the derivation chain. Nested structures must be
// fully fixed-length; a nested tail would make the parent layout ambiguous.
func nestedSchema(rt reflect.Type, visiting map[reflect.Type]bool) (*Schema, error) {
	if visiting[rt] {
		return nil, newSchemaError(ErrSchemaCycle, rt.Name(), "", "")
	}
	meta, ok := scanType(rt)
	if !ok {
		return nil, newSchemaError(ErrUnsupportedField, rt.String(), "", "not a struct type")
	}
	visiting[rt] = true
	nested, err := buildSchema(rt, meta, visiting)
	delete(visiting, rt)
	if err != nil {
		return nil, err
	}
	if nested.hasTail {
		return nil, newSchemaError(ErrAmbiguousLayout, rt.Name(), "", "nested structure has a variable-length tail")
	}
	return nested, nil
}

// scanType scans a nested struct type and returns its metadata.
func scanType(rt reflect.Type) (sentinel.Metadata, bool) {
	if meta, ok := sentinel.Lookup(rt.String()); ok {
		return meta, true
	}
	if rt.Kind() != reflect.Struct {
		return sentinel.Metadata{}, false
	}

	meta := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        parseBinTags(sf.Tag),
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		meta.Fields = append(meta.Fields, fm)
	}

	return meta, true
}

// parseBinTags extracts bin tags from a struct tag.
func parseBinTags(tag reflect.StructTag) map[string]string {
	tags := make(map[string]string)
	for _, key := range binTagKeys {
		if val, ok := tag.Lookup(key); ok {
			tags[key] = val
		}
	}
	return tags
}

// lookupUint finds the access path of an earlier unsigned field by name,
// searching both plain fields and bit group members.
func (s *Schema) lookupUint(name string) ([]int, bool) {
	for i := range s.fields {
		f := &s.fields[i]
		if f.Kind == kindBits {
			for j := range f.Group {
				if f.Group[j].Name == name {
					return f.Group[j].Index, true
				}
			}
			continue
		}
		if f.Name == name && f.Kind == kindUint {
			return f.Index, true
		}
	}
	return nil, false
}

// parseWhen parses a presence predicate: "Field", "Field=N" or "Field!=N".
func parseWhen(v string) (*condition, error) {
	if i := strings.Index(v, "!="); i > 0 {
		n, err := strconv.ParseUint(v[i+2:], 10, 64)
		if err != nil {
			return nil, ErrInvalidTag
		}
		return &condition{field: v[:i], op: '!', operand: n}, nil
	}
	if i := strings.IndexByte(v, '='); i > 0 {
		n, err := strconv.ParseUint(v[i+1:], 10, 64)
		if err != nil {
			return nil, ErrInvalidTag
		}
		return &condition{field: v[:i], op: '=', operand: n}, nil
	}
	if v == "" {
		return nil, ErrInvalidTag
	}
	return &condition{field: v}, nil
}

// holds evaluates the predicate against an instance of the owning structure.
// During decode the referenced field precedes the conditional one, so its
// value is already populated.
func (c *condition) holds(instance reflect.Value) bool {
	v := instance.FieldByIndex(c.index).Uint()
	switch c.op {
	case '=':
		return v == c.operand
	case '!':
		return v != c.operand
	default:
		return v != 0
	}
}

// parseConstraint parses "eq=V" or a "min=A,max=B" list.
func parseConstraint(v string) (*constraint, error) {
	c := &constraint{raw: v}
	for _, part := range strings.Split(v, ",") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, ErrInvalidTag
		}
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return nil, ErrInvalidTag
		}
		switch key {
		case "min":
			c.hasMin = true
			c.min = n
		case "max":
			c.hasMax = true
			c.max = n
		case "eq":
			c.hasEq = true
			c.eq = n
		default:
			return nil, ErrInvalidTag
		}
	}
	return c, nil
}

// firstMissing names the first unconditional field that does not fully fit
// in a buffer of n bytes. Used for truncation error reporting.
func (s *Schema) firstMissing(n int) string {
	off := 0
	for i := range s.fields {
		f := &s.fields[i]
		if f.When != nil || f.Kind == kindTail {
			continue
		}
		width := f.Size
		if f.Kind == kindStruct {
			width = f.Nested.minSize
		}
		if off+width > n {
			return f.Name
		}
		off += width
	}
	return ""
}
