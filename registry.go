package binpack

import (
	"reflect"
	"sync"
)

var (
	registry   = make(map[reflect.Type]*Schema)
	registryMu sync.RWMutex
)

// SchemaFor returns the cached schema for T, deriving it on first use.
// Derivation is a pure function of the type definition; the resulting
// schema is shared by every subsequent Marshal and Unmarshal of T.
func SchemaFor[T any]() (*Schema, error) {
	rt := reflect.TypeFor[T]()

	// Fast path: read-lock cache check
	registryMu.RLock()
	if cached, ok := registry[rt]; ok {
		registryMu.RUnlock()
		return cached, nil
	}
	registryMu.RUnlock()

	// Slow path: build and cache with write-lock
	registryMu.Lock()
	defer registryMu.Unlock()

	// Double-check pattern
	if cached, ok := registry[rt]; ok {
		return cached, nil
	}

	schema, err := schemaOf[T]()
	if err != nil {
		return nil, err
	}

	registry[rt] = schema
	emitSchemaDerived(schema.typeName, len(schema.fields), schema.fixedSize)
	return schema, nil
}

// Reset clears the schema registry.
// This is primarily useful for test isolation.
func Reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[reflect.Type]*Schema)
}
