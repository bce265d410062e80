package binpack

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for codec events.
var (
	SignalSchemaDerived  = capitan.NewSignal("binpack.schema.derived", "Schema derived for a structure type")
	SignalEncodeStart    = capitan.NewSignal("binpack.encode.start", "Encode operation beginning")
	SignalEncodeComplete = capitan.NewSignal("binpack.encode.complete", "Encode operation finished")
	SignalDecodeStart    = capitan.NewSignal("binpack.decode.start", "Decode operation beginning")
	SignalDecodeComplete = capitan.NewSignal("binpack.decode.complete", "Decode operation finished")
	SignalRateLimited    = capitan.NewSignal("binpack.ratelimit.rejected", "Operation rejected by a rate limiter")
)

// Keys for typed event data.
var (
	KeyTypeName   = capitan.NewStringKey("type_name")
	KeySize       = capitan.NewIntKey("size")
	KeyFieldCount = capitan.NewIntKey("field_count")
	KeyFixedSize  = capitan.NewIntKey("fixed_size")
	KeyDuration   = capitan.NewDurationKey("duration")
	KeyError      = capitan.NewErrorKey("error")
	KeyOperation  = capitan.NewStringKey("operation")
	KeyLimit      = capitan.NewIntKey("limit")
	KeyWindow     = capitan.NewDurationKey("window")
)

// emitSchemaDerived emits an event when a schema is derived and cached.
func emitSchemaDerived(typeName string, fieldCount, fixedSize int) {
	capitan.Emit(context.Background(), SignalSchemaDerived,
		KeyTypeName.Field(typeName),
		KeyFieldCount.Field(fieldCount),
		KeyFixedSize.Field(fixedSize),
	)
}

// emitEncodeStart emits an event when an encode begins.
func emitEncodeStart(typeName string) {
	capitan.Emit(context.Background(), SignalEncodeStart,
		KeyTypeName.Field(typeName),
	)
}

// emitEncodeComplete emits an event when an encode finishes.
func emitEncodeComplete(typeName string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(context.Background(), SignalEncodeComplete, fields...)
	} else {
		capitan.Emit(context.Background(), SignalEncodeComplete, fields...)
	}
}

// emitDecodeStart emits an event when a decode begins.
func emitDecodeStart(typeName string, size int) {
	capitan.Emit(context.Background(), SignalDecodeStart,
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
	)
}

// emitDecodeComplete emits an event when a decode finishes.
func emitDecodeComplete(typeName string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(context.Background(), SignalDecodeComplete, fields...)
	} else {
		capitan.Emit(context.Background(), SignalDecodeComplete, fields...)
	}
}

// emitRateLimited emits an event when a limiter rejects an operation.
func emitRateLimited(operation string, limit int, window time.Duration) {
	capitan.Emit(context.Background(), SignalRateLimited,
		KeyOperation.Field(operation),
		KeyLimit.Field(limit),
		KeyWindow.Field(window),
	)
}
