package schema

import "errors"

// ErrInvalidSchema wraps every schema validation failure.
var ErrInvalidSchema = errors.New("autoload/schema: invalid schema")

// ErrDuplicateRelationship is returned when an entity declares the same key twice.
var ErrDuplicateRelationship = errors.New("autoload/schema: duplicate relationship")

// ErrUnknownTarget is returned when a relationship targets an unregistered entity.
var ErrUnknownTarget = errors.New("autoload/schema: unknown relationship target")

// ErrUnknownColumn is returned when a join references a column the entity does not map.
var ErrUnknownColumn = errors.New("autoload/schema: unknown column")

// IsInvalidSchemaErr returns true if err is or wraps ErrInvalidSchema.
func IsInvalidSchemaErr(err error) bool {
	return errors.Is(err, ErrInvalidSchema)
}

// IsUnknownTargetErr returns true if err is or wraps ErrUnknownTarget.
func IsUnknownTargetErr(err error) bool {
	return errors.Is(err, ErrUnknownTarget)
}

// IsUnknownColumnErr returns true if err is or wraps ErrUnknownColumn.
func IsUnknownColumnErr(err error) bool {
	return errors.Is(err, ErrUnknownColumn)
}
