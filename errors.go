package autoload

import (
	"errors"

	"github.com/pthm/autoload/internal/resolve"
	"github.com/pthm/autoload/internal/sqlgen"
)

// Sentinel errors returned by Select and the introspection helpers.
//
// Use the Is*Err helper functions to check for specific errors.
var (
	// ErrUnknownRelationship is wrapped when a dotted load path names a key
	// that is not an edge of the entity reached so far. The concrete error is
	// an *UnknownRelationshipError.
	ErrUnknownRelationship = resolve.ErrUnknownRelationship

	// ErrAbstractEntity is returned when an abstract entity is used as a root.
	ErrAbstractEntity = sqlgen.ErrAbstractEntity

	// ErrUnknownEntity is returned when the root entity is not part of the
	// Autoloader's graph.
	ErrUnknownEntity = sqlgen.ErrUnknownEntity

	// ErrMissingSelfKey is returned when a self-referential relationship is
	// loaded without WithSelfKey.
	ErrMissingSelfKey = sqlgen.ErrMissingSelfKey

	// ErrUnknownColumn is returned for an order-by or self key column the
	// target entity does not have.
	ErrUnknownColumn = sqlgen.ErrUnknownColumn

	// ErrBadColumnRef is returned by ResolveCol for a reference without a dot.
	ErrBadColumnRef = errors.New("autoload: Expected 'alias.column' format")

	// ErrAliasNotFound is returned by ResolveCol when no lateral or table in
	// the query has the alias.
	ErrAliasNotFound = errors.New("autoload: alias not found")

	// ErrColumnNotFound is returned by ResolveCol when the alias exists but
	// does not expose the column.
	ErrColumnNotFound = errors.New("autoload: column not found")
)

// UnknownRelationshipError names the dotted segment that failed to resolve.
type UnknownRelationshipError = resolve.UnknownRelationshipError

// IsUnknownRelationshipErr returns true if err is or wraps ErrUnknownRelationship.
func IsUnknownRelationshipErr(err error) bool {
	return errors.Is(err, ErrUnknownRelationship)
}

// IsAbstractEntityErr returns true if err is or wraps ErrAbstractEntity.
func IsAbstractEntityErr(err error) bool {
	return errors.Is(err, ErrAbstractEntity)
}

// IsUnknownEntityErr returns true if err is or wraps ErrUnknownEntity.
func IsUnknownEntityErr(err error) bool {
	return errors.Is(err, ErrUnknownEntity)
}

// IsMissingSelfKeyErr returns true if err is or wraps ErrMissingSelfKey.
func IsMissingSelfKeyErr(err error) bool {
	return errors.Is(err, ErrMissingSelfKey)
}

// IsUnknownColumnErr returns true if err is or wraps ErrUnknownColumn.
func IsUnknownColumnErr(err error) bool {
	return errors.Is(err, ErrUnknownColumn)
}
