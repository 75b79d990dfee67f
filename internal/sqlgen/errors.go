package sqlgen

import "errors"

// ErrAbstractEntity is returned when an abstract entity is used as a root.
var ErrAbstractEntity = errors.New("autoload: abstract entity cannot be queried")

// ErrUnknownEntity is returned when the root entity is not part of the graph.
var ErrUnknownEntity = errors.New("autoload: entity not in schema graph")

// ErrMissingSelfKey is returned when a self-referential edge is loaded without a self_key.
var ErrMissingSelfKey = errors.New("autoload: self_key should be set for self join")

// ErrUnknownColumn is returned when an order_by column does not exist on the target.
var ErrUnknownColumn = errors.New("autoload: unknown column")
