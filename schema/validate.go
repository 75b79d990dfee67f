package schema

import (
	"errors"
	"fmt"
)

// Validate checks a set of entities for structural problems and returns every
// problem found, joined. A nil result means NewGraph will accept the entities.
//
// Checks performed:
//   - entity names and tables are non-empty and unique
//   - relationship keys are unique per entity
//   - every relationship target is one of the entities
//   - join columns exist on the source, association and target tables
//   - association edges name their table and carry both join halves
func Validate(entities []*Entity) error {
	var errs []error
	fail := func(sentinel error, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %w: %s", ErrInvalidSchema, sentinel, fmt.Sprintf(format, args...)))
	}

	byName := make(map[string]*Entity, len(entities))
	tables := make(map[string]string, len(entities))
	for _, e := range entities {
		if e == nil {
			fail(ErrInvalidSchema, "nil entity")
			continue
		}
		if e.Name == "" || e.Table == "" {
			fail(ErrInvalidSchema, "entity %q has no name or table", e.Name)
			continue
		}
		if _, dup := byName[e.Name]; dup {
			fail(ErrInvalidSchema, "entity %q declared twice", e.Name)
			continue
		}
		if other, dup := tables[e.Table]; dup {
			fail(ErrInvalidSchema, "table %q mapped by both %s and %s", e.Table, other, e.Name)
			continue
		}
		byName[e.Name] = e
		tables[e.Table] = e.Name
	}

	for _, e := range entities {
		if e == nil || byName[e.Name] != e {
			continue
		}
		keys := make(map[string]bool, len(e.Relationships))
		for _, r := range e.Relationships {
			if r == nil || r.Key == "" {
				fail(ErrInvalidSchema, "%s has a relationship without a key", e.Name)
				continue
			}
			if keys[r.Key] {
				fail(ErrDuplicateRelationship, "%s.%s", e.Name, r.Key)
				continue
			}
			keys[r.Key] = true

			target, ok := byName[r.Target]
			if !ok {
				fail(ErrUnknownTarget, "%s.%s targets %q", e.Name, r.Key, r.Target)
				continue
			}
			if len(r.On) == 0 {
				fail(ErrInvalidSchema, "%s.%s has no join columns", e.Name, r.Key)
				continue
			}
			for _, p := range r.On {
				if !e.HasColumn(p.Local) {
					fail(ErrUnknownColumn, "%s.%s: %s has no column %q", e.Name, r.Key, e.Table, p.Local)
				}
				if r.Association == nil && !target.HasColumn(p.Remote) {
					fail(ErrUnknownColumn, "%s.%s: %s has no column %q", e.Name, r.Key, target.Table, p.Remote)
				}
			}
			if r.Association != nil {
				if r.Association.Table == "" || len(r.Association.On) == 0 {
					fail(ErrInvalidSchema, "%s.%s: association needs a table and join columns", e.Name, r.Key)
					continue
				}
				for _, p := range r.Association.On {
					if !target.HasColumn(p.Remote) {
						fail(ErrUnknownColumn, "%s.%s: %s has no column %q", e.Name, r.Key, target.Table, p.Remote)
					}
				}
			}
			for col := range r.Where {
				if !target.HasColumn(col) {
					fail(ErrUnknownColumn, "%s.%s: discriminator %s.%s", e.Name, r.Key, target.Table, col)
				}
			}
		}
	}

	return errors.Join(errs...)
}
