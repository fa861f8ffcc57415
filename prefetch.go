package prefetch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

var (
	//ErrMissingArgument is returned when a required argument is not provided.
	ErrMissingArgument = errors.New("missing argument")

	//ErrCollectionPath is returned when a single valued prefetch is given a
	//path that selects a collection. Use Many for collection paths.
	ErrCollectionPath = errors.New("path selects a collection")
)

//Scope narrows a Set before it is loaded. The result replaces the set, so
//only entities surviving the scope are materialized.
type Scope func(Set) Set

//One eagerly loads the single valued relationship named by path as a side
//effect and returns q untouched. The related set is materialized through the
//query's owning Context, so navigation from entities the query later loads
//resolves in memory.
//path must not select a collection valued relationship, use Many for those.
func One(ctx context.Context, q *Query, path string) (*Query, error) {
	if err := validate(q, path); err != nil {
		return q, err
	}
	return q, q.load(ctx, path, nil, true)
}

//OneScoped is One with a scope applied to the related set before it loads.
func OneScoped(ctx context.Context, q *Query, path string, scope Scope) (*Query, error) {
	if err := validate(q, path); err != nil {
		return q, err
	}
	if scope == nil {
		return q, fmt.Errorf("scope is required: %w", ErrMissingArgument)
	}
	return q, q.load(ctx, path, scope, true)
}

//Many eagerly loads the collection valued relationship named by path as a
//side effect and returns q untouched. No shape check is performed on path.
func Many(ctx context.Context, q *Query, path string) (*Query, error) {
	if err := validate(q, path); err != nil {
		return q, err
	}
	return q, q.load(ctx, path, nil, false)
}

//ManyScoped is Many with a scope applied to the related set before it loads.
func ManyScoped(ctx context.Context, q *Query, path string, scope Scope) (*Query, error) {
	if err := validate(q, path); err != nil {
		return q, err
	}
	if scope == nil {
		return q, fmt.Errorf("scope is required: %w", ErrMissingArgument)
	}
	return q, q.load(ctx, path, scope, false)
}

//validate checks the arguments shared by every entry point. The source query
//is checked before anything else.
func validate(q *Query, path string) error {
	if q == nil {
		return fmt.Errorf("source query is required: %w", ErrMissingArgument)
	}
	if path == "" {
		return fmt.Errorf("path is required: %w", ErrMissingArgument)
	}
	return nil
}

//load resolves the related set behind path, narrows it with scope when one is
//given and forces materialization. The source query itself never runs. Errors
//from the materialization are returned as is.
func (q *Query) load(ctx context.Context, path string, scope Scope, single bool) error {
	field, ok := q.relationship(path)
	if !ok {
		return fmt.Errorf("%s has no relationship %q", q.modelType(), path)
	}
	if single && isCollection(field.Struct.Type) {
		return fmt.Errorf("%s.%s: %w", q.modelType(), path, ErrCollectionPath)
	}

	set, err := q.owner.RelatedSet(reflect.New(baseType(field.Struct.Type)).Interface())
	if err != nil {
		return err
	}

	if scope != nil {
		if set = scope(set); set == nil {
			return fmt.Errorf("scope for %q returned a nil set", path)
		}
	}

	return set.Load(ctx)
}
