package prefetch

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jinzhu/gorm"
)

//Query is a pending query over one model type, bound to the Context that
//created it. The prefetch helpers return the Query they are given untouched,
//so callers keep chaining on the same handle.
type Query struct {
	owner   *Context
	example interface{}
	db      *gorm.DB
}

//Where adds a gorm style condition to the pending query.
func (q *Query) Where(query interface{}, args ...interface{}) *Query {
	q.db = q.db.Where(query, args...)
	return q
}

//Order adds a gorm style ordering to the pending query.
func (q *Query) Order(value interface{}) *Query {
	q.db = q.db.Order(value)
	return q
}

//Find will run the query, record the loaded entities in the owning Context,
//connect every relationship that can be satisfied from tracked entities and
//put results in any outputs provided. Each output must be a pointer to a
//value of the query's model type that can be set.
//If a slice is provided it will fill with all results. If a single item is
//passed the first item will be returned. However no limiting will be done to
//the query.
func (q *Query) Find(ctx context.Context, output ...interface{}) error {
	set := q.owner.tracker.set(q.example)

	out := reflect.New(reflect.SliceOf(reflect.PtrTo(set.itemType)))
	if db := q.db.Find(out.Interface()); db.Error != nil {
		return db.Error
	}

	slice := out.Elem()
	loaded := make([]interface{}, 0, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		loaded = append(loaded, slice.Index(i).Interface())
	}
	items := set.add(loaded...)

	if err := q.owner.tracker.connect(); err != nil {
		return err
	}

	return fillOutput(set.itemType, items, output)
}

//relationship returns the relationship field named by path on the query's
//model type.
func (q *Query) relationship(path string) (*gorm.StructField, bool) {
	for _, f := range q.owner.tracker.set(q.example).relationships {
		if f.Name == path {
			return f, true
		}
	}
	return nil, false
}

//modelType returns the reflected model type of the query
func (q *Query) modelType() reflect.Type {
	return q.owner.tracker.set(q.example).itemType
}

//fillOutput will copy items into the given outputs
func fillOutput(itemType reflect.Type, items []interface{}, output []interface{}) error {
	for _, o := range output {
		val := reflect.ValueOf(o)

		if val.Kind() != reflect.Ptr || val.IsNil() || !val.Elem().CanSet() {
			return fmt.Errorf("output %T can not be set", o)
		}

		if baseType(val.Type()) != itemType {
			return fmt.Errorf("output %s does not match model type %s", val.Type(), itemType)
		}

		el := val.Elem()
		if el.Kind() == reflect.Slice {
			var addStruct bool
			if el.Type().Elem().Kind() != reflect.Ptr {
				//if the output expects a slice of structs not pointers, unwrap items as we add them
				addStruct = true
			}

			for _, i := range items {
				add := reflect.ValueOf(i)
				if addStruct {
					//unwrap pointer
					add = add.Elem()
				}

				el.Set(reflect.Append(el, add))
			}
			continue
		}

		if len(items) > 0 {
			add := reflect.ValueOf(items[0])
			if el.Kind() != reflect.Ptr {
				add = add.Elem()
			}
			el.Set(add)
		}
	}

	return nil
}
