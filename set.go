package prefetch

import (
	"context"
	"reflect"

	"github.com/jinzhu/gorm"
)

//Set is a queryable collection scoped to one entity type. Loading a Set pulls
//every matching row into the owning Context, where it can be connected to
//other loaded entities by key.
type Set interface {
	//Where narrows the set with a gorm style condition.
	Where(query interface{}, args ...interface{}) Set
	//Order sorts the set. The order entities load in is the order collection
	//relationships are filled in.
	Order(value interface{}) Set
	//Load forces materialization of the set.
	Load(ctx context.Context) error
}

//Resolver supplies a materializable Set for a given model type. Context is
//the gorm backed implementation; other data access layers can provide their
//own.
type Resolver interface {
	RelatedSet(example interface{}) (Set, error)
}

//objectSet is the gorm backed Set implementation
type objectSet struct {
	db    *gorm.DB
	track *typeSet
}

func (o objectSet) Where(query interface{}, args ...interface{}) Set {
	return objectSet{db: o.db.Where(query, args...), track: o.track}
}

func (o objectSet) Order(value interface{}) Set {
	return objectSet{db: o.db.Order(value), track: o.track}
}

//Load runs the set's query and records every row in the owning Context.
//Errors from gorm are returned as is.
func (o objectSet) Load(ctx context.Context) error {
	out := reflect.New(reflect.SliceOf(reflect.PtrTo(o.track.itemType)))
	if db := o.db.Find(out.Interface()); db.Error != nil {
		return db.Error
	}

	slice := out.Elem()
	items := make([]interface{}, 0, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		items = append(items, slice.Index(i).Interface())
	}
	o.track.add(items...)
	return nil
}
