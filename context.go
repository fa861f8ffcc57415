package prefetch

import (
	"github.com/jinzhu/gorm"
)

//Context owns a gorm connection and tracks every entity loaded through it.
//Entities are deduplicated by primary key, so a row materialized by a
//prefetch and loaded again by a source query resolves to a single struct, and
//relationships between entities loaded by independent queries can be
//connected without further round trips.
type Context struct {
	db      *gorm.DB
	tracker *tracker
}

var _ Resolver = (*Context)(nil)

//NewContext wraps a gorm connection in a tracking Context.
func NewContext(db *gorm.DB) *Context {
	return &Context{db: db, tracker: newTracker()}
}

//Query starts a pending query over the model type of example. The query does
//not run until Find is called.
func (c *Context) Query(example interface{}) *Query {
	return &Query{owner: c, example: example, db: c.db.Model(example)}
}

//RelatedSet returns a materializable Set scoped to the model type of example.
//Entities the Set loads are recorded in this Context.
func (c *Context) RelatedSet(example interface{}) (Set, error) {
	return objectSet{db: c.db.New(), track: c.tracker.set(example)}, nil
}
