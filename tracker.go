package prefetch

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"

	"github.com/jinzhu/gorm"
)

//tracker is the identity map behind a Context. Every entity loaded through
//the Context is recorded here once per primary key, grouped by model type.
type tracker struct {
	byType map[reflect.Type]*typeSet
	order  []*typeSet
}

func newTracker() *tracker {
	return &tracker{byType: make(map[reflect.Type]*typeSet)}
}

//set returns the typeSet tracking the model type of example, creating it on
//first use.
func (t *tracker) set(example interface{}) *typeSet {
	modelType := baseType(reflect.TypeOf(example))
	if s, ok := t.byType[modelType]; ok {
		return s
	}
	s := newTypeSet(example)
	t.byType[modelType] = s
	t.order = append(t.order, s)
	return s
}

//connect fills every relationship that can be satisfied from tracked
//entities, across all tracked types.
func (t *tracker) connect() error {
	items := make(map[reflect.Type][]interface{}, len(t.order))
	for _, s := range t.order {
		items[s.itemType] = s.items
	}

	for _, s := range t.order {
		if err := s.connect(items); err != nil {
			return err
		}
	}
	return nil
}

//typeSet tracks loaded entities of a single model type
type typeSet struct {
	//itemType is the reflected type held by the typeSet
	itemType reflect.Type
	//ms is the gorm.ModelStruct of the type being tracked
	ms *gorm.ModelStruct

	//keyFields holds all fields that represent the primary key of the model
	keyFields []*gorm.StructField
	//relationships holds all relationships that can be connected on the model
	relationships []*gorm.StructField

	//items hold a flat list in order received of the structs tracked
	items []interface{}
	//byKey maps primary key strings to the canonical tracked instance
	byKey map[string]interface{}
}

//newTypeSet will instantiate a typeSet with metadata loaded
func newTypeSet(example interface{}) *typeSet {
	var ret typeSet

	s := &gorm.Scope{Value: example}
	//get the gorm model struct so we can leverage gorm for key and relationship information
	ms := s.GetModelStruct()

	for _, f := range ms.StructFields {
		if f.Relationship != nil {
			//track all relationships so we can connect them later
			ret.relationships = append(ret.relationships, f)
		}

		if f.IsNormal && f.IsPrimaryKey {
			//track primary keys so we can deduplicate entities across queries
			ret.keyFields = append(ret.keyFields, f)
		}
	}

	ret.itemType = ms.ModelType
	ret.ms = ms
	ret.byKey = make(map[string]interface{})

	return &ret
}

//add records entities, deduplicating by primary key. in must hold pointers to
//the tracked type. The returned slice holds the canonical tracked instance
//for each input, so a row loaded twice resolves to a single struct. Entities
//with a nil primary key field are dropped.
func (s *typeSet) add(in ...interface{}) []interface{} {
	ret := make([]interface{}, 0, len(in))
	for _, item := range in {
		key, ok := s.identityKey(reflect.ValueOf(item).Elem())
		if !ok {
			continue
		}

		if existing, ok := s.byKey[key]; ok {
			ret = append(ret, existing)
			continue
		}

		s.items = append(s.items, item)
		s.byKey[key] = item
		ret = append(ret, item)
	}
	return ret
}

//identityKey builds the primary key string for an entity value. ok is false
//when a primary key field is a nil pointer.
func (s *typeSet) identityKey(itemVal reflect.Value) (key string, ok bool) {
	var keyVal strings.Builder
	for _, f := range s.keyFields {
		val := itemVal.FieldByName(f.Name)
		for val.Kind() == reflect.Ptr {
			if val.IsNil() {
				return "", false
			}
			val = val.Elem()
		}
		keyVal.WriteString(fmt.Sprintf("[%s:%v]", f.Name, val.Interface()))
	}
	return keyVal.String(), true
}

//connect fills relationships on all tracked items from the given per type
//item lists
func (s *typeSet) connect(items map[reflect.Type][]interface{}) error {
	for _, f := range s.relationships {
		related, ok := items[baseType(f.Struct.Type)]
		if !ok {
			//this relationship's type isn't tracked
			continue
		}

		lookup := make(map[string][]reflect.Value)

		//construct a map with possibilities of this relationship
		for _, n := range related {
			itemVal := reflect.ValueOf(n).Elem()
			key, err := relationKey(itemVal, f.Relationship.ForeignFieldNames)
			if err != nil {
				return err
			}
			lookup[key] = append(lookup[key], itemVal.Addr())
		}

		//go through all items we're tracking and fill in this relationship
		for _, item := range s.items {
			itemVal := reflect.ValueOf(item).Elem()
			relVal := itemVal.FieldByName(f.Name)

			key, err := relationKey(itemVal, f.Relationship.AssociationForeignFieldNames)
			if err != nil {
				return err
			}

			matches := lookup[key]
			if relVal.Kind() == reflect.Slice {
				//collections are rebuilt from scratch so repeated loads don't append duplicates
				relVal.Set(reflect.MakeSlice(relVal.Type(), 0, len(matches)))
				for _, match := range matches {
					if relVal.Type().Elem().Kind() != reflect.Ptr {
						//we have a slice of structs so add the struct we're pointing to
						match = match.Elem()
					}
					relVal.Set(reflect.Append(relVal, match))
				}
				continue
			}

			//we don't have a slice so set the item to the first match and move on
			for _, match := range matches {
				if relVal.Kind() != reflect.Ptr {
					match = match.Elem()
				}
				relVal.Set(match)
				break
			}
		}
	}

	return nil
}

//relationKey builds a lookup key from the named fields of an entity value.
//Pointers are unwrapped and driver.Valuer fields compare by their database
//value, so a uint key matches a sql.NullInt64 foreign key.
func relationKey(itemVal reflect.Value, names []string) (string, error) {
	var sb strings.Builder
	for i, name := range names {
		val := itemVal.FieldByName(name)
		if val.Kind() == reflect.Ptr && !val.IsNil() {
			val = val.Elem()
		}

		keyValue := val.Interface()
		if valuer, ok := keyValue.(driver.Valuer); ok {
			var err error
			keyValue, err = valuer.Value()
			if err != nil {
				return "", err
			}
		}
		sb.WriteString(fmt.Sprintf("[%d:%v]", i, keyValue))
	}
	return sb.String(), nil
}

//isCollection reports whether a relationship field holds many entities
func isCollection(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	k := t.Kind()
	return k == reflect.Slice || k == reflect.Array
}

//baseType will return the fully unwrapped type of slice
func baseType(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.Array, reflect.Ptr, reflect.Slice:
		return baseType(t.Elem())
	}
	return t
}
