package collcache

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
)

// idSource holds the identifier sources a request configured. At most one
// of selector, property and literal may be set (checked in Build).
type idSource[T any] struct {
	selector   func(T) string
	property   string
	literal    string
	hasLiteral bool
}

func (s idSource[T]) configured() int {
	n := 0
	if s.selector != nil {
		n++
	}
	if s.property != "" {
		n++
	}
	if s.hasLiteral {
		n++
	}
	return n
}

// resolveSingle resolves the identifier of the record a single-record
// request targets. A literal identifier needs no record.
func (c *Collection[T]) resolveSingle(r Request[T]) (string, error) {
	if r.id.hasLiteral {
		if r.id.literal == "" {
			return "", errors.Wrap(ErrIdentifierNotSet, "empty literal identifier")
		}
		return r.id.literal, nil
	}
	if !r.hasItem {
		return "", errors.Wrapf(ErrItemNotSet, "%s needs a record to resolve its identifier", r.op)
	}
	return c.resolveRecord(r.id, r.item)
}

// resolveRecord derives the identifier of rec. Precedence: request
// selector, request property, collection IDFunc, Identifiable. A literal is
// never applied to individual records (it would name every record the same).
func (c *Collection[T]) resolveRecord(s idSource[T], rec T) (string, error) {
	var id string
	switch {
	case s.selector != nil:
		id = s.selector(rec)
	case s.property != "":
		v, ok := propertyValue(rec, s.property)
		if !ok {
			return "", errors.Wrapf(ErrIdentifierNotSet, "record type %T has no exported property %q", rec, s.property)
		}
		id = v
	case c.idFunc != nil:
		id = c.idFunc(rec)
	default:
		ident, ok := any(rec).(Identifiable)
		if !ok {
			return "", errors.Wrapf(ErrIdentifierNotSet, "record type %T", rec)
		}
		id = ident.Identifier()
	}
	if id == "" {
		return "", errors.Wrapf(ErrIdentifierNotSet, "record %T resolved an empty identifier", rec)
	}
	return id, nil
}

// propertyValue reads an exported struct field by Go name or json tag name
// and formats it as a string. Pointers are followed; a nil pointer or a nil
// field yields "".
func propertyValue(v any, name string) (string, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", false
	}

	rt := rv.Type()
	idx := -1
	if sf, ok := rt.FieldByName(name); ok && sf.IsExported() && len(sf.Index) == 1 {
		idx = sf.Index[0]
	} else {
		for i := 0; i < rt.NumField(); i++ {
			sf := rt.Field(i)
			tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
			if sf.IsExported() && tag == name {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return "", false
	}

	f := rv.Field(idx)
	for f.Kind() == reflect.Pointer || f.Kind() == reflect.Interface {
		if f.IsNil() {
			return "", true
		}
		f = f.Elem()
	}
	if s, ok := f.Interface().(fmt.Stringer); ok {
		return s.String(), true
	}
	return fmt.Sprint(f.Interface()), true
}
