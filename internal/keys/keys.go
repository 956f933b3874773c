package keys

import (
	"reflect"
	"strings"
)

// Sep separates the collection key from the identifier in item keys.
const Sep = ":"

// Item returns the storage key of one record: <collection>:<id>.
func Item(collection, id string) string {
	return collection + Sep + id
}

// Items maps identifiers to item keys, preserving order.
func Items(collection string, ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = Item(collection, id)
	}
	return out
}

// Collection derives the default collection key from the type name of T.
// Pointer types resolve to their element. When tag is non-empty the key
// becomes <TypeName>@<tag> so that payloads written with different
// compression settings never share a keyspace.
func Collection[T any](tag string) string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	// generic instantiations look like Box[pkg.Item]; keep them key-safe
	name = strings.NewReplacer(" ", "", Sep, "_").Replace(name)
	if tag == "" {
		return name
	}
	return name + "@" + tag
}
