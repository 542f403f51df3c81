package types

import (
	"reflect"

	"github.com/google/uuid"
)

// Identity is implemented by everything that is globally addressable, i.e. entities
// and catalogs. Two identities are the same iff their global ids are equal.
type Identity interface {
	GlobalID() uuid.UUID
}

func SameIdentity(a, b Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.GlobalID() == b.GlobalID()
}

// IsNil reports whether id is nil, including a nil pointer held by the interface
func IsNil(id Identity) bool {
	if id == nil {
		return true
	}
	v := reflect.ValueOf(id)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
