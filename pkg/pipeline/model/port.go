package model

import (
	"fmt"
	"reflect"
)

// Port is a named, typed slot on a stage. Input ports receive values, output
// ports produce them. The Type is checked when ports are bound and again when
// values cross the port at execution time.
type Port struct {
	Name     string
	Type     reflect.Type
	Optional bool
}

// In declares a required input port carrying values of type T.
func In[T any](name string) Port {
	return Port{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// InOptional declares an input port that may be left unbound and unfed.
func InOptional[T any](name string) Port {
	return Port{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem(), Optional: true}
}

// Out declares an output port carrying values of type T.
func Out[T any](name string) Port {
	return Port{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem()}
}

func (p Port) String() string {
	return fmt.Sprintf("%s<%s>", p.Name, p.Type)
}
