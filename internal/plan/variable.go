package plan

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

// Variable is a typed handle for one value bound during evaluation.
//
// Variables are compared by identity. The ID is unique within the factory
// that created the variable and is used for deterministic rendering.
type Variable struct {
	ID   int64
	Name string
	Type reflect.Type
}

func (v *Variable) String() string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s#%d", v.Name, v.ID)
}

// VariableFactory creates fresh variables.
type VariableFactory interface {
	NewVariable(name string, typ reflect.Type) *Variable
}

// CounterFactory hands out variables with increasing IDs. It is safe for
// concurrent use.
type CounterFactory struct {
	next atomic.Int64
}

// NewVariableFactory returns a factory whose first variable has ID 1.
func NewVariableFactory() *CounterFactory {
	return &CounterFactory{}
}

// NewVariable creates a variable with the next ID.
func (f *CounterFactory) NewVariable(name string, typ reflect.Type) *Variable {
	return &Variable{ID: f.next.Add(1), Name: name, Type: typ}
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
