package stream

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/roach88/scorestream/internal/plan"
)

// Factory creates streams and turns finished constraints into plan rules.
//
// A Factory is not safe for concurrent use while constraints are being
// built. The rules it returns are immutable and can be shared freely.
type Factory struct {
	vars           plan.VariableFactory
	defaultPackage string
	nullity        map[reflect.Type]func(any) bool
}

// Option configures a Factory.
type Option func(*Factory)

// WithVariableFactory sets where variables come from. Runtimes that need
// their own variable handles supply one here.
func WithVariableFactory(vf plan.VariableFactory) Option {
	return func(f *Factory) {
		f.vars = vf
	}
}

// WithDefaultPackage sets the package of constraints finished with
// AsConstraint.
func WithDefaultPackage(pkg string) Option {
	return func(f *Factory) {
		f.defaultPackage = pkg
	}
}

// NewFactory creates a factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		vars:           plan.NewVariableFactory(),
		defaultPackage: DefaultPackage,
		nullity:        make(map[reflect.Type]func(any) bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultPackage is the constraint package used when none is configured.
const DefaultPackage = "constraints"

// RegisterNullityFilter makes ForEach and IfExists skip facts of type A for
// which keep returns false, such as entities not yet assigned by the
// solver. The IncludingUnassigned variants ignore the filter.
func RegisterNullityFilter[A any](f *Factory, keep func(A) bool) {
	if keep == nil {
		delete(f.nullity, plan.TypeOf[A]())
		return
	}
	f.nullity[plan.TypeOf[A]()] = func(fact any) bool {
		a, ok := fact.(A)
		return ok && keep(a)
	}
}

func (f *Factory) newVariable(name string, typ reflect.Type) *plan.Variable {
	return f.vars.NewVariable(name, typ)
}

func (f *Factory) source(typ reflect.Type, includeUnassigned bool) plan.FactSource {
	src := plan.FactSource{Type: typ}
	if !includeUnassigned {
		src.Filter = f.nullity[typ]
	}
	return src
}

// variableName derives a readable variable name from a type, for example
// "person" for *demo.Person.
func variableName(typ reflect.Type) string {
	for typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Slice {
		typ = typ.Elem()
	}
	name := typ.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "value"
	}
	r := []rune(name)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
