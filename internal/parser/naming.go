package parser

import (
	"fmt"
	"strings"
)

// Kind tags how a function-like construct is named.
type Kind int

const (
	// Plain is a declared or assigned function name.
	Plain Kind = iota
	// Anonymous is a function with no name to recover.
	Anonymous
	// TopLevel is the whole-file scope.
	TopLevel
	// Method is a class or object literal method.
	Method
	// Getter is a get accessor.
	Getter
	// Setter is a set accessor.
	Setter
	// Computed is a member whose name is an expression. Text holds the
	// expression's literal text when it has one.
	Computed
)

var kindNames = map[string]Kind{
	"plain":     Plain,
	"anonymous": Anonymous,
	"top-level": TopLevel,
	"method":    Method,
	"getter":    Getter,
	"setter":    Setter,
	"computed":  Computed,
}

// ParseKind maps a wire kind such as "getter" to its Kind. An empty string
// is Plain.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return Plain, nil
	}
	k, ok := kindNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown name kind %q", s)
	}
	return k, nil
}

// Well-known names produced for unnamed scopes.
const (
	TopLevelName  = "<top-level>"
	AnonymousName = "<anonymous>"
	ObjectName    = "<Object>"
)

// Name describes a function name as a kind, a base text and the chain of
// enclosing class or object literal names, outermost first. Producers build
// a Name and use String for the descriptor name.
type Name struct {
	Kind   Kind
	Text   string
	Prefix []string
}

// String composes the name, e.g. "Outer.Inner.get value".
func (n Name) String() string {
	base := n.base()
	if len(n.Prefix) == 0 {
		return base
	}
	prefix := strings.Join(n.Prefix, ".")
	if base == "" {
		return prefix
	}
	return prefix + "." + base
}

// Within returns n nested in one more enclosing scope.
func (n Name) Within(scope string) Name {
	prefix := make([]string, 0, len(n.Prefix)+1)
	prefix = append(prefix, scope)
	prefix = append(prefix, n.Prefix...)
	n.Prefix = prefix
	return n
}

func (n Name) base() string {
	switch n.Kind {
	case TopLevel:
		return TopLevelName
	case Anonymous:
		return AnonymousName
	case Getter:
		return "get " + n.Text
	case Setter:
		return "set " + n.Text
	case Computed:
		if n.Text == "" {
			return "<computed>"
		}
		return "<computed: " + n.Text + ">"
	}
	return n.Text
}
