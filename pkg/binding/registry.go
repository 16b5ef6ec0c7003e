// Package binding declares every function a script can call and registers
// them with the engine.
//
// Each callable carries a Signature. Signatures are validated once when
// they are added to a Registry, and every call is checked against its
// signature before the implementation runs, so a wrong call from a script
// surfaces as an ArgumentError instead of undefined behaviour.
package binding

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"

	"github.com/zurustar/sqhell/pkg/engine"
)

// Kind is the accepted type of a parameter.
type Kind int

const (
	KindAny    Kind = iota // any value, including NULL
	KindText               // TEXT or BLOB
	KindInt                // INTEGER, or a REAL with no fractional part
	KindInt64              // as KindInt, kept as int64
	KindFloat              // REAL or INTEGER
	KindHandle             // session handle
	KindKey                // key code as INTEGER, or the first character of a TEXT
)

var kindNames = [...]string{"any", "text", "int", "int64", "float", "handle", "key"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) valid() bool {
	return k >= KindAny && k <= KindKey
}

// Param is one declared parameter. Optional parameters take Default when
// the script omits them. Nullable parameters also accept NULL, which is
// passed through unconverted.
type Param struct {
	Name     string
	Kind     Kind
	Optional bool
	Nullable bool
	Default  any
}

// P declares a required parameter.
func P(name string, kind Kind) Param {
	return Param{Name: name, Kind: kind}
}

// Nullable declares a required parameter that may be NULL.
func Nullable(name string, kind Kind) Param {
	return Param{Name: name, Kind: kind, Nullable: true}
}

// Opt declares an optional parameter.
func Opt(name string, kind Kind, def any) Param {
	return Param{Name: name, Kind: kind, Optional: true, Default: def}
}

// Signature describes how a function may be called.
type Signature struct {
	Name   string
	Params []Param
	// Rest, if set, accepts any number of trailing arguments of its kind.
	Rest *Param
}

// MinArgs is the number of required parameters.
func (s Signature) MinArgs() int {
	n := 0
	for _, p := range s.Params {
		if !p.Optional {
			n++
		}
	}
	return n
}

// MaxArgs is the largest accepted arity, or -1 for variadic signatures.
func (s Signature) MaxArgs() int {
	if s.Rest != nil {
		return -1
	}
	return len(s.Params)
}

// Arities lists the arities the function is registered under; a variadic
// function is registered once under -1.
func (s Signature) Arities() []int {
	if s.Rest != nil {
		return []int{-1}
	}
	arities := make([]int, 0, len(s.Params)-s.MinArgs()+1)
	for n := s.MinArgs(); n <= len(s.Params); n++ {
		arities = append(arities, n)
	}
	return arities
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the declaration itself.
func (s Signature) Validate() error {
	fail := func(format string, args ...any) error {
		return &SignatureError{Name: s.Name, Reason: fmt.Sprintf(format, args...)}
	}

	if !identifier.MatchString(s.Name) {
		return fail("name must be an identifier")
	}
	if len(s.Params) > engine.MaxFunctionArgs {
		return fail("too many parameters (%d > %d)", len(s.Params), engine.MaxFunctionArgs)
	}

	seen := make(map[string]bool, len(s.Params))
	optional := false
	for i, p := range s.Params {
		if p.Name == "" {
			return fail("parameter %d has no name", i+1)
		}
		if seen[p.Name] {
			return fail("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
		if !p.Kind.valid() {
			return fail("parameter %q has unknown kind %d", p.Name, int(p.Kind))
		}
		if p.Optional {
			optional = true
			if p.Default != nil {
				if _, err := convert(p.Default, p.Kind); err != nil {
					return fail("default of %q does not match kind %s", p.Name, p.Kind)
				}
			}
		} else if optional {
			return fail("required parameter %q follows an optional one", p.Name)
		}
	}

	if s.Rest != nil {
		if optional {
			return fail("optional parameters cannot be combined with a variadic tail")
		}
		if s.Rest.Optional {
			return fail("variadic tail cannot have a default")
		}
		if !s.Rest.Kind.valid() {
			return fail("variadic tail has unknown kind %d", int(s.Rest.Kind))
		}
	}
	return nil
}

// Func implements a callable. Arguments in c have already been checked and
// converted to their declared kinds.
type Func func(c *Call) (any, error)

// Builtin is a declared, implemented callable.
type Builtin struct {
	Signature
	// Deterministic marks pure functions, which lets SQLite fold repeated
	// calls within one statement. Only constants set it.
	Deterministic bool
	Fn            Func
}

// Registrar is the engine side of registration.
type Registrar interface {
	CreateFunction(name string, nargs int, deterministic bool, fn engine.ScalarFunc) error
}

type arityKey struct {
	name  string
	nargs int
}

// Registry collects builtins and installs them on a connection.
type Registry struct {
	builtins []Builtin
	arities  map[arityKey]bool
	log      *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		arities: make(map[arityKey]bool),
		log:     log,
	}
}

// Add validates b and records it. A (name, arity) pair may only be
// declared once.
func (r *Registry) Add(b Builtin) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Fn == nil {
		return &SignatureError{Name: b.Name, Reason: "no implementation"}
	}
	for _, n := range b.Arities() {
		if r.arities[arityKey{b.Name, n}] {
			return &SignatureError{Name: b.Name, Reason: fmt.Sprintf("arity %d already registered", n)}
		}
	}
	for _, n := range b.Arities() {
		r.arities[arityKey{b.Name, n}] = true
	}
	r.builtins = append(r.builtins, b)
	return nil
}

// AddAll adds builtins in order and stops at the first error.
func (r *Registry) AddAll(builtins []Builtin) error {
	for _, b := range builtins {
		if err := r.Add(b); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the builtin registered under name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	for _, b := range r.builtins {
		if b.Name == name {
			return b, true
		}
	}
	return Builtin{}, false
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, len(r.builtins))
	for i, b := range r.builtins {
		names[i] = b.Name
	}
	sort.Strings(names)
	return names
}

// Install registers every builtin once per accepted arity.
func (r *Registry) Install(conn Registrar) error {
	registered := 0
	for _, b := range r.builtins {
		fn := b.scalar()
		for _, n := range b.Arities() {
			if err := conn.CreateFunction(b.Name, n, b.Deterministic, fn); err != nil {
				return fmt.Errorf("register %s/%d: %w", b.Name, n, err)
			}
			registered++
		}
	}
	r.log.Debug("Builtins installed", "functions", len(r.builtins), "registrations", registered)
	return nil
}

// scalar wraps Fn with arity and kind checks.
func (b Builtin) scalar() engine.ScalarFunc {
	return func(args []any) (any, error) {
		call, err := b.bind(args)
		if err != nil {
			return nil, err
		}
		return b.Fn(call)
	}
}

// bind checks raw engine arguments against the signature, fills in
// defaults and converts every value to its declared kind.
func (b Builtin) bind(args []any) (*Call, error) {
	minArgs, maxArgs := b.MinArgs(), b.MaxArgs()
	if len(args) < minArgs || (maxArgs >= 0 && len(args) > maxArgs) {
		return nil, &ArgumentError{Func: b.Name, Index: -1, Arity: len(args), Min: minArgs, Max: maxArgs}
	}

	call := &Call{name: b.Name, args: make([]any, len(b.Params))}
	for i, p := range b.Params {
		if i >= len(args) {
			if p.Default != nil {
				// Validate で変換可能なことは確認済み
				call.args[i], _ = convert(p.Default, p.Kind)
			}
			continue
		}
		if args[i] == nil && p.Nullable {
			continue
		}
		v, err := convert(args[i], p.Kind)
		if err != nil {
			return nil, &ArgumentError{Func: b.Name, Index: i, Param: p.Name, Want: p.Kind, Got: sqlType(args[i])}
		}
		call.args[i] = v
	}

	if b.Rest != nil {
		for i := len(b.Params); i < len(args); i++ {
			v, err := convert(args[i], b.Rest.Kind)
			if err != nil {
				return nil, &ArgumentError{Func: b.Name, Index: i, Param: b.Rest.Name, Want: b.Rest.Kind, Got: sqlType(args[i])}
			}
			call.rest = append(call.rest, v)
		}
	}
	return call, nil
}
