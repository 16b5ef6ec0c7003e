package binding

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurustar/sqhell/pkg/engine"
	"github.com/zurustar/sqhell/pkg/logger"
	"github.com/zurustar/sqhell/pkg/session"
)

func noop(*Call) (any, error) { return nil, nil }

func TestSignature_Arities(t *testing.T) {
	tests := []struct {
		sig  Signature
		want []int
	}{
		{Signature{Name: "glfwInit"}, []int{0}},
		{Signature{Name: "exit", Params: []Param{Opt("code", KindInt, 0)}}, []int{0, 1}},
		{Signature{Name: "glClearColor", Params: []Param{
			P("r", KindFloat), P("g", KindFloat), P("b", KindFloat), Opt("a", KindFloat, 1.0),
		}}, []int{3, 4}},
		{Signature{Name: "print", Rest: &Param{Name: "values", Kind: KindAny}}, []int{-1}},
	}
	for _, tt := range tests {
		t.Run(tt.sig.Name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sig.Arities())
		})
	}
}

func TestSignature_Validate(t *testing.T) {
	tooMany := make([]Param, engine.MaxFunctionArgs+1)
	for i := range tooMany {
		tooMany[i] = P(fmt.Sprintf("p%d", i), KindInt)
	}

	tests := []struct {
		name string
		sig  Signature
	}{
		{"empty name", Signature{Name: ""}},
		{"not an identifier", Signature{Name: "gl-clear"}},
		{"leading digit", Signature{Name: "1st"}},
		{"required after optional", Signature{Name: "f", Params: []Param{Opt("a", KindInt, 0), P("b", KindInt)}}},
		{"optional with rest", Signature{Name: "f", Params: []Param{Opt("a", KindInt, 0)}, Rest: &Param{Name: "r", Kind: KindAny}}},
		{"duplicate parameter", Signature{Name: "f", Params: []Param{P("a", KindInt), P("a", KindText)}}},
		{"unnamed parameter", Signature{Name: "f", Params: []Param{P("", KindInt)}}},
		{"unknown kind", Signature{Name: "f", Params: []Param{P("a", Kind(42))}}},
		{"default of wrong kind", Signature{Name: "f", Params: []Param{Opt("a", KindInt, "zero")}}},
		{"too many parameters", Signature{Name: "f", Params: tooMany}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sig.Validate()
			var sigErr *SignatureError
			assert.True(t, errors.As(err, &sigErr), "expected SignatureError, got %v", err)
		})
	}

	valid := Signature{Name: "glClearColor", Params: []Param{
		P("r", KindFloat), P("g", KindFloat), P("b", KindFloat), Opt("a", KindFloat, 1.0),
	}}
	assert.NoError(t, valid.Validate())
}

func TestRegistry_Add(t *testing.T) {
	r := NewRegistry(logger.Discard())

	require.NoError(t, r.Add(def("exit", noop, Opt("code", KindInt, 0))))

	// exit/0 は既に登録済み
	err := r.Add(def("exit", noop))
	var sigErr *SignatureError
	require.True(t, errors.As(err, &sigErr))
	assert.Equal(t, "exit", sigErr.Name)

	// 別のアリティなら同名でも登録できる
	assert.NoError(t, r.Add(def("exit", noop, P("a", KindInt), P("b", KindInt))))

	assert.Error(t, r.Add(Builtin{Signature: Signature{Name: "nofn"}}))
	assert.Equal(t, []string{"exit", "exit"}, r.Names())

	_, ok := r.Lookup("exit")
	assert.True(t, ok)
	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestBuiltin_BindArity(t *testing.T) {
	b := def("glClearColor", noop, P("r", KindFloat), P("g", KindFloat), P("b", KindFloat), Opt("a", KindFloat, 1.0))

	for _, args := range [][]any{{}, {1.0, 1.0}, {1.0, 1.0, 1.0, 1.0, 1.0}} {
		_, err := b.bind(args)
		var argErr *ArgumentError
		require.True(t, errors.As(err, &argErr), "args %v", args)
		assert.Equal(t, -1, argErr.Index)
		assert.Equal(t, 3, argErr.Min)
		assert.Equal(t, 4, argErr.Max)
		assert.Contains(t, argErr.Error(), "expected 3 to 4 arguments")
	}

	call, err := b.bind([]any{0.1, int64(0), 0.3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, call.Float(3), "omitted alpha takes its default")
	assert.Equal(t, 0.0, call.Float(1), "integers are accepted as floats")
}

func TestBuiltin_BindKinds(t *testing.T) {
	b := def("f", noop, P("n", KindInt), P("s", KindText), P("h", KindHandle), P("k", KindKey))

	call, err := b.bind([]any{2.0, []byte("blob"), int64(5), "w"})
	require.NoError(t, err)
	assert.Equal(t, 2, call.Int(0))
	assert.Equal(t, "blob", call.Text(1))
	assert.Equal(t, session.Handle(5), call.Handle(2))
	assert.Equal(t, int('W'), call.Key(3))

	tests := []struct {
		args  []any
		index int
		got   string
	}{
		{[]any{2.5, "s", int64(1), int64(1)}, 0, "REAL"},
		{[]any{int64(1), int64(2), int64(1), int64(1)}, 1, "INTEGER"},
		{[]any{int64(1), "s", "h", int64(1)}, 2, "TEXT"},
		{[]any{int64(1), "s", int64(1), ""}, 3, "TEXT"},
		{[]any{int64(1), "s", int64(1), nil}, 3, "NULL"},
		{[]any{math.Ldexp(1, 63), "s", int64(1), int64(1)}, 0, "REAL"},
		{[]any{math.Inf(1), "s", int64(1), int64(1)}, 0, "REAL"},
	}
	for _, tt := range tests {
		_, err := b.bind(tt.args)
		var argErr *ArgumentError
		require.True(t, errors.As(err, &argErr), "args %v", tt.args)
		assert.Equal(t, tt.index, argErr.Index)
		assert.Equal(t, tt.got, argErr.Got)
	}
}

func TestBuiltin_BindIntRange(t *testing.T) {
	b := def("f", noop, P("n", KindInt64))

	call, err := b.bind([]any{-math.Ldexp(1, 63)})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), call.Int64(0))

	// 2^63 は int64 に収まらない
	_, err = b.bind([]any{math.Ldexp(1, 63)})
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

func TestBuiltin_BindNullable(t *testing.T) {
	b := def("f", noop, P("n", KindInt), Nullable("data", KindHandle))

	call, err := b.bind([]any{int64(1), nil})
	require.NoError(t, err)
	assert.True(t, call.IsNull(1))

	call, err = b.bind([]any{int64(1), int64(7)})
	require.NoError(t, err)
	assert.False(t, call.IsNull(1))
	assert.Equal(t, session.Handle(7), call.Handle(1))

	_, err = b.bind([]any{nil, nil})
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, 0, argErr.Index)
}

func TestBuiltin_BindRest(t *testing.T) {
	b := defRest("pushFloats", P("values", KindFloat), noop)

	call, err := b.bind([]any{int64(1), 2.5})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.5}, call.Rest())

	_, err = b.bind([]any{1.0, "x"})
	var argErr *ArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, 1, argErr.Index)
	assert.Equal(t, "values", argErr.Param)
}

func TestFormatText(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{[]byte("xy"), "xy"},
		{int64(-42), "-42"},
		{1.0, "1.0"},
		{0.5, "0.5"},
		{1e20, "1.0e+20"},
		{3.14159, "3.14159"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatText(tt.in), "value %v", tt.in)
	}
}
