package binding

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/zurustar/sqhell/pkg/session"
)

var errKind = errors.New("kind mismatch")

// Call carries the checked arguments of one invocation. Accessors panic on
// an index outside the declared parameters, which is a programming error
// in the builtin, never a script error.
type Call struct {
	name string
	args []any
	rest []any
}

// Name returns the called function's name.
func (c *Call) Name() string { return c.name }

func (c *Call) Value(i int) any { return c.args[i] }

// IsNull reports whether parameter i is NULL (a nullable parameter given
// NULL, or an omitted optional one without a default).
func (c *Call) IsNull(i int) bool { return c.args[i] == nil }

func (c *Call) Text(i int) string {
	s, _ := c.args[i].(string)
	return s
}

func (c *Call) Int64(i int) int64 {
	n, _ := c.args[i].(int64)
	return n
}

func (c *Call) Int(i int) int { return int(c.Int64(i)) }

func (c *Call) Float(i int) float64 {
	f, _ := c.args[i].(float64)
	return f
}

func (c *Call) Float32(i int) float32 { return float32(c.Float(i)) }

func (c *Call) Handle(i int) session.Handle {
	h, _ := c.args[i].(session.Handle)
	return h
}

// Key returns a key code parameter.
func (c *Call) Key(i int) int { return c.Int(i) }

// Rest returns the variadic tail, converted to the tail kind.
func (c *Call) Rest() []any { return c.rest }

// convert checks v against kind and returns the normalised value:
// string for text, int64 for int/int64/key, float64 for float and
// session.Handle for handles. Go integer and float values are accepted
// too so defaults can be written naturally.
func convert(v any, kind Kind) (any, error) {
	v = widen(v)
	switch kind {
	case KindAny:
		return v, nil

	case KindText:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		}

	case KindInt, KindInt64:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64 {
				return int64(x), nil
			}
		}

	case KindFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		}

	case KindHandle:
		if x, ok := v.(int64); ok {
			return session.Handle(x), nil
		}

	case KindKey:
		switch x := v.(type) {
		case int64:
			return x, nil
		case string:
			// 'a' と 'A' は同じキー（GLFWのキーコードは大文字ASCII）
			if x != "" {
				return int64(strings.ToUpper(x[:1])[0]), nil
			}
		}
	}
	return nil, errKind
}

func widen(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint32:
		return int64(x)
	case session.Handle:
		return int64(x)
	case float32:
		return float64(x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	}
	return v
}

func sqlType(v any) string {
	switch v.(type) {
	case nil:
		return "NULL"
	case int64, int, int32:
		return "INTEGER"
	case float64, float32:
		return "REAL"
	case string:
		return "TEXT"
	case []byte:
		return "BLOB"
	default:
		return "unknown"
	}
}

// formatText renders a value the way the engine converts it to text:
// integers in decimal, reals with at least one fractional digit, NULL as
// the empty string.
func formatText(v any) string {
	switch x := widen(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatReal(x)
	default:
		return ""
	}
}

func formatReal(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return ""
	}
	s := strconv.FormatFloat(f, 'g', 15, 64)
	if strings.ContainsAny(s, ".eEn") {
		if i := strings.IndexAny(s, "eE"); i >= 0 && !strings.Contains(s[:i], ".") {
			// 1e+20 -> 1.0e+20
			s = s[:i] + ".0" + s[i:]
		}
		return s
	}
	return s + ".0"
}
