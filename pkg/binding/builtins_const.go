package binding

import "github.com/zurustar/sqhell/pkg/graphics"

// constantBuiltins exposes GLFW and GL enum values as zero-argument
// functions, e.g. GL_TRIANGLES().
func constantBuiltins() []Builtin {
	builtins := make([]Builtin, len(graphics.Constants))
	for i, k := range graphics.Constants {
		value := k.Value
		builtins[i] = Builtin{
			Signature:     Signature{Name: k.Name},
			Deterministic: true,
			Fn: func(*Call) (any, error) {
				return value, nil
			},
		}
	}
	return builtins
}
