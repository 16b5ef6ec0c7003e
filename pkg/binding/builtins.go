package binding

import (
	"fmt"
)

func def(name string, fn Func, params ...Param) Builtin {
	return Builtin{Signature: Signature{Name: name, Params: params}, Fn: fn}
}

func defRest(name string, rest Param, fn Func) Builtin {
	return Builtin{Signature: Signature{Name: name, Rest: &rest}, Fn: fn}
}

// Builtins returns every script-callable function bound to env, in the
// order they are registered.
func Builtins(env *Env) []Builtin {
	env.setDefaults()

	var all []Builtin
	all = append(all, env.systemBuiltins()...)
	all = append(all, env.floatBuiltins()...)
	all = append(all, env.windowBuiltins()...)
	all = append(all, env.glBuiltins()...)
	all = append(all, env.uiBuiltins()...)
	all = append(all, env.audioBuiltins()...)
	all = append(all, constantBuiltins()...)
	return all
}

// Install builds the registry for env and registers it on conn.
func Install(conn Registrar, env *Env) (*Registry, error) {
	env.setDefaults()

	r := NewRegistry(env.Log)
	if err := r.AddAll(Builtins(env)); err != nil {
		return nil, fmt.Errorf("failed to declare builtins: %w", err)
	}
	if err := r.Install(conn); err != nil {
		return nil, err
	}
	return r, nil
}
