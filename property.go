// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

// MaxArity is the largest number of generated arguments a Property may
// accept.
const MaxArity = 7

// Property wraps a user-supplied invariant function of some arity into a
// uniform dispatcher the trial runner can call with a slice of generated
// arguments. Build one with Prop1 through Prop7, which give callers
// compile-time argument types in place of the single untyped union of
// function pointers an older design would reach for.
type Property struct {
	Arity int
	call  func(r *Runner, args []any) Result
}

func (p Property) invoke(r *Runner, args []any) Result {
	return p.call(r, args)
}

// Prop1 wraps a single-argument property.
func Prop1[A any](fn func(r *Runner, a A) Result) Property {
	return Property{Arity: 1, call: func(r *Runner, args []any) Result {
		return fn(r, args[0].(A))
	}}
}

// Prop2 wraps a two-argument property.
func Prop2[A, B any](fn func(r *Runner, a A, b B) Result) Property {
	return Property{Arity: 2, call: func(r *Runner, args []any) Result {
		return fn(r, args[0].(A), args[1].(B))
	}}
}

// Prop3 wraps a three-argument property.
func Prop3[A, B, C any](fn func(r *Runner, a A, b B, c C) Result) Property {
	return Property{Arity: 3, call: func(r *Runner, args []any) Result {
		return fn(r, args[0].(A), args[1].(B), args[2].(C))
	}}
}

// Prop4 wraps a four-argument property.
func Prop4[A, B, C, D any](fn func(r *Runner, a A, b B, c C, d D) Result) Property {
	return Property{Arity: 4, call: func(r *Runner, args []any) Result {
		return fn(r, args[0].(A), args[1].(B), args[2].(C), args[3].(D))
	}}
}

// Prop5 wraps a five-argument property.
func Prop5[A, B, C, D, E any](fn func(r *Runner, a A, b B, c C, d D, e E) Result) Property {
	return Property{Arity: 5, call: func(r *Runner, args []any) Result {
		return fn(r, args[0].(A), args[1].(B), args[2].(C), args[3].(D), args[4].(E))
	}}
}

// Prop6 wraps a six-argument property.
func Prop6[A, B, C, D, E, F any](fn func(r *Runner, a A, b B, c C, d D, e E, f F) Result) Property {
	return Property{Arity: 6, call: func(r *Runner, args []any) Result {
		return fn(r, args[0].(A), args[1].(B), args[2].(C), args[3].(D), args[4].(E), args[5].(F))
	}}
}

// Prop7 wraps a seven-argument property, the largest arity MaxArity
// supports.
func Prop7[A, B, C, D, E, F, G any](fn func(r *Runner, a A, b B, c C, d D, e E, f F, g G) Result) Property {
	return Property{Arity: 7, call: func(r *Runner, args []any) Result {
		return fn(r, args[0].(A), args[1].(B), args[2].(C), args[3].(D), args[4].(E), args[5].(F), args[6].(G))
	}}
}
