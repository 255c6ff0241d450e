// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package slice compliments the standard [slices] package by providing functional
programming utilities (Map, Filter) leveraging generics.
*/
package slice

// Map maps a slice of type T to a slice of type U using the provided transformation function.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}

	return result
}

// Filter filters a slice, returning only elements where the predicate function evaluates to true.
func Filter[T any](input []T, predicate func(T) bool) []T {
	if input == nil {
		return nil
	}

	// Not pre-allocating to full length to avoid excessive memory on heavy filters
	var result []T
	for _, v := range input {
		if predicate(v) {
			result = append(result, v)
		}
	}

	return result
}

// Reduce reduces a slice into a single accumulated result using the reducer function.
func Reduce[T any, U any](input []T, initial U, reducer func(accumulator U, current T) U) U {
	result := initial
	for _, v := range input {
		result = reducer(result, v)
	}
	return result
}

// Intersects reports whether a and b share at least one element according
// to their respective key functions. a and b may hold different element
// types (e.g. stored grant rows vs. derived grant pairs) as long as both
// keys project down to the same comparable K. It builds a lookup set
// from a (size len(a)) and probes it with each element of b,
// short-circuiting on the first match.
func Intersects[A any, B any, K comparable](a []A, b []B, keyA func(A) K, keyB func(B) K) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}

	seen := make(map[K]struct{}, len(a))
	for _, v := range a {
		seen[keyA(v)] = struct{}{}
	}

	for _, v := range b {
		if _, ok := seen[keyB(v)]; ok {
			return true
		}
	}
	return false
}
