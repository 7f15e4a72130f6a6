// Package spline provides the interpolation primitives used by the bounce
// engine.
//
// Cubic is a one-dimensional cubic spline with natural or not-a-knot end
// conditions. It evaluates the value and its first three derivatives, and
// extrapolates quadratically past either end.
//
// Path turns an ordered list of field-space knots into a curve parameterised
// by its own arc length l in [0, L]. Each field dimension is interpolated with
// a not-a-knot Cubic over the cumulative chord length; a Simpson 3/8 quadrature
// of the speed then maps chord length to arc length and back, so that the
// tangent returned by Path has unit norm everywhere.
package spline
