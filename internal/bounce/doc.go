// Package bounce computes the Euclidean action of the O(α+1) symmetric
// bounce that mediates tunnelling from a false to a true vacuum of a
// multi-field potential.
//
// The computation alternates between two steps. Along a fixed path φ(l) the
// problem is one dimensional and solved by the overshoot/undershoot shooting
// method on
//
//	l'' = dV/dl - α l'/ρ.
//
// The path is then relaxed against the normal force of the resulting radial
// profile, projected on a Bernstein basis, and the cycle repeats until the
// normal force is small compared to the gradient of V. The action is finally
// integrated over the profile.
//
// A typical use:
//
//	a, err := bounce.New(ctx, bounce.Input{
//		TrueVacuum:  tv,
//		FalseVacuum: fv,
//		Potential:   bounce.Potential{V: v},
//	}, bounce.DefaultSettings())
//	if err != nil {
//		return err
//	}
//	a.Calculate()
//	if err := a.Status().Err(); err != nil {
//		return err
//	}
//	s := a.Action()
package bounce
