package bounce

import (
	"errors"
	"fmt"
)

// Status is the overall state of a bounce action computation. It leaves
// NotCalculated exactly once.
type Status int

const (
	NotCalculated Status = iota
	Success
	FalseVacuumNotMinimum
	BackwardsPropagationFailed
	NotEnoughPointsForSpline
	Integration1DFailed
	NeverUndershootOvershoot
	PathDeformationCrashed
	PathDeformationNotConverged
	UndershootOvershootNegativeGrad
)

var statusNames = map[Status]string{
	NotCalculated:                   "not_calculated",
	Success:                         "success",
	FalseVacuumNotMinimum:           "false_vacuum_not_minimum",
	BackwardsPropagationFailed:      "backwards_propagation_failed",
	NotEnoughPointsForSpline:        "not_enough_points_for_spline",
	Integration1DFailed:             "integration_1d_failed",
	NeverUndershootOvershoot:        "never_undershoot_overshoot",
	PathDeformationCrashed:          "path_deformation_crashed",
	PathDeformationNotConverged:     "path_deformation_not_converged",
	UndershootOvershootNegativeGrad: "undershoot_overshoot_negative_grad",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Failed reports whether s is one of the failure codes.
func (s Status) Failed() bool {
	return s != NotCalculated && s != Success
}

// ErrCalculationFailed is wrapped by Status.Err for every failure code.
var ErrCalculationFailed = errors.New("bounce: action calculation failed")

// ErrNotCalculated is returned by Status.Err before Calculate has run.
var ErrNotCalculated = errors.New("bounce: action not calculated")

// Err converts the status into an error, nil on success.
func (s Status) Err() error {
	switch {
	case s == Success:
		return nil
	case s == NotCalculated:
		return ErrNotCalculated
	default:
		return fmt.Errorf("%w: %s", ErrCalculationFailed, s)
	}
}

// Shot classifies a single shooting attempt.
type Shot int

const (
	ShotNotConverged Shot = iota
	Undershoot
	Overshoot
	Converged
)

func (s Shot) String() string {
	switch s {
	case Undershoot:
		return "undershoot"
	case Overshoot:
		return "overshoot"
	case Converged:
		return "converged"
	default:
		return "not_converged"
	}
}

// Integration1DStatus records whether the shooting search converged.
type Integration1DStatus int

const (
	Integration1DNotConverged Integration1DStatus = iota
	Integration1DConverged
)

func (s Integration1DStatus) String() string {
	if s == Integration1DConverged {
		return "converged"
	}
	return "not_converged"
}

// DeformationStatus records whether the path satisfies the relaxation
// criterion.
type DeformationStatus int

const (
	DeformationNotConverged DeformationStatus = iota
	DeformationConverged
)

func (s DeformationStatus) String() string {
	if s == DeformationConverged {
		return "converged"
	}
	return "not_converged"
}
