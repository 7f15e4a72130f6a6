package app

import (
	"math"
	"time"

	"github.com/vk/bounceaction/internal/bounce"
	"github.com/vk/bounceaction/internal/config"
)

// Expectation outcomes.
const (
	CheckNone = ""
	CheckPass = "pass"
	CheckFail = "fail"
)

// Result is the outcome of one scenario at one temperature. Values that do
// not exist for a failed computation are nil.
type Result struct {
	Scenario    string   `json:"scenario"`
	Temperature float64  `json:"temperature"`
	RunID       string   `json:"run_id"`
	Status      string   `json:"status"`
	Action      *float64 `json:"action,omitempty"`
	Kinetic     *float64 `json:"kinetic,omitempty"`
	Potential   *float64 `json:"potential,omitempty"`
	ActionOverT *float64 `json:"action_over_t,omitempty"`
	PathLength  float64  `json:"path_length"`
	Deformation string   `json:"deformation"`
	Integration string   `json:"integration"`
	Expected    *float64 `json:"expected,omitempty"`
	Check       string   `json:"check,omitempty"`
	DurationMS  float64  `json:"duration_ms"`
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func newResult(sc *config.Scenario, act *bounce.Action, runID string, d time.Duration) Result {
	res := Result{
		Scenario:    sc.Name,
		Temperature: act.Temperature(),
		RunID:       runID,
		Status:      act.Status().String(),
		PathLength:  act.Length(),
		Deformation: act.DeformationStatus().String(),
		Integration: act.Integration1DStatus().String(),
		DurationMS:  float64(d.Microseconds()) / 1000,
	}
	if act.Status() == bounce.Success {
		kin, pot := act.Terms()
		res.Action = finitePtr(act.Action())
		res.Kinetic = finitePtr(kin)
		res.Potential = finitePtr(pot)
		if t := act.Temperature(); t > 0 {
			res.ActionOverT = finitePtr(act.Action() / t)
		}
	}
	res.Check = check(sc.Expect, res)
	if sc.Expect != nil && sc.Expect.Status == bounce.Success.String() {
		res.Expected = finitePtr(sc.Expect.Action)
	}
	return res
}

// check compares a result against the expectation of its scenario. The
// tolerance is relative to the expected action.
func check(exp *config.Expectation, res Result) string {
	switch {
	case exp == nil:
		return CheckNone
	case exp.Status != res.Status:
		return CheckFail
	case exp.Status != bounce.Success.String():
		return CheckPass
	case res.Action == nil:
		return CheckFail
	}
	scale := math.Abs(exp.Action)
	if scale == 0 {
		scale = 1
	}
	if math.Abs(*res.Action-exp.Action)/scale > exp.Tolerance {
		return CheckFail
	}
	return CheckPass
}
