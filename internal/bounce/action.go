package bounce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/vk/bounceaction/internal/ctxlog"
	"github.com/vk/bounceaction/internal/spline"
)

var (
	// ErrDimensionMismatch is returned when the vacua and the path disagree
	// on the number of fields.
	ErrDimensionMismatch = errors.New("bounce: dimension mismatch")
	// ErrNoPotential is returned when Input.Potential.V is nil.
	ErrNoPotential = errors.New("bounce: potential is required")
	// ErrTooFewKnots is returned for paths that cannot carry a spline.
	ErrTooFewKnots = spline.ErrTooFewKnots
)

// Input describes one tunnelling problem.
type Input struct {
	// Path is the initial guess, from the true vacuum to the false vacuum.
	// It defaults to the straight segment between the vacua.
	Path        [][]float64
	TrueVacuum  []float64
	FalseVacuum []float64
	Potential   Potential
	Temperature float64
}

// Profile is the radial solution l(ρ) of one shooting run.
type Profile struct {
	Rho      []float64
	L        []float64
	DLDRho   []float64
	D2LDRho2 []float64
}

// Len returns the number of radial samples.
func (p Profile) Len() int { return len(p.Rho) }

func (p Profile) clone() Profile {
	return Profile{
		Rho:      append([]float64(nil), p.Rho...),
		L:        append([]float64(nil), p.L...),
		DLDRho:   append([]float64(nil), p.DLDRho...),
		D2LDRho2: append([]float64(nil), p.D2LDRho2...),
	}
}

// Action computes the bounce action of a single vacuum pair at a single
// temperature. An Action is not safe for concurrent use; independent
// computations each need their own instance.
type Action struct {
	log      *slog.Logger
	settings Settings

	dim         int
	trueVacuum  []float64
	falseVacuum []float64
	temperature float64
	pot         Potential
	vfalse      float64

	path   [][]float64
	spline *spline.Path
	raster *raster

	status      Status
	integration Integration1DStatus
	deformation DeformationStatus

	lmin          float64
	threshold     exactThreshold
	undershotOnce bool
	overshotOnce  bool
	// deformedWithout1D is set when the relaxation met its tolerance before
	// the next shooting run confirmed it.
	deformedWithout1D bool
	// deformationHistory holds the error of every accepted relaxation step of
	// the last path deformation.
	deformationHistory []float64

	profile Profile
	action  float64
	kinetic float64
	poteng  float64
}

// New validates the input and prepares the spline of the initial path. The
// logger carried by ctx is used for every diagnostic of the computation.
func New(ctx context.Context, in Input, settings Settings) (*Action, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if in.Potential.V == nil {
		return nil, ErrNoPotential
	}
	dim := len(in.FalseVacuum)
	if dim == 0 || len(in.TrueVacuum) != dim {
		return nil, fmt.Errorf("%w: true vacuum has %d fields, false vacuum %d",
			ErrDimensionMismatch, len(in.TrueVacuum), len(in.FalseVacuum))
	}
	path := in.Path
	if len(path) == 0 {
		path = [][]float64{in.TrueVacuum, in.FalseVacuum}
	}
	for i, k := range path {
		if len(k) != dim {
			return nil, fmt.Errorf("%w: knot %d has %d fields, want %d", ErrDimensionMismatch, i, len(k), dim)
		}
	}

	pot, vfalse := in.Potential.complete(in.FalseVacuum, settings.GradientStep)
	a := &Action{
		log:         ctxlog.FromContext(ctx),
		settings:    settings,
		dim:         dim,
		trueVacuum:  append([]float64(nil), in.TrueVacuum...),
		falseVacuum: append([]float64(nil), in.FalseVacuum...),
		temperature: in.Temperature,
		pot:         pot,
		vfalse:      vfalse,
	}
	if err := a.SetPath(path); err != nil {
		return nil, err
	}
	return a, nil
}

// SetPath replaces the working path. The spline is rebuilt and the dV/dl
// cache invalidated; the knots of the spline become the authoritative path.
func (a *Action) SetPath(knots [][]float64) error {
	s, err := spline.NewPath(knots)
	if err != nil {
		return fmt.Errorf("bounce: set path: %w", err)
	}
	if s.Dim() != a.dim {
		return fmt.Errorf("%w: path has %d fields, want %d", ErrDimensionMismatch, s.Dim(), a.dim)
	}
	a.spline = s
	a.path = s.Knots()

	if vtv, vfv := a.pot.V(knots[0]), a.pot.V(knots[len(knots)-1]); vtv > vfv {
		a.log.Warn("Path might be backwards.",
			"length", s.Length(), "v_true", vtv, "v_false", vfv)
	}

	a.raster = nil
	a.rasterize(0)
	return nil
}

// Status returns the overall state of the computation.
func (a *Action) Status() Status { return a.status }

// Action returns the bounce action. It is NaN unless Status is Success.
func (a *Action) Action() float64 {
	if a.status != Success {
		return math.NaN()
	}
	return a.action
}

// Terms returns the kinetic and potential contributions to the action.
func (a *Action) Terms() (kinetic, potential float64) { return a.kinetic, a.poteng }

// Temperature returns the temperature the computation belongs to.
func (a *Action) Temperature() float64 { return a.temperature }

// FalseVacuumEnergy returns V at the false vacuum before the shift to zero.
func (a *Action) FalseVacuumEnergy() float64 { return a.vfalse }

// Profile returns a copy of the final radial profile.
func (a *Action) Profile() Profile { return a.profile.clone() }

// Path returns a copy of the current path.
func (a *Action) Path() [][]float64 {
	out := make([][]float64, len(a.path))
	for i, k := range a.path {
		out[i] = append([]float64(nil), k...)
	}
	return out
}

// Length returns the arc length of the current path.
func (a *Action) Length() float64 { return a.spline.Length() }

// DeformationStatus reports whether the final path met the relaxation criterion.
func (a *Action) DeformationStatus() DeformationStatus { return a.deformation }

// Integration1DStatus reports whether the last shooting search converged.
func (a *Action) Integration1DStatus() Integration1DStatus { return a.integration }

// fail records the first failure status; later failures are ignored.
func (a *Action) fail(s Status, msg string, args ...any) {
	if a.status != NotCalculated {
		return
	}
	a.status = s
	a.log.Debug(msg, append(args, "status", s.String())...)
}

// bracketed fails the computation unless the last shooting search saw both
// an undershoot and an overshoot.
func (a *Action) bracketed() bool {
	if !a.undershotOnce || !a.overshotOnce {
		a.fail(NeverUndershootOvershoot, "Shooting never bracketed the solution.",
			"undershot", a.undershotOnce, "overshot", a.overshotOnce)
	}
	return a.status == NotCalculated
}

// Calculate runs the full computation: shooting search, path deformation
// cycles and the action integral. It is a no-op once Status has left
// NotCalculated.
func (a *Action) Calculate() {
	if a.status != NotCalculated {
		return
	}
	if a.d2Vdl2(a.spline.Length()) < 0 {
		a.fail(FalseVacuumNotMinimum, "False vacuum is not a minimum.")
		return
	}

	a.integration = Integration1DNotConverged
	a.deformation = DeformationNotConverged

	var prof Profile
	if a.dim > 1 {
		prof = a.solve1D()
		if a.status != NotCalculated || prof.Len() < 4 {
			a.fail(NotEnoughPointsForSpline, "Not enough points for the radial splines.", "points", prof.Len())
			return
		}
		rhoOfL, err := a.rhoOfL(prof)
		if err != nil {
			a.fail(NotEnoughPointsForSpline, "Radial spline failed.", "error", err)
			return
		}
		a.deformationCheck(prof, rhoOfL)
		if a.status != NotCalculated {
			return
		}
		a.profile = prof

		for i := 2; i <= a.settings.MaxPathIntegrations && a.deformation == DeformationNotConverged; i++ {
			if !a.bracketed() {
				return
			}
			if prof.Len() < 4 {
				a.fail(NotEnoughPointsForSpline, "Not enough points for the radial splines.", "points", prof.Len())
				return
			}
			if rhoOfL, err = a.rhoOfL(prof); err != nil {
				a.fail(NotEnoughPointsForSpline, "Radial spline failed.", "error", err)
				return
			}

			a.log.Debug("Path integration.", "cycle", i)
			a.pathDeformation(prof, rhoOfL)
			if a.status != NotCalculated {
				return
			}
			prof = a.solve1D()
			if a.status != NotCalculated {
				return
			}

			if a.deformedWithout1D && a.integration == Integration1DConverged {
				a.deformation = DeformationConverged
				a.profile = prof
				break
			}
			if prof.Len() >= 4 {
				if rhoOfL, err = a.rhoOfL(prof); err == nil && a.deformationCheck(prof, rhoOfL) {
					a.profile = prof
					break
				}
			}
			if a.integration == Integration1DNotConverged {
				a.fail(Integration1DFailed, "Shooting search did not converge.")
				return
			}
		}
		if a.deformation == DeformationNotConverged {
			a.fail(PathDeformationNotConverged, "Path deformation did not converge in time.",
				"max_path_integrations", a.settings.MaxPathIntegrations)
			return
		}
	} else {
		prof = a.solve1D()
		a.profile = prof
	}

	if a.status != NotCalculated {
		return
	}
	if a.integration == Integration1DNotConverged {
		a.fail(Integration1DFailed, "Shooting search did not converge.")
		return
	}
	a.profile = prof
	a.integrateAction(prof)
}
