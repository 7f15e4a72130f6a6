package bounce

import (
	"math"

	"github.com/vk/bounceaction/internal/spline"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

const (
	// actionSamples is the number of radial samples of the action integral.
	actionSamples = 4001
	// derrickTolerance bounds the relative violation of the virial identities
	// before a warning is logged.
	derrickTolerance = 0.1
	// derrickFailure is the violation of the kinetic identity beyond which
	// the profile is rejected.
	derrickFailure = 0.5
)

// integrateAction evaluates S = Ω∫ρ^α (½(dl/dρ)² + V(l)) dρ over the profile
// and marks the computation successful.
func (a *Action) integrateAction(p Profile) {
	if p.Len() < 4 {
		a.fail(NotEnoughPointsForSpline, "Not enough points for the action integral.", "points", p.Len())
		return
	}
	rhos, slopes := spline.Increasing(p.Rho, p.DLDRho)
	_, ls := spline.Increasing(p.Rho, p.L)
	slopeOf, err := spline.NewCubic(rhos, slopes, spline.Natural)
	if err != nil {
		a.fail(NotEnoughPointsForSpline, "Radial spline of dl/dρ failed.", "error", err)
		return
	}
	lOf, err := spline.NewCubic(rhos, ls, spline.Natural)
	if err != nil {
		a.fail(NotEnoughPointsForSpline, "Radial spline of l failed.", "error", err)
		return
	}

	alpha := float64(a.settings.Alpha)
	omega := solidAngle(a.settings.Alpha)
	rhoMax := rhos[len(rhos)-1]

	grid := make([]float64, actionSamples)
	floats.Span(grid, 0, rhoMax)
	kin := make([]float64, actionSamples)
	pot := make([]float64, actionSamples)
	for i, rho := range grid {
		measure := omega * math.Pow(rho, alpha)
		dl := slopeOf.At(rho)
		kin[i] = measure * dl * dl / 2
		pot[i] = measure * a.potentialAt(lOf.At(rho))
	}
	a.kinetic = integrate.Simpsons(grid, kin)
	a.poteng = integrate.Simpsons(grid, pot)
	a.action = a.kinetic + a.poteng

	// Derrick: S = 2K/(1+α) = 2P/(1-α) for an exact bounce.
	kinDev := math.Abs(a.action/(2*a.kinetic/(1+alpha)) - 1)
	if math.IsNaN(a.action) || math.IsInf(a.action, 0) || !(a.action > 0) || !(kinDev <= derrickFailure) {
		a.fail(Integration1DFailed, "Radial profile is not a bounce.", "action", a.action,
			"kinetic", a.kinetic, "potential", a.poteng, "deviation", kinDev)
		return
	}
	if kinDev > derrickTolerance {
		a.log.Warn("Kinetic term violates the virial identity.", "deviation", kinDev,
			"action", a.action, "kinetic", a.kinetic)
	}
	if dev := math.Abs(a.action/(2*a.poteng/(1-alpha)) - 1); dev > derrickTolerance {
		a.log.Warn("Potential term violates the virial identity.", "deviation", dev,
			"action", a.action, "potential", a.poteng)
	}

	a.status = Success
	a.log.Info("Bounce action calculated.", "action", a.action, "kinetic", a.kinetic,
		"potential", a.poteng, "temperature", a.temperature, "rho_max", rhoMax)
}
