// Package ode provides the embedded Runge-Kutta stepper used to integrate the
// radial bounce equation.
package ode

import "fmt"

// Func evaluates the derivative dy/dx of a first-order system into dydx.
type Func func(x float64, y, dydx []float64)

// Cash-Karp tableau.
const (
	a2, a3, a4, a5, a6 = 0.2, 0.3, 0.6, 1.0, 0.875

	b21 = 0.2
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 0.3
	b42 = -0.9
	b43 = 1.2
	b51 = -11.0 / 54.0
	b52 = 2.5
	b53 = -70.0 / 27.0
	b54 = 35.0 / 27.0
	b61 = 1631.0 / 55296.0
	b62 = 175.0 / 512.0
	b63 = 575.0 / 13824.0
	b64 = 44275.0 / 110592.0
	b65 = 253.0 / 4096.0

	c1 = 37.0 / 378.0
	c3 = 250.0 / 621.0
	c4 = 125.0 / 594.0
	c6 = 512.0 / 1771.0

	dc1 = c1 - 2825.0/27648.0
	dc3 = c3 - 18575.0/48384.0
	dc4 = c4 - 13525.0/55296.0
	dc5 = -277.0 / 14336.0
	dc6 = c6 - 0.25
)

// CashKarp is a fifth-order Runge-Kutta stepper with an embedded fourth-order
// error estimate. It owns its stage buffers and is not safe for concurrent use.
type CashKarp struct {
	n                      int
	f                      Func
	k2, k3, k4, k5, k6, yt []float64
}

// NewCashKarp returns a stepper for an n-dimensional system.
func NewCashKarp(n int, f Func) *CashKarp {
	if n <= 0 {
		panic(fmt.Sprintf("ode: invalid system size %d", n))
	}
	return &CashKarp{
		n:  n,
		f:  f,
		k2: make([]float64, n),
		k3: make([]float64, n),
		k4: make([]float64, n),
		k5: make([]float64, n),
		k6: make([]float64, n),
		yt: make([]float64, n),
	}
}

// Step advances y from x by h. dydx must hold f(x, y). The fifth-order
// solution is written to yout and the difference to the embedded
// fourth-order solution to yerr.
func (c *CashKarp) Step(x, h float64, y, dydx, yout, yerr []float64) {
	if len(y) != c.n || len(dydx) != c.n || len(yout) != c.n || len(yerr) != c.n {
		panic(fmt.Sprintf("ode: buffers do not match system size %d", c.n))
	}
	yt := c.yt

	for i := range yt {
		yt[i] = y[i] + b21*h*dydx[i]
	}
	c.f(x+a2*h, yt, c.k2)

	for i := range yt {
		yt[i] = y[i] + h*(b31*dydx[i]+b32*c.k2[i])
	}
	c.f(x+a3*h, yt, c.k3)

	for i := range yt {
		yt[i] = y[i] + h*(b41*dydx[i]+b42*c.k2[i]+b43*c.k3[i])
	}
	c.f(x+a4*h, yt, c.k4)

	for i := range yt {
		yt[i] = y[i] + h*(b51*dydx[i]+b52*c.k2[i]+b53*c.k3[i]+b54*c.k4[i])
	}
	c.f(x+a5*h, yt, c.k5)

	for i := range yt {
		yt[i] = y[i] + h*(b61*dydx[i]+b62*c.k2[i]+b63*c.k3[i]+b64*c.k4[i]+b65*c.k5[i])
	}
	c.f(x+a6*h, yt, c.k6)

	for i := range yout {
		yout[i] = y[i] + h*(c1*dydx[i]+c3*c.k3[i]+c4*c.k4[i]+c6*c.k6[i])
		yerr[i] = h * (dc1*dydx[i] + dc3*c.k3[i] + dc4*c.k4[i] + dc5*c.k5[i] + dc6*c.k6[i])
	}
}
