// Package geometry implements the distance-to-event computations and
// packet-motion update for a shell-stratified, homologously expanding
// atmosphere.
//
// Errors:
//
//	ErrComovNuLessThanNuLine - the co-moving frequency at the packet's
//	                           current position is redder (lower) than the
//	                           line it is supposedly approaching. This indicates
//	                           an input-state inconsistency upstream of
//	                           the transport kernel; the packet cannot be
//	                           propagated further.
package geometry

import (
	"math"

	"github.com/pkg/errors"
	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/packet"
	"github.com/rajul/tardis/physconst"
)

// MissDistance marks "no intersection" / "no more lines": a distance larger
// than any real event distance can be, so it never wins the minimum-distance
// selection in the driver.
const MissDistance = math.MaxFloat64

// ErrComovNuLessThanNuLine is the sentinel wrapped (with neighboring-line
// diagnostics) by DistanceToLine when the geometric ordering it depends on
// is violated.
var ErrComovNuLessThanNuLine = errors.New("geometry: comoving nu less than next line nu")

// DopplerFactor returns the Doppler factor 1 - mu*r/(c*t_exp) at the
// packet's current position, per the homologous-expansion velocity field
// v(r) = r/t_exp.
func DopplerFactor(r, mu, inverseTimeExplosion float64) float64 {
	return 1.0 - mu*r*inverseTimeExplosion/physconst.SpeedOfLight
}

// DistanceToBoundary computes the distance to the next shell boundary
// (inner or outer) and sets p.NextShell to -1 (inward) or +1 (outward)
// accordingly. It does not mutate p.R or p.Mu.
func DistanceToBoundary(p *packet.RPacket, shells model.Shells) float64 {
	r := p.R
	mu := p.Mu
	rOuter := shells.ROut[p.CurrentShellID]
	rInner := shells.RIn[p.CurrentShellID]

	dOuter := math.Sqrt(rOuter*rOuter+(mu*mu-1.0)*r*r) - r*mu

	if p.RecentlyCrossedBoundary == 1 {
		p.NextShell = 1
		return dOuter
	}

	discriminant := rInner*rInner + r*r*(mu*mu-1.0)
	if discriminant < 0.0 {
		p.NextShell = 1
		return dOuter
	}

	var dInner float64
	if mu < 0.0 {
		dInner = -r*mu - math.Sqrt(discriminant)
	} else {
		dInner = MissDistance
	}

	if dInner < dOuter {
		p.NextShell = -1
		return dInner
	}

	p.NextShell = 1
	return dOuter
}

// DistanceToLine computes the distance to the packet's next candidate line.
// Returns MissDistance if p.LastLine is set. Returns
// ErrComovNuLessThanNuLine if the co-moving frequency at the packet's
// current position is redder (lower) than the line it is approaching — a geometric
// ordering violation upstream of the transport kernel. The error carries
// the neighboring line frequencies so the operator can tell which part of
// the line list the packet was stuck in.
func DistanceToLine(p *packet.RPacket, shells model.Shells, lines model.Lines) (float64, error) {
	if p.LastLine {
		return MissDistance, nil
	}

	nuLine := p.NuLine
	comovNu := p.Nu * DopplerFactor(p.R, p.Mu, shells.InverseTimeExplosion)

	if comovNu < nuLine {
		prev, next := math.NaN(), math.NaN()
		if p.NextLineID > 0 {
			prev = lines.NuList[p.NextLineID-1]
		}
		if p.NextLineID+1 < lines.N() {
			next = lines.NuList[p.NextLineID+1]
		}

		return 0, errors.Wrapf(ErrComovNuLessThanNuLine,
			"packet %d: shell %d: comoving nu %.10e < line nu %.10e (next_line_id=%d, prev_line_nu=%.10e, next_line_nu=%.10e, r=%.6e, mu=%.6f, nu=%.10e)",
			p.ID, p.CurrentShellID, comovNu, nuLine, p.NextLineID, prev, next, p.R, p.Mu, p.Nu)
	}

	dLine := (comovNu - nuLine) / p.Nu * physconst.SpeedOfLight * shells.TimeExplosion

	return dLine, nil
}

// Move advances the packet by distance d along its current direction,
// updating R and Mu under constant-velocity motion: r' = sqrt(r^2 + d^2 +
// 2*r*d*mu), mu' = (mu*r + d)/r'. It returns the Doppler factor evaluated at
// the OLD position, which callers use to transform energy/frequency into
// the co-moving frame. For real (non-virtual) packets it also accumulates
// the j_s/nubar_s shell estimators over the traversed path.
func Move(p *packet.RPacket, shells model.Shells, estimators model.Estimators, d float64) (float64, error) {
	dopplerFactor := DopplerFactor(p.R, p.Mu, shells.InverseTimeExplosion)

	if d > 0.0 {
		r := p.R
		newR := math.Sqrt(r*r + d*d + 2.0*r*d*p.Mu)
		p.Mu = (p.Mu*r + d) / newR
		p.R = newR

		if !p.IsVirtual {
			comovEnergy := p.E * dopplerFactor
			comovNu := p.Nu * dopplerFactor

			if err := estimators.JS.Add(p.CurrentShellID, comovEnergy*d); err != nil {
				return 0, err
			}
			if err := estimators.NubarS.Add(p.CurrentShellID, comovEnergy*d*comovNu); err != nil {
				return 0, err
			}
		}
	}

	return dopplerFactor, nil
}
