// Package virtualpacket implements the peel-off variance-reduction scheme:
// at an interaction point, spawn a fan of non-physical "virtual" packets
// angle-stratified toward the observer, run each through the optically-thin
// transport loop, and bin the attenuated result directly into the emergent
// spectrum instead of waiting for a real packet to random-walk out.
package virtualpacket

import (
	"math"

	"github.com/rajul/tardis/geometry"
	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/packet"
)

// Mode selects the angle-weighting scheme a peel-off fan uses, matching the
// physical situation the spawn is invoked from.
type Mode int

const (
	// ModeReflection weights packets uniformly; used after an isotropic
	// reflection off the inner boundary.
	ModeReflection Mode = -2
	// ModeInitialEmission weights packets by 2*mu; used for the initial
	// emission pass at a packet's starting position.
	ModeInitialEmission Mode = -1
	// ModeScatter weights packets by (1-mu_min)/2; used after a Thomson or
	// line-scatter interaction.
	ModeScatter Mode = 1
)

// Runner runs a single packet through the transport loop in virtual mode,
// accumulating optical depth toward the outer boundary rather than sampling
// interactions, and returns the packet's terminal status. montecarlo
// supplies this to avoid an import cycle between virtualpacket and the
// packet driver.
type Runner func(p *packet.RPacket) (packet.Status, error)

// Spawn runs the V = p.VirtualPacketFlag peel-off packets for an interaction
// at p's current position, under the given angle-weighting mode, and bins
// each surviving packet's energy into the virtual spectrum and virtual
// record store. Each record carries the spawning real packet's
// last-interaction bookkeeping, read from output at outIdx. It is a no-op if
// p.Nu is outside (nuVirtStart, nuVirtEnd).
func Spawn(mode Mode, p *packet.RPacket, shells model.Shells, spectral model.SpectralWindow, estimators model.Estimators, output model.Output, outIdx int, run Runner, draw01 func() float64) error {
	if p.Nu <= spectral.NuVirtStart || p.Nu >= spectral.NuVirtEnd {
		return nil
	}

	v := p.VirtualPacketFlag
	if v <= 0 {
		return nil
	}

	rIn0 := shells.RIn[0]
	muMin := 0.0
	if p.R > rIn0 {
		muMin = -math.Sqrt(1.0 - (rIn0/p.R)*(rIn0/p.R))
	}

	dopplerOld := geometry.DopplerFactor(p.R, p.Mu, shells.InverseTimeExplosion)

	for i := 0; i < v; i++ {
		clone := *p
		clone.IsVirtual = true

		u := draw01()
		mu := muMin + (float64(i)+u)*(1.0-muMin)/float64(v)

		var weight float64
		switch mode {
		case ModeReflection:
			weight = 1.0 / float64(v)
		case ModeInitialEmission:
			weight = 2.0 * mu / float64(v)
		case ModeScatter:
			weight = (1.0 - muMin) / (2.0 * float64(v))
		}

		clone.Mu = mu

		dopplerNew := geometry.DopplerFactor(clone.R, clone.Mu, shells.InverseTimeExplosion)
		ratio := dopplerOld / dopplerNew
		clone.Nu = p.Nu * ratio
		clone.E = p.E * ratio

		clone.Status = packet.InProcess
		clone.TauEvent = 0
		clone.RecentlyCrossedBoundary = 0

		status, err := run(&clone)
		if err != nil {
			return err
		}
		if status != packet.Emitted {
			continue
		}

		eOut := clone.E * weight

		if clone.Nu > spectral.NuSpecStart && clone.Nu < spectral.NuSpecEnd {
			bin := int((clone.Nu - spectral.NuSpecStart) / spectral.DeltaNu)
			if bin >= 0 && bin < estimators.SpectrumVirtNu.Len() {
				if err := estimators.SpectrumVirtNu.Add(bin, eOut); err != nil {
					return err
				}
			}

			estimators.VirtualRecords.Append(model.VirtualRecord{
				Nu:                  clone.Nu,
				Energy:              eOut,
				LastInteractionInNu: output.LastInteractionInNu[outIdx],
				LastInteractionType: output.LastInteractionType[outIdx],
				LastLineInID:        output.LastLineInID[outIdx],
				LastLineOutID:       output.LastLineOutID[outIdx],
			})
		}
	}

	return nil
}
