// Package montecarlo implements the per-packet event loop and the parallel
// main loop that drives the full radiative-transfer run: selecting the
// minimum-distance event among the next line, the next shell boundary, and
// the next continuum event, dispatching to the appropriate interaction
// handler, and repeating until the packet is emitted or reabsorbed.
package montecarlo

import (
	"math"

	"github.com/rajul/tardis/geometry"
	"github.com/rajul/tardis/interaction"
	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/opacity"
	"github.com/rajul/tardis/packet"
)

// virtualTauCutoff is the optical-depth threshold past which a virtual
// packet's ray is treated as optically thick and terminated early.
const virtualTauCutoff = 10.0

// virtualTauClamp is the sentinel tau_event a virtual packet is left with
// after hitting virtualTauCutoff, before the final exp(-tau_event)
// attenuation.
const virtualTauClamp = 100.0

type event int

const (
	eventLine event = iota
	eventBoundary
	eventContinuum
)

// selectEvent picks the minimum of the three candidate distances, breaking
// ties in the order line, boundary, continuum.
func selectEvent(dLine, dBoundary, dContinuum float64) event {
	if dLine <= dBoundary && dLine <= dContinuum {
		return eventLine
	}
	if dBoundary <= dContinuum {
		return eventBoundary
	}

	return eventContinuum
}

// runPacket drives a single packet (real or virtual) from InProcess to its
// terminal status. output/outIdx identify the packet's slot in the
// per-real-packet output arrays; they are never touched for virtual packets.
//
// The returned status is always the packet's own terminal Status; a
// spawned virtual pass never feeds its status back into the spawning real
// packet's output.
func runPacket(ctx *interaction.Context, p *packet.RPacket, output model.Output, outIdx int) (packet.Status, error) {
	p.Status = packet.InProcess
	if !p.IsVirtual {
		p.TauEvent = -math.Log(ctx.Draw01())
	}

	for p.Status == packet.InProcess {
		if !p.LastLine {
			p.NuLine = ctx.Lines.NuList[p.NextLineID]
		}

		dBoundary := geometry.DistanceToBoundary(p, ctx.Shells)

		var dLine float64
		if p.CloseLine {
			dLine = 0
			p.CloseLine = false
		} else {
			var err error
			dLine, err = geometry.DistanceToLine(p, ctx.Shells, ctx.Lines)
			if err != nil {
				return p.Status, err
			}
		}

		cont, i0, err := opacity.ComputeContinuum(p, ctx.Shells, ctx.Continuum, ctx.ChiBfTmpPartial)
		if err != nil {
			return p.Status, err
		}
		p.ChiElectron = cont.ChiElectron
		p.ChiBF = cont.ChiBF
		p.ChiFF = cont.ChiFF
		p.ChiCont = cont.ChiCont
		p.DContinuum = cont.DContinuum
		p.CurrentContinuumID = i0

		switch selectEvent(dLine, dBoundary, cont.DContinuum) {
		case eventLine:
			err = interaction.LineScatter(ctx, p, dLine, output, outIdx)
		case eventBoundary:
			err = interaction.CrossShell(ctx, p, dBoundary, output, outIdx)
		case eventContinuum:
			err = dispatchContinuum(ctx, p, cont.DContinuum, output, outIdx)
		}
		if err != nil {
			return p.Status, err
		}

		if p.IsVirtual && p.TauEvent > virtualTauCutoff {
			p.TauEvent = virtualTauClamp
			p.Status = packet.Emitted
		}
	}

	if p.IsVirtual {
		p.E *= math.Exp(-p.TauEvent)
	}

	return p.Status, nil
}

// dispatchContinuum resolves a continuum event: Thomson scattering if the
// continuum is off, else a sample of the (electron, bound-free, free-free)
// sub-channel weighted by their normalized share of chi_cont.
func dispatchContinuum(ctx *interaction.Context, p *packet.RPacket, d float64, output model.Output, outIdx int) error {
	if !ctx.Shells.ContinuumStatus {
		return interaction.Thomson(ctx, p, d, output, outIdx)
	}

	u := ctx.Draw01() * p.ChiCont
	switch {
	case u < p.ChiElectron:
		return interaction.Thomson(ctx, p, d, output, outIdx)
	case u < p.ChiElectron+p.ChiBF:
		return interaction.BoundFree(ctx, p, d, output, outIdx)
	default:
		return interaction.FreeFree(ctx, p, d, output, outIdx)
	}
}
