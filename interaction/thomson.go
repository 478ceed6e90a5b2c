package interaction

import (
	"math"

	"github.com/rajul/tardis/geometry"
	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/packet"
	"github.com/rajul/tardis/virtualpacket"
)

// Thomson performs isotropic electron-scattering: moves the packet distance
// d, redraws an isotropic direction, preserves co-moving energy and
// frequency across the frame change, and redraws the next optical-depth
// target. outIdx is the packet's slot in output (ignored for virtual
// packets, which have no output slot of their own).
func Thomson(ctx *Context, p *packet.RPacket, d float64, output model.Output, outIdx int) error {
	dOld, err := geometry.Move(p, ctx.Shells, ctx.Estimators, d)
	if err != nil {
		return err
	}

	u := ctx.Draw01()
	p.Mu = 2*u - 1

	dNew := geometry.DopplerFactor(p.R, p.Mu, ctx.Shells.InverseTimeExplosion)
	ratio := dOld / dNew
	p.Nu *= ratio
	p.E *= ratio

	p.TauEvent = -math.Log(ctx.Draw01())
	p.RecentlyCrossedBoundary = 0

	if !p.IsVirtual {
		output.LastInteractionInNu[outIdx] = p.Nu
		output.LastInteractionType[outIdx] = model.InteractionThomson
	}

	if p.VirtualPacketFlag > 0 {
		if err := ctx.spawnVirtual(virtualpacket.ModeScatter, p, output, outIdx); err != nil {
			return err
		}
	}

	return nil
}
