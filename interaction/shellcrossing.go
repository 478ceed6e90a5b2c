package interaction

import (
	"math"

	"github.com/rajul/tardis/geometry"
	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/packet"
	"github.com/rajul/tardis/virtualpacket"
)

// CrossShell moves the packet distance d to its next shell boundary and
// resolves what happens there: moving to an interior shell just updates the
// current-shell bookkeeping; crossing the outer boundary emits the packet;
// crossing the inner boundary either reabsorbs it or reflects it back
// outward, depending on the model's inner-boundary albedo.
func CrossShell(ctx *Context, p *packet.RPacket, d float64, output model.Output, outIdx int) error {
	if _, err := geometry.Move(p, ctx.Shells, ctx.Estimators, d); err != nil {
		return err
	}

	if p.IsVirtual {
		p.TauEvent += p.ChiCont * d
	} else {
		p.TauEvent = -math.Log(ctx.Draw01())
	}

	nShells := ctx.Shells.N()
	nextShellID := p.CurrentShellID + p.NextShell

	if nextShellID >= 0 && nextShellID <= nShells-1 {
		p.CurrentShellID = nextShellID
		p.RecentlyCrossedBoundary = p.NextShell
		return nil
	}

	if p.NextShell == 1 && p.CurrentShellID == nShells-1 {
		p.Status = packet.Emitted
		return nil
	}

	// p.NextShell == -1 && p.CurrentShellID == 0: inner boundary.
	if !ctx.Shells.ReflectiveInnerBoundary {
		p.Status = packet.Reabsorbed
		return nil
	}

	if ctx.Draw01() > ctx.Shells.InnerBoundaryAlbedo {
		p.Status = packet.Reabsorbed
		return nil
	}

	dOld := geometry.DopplerFactor(p.R, p.Mu, ctx.Shells.InverseTimeExplosion)
	p.Mu = ctx.Draw01()
	dNew := geometry.DopplerFactor(p.R, p.Mu, ctx.Shells.InverseTimeExplosion)
	ratio := dOld / dNew
	p.Nu *= ratio
	p.E *= ratio

	p.RecentlyCrossedBoundary = 1

	if !p.IsVirtual && p.VirtualPacketFlag > 0 {
		if err := ctx.spawnVirtual(virtualpacket.ModeReflection, p, output, outIdx); err != nil {
			return err
		}
	}

	return nil
}
