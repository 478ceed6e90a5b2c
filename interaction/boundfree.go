package interaction

import (
	"github.com/rajul/tardis/geometry"
	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/packet"
)

// BoundFree resolves a bound-free continuum absorption: it samples the
// absorbing edge from the cumulative chi_bf_tmp_partial table the opacity
// kernel populated, then decides between photo-ionization loss and thermal
// absorption. Both outcomes currently terminate the packet; there is no
// k-packet/thermal-pool model to reroute a thermalized packet back into
// emission yet.
func BoundFree(ctx *Context, p *packet.RPacket, d float64, output model.Output, outIdx int) error {
	if _, err := geometry.Move(p, ctx.Shells, ctx.Estimators, d); err != nil {
		return err
	}

	u := ctx.Draw01()
	target := u * p.ChiBF

	c := p.CurrentContinuumID
	for c < ctx.Continuum.N() && ctx.ChiBfTmpPartial[c] < target {
		c++
	}
	if c >= ctx.Continuum.N() {
		c = ctx.Continuum.N() - 1
	}

	uPrime := ctx.Draw01()
	nuEdge := ctx.Continuum.NuList[c]

	if uPrime < nuEdge/p.Nu {
		// Lost to photo-ionization.
		p.Status = packet.Reabsorbed
	} else {
		// Thermalizes. TODO: reroute through a k-packet/thermal pool model
		// instead of terminating once one exists (see DESIGN.md).
		p.Status = packet.Reabsorbed
	}

	if !p.IsVirtual {
		output.LastInteractionInNu[outIdx] = p.Nu
		output.LastInteractionType[outIdx] = model.InteractionBoundFree
	}

	return nil
}
