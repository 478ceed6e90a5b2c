package interaction

import (
	"github.com/rajul/tardis/geometry"
	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/packet"
)

// FreeFree resolves a free-free continuum absorption. There is no
// thermal-pool model yet, so every free-free absorption terminates the
// packet.
//
// TODO: reroute through a k-packet/thermal pool model instead of
// terminating once one exists (see DESIGN.md).
func FreeFree(ctx *Context, p *packet.RPacket, d float64, output model.Output, outIdx int) error {
	if _, err := geometry.Move(p, ctx.Shells, ctx.Estimators, d); err != nil {
		return err
	}

	p.Status = packet.Reabsorbed

	if !p.IsVirtual {
		output.LastInteractionInNu[outIdx] = p.Nu
		output.LastInteractionType[outIdx] = model.InteractionFreeFree
	}

	return nil
}
