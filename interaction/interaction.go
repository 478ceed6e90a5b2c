// Package interaction implements the per-event interaction handlers a
// packet may undergo once the driver has selected the minimum-distance
// event: Thomson scattering, line scattering (with the macro-atom walk),
// bound-free and free-free absorption, and shell-boundary crossing
// (including inner-boundary reflection).
//
// Every handler first moves the packet the chosen distance, which also
// accumulates the j_s/nubar_s shell estimators for real packets, then
// applies its own state transition. Handlers never select a new event
// distance themselves; that stays the driver's job.
package interaction

import (
	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/packet"
	"github.com/rajul/tardis/virtualpacket"
)

// closeLineThreshold is the fractional frequency separation below which two
// consecutive lines are treated as overlapping, forcing the driver to
// resolve them back-to-back with a zero-distance line event.
const closeLineThreshold = 1e-7

// Context bundles the read-only model data and run-scoped callbacks every
// interaction handler needs. Each worker builds its own Context: the model
// data in it is read-only and shared across workers, while Draw01 must be
// that worker's own RNG draw function and ChiBfTmpPartial its own scratch.
type Context struct {
	Shells    model.Shells
	Lines     model.Lines
	Continuum model.Continuum
	MacroAtom model.MacroAtomTables

	Estimators model.Estimators
	Spectral   model.SpectralWindow

	// LineInteractionID selects resonant scattering (0) or the macro-atom
	// walk (nonzero) for line absorption.
	LineInteractionID int

	// ChiBfTmpPartial is per-packet scratch space for the cumulative
	// bound-free opacity table, owned by the caller (one slice per worker).
	ChiBfTmpPartial []float64

	Draw01 func() float64

	// RunVirtual runs a cloned packet through the virtual transport loop;
	// supplied by montecarlo to avoid an import cycle back into itself.
	RunVirtual virtualpacket.Runner
}

func (ctx *Context) spawnVirtual(mode virtualpacket.Mode, p *packet.RPacket, output model.Output, outIdx int) error {
	return virtualpacket.Spawn(mode, p, ctx.Shells, ctx.Spectral, ctx.Estimators, output, outIdx, ctx.RunVirtual, ctx.Draw01)
}
