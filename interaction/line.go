package interaction

import (
	"math"

	"github.com/rajul/tardis/geometry"
	"github.com/rajul/tardis/macroatom"
	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/packet"
	"github.com/rajul/tardis/virtualpacket"
)

// LineScatter resolves the packet's candidate Sobolev line interaction at
// lineID = p.NextLineID. Virtual packets only accumulate tau_event and never
// absorb. Real packets compare the accumulated tau_event against
// tau_line+tau_cont: if it absorbs, the packet's direction is isotropically
// redrawn and the emission line is either the same line (resonant scatter,
// LineInteractionID == 0) or determined by the macro-atom walk. Either way,
// close_line is updated before return, per the driver's immediate-resolution
// rule for overlapping lines.
func LineScatter(ctx *Context, p *packet.RPacket, d float64, output model.Output, outIdx int) error {
	if _, err := geometry.Move(p, ctx.Shells, ctx.Estimators, d); err != nil {
		return err
	}

	lineID := p.NextLineID

	if !p.IsVirtual {
		dAtPoint := geometry.DopplerFactor(p.R, p.Mu, ctx.Shells.InverseTimeExplosion)
		jBlue := (p.E * dAtPoint) / p.Nu
		if err := ctx.Lines.JBlues.Add(p.CurrentShellID, lineID, jBlue); err != nil {
			return err
		}
	}

	tauLine, err := ctx.Lines.TauSobolev.At(p.CurrentShellID, lineID)
	if err != nil {
		return err
	}
	tauCont := p.ChiCont * d

	p.NextLineID++
	if p.NextLineID >= ctx.Lines.N() {
		p.LastLine = true
	}

	if p.IsVirtual {
		p.TauEvent += tauLine
		updateCloseLine(ctx, p)
		return nil
	}

	if p.TauEvent >= tauLine+tauCont {
		p.TauEvent -= tauLine
		updateCloseLine(ctx, p)
		return nil
	}

	u := ctx.Draw01()
	p.Mu = 2*u - 1
	dNew := geometry.DopplerFactor(p.R, p.Mu, ctx.Shells.InverseTimeExplosion)

	output.LastInteractionInNu[outIdx] = p.Nu
	output.LastInteractionType[outIdx] = model.InteractionLine
	output.LastLineInID[outIdx] = lineID
	output.LastLineShellID[outIdx] = p.CurrentShellID

	emissionLineID := lineID
	if ctx.LineInteractionID != 0 {
		emissionLineID, err = macroatom.Walk(ctx.MacroAtom, p.CurrentShellID, lineID, ctx.Draw01)
		if err != nil {
			return err
		}
	}

	nuLineOut := ctx.Lines.NuList[emissionLineID]
	p.Nu = nuLineOut / dNew
	p.NuLine = nuLineOut
	p.NextLineID = emissionLineID + 1
	if p.NextLineID >= ctx.Lines.N() {
		p.LastLine = true
	}

	output.LastLineOutID[outIdx] = emissionLineID

	p.TauEvent = -math.Log(ctx.Draw01())
	p.RecentlyCrossedBoundary = 0

	updateCloseLine(ctx, p)

	if p.VirtualPacketFlag > 0 {
		if err := ctx.spawnVirtual(virtualpacket.ModeScatter, p, output, outIdx); err != nil {
			return err
		}
	}

	return nil
}

// updateCloseLine sets p.CloseLine if the upcoming candidate line sits
// within the fractional frequency threshold of p.NuLine, forcing the driver
// to resolve the pair back-to-back on the next event.
func updateCloseLine(ctx *Context, p *packet.RPacket) {
	if p.LastLine {
		p.CloseLine = false
		return
	}

	nuNext := ctx.Lines.NuList[p.NextLineID]
	p.CloseLine = math.Abs(nuNext-p.NuLine)/p.NuLine < closeLineThreshold
}
