// Package opacity implements the per-shell continuum opacities (electron,
// bound-free, free-free) and the Sobolev line optical-depth lookup.
package opacity

import (
	"math"

	"github.com/rajul/tardis/geometry"
	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/packet"
	"github.com/rajul/tardis/physconst"
	"github.com/rajul/tardis/search"
)

// Continuum holds the resolved continuum-opacity breakdown for one
// distance-to-continuum computation, mirroring the packet's cached
// chi_electron/chi_bf/chi_ff/chi_continuum/d_continuum fields.
type Continuum struct {
	ChiElectron float64
	ChiBF       float64
	ChiFF       float64
	ChiCont     float64
	DContinuum  float64
}

// sigmaBF returns the bound-free cross section of edge i at the co-moving
// frequency comovNu: sigma_0(i) * (nu_edge(i)/comovNu)^3.
func sigmaBF(cont model.Continuum, edge int, comovNu float64) float64 {
	ratio := cont.NuList[edge] / comovNu
	return cont.SigmaBF[edge] * ratio * ratio * ratio
}

// ComputeBoundFree computes the cumulative bound-free opacity table
// chiBfTmpPartial[i0:N_edges) and returns the total bound-free opacity
// bf_helper[N_edges-1] * dopplerFactor, plus the current continuum edge id
// i0 located by a line_search on the co-moving frequency. chiBfTmpPartial
// must be sized at least cont.N(); entries before i0 are left untouched (the
// caller only ever scans from i0 onward).
func ComputeBoundFree(p *packet.RPacket, shells model.Shells, cont model.Continuum, dopplerFactor float64, chiBfTmpPartial []float64) (result Continuum, i0 int, err error) {
	comovNu := p.Nu * dopplerFactor

	i0 = search.LineSearch(cont.NuList, comovNu, cont.N())

	T := shells.ElectronTemperature[p.CurrentShellID]
	boltzmannFactor := math.Exp(-(physconst.PlanckH * comovNu) / physconst.BoltzmannK / T)

	bfHelper := 0.0
	for i := i0; i < cont.N(); i++ {
		lPop, e := cont.LPop.At(p.CurrentShellID, i)
		if e != nil {
			return Continuum{}, i0, e
		}
		lPopR, e := cont.LPopR.At(p.CurrentShellID, i)
		if e != nil {
			return Continuum{}, i0, e
		}

		bfHelper += lPop * sigmaBF(cont, i, comovNu) * (1 - lPopR*boltzmannFactor)
		chiBfTmpPartial[i] = bfHelper
	}

	result.ChiBF = bfHelper * dopplerFactor

	return result, i0, nil
}

// ComputeContinuum computes the packet's continuum opacities and the
// distance to the next continuum event. It does not mutate p; callers
// assign the returned fields and DContinuum onto the packet themselves.
// chiBfTmpPartial is per-packet scratch space owned by the caller (not part
// of StorageModel).
func ComputeContinuum(p *packet.RPacket, shells model.Shells, cont model.Continuum, chiBfTmpPartial []float64) (Continuum, int, error) {
	shellID := p.CurrentShellID
	nE := shells.ElectronDensity[shellID]

	if !shells.ContinuumStatus {
		chiE := nE * shells.ThomsonCrossSection

		result := Continuum{
			ChiElectron: chiE,
			ChiCont:     chiE,
		}
		if p.IsVirtual {
			result.DContinuum = geometry.MissDistance
		} else {
			result.DContinuum = shells.InverseElectronDensity[shellID] / shells.ThomsonCrossSection * p.TauEvent
		}

		return result, p.CurrentContinuumID, nil
	}

	dopplerFactor := geometry.DopplerFactor(p.R, p.Mu, shells.InverseTimeExplosion)

	bf, i0, err := ComputeBoundFree(p, shells, cont, dopplerFactor, chiBfTmpPartial)
	if err != nil {
		return Continuum{}, i0, err
	}

	chiE := nE * shells.ThomsonCrossSection * dopplerFactor
	chiFF := 0.0 // no free-free opacity model yet
	chiCont := bf.ChiBF + chiFF + chiE

	result := Continuum{
		ChiElectron: chiE,
		ChiBF:       bf.ChiBF,
		ChiFF:       chiFF,
		ChiCont:     chiCont,
	}

	if p.IsVirtual {
		// Virtual packets never resolve a continuum interaction; they only
		// accumulate optical depth toward the outer boundary.
		result.ChiBF = 0
		result.ChiFF = 0
		result.DContinuum = geometry.MissDistance

		return result, i0, nil
	}

	result.DContinuum = p.TauEvent / chiCont

	return result, i0, nil
}

// LineOpticalDepth returns the Sobolev optical depth tau_sobolev[k, lineID].
func LineOpticalDepth(lines model.Lines, shellID, lineID int) (float64, error) {
	return lines.TauSobolev.At(shellID, lineID)
}
