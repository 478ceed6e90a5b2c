package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/montecarlo"
)

// snapshot is the on-disk JSON form of a model prepared by the plasma
// solver: per-shell arrays, the sorted line list with its flat
// shell-major tau_sobolev table, optional continuum-edge data, and the
// initial per-packet state.
type snapshot struct {
	RInner              []float64 `json:"r_inner"`
	ROuter              []float64 `json:"r_outer"`
	ElectronDensity     []float64 `json:"electron_density"`
	ElectronTemperature []float64 `json:"t_electron"`

	TimeExplosion       float64 `json:"time_explosion"`
	SigmaThomson        float64 `json:"sigma_thomson"`
	InnerBoundaryAlbedo float64 `json:"inner_boundary_albedo"`
	ReflectiveInner     bool    `json:"reflective_inner_boundary"`
	ContinuumStatus     bool    `json:"continuum_status"`

	LineListNu []float64 `json:"line_list_nu"`
	TauSobolev []float64 `json:"tau_sobolev"` // flat, shell-major: [k*N_lines + l]

	ContinuumListNu []float64 `json:"continuum_list_nu,omitempty"`
	SigmaBF         []float64 `json:"sigma_bf,omitempty"`
	LPop            []float64 `json:"l_pop,omitempty"`   // flat, shell-major
	LPopR           []float64 `json:"l_pop_r,omitempty"` // flat, shell-major

	SpecStartNu float64 `json:"spectrum_start_nu"`
	SpecEndNu   float64 `json:"spectrum_end_nu"`
	SpecBins    int     `json:"spectrum_bins"`
	VirtStartNu float64 `json:"spectrum_virt_start_nu"`
	VirtEndNu   float64 `json:"spectrum_virt_end_nu"`

	PacketR  []float64 `json:"packet_r"`
	PacketMu []float64 `json:"packet_mu"`
	PacketNu []float64 `json:"packet_nu"`
	PacketE  []float64 `json:"packet_e"`
}

// loadSnapshot reads and decodes a model snapshot file.
func loadSnapshot(path string) (*snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read model snapshot %s", path)
	}

	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrapf(err, "decode model snapshot %s", path)
	}

	return &s, nil
}

// fillTable copies a flat shell-major slice into a freshly allocated
// ShellTable of the given shape.
func fillTable(flat []float64, shells, cols int) (*model.ShellTable, error) {
	t, err := model.NewShellTable(shells, cols)
	if err != nil {
		return nil, err
	}
	for k := 0; k < shells; k++ {
		for c := 0; c < cols; c++ {
			if err := t.Set(k, c, flat[k*cols+c]); err != nil {
				return nil, err
			}
		}
	}

	return t, nil
}

// build converts the decoded snapshot into the StorageModel and PacketInit
// the transport kernel consumes, allocating zeroed estimator and output
// storage along the way.
func (s *snapshot) build() (*model.StorageModel, montecarlo.PacketInit, error) {
	nShells := len(s.RInner)
	nLines := len(s.LineListNu)
	nEdges := len(s.ContinuumListNu)
	nPackets := len(s.PacketNu)

	if len(s.ROuter) != nShells || len(s.ElectronDensity) != nShells || len(s.ElectronTemperature) != nShells {
		return nil, montecarlo.PacketInit{}, model.ErrShellCountMismatch
	}

	inverseNE := make([]float64, nShells)
	for k, ne := range s.ElectronDensity {
		inverseNE[k] = 1.0 / ne
	}

	sm := &model.StorageModel{
		Shells: model.Shells{
			RIn:                     s.RInner,
			ROut:                    s.ROuter,
			ElectronDensity:         s.ElectronDensity,
			InverseElectronDensity:  inverseNE,
			ElectronTemperature:     s.ElectronTemperature,
			TimeExplosion:           s.TimeExplosion,
			InverseTimeExplosion:    1.0 / s.TimeExplosion,
			ThomsonCrossSection:     s.SigmaThomson,
			InnerBoundaryAlbedo:     s.InnerBoundaryAlbedo,
			ReflectiveInnerBoundary: s.ReflectiveInner,
			ContinuumStatus:         s.ContinuumStatus,
		},
		Spectral: model.SpectralWindow{
			NuSpecStart: s.SpecStartNu,
			NuSpecEnd:   s.SpecEndNu,
			DeltaNu:     (s.SpecEndNu - s.SpecStartNu) / float64(s.SpecBins),
			NuVirtStart: s.VirtStartNu,
			NuVirtEnd:   s.VirtEndNu,
		},
		Output: model.NewOutput(nPackets),
	}

	if nLines > 0 {
		tau, err := fillTable(s.TauSobolev, nShells, nLines)
		if err != nil {
			return nil, montecarlo.PacketInit{}, err
		}
		jblues, err := model.NewShellTable(nShells, nLines)
		if err != nil {
			return nil, montecarlo.PacketInit{}, err
		}
		sm.Lines = model.Lines{NuList: s.LineListNu, TauSobolev: tau, JBlues: jblues}
	}

	if nEdges > 0 {
		lpop, err := fillTable(s.LPop, nShells, nEdges)
		if err != nil {
			return nil, montecarlo.PacketInit{}, err
		}
		lpopr, err := fillTable(s.LPopR, nShells, nEdges)
		if err != nil {
			return nil, montecarlo.PacketInit{}, err
		}
		sm.Continuum = model.Continuum{
			NuList:  s.ContinuumListNu,
			SigmaBF: s.SigmaBF,
			LPop:    lpop,
			LPopR:   lpopr,
		}
	}

	est, err := model.NewEstimators(nShells, s.SpecBins, nPackets)
	if err != nil {
		return nil, montecarlo.PacketInit{}, err
	}
	sm.Estimators = est

	init := montecarlo.PacketInit{
		R:  s.PacketR,
		Mu: s.PacketMu,
		Nu: s.PacketNu,
		E:  s.PacketE,
	}

	return sm, init, nil
}
