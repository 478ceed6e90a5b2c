package geometry_test

import (
	"math"
	"testing"

	"github.com/rajul/tardis/geometry"
	"github.com/rajul/tardis/model"
	"github.com/rajul/tardis/packet"
	"github.com/stretchr/testify/require"
)

func twoShellModel(t *testing.T) model.Shells {
	t.Helper()
	return model.Shells{
		RIn:                  []float64{1e14, 2e14},
		ROut:                 []float64{2e14, 3e14},
		TimeExplosion:        1e6,
		InverseTimeExplosion: 1e-6,
	}
}

func TestDistanceToBoundary_OuterAtHalfRadius(t *testing.T) {
	shells := twoShellModel(t)
	p := &packet.RPacket{R: 1.5e14, Mu: 1.0, CurrentShellID: 0}

	d := geometry.DistanceToBoundary(p, shells)
	require.InDelta(t, shells.ROut[0]-p.R, d, 1e-6)
	require.Equal(t, 1, p.NextShell)
}

func TestDistanceToBoundary_InnerBoundary(t *testing.T) {
	shells := twoShellModel(t)
	p := &packet.RPacket{R: 1.5e14, Mu: -1.0, CurrentShellID: 0}

	d := geometry.DistanceToBoundary(p, shells)
	require.InDelta(t, p.R-shells.RIn[0], d, 1e-6)
	require.Equal(t, -1, p.NextShell)
}

func TestDistanceToBoundary_RecentlyCrossedForcesOutward(t *testing.T) {
	shells := twoShellModel(t)
	p := &packet.RPacket{R: shells.RIn[0], Mu: -1.0, CurrentShellID: 0, RecentlyCrossedBoundary: 1}

	geometry.DistanceToBoundary(p, shells)
	require.Equal(t, 1, p.NextShell)
}

func TestDistanceToLine_LastLineIsMiss(t *testing.T) {
	shells := twoShellModel(t)
	p := &packet.RPacket{R: 1.5e14, Mu: 0, Nu: 1e15, LastLine: true}

	d, err := geometry.DistanceToLine(p, shells, model.Lines{})
	require.NoError(t, err)
	require.Equal(t, geometry.MissDistance, d)
}

func TestDistanceToLine_ComovNuLessThanNuLine(t *testing.T) {
	shells := twoShellModel(t)
	lines := model.Lines{NuList: []float64{2e15, 1e15, 0.5e15}}
	p := &packet.RPacket{R: 1.5e14, Mu: 0, Nu: 1e10, NuLine: 1e15, NextLineID: 1}

	_, err := geometry.DistanceToLine(p, shells, lines)
	require.ErrorIs(t, err, geometry.ErrComovNuLessThanNuLine)
	// The diagnostic names the neighboring lines.
	require.Contains(t, err.Error(), "prev_line_nu")
}

func TestMove_UpdatesPositionExactly(t *testing.T) {
	shells := twoShellModel(t)
	js, _ := model.NewShellVector(1)
	nubar, _ := model.NewShellVector(1)
	est := model.Estimators{JS: js, NubarS: nubar}

	p := &packet.RPacket{R: 1.5e14, Mu: 0.3, Nu: 1e15, E: 1.0, CurrentShellID: 0}
	oldR, oldMu := p.R, p.Mu
	d := 1e12

	_, err := geometry.Move(p, shells, est, d)
	require.NoError(t, err)

	wantR := math.Sqrt(oldR*oldR + d*d + 2*oldR*d*oldMu)
	wantMu := (oldMu*oldR + d) / wantR
	require.InDelta(t, wantR, p.R, 1e-3)
	require.InDelta(t, wantMu, p.Mu, 1e-12)
}

func TestMove_AccumulatesEstimatorsForRealPackets(t *testing.T) {
	shells := twoShellModel(t)
	js, _ := model.NewShellVector(1)
	nubar, _ := model.NewShellVector(1)
	est := model.Estimators{JS: js, NubarS: nubar}

	p := &packet.RPacket{R: 1.5e14, Mu: 0.3, Nu: 1e15, E: 2.0, CurrentShellID: 0}
	_, err := geometry.Move(p, shells, est, 1e12)
	require.NoError(t, err)

	v, _ := js.At(0)
	require.Greater(t, v, 0.0)
}

func TestMove_SkipsEstimatorsForVirtualPackets(t *testing.T) {
	shells := twoShellModel(t)
	js, _ := model.NewShellVector(1)
	nubar, _ := model.NewShellVector(1)
	est := model.Estimators{JS: js, NubarS: nubar}

	p := &packet.RPacket{R: 1.5e14, Mu: 0.3, Nu: 1e15, E: 2.0, CurrentShellID: 0, IsVirtual: true}
	_, err := geometry.Move(p, shells, est, 1e12)
	require.NoError(t, err)

	v, _ := js.At(0)
	require.Equal(t, 0.0, v)
}

func TestDopplerFactor_RoundTrip(t *testing.T) {
	shells := twoShellModel(t)
	d := geometry.DopplerFactor(1.5e14, 0.4, shells.InverseTimeExplosion)
	nu := 1e15
	comov := nu * d
	back := comov / d
	require.InDelta(t, nu, back, 1e-2)
}
