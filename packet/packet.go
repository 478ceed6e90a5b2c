// Package packet defines RPacket, the propagating energy bundle the
// transport kernel moves through the atmosphere, and its terminal Status.
//
// Invariants:
//
//	Mu in [-1, 1] always.                                  (CheckInvariants)
//	Nu > 0 always.                                         (CheckInvariants)
//	if LastLine then NextLineID == len(line list).         (CheckLastLineInvariant)
//	TauEvent >= 0 at interaction boundaries on real packets. (not checked)
package packet

import (
	"errors"
	"fmt"
)

// Status is the terminal state of a packet's transport.
type Status int

const (
	// InProcess marks a packet still being transported.
	InProcess Status = iota
	// Emitted marks a packet that escaped through the outer boundary.
	Emitted
	// Reabsorbed marks a packet absorbed by the inner boundary or matter.
	Reabsorbed
)

// String implements fmt.Stringer for readable logs and test failure output.
func (s Status) String() string {
	switch s {
	case InProcess:
		return "InProcess"
	case Emitted:
		return "Emitted"
	case Reabsorbed:
		return "Reabsorbed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ErrInvalidMu indicates Mu left the physical range [-1, 1].
var ErrInvalidMu = errors.New("packet: mu out of [-1,1]")

// ErrNonPositiveNu indicates Nu was not strictly positive.
var ErrNonPositiveNu = errors.New("packet: nu must be > 0")

// ErrLastLineInconsistent indicates LastLine is set but NextLineID has not
// advanced past the end of the line list.
var ErrLastLineInconsistent = errors.New("packet: last_line set but next_line_id has not exhausted the line list")

// RPacket is a single Monte Carlo energy packet in transit through the
// shell-stratified atmosphere.
type RPacket struct {
	ID int

	R  float64 // radius, r >= 0
	Mu float64 // direction cosine, in [-1, 1]
	Nu float64 // lab-frame frequency, > 0
	E  float64 // lab-frame energy, > 0

	CurrentShellID int // index of the shell the packet currently occupies
	NextShell      int // -1 inward, +1 outward; set by the geometry kernel

	NextLineID int     // index of the next line candidate in the sorted line list
	NuLine     float64 // co-moving frequency of the currently active line
	LastLine   bool    // true once NextLineID has exhausted the line list
	CloseLine  bool    // true if the next line is within 1e-7 fractional separation

	RecentlyCrossedBoundary int // +1/-1 if the packet just crossed a shell boundary outward/inward, 0 otherwise

	DBoundary   float64
	DLine       float64
	DContinuum  float64
	ChiElectron float64
	ChiBF       float64
	ChiFF       float64
	ChiCont     float64

	TauEvent float64

	IsVirtual         bool // true if this instance is a peeled-off virtual packet
	VirtualPacketFlag int  // V: number of virtual packets to spawn per real interaction, 0 disables

	CurrentContinuumID int

	Status Status
}

// CheckInvariants validates the invariants every packet must satisfy at
// function boundaries. It is meant for tests and debug assertions, not the
// per-event hot path.
func (p *RPacket) CheckInvariants() error {
	if p.Mu < -1 || p.Mu > 1 {
		return fmt.Errorf("packet %d: %w (mu=%g)", p.ID, ErrInvalidMu, p.Mu)
	}
	if p.Nu <= 0 {
		return fmt.Errorf("packet %d: %w (nu=%g)", p.ID, ErrNonPositiveNu, p.Nu)
	}

	return nil
}

// CheckLastLineInvariant validates that LastLine implies NextLineID has
// exhausted a line list of length nLines. Separate from CheckInvariants
// because it needs the line-list length, which the packet itself doesn't
// carry.
func (p *RPacket) CheckLastLineInvariant(nLines int) error {
	if p.LastLine && p.NextLineID != nLines {
		return fmt.Errorf("packet %d: %w (next_line_id=%d, n_lines=%d)", p.ID, ErrLastLineInconsistent, p.NextLineID, nLines)
	}

	return nil
}
