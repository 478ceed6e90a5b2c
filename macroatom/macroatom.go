// Package macroatom implements the macro-atom transition walk: starting
// from the upper level of an absorbed line, repeatedly sample a transition
// within the current level's block until a terminal (emitting) transition is
// reached, and report the emission line it produces.
//
// The level/transition tables are read-only per run; the walk itself carries
// no state beyond the current level and does not mutate the model.
package macroatom

import (
	"github.com/pkg/errors"
	"github.com/rajul/tardis/model"
)

// ErrEmptyBlock is returned if a level's transition block has zero entries,
// which would make the cumulative-probability walk unable to terminate.
var ErrEmptyBlock = errors.New("macroatom: level has an empty transition block")

// Walk performs the macro-atom transition walk starting from the upper level
// of the just-absorbed line (nextLineID, 0-based, already pointing at the
// line that was absorbed rather than the next candidate), for the given
// shell. draw01 must return a fresh uniform sample in [0,1) on every call;
// the walk calls it once per level it passes through. It returns the
// emission line id of the terminal transition.
//
// The tabulated transition probabilities for each level's block are assumed
// to sum to 1; if floating-point error leaves the cumulative sum just under
// the drawn U at the last entry in the block, that last entry is taken
// anyway.
func Walk(tables model.MacroAtomTables, shellID, nextLineID int, draw01 func() float64) (int, error) {
	activateLevel := tables.Line2MacroLevelUpper[nextLineID]

	for {
		start := tables.MacroBlockReferences[activateLevel]
		end := len(tables.TransitionType)
		if activateLevel+1 < len(tables.MacroBlockReferences) {
			end = tables.MacroBlockReferences[activateLevel+1]
		}
		if start >= end {
			return 0, errors.Wrapf(ErrEmptyBlock, "level %d", activateLevel)
		}

		u := draw01()

		i := start
		cumulative := 0.0
		for ; i < end-1; i++ {
			p, err := tables.TransitionProbabilities.At(shellID, i)
			if err != nil {
				return 0, err
			}
			cumulative += p
			if cumulative >= u {
				break
			}
		}

		emit := tables.TransitionType[i]
		dest := tables.DestinationLevelID[i]

		if emit == -1 {
			return tables.TransitionLineID[i], nil
		}

		activateLevel = dest
	}
}
