// Package sampler computes the deterministic sampling plan: which bank
// templates are in play for a run, and the balanced K-slot sequence that
// assigns each slot to exactly one of them.
package sampler

import (
	"fmt"

	"github.com/AltairaLabs/beliefbench/seed"
	"github.com/AltairaLabs/beliefbench/types"
)

// Plan computes the deterministic sampling plan for a run.
//
// tBank is the prompt bank size; t is the number of templates selected for
// this run (1 <= t <= tBank); k is the total number of slots (k >= t).
// claim, model, and promptVersion form the rotation key.
func Plan(claim, model, promptVersion string, tBank, t, k int) (types.SamplingPlan, error) {
	if tBank <= 0 {
		return types.SamplingPlan{}, fmt.Errorf("sampler: bank size must be positive, got %d", tBank)
	}
	if t <= 0 || t > tBank {
		return types.SamplingPlan{}, fmt.Errorf("sampler: T must be in [1, T_bank], got T=%d T_bank=%d", t, tBank)
	}
	if k < t {
		return types.SamplingPlan{}, fmt.Errorf("sampler: K must be >= T, got K=%d T=%d", k, t)
	}

	offset := seed.RotationOffset(claim, model, promptVersion, tBank)

	tplIndices := make([]int, t)
	for i := 0; i < t; i++ {
		tplIndices[i] = (offset + i) % tBank
	}

	base := k / t
	remainder := k % t

	countsByRotatedPos := make([]int, t)
	for i := range countsByRotatedPos {
		countsByRotatedPos[i] = base
		if i < remainder {
			countsByRotatedPos[i]++
		}
	}

	seq := make([]int, 0, k)
	countsByTemplate := make(map[int]int, t)
	for rotatedPos, count := range countsByRotatedPos {
		tplIdx := tplIndices[rotatedPos]
		countsByTemplate[tplIdx] = count
		for occ := 0; occ < count; occ++ {
			seq = append(seq, tplIdx)
		}
	}

	imbalanceRatio := 1.0
	if remainder != 0 {
		imbalanceRatio = float64(base+1) / float64(base)
	}

	return types.SamplingPlan{
		K:                k,
		R:                0, // filled in by the orchestrator, which owns R
		T:                t,
		TBank:            tBank,
		RotationOffset:   offset,
		TplIndices:       tplIndices,
		Seq:              seq,
		CountsByTemplate: countsByTemplate,
		ImbalanceRatio:   imbalanceRatio,
	}, nil
}
