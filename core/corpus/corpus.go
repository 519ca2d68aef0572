// Package corpus turns solved scenarios into a training corpus for the
// commitment classifiers.
package corpus

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/kilianp07/ucommit/core/model"
)

// Failure records a scenario excluded from the corpus.
type Failure struct {
	ScenarioID string
	Status     model.Status
	Reason     string
}

// Summary counts the outcome of every solve of a build.
type Summary struct {
	Scenarios    int
	Optimal      int
	Infeasible   int
	SolverErrors int
	Samples      int
	Failures     []Failure
}

// Solved pairs a scenario with its optimal solution.
type Solved struct {
	Scenario model.Scenario
	Solution model.CommitmentSolution
}

// Corpus is built once by a Builder and read-only afterwards. Samples are
// ordered by scenario and then by period.
type Corpus struct {
	Generators int
	Samples    []model.FeatureLabelSample
	Train      []model.FeatureLabelSample
	Test       []model.FeatureLabelSample
	Solved     []Solved
	Summary    Summary
}

// Validate checks label integrity: every sample carries one binary label
// per generator.
func (c *Corpus) Validate() error {
	for n, s := range c.Samples {
		if len(s.Labels) != c.Generators {
			return fmt.Errorf("sample %d has %d labels, want %d", n, len(s.Labels), c.Generators)
		}
		for i, l := range s.Labels {
			if l != 0 && l != 1 {
				return fmt.Errorf("sample %d generator %d: label %d not binary", n, i, l)
			}
		}
	}
	return nil
}

// Split partitions samples into train and test subsets. The assignment is a
// seeded permutation so the same seed always yields the same partition.
func Split(samples []model.FeatureLabelSample, trainRatio float64, seed uint64) (train, test []model.FeatureLabelSample) {
	n := len(samples)
	nTrain := int(math.Floor(trainRatio*float64(n) + 1e-9))
	r := rand.New(rand.NewPCG(seed, seed+1))
	perm := r.Perm(n)
	train = make([]model.FeatureLabelSample, 0, nTrain)
	test = make([]model.FeatureLabelSample, 0, n-nTrain)
	for k, idx := range perm {
		if k < nTrain {
			train = append(train, samples[idx])
		} else {
			test = append(test, samples[idx])
		}
	}
	return train, test
}
