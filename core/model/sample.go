package model

// FeatureLabelSample is one training row: the instantaneous forecast and the
// optimal commitment of every generator at that time step.
type FeatureLabelSample struct {
	Features [2]float64 `json:"features"` // demand, renewable
	Labels   []int      `json:"labels"`
}

// NewSample builds the sample for period t of an optimal solution.
func NewSample(p Period, sol CommitmentSolution, t int) FeatureLabelSample {
	return FeatureLabelSample{
		Features: [2]float64{p.Demand, p.Renewable},
		Labels:   sol.StatusVector(t),
	}
}
