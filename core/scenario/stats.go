package scenario

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/ucommit/core/model"
)

// Stats summarises a batch of scenarios.
type Stats struct {
	Scenarios     int
	Periods       int
	MeanDemand    float64
	StdDemand     float64
	MeanRenewable float64
	StdRenewable  float64
	MeanNetLoad   float64
	MinNetLoad    float64
	MaxNetLoad    float64
	// OverCapacity counts periods whose net load exceeds capacity; every
	// scenario containing one is infeasible.
	OverCapacity int
}

// Summarize computes Stats. capacity is the total p_max of the fleet.
func Summarize(scs []model.Scenario, capacity float64) Stats {
	var demand, renewable, net []float64
	st := Stats{Scenarios: len(scs)}
	for _, sc := range scs {
		for _, p := range sc.Periods {
			demand = append(demand, p.Demand)
			renewable = append(renewable, p.Renewable)
			net = append(net, p.NetLoad())
			if p.NetLoad() > capacity {
				st.OverCapacity++
			}
		}
	}
	st.Periods = len(net)
	if st.Periods == 0 {
		return st
	}
	st.MeanDemand, st.StdDemand = stat.MeanStdDev(demand, nil)
	st.MeanRenewable, st.StdRenewable = stat.MeanStdDev(renewable, nil)
	st.MeanNetLoad = stat.Mean(net, nil)
	st.MinNetLoad = floats.Min(net)
	st.MaxNetLoad = floats.Max(net)
	return st
}
