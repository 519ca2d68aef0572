// Package commitment builds and solves the unit-commitment problem for a
// single scenario.
//
// For every generator i and period t the model has a binary status u[i,t]
// and a continuous dispatch p[i,t] >= 0. The objective minimises
//
//	Σ cost_per_unit[i]·p[i,t] + startup_cost[i]·u[i,t]
//
// subject to the power balance Σ_i p[i,t] + renewable[t] = demand[t] and
// p_min[i]·u[i,t] <= p[i,t] <= p_max[i]·u[i,t].
//
// The default formulation charges the startup cost in every committed period
// and does not couple periods. StartupOnTransition charges it on 0→1
// transitions only and EnforceMinUpDown adds minimum up/down time
// constraints; both change the optimal commitments and are opt-in.
//
// Without coupling every period is solved as its own model of one binary
// per generator and the decisions are stitched together. The coupled
// variants are solved as a single model over the whole horizon. The
// configured timeout bounds the whole Solve call in both cases.
package commitment
