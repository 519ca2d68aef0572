package test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ucommit/app"
	"github.com/kilianp07/ucommit/config"
	"github.com/kilianp07/ucommit/core/commitment"
	"github.com/kilianp07/ucommit/core/factory"
	"github.com/kilianp07/ucommit/core/model"
	"github.com/kilianp07/ucommit/core/scenario"
	"github.com/kilianp07/ucommit/test/util"
)

// TestPipeline_PrometheusExposure runs a full training pipeline with the
// Prometheus sink and scrapes the exposed accuracy gauges.
func TestPipeline_PrometheusExposure(t *testing.T) {
	addr, err := util.FreeAddr()
	require.NoError(t, err)

	cfg := &config.Config{
		Scenario: scenario.Config{NumSamples: 20, TimePeriods: 4, HoldOut: scenario.Count(4), Seed: 11},
	}
	cfg.Metrics.PrometheusAddr = addr
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	svc, err := app.New(cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.ServeMetrics(ctx)

	rep, err := svc.Train(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, rep.Summary.Scenarios)
	assert.Zero(t, rep.WarmStart.Mismatches)

	waitCtx, wcancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer wcancel()
	url := "http://" + addr + "/metrics"
	require.NoError(t, util.WaitForMetric(waitCtx, url, `ucommit_classifier_accuracy{generator="2"}`))
	require.NoError(t, util.WaitForMetric(waitCtx, url, `ucommit_solves_total{status="optimal",warm_start="true"}`))
}

// TestOptimizer_RandomFleetLimits checks the physical limits on every
// optimal solution over generated scenarios, recomputing from the solution.
func TestOptimizer_RandomFleetLimits(t *testing.T) {
	gens := config.DefaultGenerators()
	opt, err := commitment.New(commitment.Config{})
	require.NoError(t, err)
	scs := scenario.Generate(25, 6, scenario.Range{Low: 0, High: 260}, scenario.Range{Low: 0, High: 50}, 99)

	var optimal, infeasible int
	for _, sc := range scs {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		sol, err := opt.Solve(ctx, sc, gens)
		cancel()
		require.NoError(t, err)

		overCapacity := false
		for _, p := range sc.Periods {
			if p.NetLoad() > model.TotalCapacity(gens) {
				overCapacity = true
			}
		}
		if overCapacity {
			assert.Equal(t, model.StatusInfeasible, sol.Status, "scenario %s", sc.ID)
		}
		switch sol.Status {
		case model.StatusInfeasible:
			infeasible++
			continue
		case model.StatusOptimal:
			optimal++
		default:
			t.Fatalf("scenario %s: unexpected status %s", sc.ID, sol.Status)
		}

		cost := 0.0
		for period, p := range sc.Periods {
			var total float64
			for i, g := range gens {
				u := sol.At(i, period)
				require.Contains(t, []int{0, 1}, u.Status)
				if u.Status == 0 {
					assert.Zero(t, u.Dispatch)
					continue
				}
				assert.GreaterOrEqual(t, u.Dispatch, g.PMin-1e-6)
				assert.LessOrEqual(t, u.Dispatch, g.PMax+1e-6)
				total += u.Dispatch
				cost += g.CostPerUnit*u.Dispatch + g.StartupCost
			}
			assert.InDelta(t, p.Demand, total+p.Renewable, 1e-6)
		}
		assert.LessOrEqual(t, math.Abs(cost-sol.Objective), 1e-6*(1+cost))
	}
	assert.Positive(t, optimal)
	t.Logf("optimal=%d infeasible=%d", optimal, infeasible)
}
