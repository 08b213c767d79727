package optimizer

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"pv_optimizer/internal/model"
	"pv_optimizer/internal/solar"
)

// Request is one orientation search.
type Request struct {
	Model *solar.Model
	Spec  SearchSpec
	// Series is required by StrategyHistorical and ignored otherwise.
	Series []model.WeatherSample
}

// ProgressFunc receives (completed, total) candidate counts. It is never
// called concurrently.
type ProgressFunc func(completed, total int)

// Optimize searches the grid and returns the best orientation. The first
// candidate in evaluation order wins ties.
func Optimize(ctx context.Context, req Request, progress ProgressFunc) (model.OptimizationResult, error) {
	if req.Model == nil {
		return model.OptimizationResult{}, fmt.Errorf("%w: nil power model", model.ErrInvalidInput)
	}
	if err := req.Spec.Validate(); err != nil {
		return model.OptimizationResult{}, err
	}

	eval, err := newEvaluator(req)
	if err != nil {
		return model.OptimizationResult{}, err
	}

	candidates := req.Spec.Candidates()
	energies, err := evaluateAll(ctx, eval, candidates, req.Spec, progress)
	if err != nil {
		return model.OptimizationResult{}, err
	}

	bestIdx := argmax(energies)
	best := candidates[bestIdx]
	bestEnergy := energies[bestIdx]

	baseline := model.HorizontalBaseline(req.Model.Location())
	baseEnergy := eval.AnnualEnergy(baseline)

	// A grid that skips the baseline can still never report a loss.
	if baseEnergy > bestEnergy {
		best, bestEnergy = baseline, baseEnergy
	}

	res := model.OptimizationResult{
		Azimuth:          best.Azimuth,
		Tilt:             best.Tilt,
		AnnualEnergyWh:   bestEnergy,
		BaselineEnergyWh: baseEnergy,
		Evaluated:        len(candidates),
		Strategy:         string(req.Spec.Strategy),
	}
	if baseEnergy > 0 {
		res.ImprovementPct = (bestEnergy - baseEnergy) / baseEnergy * 100
	}
	return res, nil
}

func newEvaluator(req Request) (Evaluator, error) {
	switch req.Spec.Strategy {
	case StrategyHistorical:
		return NewHistoricalEvaluator(req.Model, req.Series)
	default:
		return NewClearSkyEvaluator(req.Model)
	}
}

func evaluateAll(ctx context.Context, eval Evaluator, candidates []model.PanelOrientation, spec SearchSpec, progress ProgressFunc) ([]float64, error) {
	workers := spec.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	every := spec.ProgressEvery
	if every <= 0 {
		every = 10
	}

	total := len(candidates)
	energies := make([]float64, total)

	var mu sync.Mutex
	completed := 0
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if progress != nil && (completed%every == 0 || completed == total) {
			progress(completed, total)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			energies[i] = eval.AnnualEnergy(candidates[i])
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return energies, nil
}

// argmax returns the index of the first maximum. Later candidates replace
// the current best only when strictly greater.
func argmax(values []float64) int {
	idx := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[idx] {
			idx = i
		}
	}
	return idx
}
