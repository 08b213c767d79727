// Package simulator runs optimization and historical-analysis jobs in the
// background and reports their lifecycle to a Callback.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pv_optimizer/internal/history"
	"pv_optimizer/internal/log"
	"pv_optimizer/internal/model"
	"pv_optimizer/internal/optimizer"
	"pv_optimizer/internal/solar"
	"pv_optimizer/internal/weather"
)

// ErrBusy is returned when a job is started while another one runs.
var ErrBusy = errors.New("a job is already running")

type JobKind string

const (
	JobOptimize JobKind = "optimize"
	JobAnalyze  JobKind = "analyze"
)

type JobStatus string

const (
	StatusIdle     JobStatus = "idle"
	StatusRunning  JobStatus = "running"
	StatusDone     JobStatus = "done"
	StatusFailed   JobStatus = "failed"
	StatusCanceled JobStatus = "canceled"
)

// JobState is the lifecycle snapshot of the current or last job.
type JobState struct {
	ID         string    `json:"id"`
	Kind       JobKind   `json:"kind"`
	Status     JobStatus `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Running reports whether the job has not finished yet.
func (s JobState) Running() bool { return s.Status == StatusRunning }

// Progress is either a candidate count (optimize) or a phase message (analyze).
type Progress struct {
	JobID     string `json:"job_id"`
	Completed int    `json:"completed,omitempty"`
	Total     int    `json:"total,omitempty"`
	Phase     string `json:"phase,omitempty"`
}

// Callback receives job events. Methods are called from the job goroutine.
type Callback interface {
	OnJobState(s JobState)
	OnProgress(p Progress)
	OnOptimization(jobID string, r model.OptimizationResult)
	OnAnalysis(jobID string, r model.HistoricalAnalysisResult)
	OnFailure(jobID string, err error)
}

// SourceFactory builds the weather source for a plant location.
type SourceFactory func(loc model.Location) weather.YearSource

// OptimizeRequest overrides the engine defaults for one optimization.
// Zero fields keep the defaults.
type OptimizeRequest struct {
	Strategy    optimizer.Strategy `json:"strategy,omitempty"`
	AzimuthStep float64            `json:"azimuth_step,omitempty"`
	TiltStep    float64            `json:"tilt_step,omitempty"`
	Years       []int              `json:"years,omitempty"`
	Workers     int                `json:"workers,omitempty"`
}

// AnalyzeRequest selects the orientation and years for a historical analysis.
// A nil Orientation uses the plant orientation.
type AnalyzeRequest struct {
	Orientation *model.PanelOrientation `json:"orientation,omitempty"`
	Years       []int                   `json:"years,omitempty"`
}

// Engine owns the plant being studied and runs at most one job at a time.
type Engine struct {
	mu       sync.Mutex
	callback Callback
	sources  SourceFactory
	calc     solar.Calculator

	plant    model.Plant
	hasPlant bool
	search   optimizer.SearchSpec
	years    []int

	state  JobState
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an engine with default search settings and no plant.
// sources may be nil, in which case clear-sky years are synthesized.
func New(cb Callback, sources SourceFactory) *Engine {
	return &Engine{
		callback: cb,
		sources:  sources,
		calc:     solar.Simple{},
		search:   optimizer.DefaultSearchSpec(),
		state:    JobState{Status: StatusIdle},
	}
}

// SetPlant validates and installs the plant used by subsequent jobs.
func (e *Engine) SetPlant(p model.Plant) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plant = p
	e.hasPlant = true
	return nil
}

func (e *Engine) Plant() model.Plant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plant
}

func (e *Engine) SetCalculator(c solar.Calculator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c == nil {
		c = solar.Simple{}
	}
	e.calc = c
}

func (e *Engine) SetSearch(spec optimizer.SearchSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search = spec
	return nil
}

// SetYears sets the default years used by historical jobs.
func (e *Engine) SetYears(years []int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.years = append([]int(nil), years...)
}

// State returns the current or last job state.
func (e *Engine) State() JobState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// StartOptimize launches an optimization job and returns its ID.
func (e *Engine) StartOptimize(req OptimizeRequest) (string, error) {
	return e.start(JobOptimize, func(ctx context.Context, id string) error {
		res, err := e.RunOptimize(ctx, req, func(completed, total int) {
			e.emitProgress(Progress{JobID: id, Completed: completed, Total: total})
		})
		if err != nil {
			return err
		}
		if e.callback != nil {
			e.callback.OnOptimization(id, res)
		}
		return nil
	})
}

// StartAnalyze launches a historical analysis job and returns its ID.
func (e *Engine) StartAnalyze(req AnalyzeRequest) (string, error) {
	return e.start(JobAnalyze, func(ctx context.Context, id string) error {
		res, err := e.RunAnalyze(ctx, req, func(phase string) {
			e.emitProgress(Progress{JobID: id, Phase: phase})
		})
		if err != nil {
			return err
		}
		if e.callback != nil {
			e.callback.OnAnalysis(id, res)
		}
		return nil
	})
}

// Cancel stops the running job. It reports whether a job was running.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel == nil || !e.state.Running() {
		return false
	}
	e.cancel()
	return true
}

// Wait blocks until the current job, if any, has finished.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (e *Engine) start(kind JobKind, run func(ctx context.Context, id string) error) (string, error) {
	e.mu.Lock()
	if e.state.Running() {
		e.mu.Unlock()
		return "", ErrBusy
	}
	if !e.hasPlant {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: no plant configured", model.ErrInvalidInput)
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	e.state = JobState{ID: id, Kind: kind, Status: StatusRunning, StartedAt: time.Now().UTC()}
	e.cancel = cancel
	e.done = make(chan struct{})
	state, done := e.state, e.done
	e.mu.Unlock()

	log.Infow("job started", "id", id, "kind", kind)
	e.emitState(state)

	go func() {
		defer close(done)
		defer cancel()
		err := run(ctx, id)
		e.finish(id, err)
	}()
	return id, nil
}

func (e *Engine) finish(id string, err error) {
	status := StatusDone
	switch {
	case err == nil:
	case errors.Is(err, model.ErrCanceled):
		status = StatusCanceled
	default:
		status = StatusFailed
	}

	e.mu.Lock()
	e.state.Status = status
	e.state.FinishedAt = time.Now().UTC()
	e.cancel = nil
	state := e.state
	e.mu.Unlock()

	if status == StatusFailed {
		log.Errorw("job failed", "id", id, "error", err)
		if e.callback != nil {
			e.callback.OnFailure(id, err)
		}
	} else {
		log.Infow("job finished", "id", id, "status", status, "elapsed", state.FinishedAt.Sub(state.StartedAt))
	}
	e.emitState(state)
}

// RunOptimize runs an optimization synchronously. progress may be nil.
func (e *Engine) RunOptimize(ctx context.Context, req OptimizeRequest, progress optimizer.ProgressFunc) (model.OptimizationResult, error) {
	m, err := e.powerModel()
	if err != nil {
		return model.OptimizationResult{}, err
	}
	spec := e.searchFor(req)
	if err := spec.Validate(); err != nil {
		return model.OptimizationResult{}, err
	}

	oreq := optimizer.Request{Model: m, Spec: spec}
	if spec.Strategy == optimizer.StrategyHistorical {
		series, err := e.sequence(m.Location(), req.Years).Collect(ctx)
		if err != nil {
			return model.OptimizationResult{}, err
		}
		oreq.Series = series
	}

	for ev := range optimizer.Run(ctx, oreq) {
		switch ev.Kind {
		case optimizer.EventProgress:
			if progress != nil {
				progress(ev.Completed, ev.Total)
			}
		case optimizer.EventResult:
			return ev.Result, nil
		case optimizer.EventFailure:
			return model.OptimizationResult{}, ev.Err
		}
	}
	return model.OptimizationResult{}, errors.New("optimizer stopped without a result")
}

// RunAnalyze runs a historical analysis synchronously. progress may be nil.
func (e *Engine) RunAnalyze(ctx context.Context, req AnalyzeRequest, progress func(string)) (model.HistoricalAnalysisResult, error) {
	m, err := e.powerModel()
	if err != nil {
		return model.HistoricalAnalysisResult{}, err
	}
	plant := e.Plant()
	o := plant.Orientation
	if req.Orientation != nil {
		o = *req.Orientation
	}
	res, err := history.Aggregate(ctx, e.sequence(m.Location(), req.Years), m, o, progress)
	if err != nil {
		return res, err
	}
	savings, err := history.PlantSavings(res, plant)
	if err != nil {
		return res, err
	}
	res.Savings = &savings
	return res, nil
}

func (e *Engine) powerModel() (*solar.Model, error) {
	e.mu.Lock()
	p, calc, ok := e.plant, e.calc, e.hasPlant
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: no plant configured", model.ErrInvalidInput)
	}
	return solar.NewModel(p.Location, p.System, p.Shading, calc)
}

func (e *Engine) searchFor(req OptimizeRequest) optimizer.SearchSpec {
	e.mu.Lock()
	spec := e.search
	e.mu.Unlock()
	if req.Strategy != "" {
		spec.Strategy = req.Strategy
	}
	if req.AzimuthStep > 0 {
		spec.AzimuthStep = req.AzimuthStep
	}
	if req.TiltStep > 0 {
		spec.TiltStep = req.TiltStep
	}
	if req.Workers > 0 {
		spec.Workers = req.Workers
	}
	return spec
}

func (e *Engine) sequence(loc model.Location, years []int) *weather.Sequence {
	e.mu.Lock()
	if len(years) == 0 {
		years = e.years
	}
	calc := e.calc
	e.mu.Unlock()

	var src weather.YearSource
	if e.sources != nil {
		src = e.sources(loc)
	} else {
		src = &weather.ClearSkySource{Calculator: calc, Location: loc}
	}
	return weather.NewSequence(src, years...)
}

func (e *Engine) emitState(s JobState) {
	if e.callback != nil {
		e.callback.OnJobState(s)
	}
}

func (e *Engine) emitProgress(p Progress) {
	if e.callback != nil {
		e.callback.OnProgress(p)
	}
}
