package ws

import (
	"pv_optimizer/internal/model"
	"pv_optimizer/internal/simulator"
)

// Bridge implements simulator.Callback and publishes job events on the hub.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) OnJobState(s simulator.JobState) {
	b.hub.Publish(TypeJobState, JobStateFromEngine(s))
}

func (b *Bridge) OnProgress(p simulator.Progress) {
	b.hub.Publish(TypeJobProgress, ProgressFromEngine(p))
}

func (b *Bridge) OnOptimization(jobID string, r model.OptimizationResult) {
	b.hub.Publish(TypeOptimizeResult, OptimizeResultFromEngine(jobID, r))
}

func (b *Bridge) OnAnalysis(jobID string, r model.HistoricalAnalysisResult) {
	b.hub.Publish(TypeAnalyzeResult, AnalyzeResultFromEngine(jobID, r))
}

func (b *Bridge) OnFailure(jobID string, err error) {
	b.hub.Publish(TypeJobError, JobErrorFromEngine(jobID, err))
}
