package ws

import (
	"encoding/json"
	"errors"
	"time"

	"pv_optimizer/internal/model"
	"pv_optimizer/internal/optimizer"
	"pv_optimizer/internal/simulator"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> Server messages

type OptimizeStartPayload struct {
	Strategy    string  `json:"strategy,omitempty"`
	AzimuthStep float64 `json:"azimuth_step,omitempty"`
	TiltStep    float64 `json:"tilt_step,omitempty"`
	Years       []int   `json:"years,omitempty"`
	Workers     int     `json:"workers,omitempty"`
}

// AnalyzeStartPayload analyzes the plant orientation unless both angles are set.
type AnalyzeStartPayload struct {
	Azimuth *float64 `json:"azimuth,omitempty"`
	Tilt    *float64 `json:"tilt,omitempty"`
	Years   []int    `json:"years,omitempty"`
}

// Server -> Client messages

type JobStatePayload struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
}

type JobProgressPayload struct {
	JobID     string  `json:"job_id"`
	Completed int     `json:"completed,omitempty"`
	Total     int     `json:"total,omitempty"`
	Percent   float64 `json:"percent,omitempty"`
	Phase     string  `json:"phase,omitempty"`
}

type OptimizeResultPayload struct {
	JobID             string  `json:"job_id"`
	Azimuth           float64 `json:"azimuth"`
	Tilt              float64 `json:"tilt"`
	Direction         string  `json:"direction"`
	AnnualEnergyKWh   float64 `json:"annual_energy_kwh"`
	BaselineEnergyKWh float64 `json:"baseline_energy_kwh"`
	ImprovementPct    float64 `json:"improvement_pct"`
	Evaluated         int     `json:"evaluated"`
	Strategy          string  `json:"strategy"`
}

type PeakDayInfo struct {
	Date      string  `json:"date"`
	EnergyKWh float64 `json:"energy_kwh"`
}

type AnalyzeResultPayload struct {
	JobID             string          `json:"job_id"`
	MonthlyAverageKWh map[int]float64 `json:"monthly_average_kwh"`
	YearlyTotalKWh    map[int]float64 `json:"yearly_total_kwh"`
	AverageAnnualKWh  float64         `json:"average_annual_kwh"`
	TotalKWh          float64         `json:"total_kwh"`
	PeakDay           PeakDayInfo     `json:"peak_day"`
	TypicalDayW       []float64       `json:"typical_day_w"`
	PeakHour          int             `json:"peak_hour"`
	Samples           int             `json:"samples"`
	Days              int             `json:"days"`
	Savings           *SavingsInfo    `json:"savings,omitempty"`
}

// SavingsInfo omits the payback period when the plant never pays back.
type SavingsInfo struct {
	RatePerKWh         float64  `json:"rate_per_kwh"`
	SystemCost         float64  `json:"system_cost"`
	AnnualSavings      float64  `json:"annual_savings"`
	MonthlySavings     float64  `json:"monthly_savings"`
	PaybackYears       *float64 `json:"payback_years,omitempty"`
	LifetimeNetSavings float64  `json:"lifetime_net_savings"`
	CO2AvoidedTonnes   float64  `json:"co2_avoided_tonnes"`
}

type JobErrorPayload struct {
	JobID string `json:"job_id,omitempty"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PlantLoadedPayload struct {
	Name           string                   `json:"name"`
	Location       model.Location           `json:"location"`
	Orientation    model.PanelOrientation   `json:"orientation"`
	System         model.SystemParameters   `json:"system"`
	Shaded         bool                     `json:"shaded"`
	Recommendation optimizer.Recommendation `json:"recommendation"`
}

// Message type constants
const (
	// Client -> Server
	TypeOptimizeStart = "optimize:start"
	TypeAnalyzeStart  = "analyze:start"
	TypeJobCancel     = "job:cancel"

	// Server -> Client
	TypeJobState       = "job:state"
	TypeJobProgress    = "job:progress"
	TypeOptimizeResult = "optimize:result"
	TypeAnalyzeResult  = "analyze:result"
	TypeJobError       = "job:error"
	TypePlantLoaded    = "plant:loaded"
)

// Error codes carried by job:error.
const (
	CodeInvalidInput = "invalid_input"
	CodeMissingData  = "missing_data"
	CodeBusy         = "busy"
	CodeInternal     = "internal"
)

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func (p OptimizeStartPayload) Request() simulator.OptimizeRequest {
	return simulator.OptimizeRequest{
		Strategy:    optimizer.Strategy(p.Strategy),
		AzimuthStep: p.AzimuthStep,
		TiltStep:    p.TiltStep,
		Years:       p.Years,
		Workers:     p.Workers,
	}
}

func (p AnalyzeStartPayload) Request() simulator.AnalyzeRequest {
	req := simulator.AnalyzeRequest{Years: p.Years}
	if p.Azimuth != nil && p.Tilt != nil {
		req.Orientation = &model.PanelOrientation{Azimuth: *p.Azimuth, Tilt: *p.Tilt}
	}
	return req
}

func JobStateFromEngine(s simulator.JobState) JobStatePayload {
	p := JobStatePayload{ID: s.ID, Kind: string(s.Kind), Status: string(s.Status)}
	if !s.StartedAt.IsZero() {
		p.StartedAt = s.StartedAt.Format(time.RFC3339)
	}
	if !s.FinishedAt.IsZero() {
		p.FinishedAt = s.FinishedAt.Format(time.RFC3339)
	}
	return p
}

func ProgressFromEngine(p simulator.Progress) JobProgressPayload {
	out := JobProgressPayload{JobID: p.JobID, Completed: p.Completed, Total: p.Total, Phase: p.Phase}
	if p.Total > 0 {
		out.Percent = float64(p.Completed) / float64(p.Total) * 100
	}
	return out
}

func OptimizeResultFromEngine(jobID string, r model.OptimizationResult) OptimizeResultPayload {
	return OptimizeResultPayload{
		JobID:             jobID,
		Azimuth:           r.Azimuth,
		Tilt:              r.Tilt,
		Direction:         model.CompassDirection(r.Azimuth),
		AnnualEnergyKWh:   r.AnnualEnergyKWh(),
		BaselineEnergyKWh: r.BaselineEnergyWh / 1000,
		ImprovementPct:    r.ImprovementPct,
		Evaluated:         r.Evaluated,
		Strategy:          r.Strategy,
	}
}

func AnalyzeResultFromEngine(jobID string, r model.HistoricalAnalysisResult) AnalyzeResultPayload {
	p := AnalyzeResultPayload{
		JobID:             jobID,
		MonthlyAverageKWh: r.MonthlyAverageKWh,
		YearlyTotalKWh:    r.YearlyTotalKWh,
		AverageAnnualKWh:  r.AverageAnnualKWh,
		TotalKWh:          r.TotalKWh,
		TypicalDayW:       r.TypicalDay.HourlyW[:],
		PeakHour:          r.TypicalDay.PeakHour,
		Samples:           r.Samples,
		Days:              r.Days,
	}
	if !r.PeakDay.Date.IsZero() {
		p.PeakDay = PeakDayInfo{
			Date:      r.PeakDay.Date.Format(time.DateOnly),
			EnergyKWh: r.PeakDay.EnergyWh / 1000,
		}
	}
	if s := r.Savings; s != nil {
		p.Savings = &SavingsInfo{
			RatePerKWh:         s.RatePerKWh,
			SystemCost:         s.SystemCost,
			AnnualSavings:      s.AnnualSavings,
			MonthlySavings:     s.MonthlySavings,
			LifetimeNetSavings: s.LifetimeNetSavings,
			CO2AvoidedTonnes:   s.CO2AvoidedTonnes,
		}
		if s.PaysBack() {
			years := s.PaybackYears
			p.Savings.PaybackYears = &years
		}
	}
	return p
}

func JobErrorFromEngine(jobID string, err error) JobErrorPayload {
	return JobErrorPayload{JobID: jobID, Code: ErrorCode(err), Error: err.Error()}
}

// ErrorCode classifies an engine error for clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, model.ErrMissingData):
		return CodeMissingData
	case errors.Is(err, simulator.ErrBusy):
		return CodeBusy
	default:
		return CodeInternal
	}
}

func PlantLoadedFromEngine(p model.Plant) PlantLoadedPayload {
	return PlantLoadedPayload{
		Name:           p.Name,
		Location:       p.Location,
		Orientation:    p.Orientation,
		System:         p.System,
		Shaded:         p.Shading != nil,
		Recommendation: optimizer.RuleOfThumb(p.Location.Latitude),
	}
}
