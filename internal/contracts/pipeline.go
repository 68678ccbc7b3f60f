package contracts

import "time"

// Pipeline Stage 정의 (SSOT)
// Every log line, stage result and stored run uses these constants.
//
// Pipeline flow:
//   S0 → S1 → S2 → S3 → S4 → S5
//   Correction  Curves  MaxProfile  Deviation  Synthesis  Evaluation

// Stage represents a pipeline stage
type Stage string

const (
	// StageCorrection S0: temperature correction of measured load
	// Location: internal/s0_correction/
	StageCorrection Stage = "S0_CORRECTION"

	// StageCurves S1: normalized variation curves (variant A or B)
	// Location: internal/s1_curves/
	StageCurves Stage = "S1_CURVES"

	// StageMaxProfile S2: estimated maximum-power profile
	// Location: internal/s2_profile/
	StageMaxProfile Stage = "S2_MAX_PROFILE"

	// StageDeviation S3: relative deviation distribution (shared or individual)
	// Location: internal/s3_deviation/
	StageDeviation Stage = "S3_DEVIATION"

	// StageSynthesis S4: stochastic resampling into synthetic load
	// Location: internal/s4_synthesis/
	StageSynthesis Stage = "S4_SYNTHESIS"

	// StageEvaluation S5: quality metric of the synthetic series
	// Location: internal/s5_evaluation/
	StageEvaluation Stage = "S5_EVALUATION"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageCorrection:
		return "S0"
	case StageCurves:
		return "S1"
	case StageMaxProfile:
		return "S2"
	case StageDeviation:
		return "S3"
	case StageSynthesis:
		return "S4"
	case StageEvaluation:
		return "S5"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageCorrection:
		return "temperature correction"
	case StageCurves:
		return "variation curves"
	case StageMaxProfile:
		return "estimated max profile"
	case StageDeviation:
		return "relative deviation"
	case StageSynthesis:
		return "stochastic synthesis"
	case StageEvaluation:
		return "model evaluation"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageCorrection,
		StageCurves,
		StageMaxProfile,
		StageDeviation,
		StageSynthesis,
		StageEvaluation,
	}
}

// StageResult represents the result of a pipeline stage execution
type StageResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    time.Duration          `json:"duration_ns"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
