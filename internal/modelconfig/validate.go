package modelconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/loadsynth/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const maxEnsembleRuns = 10_000

const maxNormalYears = 30

// Validate checks all required constraints and normalizes selector spellings
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ModelID == "" {
		return ValidationError{"meta.model_id", "required"}
	}

	// === Calendar ===
	day, err := contracts.ParseWeekday(cfg.Calendar.StartDay)
	if err != nil {
		return ValidationError{"calendar.start_day", err.Error()}
	}
	cfg.Calendar.StartDay = day.String()
	if cfg.Calendar.NumYears < 1 || cfg.Calendar.NumYears > 100 {
		return ValidationError{"calendar.num_years", "must be in [1, 100]"}
	}
	if cfg.Calendar.StartDate != "" {
		date, err := time.Parse(time.DateOnly, cfg.Calendar.StartDate)
		if err != nil {
			return ValidationError{"calendar.start_date", "must be YYYY-MM-DD"}
		}
		if weekdayOf(date) != day {
			return ValidationError{"calendar.start_date", fmt.Sprintf("%s is not a %s", cfg.Calendar.StartDate, day)}
		}
	}

	// === Correction ===
	switch strings.ToLower(cfg.Correction.Method) {
	case "", "none":
		cfg.Correction.Method = "none"
	case "degree_day":
		cfg.Correction.Method = "degree_day"
		if cfg.Correction.BaseTempC < -30 || cfg.Correction.BaseTempC > 40 {
			return ValidationError{"correction.base_temp_c", "must be in [-30, 40]"}
		}
	default:
		return ValidationError{"correction.method", "must be none or degree_day"}
	}
	if cfg.Correction.NormalYears < 0 || cfg.Correction.NormalYears > maxNormalYears {
		return ValidationError{"correction.normal_years", fmt.Sprintf("must be in [0, %d]", maxNormalYears)}
	}

	// === Curves / Deviation ===
	variant, err := contracts.ParseCurveVariant(cfg.Curves.Variant)
	if err != nil {
		return ValidationError{"curves.variant", "must be A or B"}
	}
	cfg.Curves.Variant = string(variant)

	mode, err := contracts.ParseDeviationMode(cfg.Deviation.Mode)
	if err != nil {
		return ValidationError{"deviation.mode", "must be shared or individual"}
	}
	cfg.Deviation.Mode = string(mode)

	// === Synthesis ===
	if cfg.Synthesis.Workers < 0 {
		return ValidationError{"synthesis.workers", "must be >= 0"}
	}
	if cfg.Synthesis.BlockHours < 0 {
		return ValidationError{"synthesis.block_hours", "must be >= 0"}
	}
	if cfg.Synthesis.EnsembleRuns < 0 || cfg.Synthesis.EnsembleRuns > maxEnsembleRuns {
		return ValidationError{"synthesis.ensemble_runs", fmt.Sprintf("must be in [0, %d]", maxEnsembleRuns)}
	}

	// === Scaling ===
	if cfg.Scaling.TargetPeakKW < 0 {
		return ValidationError{"scaling.target_peak_kw", "must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Synthesis.Seed == nil {
		warnings = append(warnings, Warning{
			Code:    "NO_SEED",
			Message: "synthesis.seed 미설정: 결과 재현 불가",
		})
	}

	if cfg.Correction.Method == "none" {
		warnings = append(warnings, Warning{
			Code:    "NO_CORRECTION",
			Message: "온도 보정 없음: 측정 연도의 기상이 곡선에 그대로 반영됨",
		})
	}

	if cfg.Correction.Method == "degree_day" && cfg.Correction.Station == "" {
		warnings = append(warnings, Warning{
			Code:    "NO_STATION",
			Message: "correction.station 미설정: 온도 시계열을 직접 제공해야 함",
		})
	}

	if cfg.Correction.Method == "degree_day" && cfg.Correction.NormalTemperatures == "" && cfg.Correction.NormalYears == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_NORMAL_YEAR",
			Message: "기준 연도 미설정: 1년 측정값은 보정 불가 (normal_temperatures 또는 normal_years)",
		})
	}

	if cfg.Synthesis.BlockHours > 0 && cfg.Synthesis.BlockHours%contracts.HoursPerDay != 0 {
		warnings = append(warnings, Warning{
			Code:    "PARTIAL_DAY_BLOCK",
			Message: "block_hours가 24의 배수가 아님",
		})
	}

	return warnings
}

// weekdayOf maps time.Weekday (Sunday first) to contracts.Weekday (Monday first)
func weekdayOf(t time.Time) contracts.Weekday {
	return contracts.Weekday((int(t.Weekday()) + 6) % 7)
}
