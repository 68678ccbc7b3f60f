package modelconfig

import (
	"time"

	"github.com/wonny/loadsynth/internal/contracts"
)

// Config는 부하 합성 모델의 전체 설정
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Calendar   Calendar   `yaml:"calendar" json:"calendar"`
	Correction Correction `yaml:"correction" json:"correction"`
	Curves     Curves     `yaml:"curves" json:"curves"`
	Deviation  Deviation  `yaml:"deviation" json:"deviation"`
	Synthesis  Synthesis  `yaml:"synthesis" json:"synthesis"`
	Scaling    Scaling    `yaml:"scaling" json:"scaling"`
}

// Meta 메타 정보
type Meta struct {
	ModelID     string `yaml:"model_id" json:"model_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Calendar 합성 대상 기간
type Calendar struct {
	StartDay  string `yaml:"start_day" json:"start_day"`                       // monday..sunday
	NumYears  int    `yaml:"num_years" json:"num_years"`                       // synthetic years
	StartDate string `yaml:"start_date,omitempty" json:"start_date,omitempty"` // YYYY-MM-DD, timestamps for export only
}

// Correction 온도 보정
type Correction struct {
	Method    string  `yaml:"method" json:"method"` // none | degree_day
	BaseTempC float64 `yaml:"base_temp_c" json:"base_temp_c"`
	Station   string  `yaml:"station,omitempty" json:"station,omitempty"` // Frost source id, e.g. SN18700

	// 기준 연도 (단일 연도 측정에 필수): CSV 파일, 또는 측정 이전 N년 관측의 시간별 평균
	NormalTemperatures string `yaml:"normal_temperatures,omitempty" json:"normal_temperatures,omitempty"`
	NormalYears        int    `yaml:"normal_years,omitempty" json:"normal_years,omitempty"`
}

// Curves 변동 곡선
type Curves struct {
	Variant string `yaml:"variant" json:"variant"` // A | B
}

// Deviation 편차 분포
type Deviation struct {
	Mode string `yaml:"mode" json:"mode"` // shared | individual
}

// Synthesis 확률적 합성
type Synthesis struct {
	Seed         *uint64 `yaml:"seed,omitempty" json:"seed,omitempty"` // omitted = non-deterministic
	Workers      int     `yaml:"workers" json:"workers"`               // 0 = GOMAXPROCS
	BlockHours   int     `yaml:"block_hours" json:"block_hours"`       // 0 = one week
	EnsembleRuns int     `yaml:"ensemble_runs" json:"ensemble_runs"`   // extra redraws for peak statistics
}

// Scaling 결과 스케일링
type Scaling struct {
	TargetPeakKW float64 `yaml:"target_peak_kw" json:"target_peak_kw"` // 0 = keep measured scale
}

// StartWeekday returns the parsed start day; only meaningful after Validate
func (c *Config) StartWeekday() contracts.Weekday {
	d, _ := contracts.ParseWeekday(c.Calendar.StartDay)
	return d
}

// CurveVariant returns the parsed curve variant; only meaningful after Validate
func (c *Config) CurveVariant() contracts.CurveVariant {
	v, _ := contracts.ParseCurveVariant(c.Curves.Variant)
	return v
}

// DeviationMode returns the parsed deviation mode; only meaningful after Validate
func (c *Config) DeviationMode() contracts.DeviationMode {
	m, _ := contracts.ParseDeviationMode(c.Deviation.Mode)
	return m
}

// StartTime returns the first synthetic hour, or zero time when unset
func (c *Config) StartTime() time.Time {
	if c.Calendar.StartDate == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.DateOnly, c.Calendar.StartDate)
	return t
}

// Default returns a valid single-year configuration
func Default() *Config {
	return &Config{
		Meta:       Meta{ModelID: "default", Version: "1"},
		Calendar:   Calendar{StartDay: "monday", NumYears: 1},
		Correction: Correction{Method: "none", BaseTempC: 17},
		Curves:     Curves{Variant: string(contracts.VariantMonthly)},
		Deviation:  Deviation{Mode: string(contracts.ModeShared)},
		Synthesis:  Synthesis{BlockHours: 168},
	}
}

// RunSnapshot 합성 실행 스냅샷 (재현성용)
type RunSnapshot struct {
	ConfigHash  string    `json:"config_hash"`
	ConfigYAML  string    `json:"config_yaml"`
	ModelID     string    `json:"model_id"`
	LoadPointID string    `json:"load_point_id"`
	CreatedAt   time.Time `json:"created_at"`
}
