package plotting

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/pipeline"
	"github.com/wonny/loadsynth/internal/s3_deviation"
)

// WeekHours is the window of the profile and synthesis plots
const WeekHours = 168

var (
	colorMeasured  = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	colorCorrected = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorProfile   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	colorSynthetic = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	colorWeekend   = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// PNGObserver renders one PNG per stage under Dir/<run id>/
type PNGObserver struct {
	Dir string
}

var _ pipeline.Observer = (*PNGObserver)(nil)

// NewPNGObserver creates an observer writing under dir
func NewPNGObserver(dir string) *PNGObserver {
	return &PNGObserver{Dir: dir}
}

// Observe renders the artifact produced by stage
func (o *PNGObserver) Observe(_ context.Context, stage contracts.Stage, r *pipeline.Result) error {
	var p *plot.Plot
	var err error

	switch stage {
	case contracts.StageCorrection:
		p, err = seriesPlot("Measured vs corrected load", 0, len(r.Corrected),
			named{"measured", r.Raw, colorMeasured},
			named{"corrected", r.Corrected, colorCorrected})
	case contracts.StageCurves:
		p, err = curvesPlot(r)
	case contracts.StageMaxProfile:
		p, err = seriesPlot("Estimated max profile (first week)", 0, WeekHours,
			named{"corrected", r.Corrected, colorCorrected},
			named{"max profile", r.Profile, colorProfile})
	case contracts.StageDeviation:
		p, err = deviationPlot(r.Distribution)
	case contracts.StageSynthesis:
		p, err = seriesPlot("Synthetic vs corrected load (first week)", 0, WeekHours,
			named{"corrected", r.Corrected, colorCorrected},
			named{"synthetic", r.Synthetic, colorSynthetic},
			named{"max profile", r.Profile, colorProfile})
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("plot %s: %w", stage.ShortName(), err)
	}

	dir := filepath.Join(o.Dir, r.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	file := filepath.Join(dir, strings.ToLower(stage.String())+".png")
	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save %s: %w", file, err)
	}
	return nil
}

type named struct {
	name   string
	series contracts.HourlySeries
	color  color.Color
}

// seriesPlot draws the hours [from, to) of each series; missing readings are left out
func seriesPlot(title string, from, to int, lines ...named) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Hour"
	p.Y.Label.Text = "Power (kW)"

	for _, l := range lines {
		end := min(to, len(l.series))
		pts := make(plotter.XYs, 0, max(0, end-from))
		for t := from; t < end; t++ {
			if math.IsNaN(l.series[t]) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(t), Y: l.series[t]})
		}
		if len(pts) == 0 {
			continue
		}
		if err := addLine(p, l.name, pts, l.color); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// curvesPlot draws the January and July daily levels for both day types
func curvesPlot(r *pipeline.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Variation curves (variant %s)", r.Curves.Variant())
	p.X.Label.Text = "Hour of day"
	p.Y.Label.Text = "Normalized level"

	for _, m := range []struct {
		month int
		label string
		dash  bool
	}{{0, "jan", false}, {6, "jul", true}} {
		for _, dt := range []contracts.DayType{contracts.Workday, contracts.Weekend} {
			pts := make(plotter.XYs, contracts.HoursPerDay)
			for h := range pts {
				pts[h] = plotter.XY{X: float64(h), Y: r.Curves.Level(m.month, dt, h)}
			}
			c := color.Color(colorCorrected)
			if dt == contracts.Weekend {
				c = colorWeekend
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return nil, err
			}
			line.Color = c
			line.Width = vg.Points(1.5)
			if m.dash {
				line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
			}
			p.Add(line)
			p.Legend.Add(m.label+" "+dt.String(), line)
		}
	}
	return p, nil
}

func deviationPlot(dist s3_deviation.Distribution) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Relative deviation (%s, n=%d)", dist.Mode(), dist.Size())
	p.X.Label.Text = "Deviation"
	p.Y.Label.Text = "Count"

	hist, err := plotter.NewHist(plotter.Values(s3_deviation.All(dist)), 50)
	if err != nil {
		return nil, err
	}
	hist.FillColor = colorCorrected
	p.Add(hist)
	return p, nil
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, c color.Color) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}
