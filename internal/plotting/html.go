package plotting

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/pipeline"
)

// Chart is the data of one interactive run chart
type Chart struct {
	Title     string
	Subtitle  string
	Measured  contracts.HourlySeries
	Profile   contracts.HourlySeries
	Synthetic contracts.HourlySeries
}

// ChartFromResult charts a finished pipeline run
func ChartFromResult(r *pipeline.Result) Chart {
	c := Chart{
		Title:     "Synthetic load",
		Subtitle:  "run " + r.RunID,
		Measured:  r.Corrected,
		Profile:   r.Profile,
		Synthetic: r.Synthetic,
	}
	if r.Report != nil {
		c.Subtitle += fmt.Sprintf(" | metric %.1f | peak %.1f kW", r.Report.Metric, r.Report.SyntheticPeak)
	}
	return c
}

// RenderHTML writes a standalone go-echarts page with measured, max profile and
// synthetic load. The zoom window starts on the first week.
func RenderHTML(w io.Writer, c Chart) error {
	n := max(len(c.Measured), len(c.Profile), len(c.Synthetic))
	if n == 0 {
		return fmt.Errorf("render chart: no data")
	}

	hours := make([]string, n)
	for t := range hours {
		hours[t] = strconv.Itoa(t)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.Title, Width: "100%", Height: "640px"}),
		charts.WithTitleOpts(opts.Title{Title: c.Title, Subtitle: c.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Hour", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kW"}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:  "slider",
			Start: 0,
			End:   float32(math.Min(100, 100*float64(WeekHours)/float64(n))),
		}),
	)

	line.SetXAxis(hours)
	if len(c.Measured) > 0 {
		line.AddSeries("measured", lineData(c.Measured))
	}
	if len(c.Profile) > 0 {
		line.AddSeries("max profile", lineData(c.Profile))
	}
	if len(c.Synthetic) > 0 {
		line.AddSeries("synthetic", lineData(c.Synthetic))
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	return line.Render(w)
}

// lineData maps missing readings to gaps
func lineData(s contracts.HourlySeries) []opts.LineData {
	data := make([]opts.LineData, len(s))
	for t, v := range s {
		if math.IsNaN(v) {
			data[t] = opts.LineData{Value: "-"}
			continue
		}
		data[t] = opts.LineData{Value: v}
	}
	return data
}
