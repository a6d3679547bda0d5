/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package report renders operator-facing HTML charts with go-echarts,
// the same library and rendering idiom the teacher's
// framework/plugins/multiobjective/util package uses to plot a Pareto
// front. This repo's GA engine is single-objective, so the chart here is
// a line plot of best fitness per epoch instead of a 2D scatter.
package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// WriteConvergence renders history (one best-fitness value per epoch, in
// order) as an HTML line chart at path. It returns an error if history is
// empty or the file cannot be created.
func WriteConvergence(path, title string, history []float64) error {
	if len(history) == 0 {
		return fmt.Errorf("report: empty fitness history for %q", path)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "epoch"}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "fitness",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
	)

	epochs := make([]string, len(history))
	points := make([]opts.LineData, len(history))
	for i, f := range history {
		epochs[i] = fmt.Sprintf("%d", i)
		points[i] = opts.LineData{Value: f}
	}

	line.SetXAxis(epochs).
		AddSeries("best fitness", points).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	return line.Render(f)
}
