// Package chart renders backend payloads as standalone HTML charts.
package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/fjsm/core/model"
)

// ErrNoTasks is returned when a payload holds no bar that can be drawn.
var ErrNoTasks = errors.New("gantt payload has no drawable tasks")

// GanttHTML renders the Gantt payload of a run as a horizontal stacked bar
// chart, one row per task, offsets measured in minutes from the earliest
// start.
func GanttHTML(runID model.RunID, raw json.RawMessage) (string, error) {
	tasks := model.ParseGantt(raw)
	if len(tasks) == 0 {
		return "", ErrNoTasks
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Resource != tasks[j].Resource {
			return tasks[i].Resource < tasks[j].Resource
		}
		return tasks[i].Start.Before(tasks[j].Start)
	})
	origin := tasks[0].Start
	for _, t := range tasks[1:] {
		if t.Start.Before(origin) {
			origin = t.Start
		}
	}

	labels := make([]string, 0, len(tasks))
	offsets := make([]opts.BarData, 0, len(tasks))
	durations := make([]opts.BarData, 0, len(tasks))
	for _, t := range tasks {
		label := t.Resource
		if t.Job != "" {
			label = t.Resource + " / " + t.Job
		}
		labels = append(labels, label)
		offsets = append(offsets, opts.BarData{Value: t.Start.Sub(origin).Minutes()})
		durations = append(durations, opts.BarData{Name: t.Job, Value: t.Duration().Minutes()})
	}

	title := "Plan"
	if !runID.Empty() {
		title = "Plan " + runID.String()
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "from " + origin.Format("2006-01-02 15:04")}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Minutes"}),
	)
	bar.SetXAxis(labels).
		AddSeries("offset", offsets,
			charts.WithBarChartOpts(opts.BarChart{Stack: "gantt"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "transparent"})).
		AddSeries("duration", durations,
			charts.WithBarChartOpts(opts.BarChart{Stack: "gantt"}))
	bar.XYReversal()

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}
