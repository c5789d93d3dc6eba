package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"chunkscribe/internal/history"
	"chunkscribe/internal/pipeline"
	"chunkscribe/internal/preflight"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func renderTable(title string, headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func renderReport(report pipeline.Report, colorize bool) string {
	rows := make([][]string, 0, len(report.Assets))
	for _, asset := range report.Assets {
		output := asset.OutputPath
		if asset.Err != nil {
			output = asset.Err.Error()
		}
		rows = append(rows, []string{
			asset.Asset.Name,
			colorStatus(asset.Status, colorize),
			fmt.Sprintf("%d/%d", asset.Segments-asset.FailedSegments, asset.Segments),
			strconv.Itoa(asset.Cues),
			formatDuration(asset.Asset.Duration),
			formatDuration(asset.Elapsed),
			output,
		})
	}
	title := fmt.Sprintf("Run %s (%s)", shortID(report.RunID), colorStatus(report.Status(), colorize))
	return renderTable(title,
		[]string{"File", "Status", "Segments", "Cues", "Audio", "Elapsed", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func renderRuns(runs []history.Run, colorize bool) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			colorStatus(run.Status, colorize),
			fmt.Sprintf("%d/%d", run.Succeeded, run.AssetCount),
			run.Language,
			formatDuration(run.Duration()),
			run.OutputDir,
		})
	}
	return renderTable("",
		[]string{"Run", "Started", "Status", "Files", "Lang", "Elapsed", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	)
}

func renderHistoryAssets(assets []history.Asset, colorize bool) string {
	rows := make([][]string, 0, len(assets))
	for _, asset := range assets {
		detail := asset.OutputPath
		if asset.ErrorMessage != "" {
			detail = asset.ErrorMessage
		}
		rows = append(rows, []string{
			asset.Name,
			colorStatus(asset.Status, colorize),
			fmt.Sprintf("%d/%d", asset.SegmentCount-asset.FailedSegments, asset.SegmentCount),
			strconv.Itoa(asset.Attempts),
			strconv.Itoa(asset.CueCount),
			formatDuration(asset.AudioDuration),
			detail,
		})
	}
	return renderTable("Files",
		[]string{"File", "Status", "Segments", "Attempts", "Cues", "Audio", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func renderPreflight(results []preflight.Result, colorize bool) string {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		status := "OK"
		color := ansiGreen
		if !result.Passed {
			status, color = "FAIL", ansiRed
		}
		if colorize {
			status = color + status + ansiReset
		}
		rows = append(rows, []string{result.Name, status, result.Detail})
	}
	return renderTable("Checks", []string{"Check", "Result", "Detail"}, rows, nil)
}

func colorStatus(status history.Status, colorize bool) string {
	label := string(status)
	if !colorize {
		return label
	}
	switch status {
	case history.StatusCompleted:
		return ansiGreen + label + ansiReset
	case history.StatusPartial:
		return ansiYellow + label + ansiReset
	case history.StatusFailed, history.StatusRejected:
		return ansiRed + label + ansiReset
	case history.StatusTranscribing:
		return ansiBlue + label + ansiReset
	default:
		return label
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
