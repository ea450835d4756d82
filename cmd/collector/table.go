package main

import (
	"fmt"
	"strconv"

	"github.com/athena-os-2026/sanctions-radar/internal/collector"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderReport(r *collector.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(fmt.Sprintf("Window %s to %s",
		r.Window.Start.Format("2006-01-02 15:04"), r.Window.End.Format("2006-01-02 15:04")))

	tw.AppendHeader(table.Row{"Query", "Category", "Severity", "Fetched", "Status"})
	for _, res := range r.Results {
		status := "ok"
		if res.Err != nil {
			status = "failed: " + truncate(res.Err.Error(), 48)
		}
		tw.AppendRow(table.Row{
			res.Query.Label(),
			res.Query.Category,
			res.Query.Severity,
			strconv.Itoa(res.Fetched),
			status,
		})
	}

	tw.AppendFooter(table.Row{
		"Total",
		"",
		"",
		strconv.Itoa(r.Fetched),
		fmt.Sprintf("kept %d, duplicates %d, failed %d", r.Kept, r.Duplicates, r.Failed),
	})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
