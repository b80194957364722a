/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"corevm/internal/gc"
	"corevm/internal/heap"
	"corevm/internal/thread"
)

// Palette mirrors mabhi256-jdiag's internal/tui.styles.go severity
// coloring (critical/warning/good/info/muted), the one complete
// diagnostics TUI in the retrieval pack this core's own monitor is
// grounded on.
var (
	goodColor     = lipgloss.Color("#228B22")
	warningColor  = lipgloss.Color("#FF8800")
	criticalColor = lipgloss.Color("#CC3333")
	mutedColor    = lipgloss.Color("#888888")
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4682B4"))
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "live heap, GC and thread dashboard for a running corevm process",
	Long:  "monitor renders a live terminal dashboard of this process's heap occupancy, collection activity and thread set -- it must run as a subcommand of a process that is also executing Java code to have anything to show, so it is most useful embedded in a test harness or launched alongside -jar in the same process.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tea.NewProgram(newMonitorModel())
		_, err := p.Run()
		return err
	},
}

type tickMsg time.Time

type monitorModel struct {
	heapSpark *sparkline.Model
	heapStats heap.Stats
	gcStats   gc.Stats
	threads   []*thread.ExecThread
	quitting  bool
}

func newMonitorModel() monitorModel {
	spark := sparkline.New(40, 6)
	return monitorModel{heapSpark: &spark}
}

func (m monitorModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "g":
			return m, triggerGC
		}
	case tickMsg:
		m.heapStats = heap.Default().Stats()
		m.threads = thread.AllThreads()
		occupied := 0.0
		if m.heapStats.TotalPages > 0 {
			occupied = float64(m.heapStats.UsedPages) / float64(m.heapStats.TotalPages) * 100
		}
		m.heapSpark.Push(occupied)
		m.heapSpark.Draw()
		return m, tick()
	case gc.Stats:
		m.gcStats = msg
		return m, nil
	}
	return m, nil
}

// triggerGC runs a non-urgent collection cycle and reports its Stats
// back through the bubbletea message loop; 'g' in the dashboard is the
// same cycle internal/gc.Collect's callers (the allocator's
// out-of-memory hook) trigger automatically under pressure.
func triggerGC() tea.Msg {
	stats, err := gc.Collect(context.Background(), false)
	if err != nil {
		return nil
	}
	return stats
}

func (m monitorModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("corevm monitor") + "\n\n")

	b.WriteString(fmt.Sprintf("heap: %d/%d pages used (%d free)\n",
		m.heapStats.UsedPages, m.heapStats.TotalPages, m.heapStats.FreePages))
	b.WriteString(m.heapSpark.View() + "\n\n")

	b.WriteString(fmt.Sprintf("last gc: scanned %d, reclaimed %d, finalized %d, loaders unloaded %d\n\n",
		m.gcStats.Scanned, m.gcStats.Reclaimed, m.gcStats.Finalized, m.gcStats.LoadersUnloaded))

	b.WriteString(fmt.Sprintf("threads (%d):\n", len(m.threads)))
	for _, t := range m.threads {
		marker := goodColor
		if t.Status() != thread.RunningNormal {
			marker = warningColor
		}
		style := lipgloss.NewStyle().Foreground(marker)
		b.WriteString("  " + style.Render(fmt.Sprintf("#%d %-16s %s", t.ID, t.Name, t.Status())) + "\n")
	}

	b.WriteString("\n" + mutedStyle.Render("g: run gc   q: quit"))
	return b.String()
}
