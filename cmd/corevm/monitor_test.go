/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"corevm/internal/gc"
)

func TestMonitorModelAppliesTick(t *testing.T) {
	m := newMonitorModel()
	updated, cmd := m.Update(tickMsg(time.Now()))
	mm := updated.(monitorModel)
	if mm.heapStats.TotalPages == 0 {
		t.Fatalf("expected heap stats to be populated after a tick, got %+v", mm.heapStats)
	}
	if cmd == nil {
		t.Fatal("expected tick to schedule another tick command")
	}
}

func TestMonitorModelAppliesGCStats(t *testing.T) {
	m := newMonitorModel()
	stats := gc.Stats{Scanned: 10, Reclaimed: 3, Finalized: 1, LoadersUnloaded: 0}
	updated, _ := m.Update(stats)
	mm := updated.(monitorModel)
	if mm.gcStats != stats {
		t.Fatalf("gcStats = %+v, want %+v", mm.gcStats, stats)
	}
}

func TestMonitorModelQuitsOnQ(t *testing.T) {
	m := newMonitorModel()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	mm := updated.(monitorModel)
	if !mm.quitting {
		t.Fatal("expected 'q' to set quitting")
	}
	if cmd == nil {
		t.Fatal("expected 'q' to return a quit command")
	}
}

func TestMonitorViewRendersWithoutPanicking(t *testing.T) {
	m := newMonitorModel()
	updated, _ := m.Update(tickMsg(time.Now()))
	mm := updated.(monitorModel)
	view := mm.View()
	if !strings.Contains(view, "corevm monitor") {
		t.Fatalf("View() = %q, want it to contain the dashboard title", view)
	}
}
