package main

import (
	"log/slog"
	"testing"

	"promptforge/internal/models"
	"promptforge/internal/store"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFindTemplate(t *testing.T) {
	st := store.New()
	id := models.NewID[models.TemplateGroupID]()
	st.SetTemplate(models.TemplateGroup{ID: id, Name: "Space Opera", Sections: map[int]models.SectionMap{0: {}}})

	if got, ok := findTemplate(st, string(id)); !ok || got.ID != id {
		t.Errorf("by id: got %v %v", got.ID, ok)
	}
	if got, ok := findTemplate(st, "space opera"); !ok || got.ID != id {
		t.Errorf("by name: got %v %v", got.ID, ok)
	}
	if _, ok := findTemplate(st, "Western"); ok {
		t.Error("unknown template matched")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"serve": false, "export": false, "snapshot": false, "migrate": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
