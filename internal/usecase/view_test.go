package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"quickResume/internal/domain"
)

func TestViewBuilder_Build(t *testing.T) {
	records := []domain.ProcessRecord{
		{Name: "b.exe", PID: 2},
		{Name: "game.exe", PID: 3, IsSuspended: true},
		{Name: "a.exe", PID: 1, WindowTitle: "Game Launcher"},
	}

	tests := []struct {
		name          string
		classifier    nameClassifier
		filter        domain.Filter
		wantActive    []int
		wantSuspended []int
	}{
		{"No filter", nil, domain.Filter{}, []int{2, 1}, []int{3}},
		{"Query on title", nil, domain.Filter{Query: "launcher"}, []int{1}, []int{}},
		{"Games only without classifier", nil, domain.Filter{GamesOnly: true}, []int{2, 1}, []int{3}},
		{"Games only", nameClassifier{"game.exe": true}, domain.Filter{GamesOnly: true}, []int{}, []int{3}},
		{"Nothing matches", nil, domain.Filter{Query: "zzz"}, []int{}, []int{}},
	}

	pids := func(rs []domain.ProcessRecord) []int {
		out := []int{}
		for _, r := range rs {
			out = append(out, r.PID)
		}
		return out
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewViewBuilder(nil)
			if tt.classifier != nil {
				builder = NewViewBuilder(tt.classifier)
			}

			view := builder.Build(context.Background(), records, 7, tt.filter)

			if view.Version != 7 {
				t.Errorf("Version = %d, expected 7", view.Version)
			}
			if diff := cmp.Diff(tt.wantActive, pids(view.Active)); diff != "" {
				t.Errorf("active mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantSuspended, pids(view.Suspended)); diff != "" {
				t.Errorf("suspended mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProcessView_JSONKeys(t *testing.T) {
	view := NewViewBuilder(nil).Build(context.Background(), nil, 1, domain.Filter{Query: "game", GamesOnly: true})

	data, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	got := string(data)
	for _, want := range []string{`"filter":{"query":"game","gamesOnly":true}`, `"active":[]`, `"suspended":[]`} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %s in %s", want, got)
		}
	}
}
