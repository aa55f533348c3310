package pipeline

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestExecuteRunsStepsInOrder(t *testing.T) {
	runner := NewRunner(zaptest.NewLogger(t))

	var order []string
	steps := []Step{
		{Name: "first", Run: func(ctx context.Context, state State) error {
			order = append(order, "first")
			state["value"] = "from-first"
			return nil
		}},
		{Name: "second", Run: func(ctx context.Context, state State) error {
			order = append(order, "second")
			if state.String("value") != "from-first" {
				t.Error("Expected state from the first step")
			}
			return nil
		}},
	}

	records, err := runner.Execute(context.Background(), steps, State{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("Expected steps in order, got %v", order)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Error != "" {
			t.Errorf("Expected no stage error, got %q", rec.Error)
		}
		if rec.FinishedAt.Before(rec.StartedAt) {
			t.Error("Expected FinishedAt after StartedAt")
		}
	}
}

func TestExecuteStopsAtFirstFailure(t *testing.T) {
	runner := NewRunner(zaptest.NewLogger(t))
	boom := errors.New("boom")

	ran := make(map[string]bool)
	steps := []Step{
		{Name: "ok", Run: func(ctx context.Context, state State) error {
			ran["ok"] = true
			return nil
		}},
		{Name: "fails", Run: func(ctx context.Context, state State) error {
			ran["fails"] = true
			return boom
		}},
		{Name: "never", Run: func(ctx context.Context, state State) error {
			ran["never"] = true
			return nil
		}},
	}

	records, err := runner.Execute(context.Background(), steps, State{})
	if !errors.Is(err, boom) {
		t.Errorf("Expected the step error, got %v", err)
	}
	if ran["never"] {
		t.Error("Expected execution to stop at the failing step")
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[1].Error == "" {
		t.Error("Expected the failing record to carry the error")
	}
}

func TestExecuteCleanupsRunInReverse(t *testing.T) {
	runner := NewRunner(zaptest.NewLogger(t))

	var cleaned []string
	steps := []Step{
		{
			Name:    "a",
			Run:     func(ctx context.Context, state State) error { return nil },
			Cleanup: func(state State) { cleaned = append(cleaned, "a") },
		},
		{
			Name:    "b",
			Run:     func(ctx context.Context, state State) error { return nil },
			Cleanup: func(state State) { cleaned = append(cleaned, "b") },
		},
	}

	if _, err := runner.Execute(context.Background(), steps, State{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(cleaned) != 2 || cleaned[0] != "b" || cleaned[1] != "a" {
		t.Errorf("Expected reverse-order cleanup, got %v", cleaned)
	}
}

func TestExecuteCleanupsRunOnFailure(t *testing.T) {
	runner := NewRunner(zaptest.NewLogger(t))

	var cleaned []string
	steps := []Step{
		{
			Name:    "setup",
			Run:     func(ctx context.Context, state State) error { return nil },
			Cleanup: func(state State) { cleaned = append(cleaned, "setup") },
		},
		{
			Name: "fails",
			Run: func(ctx context.Context, state State) error {
				return errors.New("boom")
			},
			Cleanup: func(state State) { cleaned = append(cleaned, "fails") },
		},
	}

	if _, err := runner.Execute(context.Background(), steps, State{}); err == nil {
		t.Fatal("Expected error")
	}
	// The failing step's cleanup was registered before it ran
	if len(cleaned) != 2 || cleaned[0] != "fails" || cleaned[1] != "setup" {
		t.Errorf("Expected both cleanups in reverse order, got %v", cleaned)
	}
}

func TestStateString(t *testing.T) {
	state := State{"path": "/tmp/x.wav", "count": 3}

	if got := state.String("path"); got != "/tmp/x.wav" {
		t.Errorf("Expected path value, got %q", got)
	}
	if got := state.String("count"); got != "" {
		t.Errorf("Expected empty string for non-string value, got %q", got)
	}
	if got := state.String("missing"); got != "" {
		t.Errorf("Expected empty string for missing key, got %q", got)
	}
}
