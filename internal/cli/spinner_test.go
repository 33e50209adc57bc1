package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/profile"
)

func captureStderr(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stderr
	stderr = &syncWriter{w: &buf}
	t.Cleanup(func() { stderr = prev })
	return &buf
}

func TestSpinnerBasic(t *testing.T) {
	buf := captureStderr(t)
	s := newSpinner(context.Background(), "Looking up layout...")
	s.Start()
	time.Sleep(2 * spinnerInterval)
	s.Stop()

	if !s.Cancelled() {
		t.Error("Cancelled() = false after Stop")
	}
	if !strings.Contains(buf.String(), "Looking up layout...") {
		t.Errorf("spinner output %q missing message", buf.String())
	}
}

func TestSpinnerWithContext(t *testing.T) {
	captureStderr(t)
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinner(ctx, "Testing with context...")
	s.Start()
	cancel()
	time.Sleep(spinnerInterval)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	captureStderr(t)
	s := newSpinner(context.Background(), "Testing idempotent stop...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithStatus(t *testing.T) {
	captureStderr(t)
	out := captureStdout(t)

	s := newSpinner(context.Background(), "Testing success...")
	s.Start()
	s.StopWithSuccess("Done!")

	s = newSpinner(context.Background(), "Testing error...")
	s.Start()
	s.StopWithError("Failed!")

	got := out.String()
	for _, want := range []string{"Done!", "Failed!"} {
		if !strings.Contains(got, want) {
			t.Errorf("stdout %q missing %q", got, want)
		}
	}
}

func TestSpinnerFollowsLayout(t *testing.T) {
	captureStderr(t)
	ctx := context.Background()
	cfg := config.MustDefault()
	cfg.Layout.MaxProfiles = 2

	s := newSpinner(ctx, "Looking up layout...")
	s.OnLayoutStart(ctx, 3)
	if got := s.Message(); got != "Laying out 3 profiles..." {
		t.Errorf("message after start = %q", got)
	}

	_, err := layout.Compute(ctx, []profile.Profile{
		{ID: "a", Generation: 1},
		{ID: "b", FatherID: "a", Generation: 2},
		{ID: "c", FatherID: "a", Generation: 2},
	}, cfg, layout.Options{Hooks: s})
	if err != nil {
		t.Fatal(err)
	}
	got := s.Message()
	if !strings.HasPrefix(got, "Placed 3 people in ") {
		t.Errorf("message after layout = %q", got)
	}
	if !strings.Contains(got, "over capacity") {
		t.Errorf("capacity warning not shown: %q", got)
	}
}
