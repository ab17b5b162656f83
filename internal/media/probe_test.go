package media

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"bulletin/internal/runner"
)

func TestProberDuration(t *testing.T) {
	fake := &fakeRunner{probeOut: "12.480000\n"}
	p := Prober{Runner: fake, FFprobe: "/opt/bin/ffprobe"}

	got, err := p.Duration(context.Background(), "clip.mp4")
	if err != nil {
		t.Fatalf("Duration error: %v", err)
	}
	if got != 12.48 {
		t.Fatalf("duration = %v, want 12.48", got)
	}

	want := []string{"-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", "clip.mp4"}
	if !reflect.DeepEqual(fake.calls[0].args, want) {
		t.Fatalf("args = %q", fake.calls[0].args)
	}
	if fake.calls[0].command != "/opt/bin/ffprobe" {
		t.Fatalf("command = %q", fake.calls[0].command)
	}
}

func TestProberFailures(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeRunner
	}{
		{name: "nonzero exit", fake: &fakeRunner{probeExit: 1}},
		{name: "not a number", fake: &fakeRunner{probeOut: "N/A\n"}},
		{name: "empty", fake: &fakeRunner{probeOut: ""}},
		{name: "infinite", fake: &fakeRunner{probeOut: "inf"}},
		{name: "nan", fake: &fakeRunner{probeOut: "NaN"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prober{Runner: tt.fake}.Duration(context.Background(), "clip.mp4")
			var probeErr *ProbeError
			if !errors.As(err, &probeErr) {
				t.Fatalf("expected ProbeError, got %T: %v", err, err)
			}
		})
	}
}

func TestProberSpawnFailure(t *testing.T) {
	fake := &fakeRunner{spawnFail: map[string]bool{"ffprobe": true}}
	_, err := Prober{Runner: fake}.Duration(context.Background(), "clip.mp4")
	var spawnErr *runner.ProcessSpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected ProcessSpawnError, got %T: %v", err, err)
	}
}
