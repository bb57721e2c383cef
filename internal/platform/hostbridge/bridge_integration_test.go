package hostbridge_test

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"bnkchallenge/internal/platform/hostbridge"
)

func TestLaunchHostSimulatorCompletesMonitoring(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the host simulator")
	}
	binPath := buildHostSim(t)
	t.Setenv("HOSTSIM_TICK", "5ms")
	t.Setenv("HOSTSIM_SPEED_MPS", "20000")
	t.Setenv("HOSTSIM_START_OFFSET_M", "150")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	bridge, err := hostbridge.Launch(ctx, binPath, nil)
	if err != nil {
		t.Fatalf("launch host simulator: %v", err)
	}
	defer bridge.Close()

	if bridge.Info().Name != "hostsim" || !bridge.Has(hostbridge.CapabilityGeofence) {
		t.Fatalf("unexpected info %+v", bridge.Info())
	}
	events, unsubscribe := bridge.Subscribe(256)
	defer unsubscribe()

	if err := bridge.StartMonitoring(ctx, "mission-3", 35.1939, 129.0615, 25*time.Millisecond); err != nil {
		t.Fatalf("start monitoring: %v", err)
	}
	progress := 0
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event stream closed early")
			}
			switch ev.Kind {
			case hostbridge.EventProgress:
				progress++
			case hostbridge.EventCompletion:
				if ev.Completion.MissionID != "mission-3" {
					t.Fatalf("unexpected completion %+v", ev.Completion)
				}
				if progress == 0 {
					t.Fatalf("expected progress before completion")
				}
				return
			}
		case <-ctx.Done():
			t.Fatalf("no completion from host simulator")
		}
	}
}

func buildHostSim(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "bnk-hostsim")
	cmd := exec.Command("go", "build", "-o", binPath, "./plugins/hostsim")
	cmd.Dir = repositoryRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build host simulator: %v\n%s", err, string(out))
	}
	return binPath
}

func repositoryRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../../../"))
}
