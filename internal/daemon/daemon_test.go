package daemon

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PontusDahlberg/Semesterappen/internal/budget"
	"go.uber.org/zap"
)

type fakePlanner struct {
	mu       sync.Mutex
	dirty    bool
	degraded bool
	saves    int
	saveErr  error
}

func (f *fakePlanner) Summary() budget.Summary {
	return budget.Summary{BudgetDays: 108, Consumed: 2, Remaining: 106}
}

func (f *fakePlanner) Save(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.dirty = false
	return nil
}

func (f *fakePlanner) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}

func (f *fakePlanner) Degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degraded
}

func (f *fakePlanner) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

func startDaemon(t *testing.T, p Planner, opts Options) (*Daemon, context.CancelFunc, <-chan error) {
	t.Helper()
	opts.Address = "127.0.0.1:0"
	d := NewDaemon(p, okHandler(), opts, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-d.Ready():
	case err := <-done:
		t.Fatalf("Run() returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not become ready")
	}
	return d, cancel, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
		return nil
	}
}

func TestRun_ServesAndFlushesOnShutdown(t *testing.T) {
	p := &fakePlanner{dirty: true}
	d, cancel, done := startDaemon(t, p, Options{})

	resp, err := http.Get("http://" + d.Addr() + "/")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	cancel()
	if err := waitDone(t, done); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if p.saveCount() != 1 {
		t.Errorf("saves = %d, want 1 final save", p.saveCount())
	}
}

func TestRun_NoFlushWhenDegraded(t *testing.T) {
	p := &fakePlanner{dirty: true, degraded: true}
	_, cancel, done := startDaemon(t, p, Options{})

	cancel()
	if err := waitDone(t, done); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if p.saveCount() != 0 {
		t.Errorf("saves = %d, want 0 while storage is unavailable", p.saveCount())
	}
}

func TestRun_Autosave(t *testing.T) {
	p := &fakePlanner{dirty: true}
	_, cancel, done := startDaemon(t, p, Options{AutosaveInterval: 20 * time.Millisecond})

	deadline := time.Now().Add(5 * time.Second)
	for p.saveCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if p.saveCount() == 0 {
		t.Error("autosave did not run")
	}

	cancel()
	if err := waitDone(t, done); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if p.saveCount() != 1 {
		t.Errorf("saves = %d, want 1 (clean plan is not saved again)", p.saveCount())
	}
}

func TestRun_ListenError(t *testing.T) {
	d := NewDaemon(&fakePlanner{}, okHandler(), Options{Address: "256.0.0.1:bad"}, zap.NewNop())
	if err := d.Run(context.Background()); err == nil {
		t.Fatal("Run() with a bad address should fail")
	}
}

func TestRunInBackground(t *testing.T) {
	tests := []struct {
		name    string
		address string
		stop    bool // stop the daemon once it is ready
		wantErr bool
	}{
		{name: "listen failure", address: "256.0.0.1:bad", wantErr: true},
		{name: "normal shutdown", address: "127.0.0.1:0", stop: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDaemon(&fakePlanner{}, okHandler(), Options{Address: tt.address}, zap.NewNop())
			done := make(chan error, 1)
			stopped := make(chan struct{})
			d.runInBackground(done, func() { close(stopped) })

			if tt.stop {
				select {
				case <-d.Ready():
				case <-time.After(5 * time.Second):
					t.Fatal("daemon did not become ready")
				}
				d.Stop()
			}

			select {
			case <-stopped:
			case <-time.After(5 * time.Second):
				t.Fatal("stop callback was not called")
			}
			err := <-done
			if (err != nil) != tt.wantErr {
				t.Errorf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveNowAndStatus(t *testing.T) {
	p := &fakePlanner{dirty: true}
	d := NewDaemon(p, okHandler(), Options{}, zap.NewNop())

	d.SaveNow()
	status := d.GetStatus()
	if status.Dirty || status.LastSave.IsZero() {
		t.Errorf("status after save = %+v", status)
	}
	text := status.Text()
	for _, want := range []string{"Remaining: 106", "Storage: saved", "Last save:"} {
		if !strings.Contains(text, want) {
			t.Errorf("status text missing %q:\n%s", want, text)
		}
	}

	p.saveErr = errors.New("offline")
	p.dirty = true
	d.SaveNow()
	if !d.GetStatus().Dirty {
		t.Error("failed save cleared dirty flag")
	}

	p.degraded = true
	if text := d.GetStatus().Text(); !strings.Contains(text, "local only") {
		t.Errorf("degraded status text = %q", text)
	}
}

func TestTrayIcon(t *testing.T) {
	ico := trayIcon()
	if len(ico) < 22 || ico[2] != 1 || ico[4] != 1 || ico[6] != iconSize {
		t.Fatalf("bad ICO header: % x", ico[:min(len(ico), 22)])
	}
	img, err := png.Decode(bytes.NewReader(ico[22:]))
	if err != nil {
		t.Fatalf("embedded PNG does not decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != iconSize || b.Dy() != iconSize {
		t.Errorf("icon bounds = %v", b)
	}
}
