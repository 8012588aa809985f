package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func collect(events <-chan Event, wait time.Duration) []Event {
	var collected []Event
	timeout := time.After(wait)
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return collected
			}
			collected = append(collected, evt)
		case <-timeout:
			return collected
		}
	}
}

func TestEventDebouncing(t *testing.T) {
	tmpDir := t.TempDir()
	snap := filepath.Join(tmpDir, "graph.bin")
	if err := os.WriteFile(snap, []byte("initial"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(WatcherConfig{Files: []string{snap}})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := w.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// Give the watcher time to initialize.
	time.Sleep(200 * time.Millisecond)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(snap, []byte("content "+string(rune('0'+i))), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(300 * time.Millisecond)
	collected := collect(events, 500*time.Millisecond)

	if len(collected) == 0 {
		t.Fatal("expected at least one debounced event, got none")
	}
	if len(collected) >= 5 {
		t.Errorf("expected debouncing to reduce events, got %d events for 5 writes", len(collected))
	}
	for _, evt := range collected {
		if evt.Path != snap {
			t.Errorf("unexpected event path: %s", evt.Path)
		}
	}
}

func TestUnwatchedSiblingIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	snap := filepath.Join(tmpDir, "graph.bin")
	if err := os.WriteFile(snap, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(WatcherConfig{Files: []string{snap}, Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events, err := w.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(tmpDir, "graph.bin.toml"), []byte("version = '4.0'"), 0644); err != nil {
		t.Fatal(err)
	}
	if collected := collect(events, 400*time.Millisecond); len(collected) != 0 {
		t.Errorf("expected no events for sibling file, got %v", collected)
	}
}

func TestReplaceByRename(t *testing.T) {
	tmpDir := t.TempDir()
	snap := filepath.Join(tmpDir, "graph.bin")
	if err := os.WriteFile(snap, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(WatcherConfig{Files: []string{snap}, Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events, err := w.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	tmp := filepath.Join(tmpDir, "graph.bin.tmp")
	if err := os.WriteFile(tmp, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, snap); err != nil {
		t.Fatal(err)
	}

	collected := collect(events, 500*time.Millisecond)
	if len(collected) == 0 {
		t.Fatal("expected an event for the replaced snapshot")
	}
	if got := collected[len(collected)-1].Path; got != snap {
		t.Errorf("event path = %s, want %s", got, snap)
	}
}

func TestChannelClosedOnCancel(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "graph.bin")
	w, err := NewWatcher(WatcherConfig{Files: []string{snap}})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := w.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event channel not closed after cancel")
	}
}

func TestNewWatcherRequiresFiles(t *testing.T) {
	if _, err := NewWatcher(WatcherConfig{}); err == nil {
		t.Fatal("expected error for empty file list")
	}
}

func TestConvertOp(t *testing.T) {
	tests := []struct {
		name   string
		op     fsnotify.Op
		want   EventOp
		wantOk bool
	}{
		{"create", fsnotify.Create, Create, true},
		{"write", fsnotify.Write, Write, true},
		{"remove", fsnotify.Remove, Remove, true},
		{"rename", fsnotify.Rename, Rename, true},
		{"chmod only", fsnotify.Chmod, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := convertOp(tt.op)
			if ok != tt.wantOk {
				t.Errorf("convertOp(%v) ok = %v, want %v", tt.op, ok, tt.wantOk)
			}
			if ok && got != tt.want {
				t.Errorf("convertOp(%v) = %v, want %v", tt.op, got, tt.want)
			}
		})
	}
}

func TestEventOpString(t *testing.T) {
	tests := []struct {
		op   EventOp
		want string
	}{
		{Create, "Create"},
		{Write, "Write"},
		{Remove, "Remove"},
		{Rename, "Rename"},
		{EventOp(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.op.String(); got != tt.want {
				t.Errorf("EventOp(%d).String() = %q, want %q", tt.op, got, tt.want)
			}
		})
	}
}
