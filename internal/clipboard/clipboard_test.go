package clipboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

func stubWriters(t *testing.T, system, osc func(string) error) {
	t.Helper()
	origWriteAll := writeAll
	origWriteOSC52 := writeOSC52
	t.Cleanup(func() {
		writeAll = origWriteAll
		writeOSC52 = origWriteOSC52
	})
	writeAll = system
	writeOSC52 = osc
}

func TestCopyUsesSystemBackend(t *testing.T) {
	fallbackCalled := false
	stubWriters(t, func(string) error { return nil }, func(string) error {
		fallbackCalled = true
		return nil
	})

	method, err := Copy(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if method != MethodSystem {
		t.Fatalf("expected system method, got %v", method)
	}
	if fallbackCalled {
		t.Fatalf("expected no OSC52 fallback call")
	}
}

func TestCopyFallsBackToOSC52(t *testing.T) {
	stubWriters(t, func(string) error { return errors.New("exit status 1") }, func(string) error { return nil })

	method, err := Copy(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if method != MethodOSC52 {
		t.Fatalf("expected OSC52 method, got %v", method)
	}
}

func TestCopyHelpfulErrorWhenDisplayMissing(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	stubWriters(t,
		func(string) error { return errors.New("exit status 1") },
		func(string) error { return errors.New("open /dev/tty: no such device") },
	)

	_, err := Copy(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected copy error")
	}
	if msg := err.Error(); !strings.Contains(msg, "no GUI clipboard available") || !strings.Contains(msg, "OSC52 fallback failed") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestCopyHonorsContextCancellation(t *testing.T) {
	stubWriters(t, func(string) error {
		time.Sleep(40 * time.Millisecond)
		return nil
	}, func(string) error { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := Copy(ctx, "hello"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWriteOSC52ClipboardReportsTTYError(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("GEMBROWSE_DISABLE_OSC52", "")
	orig := openTTYForWrite
	t.Cleanup(func() { openTTYForWrite = orig })
	openTTYForWrite = func() (io.WriteCloser, error) { return nil, os.ErrNotExist }

	err := writeOSC52Clipboard("hello")
	if err == nil || !strings.Contains(err.Error(), "open /dev/tty") {
		t.Fatalf("expected /dev/tty error, got %v", err)
	}
}

func TestOSC52CanBeDisabled(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("GEMBROWSE_DISABLE_OSC52", "yes")
	if err := writeOSC52Clipboard("hello"); err == nil {
		t.Fatalf("expected OSC52 to be disabled")
	}
}

func TestWriteOSC52SequenceWrapsForTmux(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("TMUX", "")
	var plain bytes.Buffer
	if err := writeOSC52Sequence(&plain, "hi"); err != nil {
		t.Fatalf("writeOSC52Sequence: %v", err)
	}
	if !strings.HasPrefix(plain.String(), "\x1b]52;") {
		t.Fatalf("unexpected plain sequence %q", plain.String())
	}

	t.Setenv("TMUX", "/tmp/tmux-1000/default,1,0")
	var wrapped bytes.Buffer
	if err := writeOSC52Sequence(&wrapped, "hi"); err != nil {
		t.Fatalf("writeOSC52Sequence: %v", err)
	}
	if !strings.HasPrefix(wrapped.String(), plain.String()) || wrapped.Len() <= plain.Len() {
		t.Fatalf("expected plain and tmux sequences, got %q", wrapped.String())
	}
}
