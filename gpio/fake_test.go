package gpio

import (
	"errors"
	"testing"
)

func TestFakeReadLevel(t *testing.T) {
	f := NewFake(High, Low, High)

	want := []Level{High, Low, High, High} // last level repeats
	for i, w := range want {
		if got := f.ReadLevel(); got != w {
			t.Errorf("read %d: got %s, want %s", i, got, w)
		}
	}
}

func TestFakeNoLevels(t *testing.T) {
	f := NewFake()

	if got := f.ReadLevel(); got != Unavailable {
		t.Errorf("expected Unavailable with no levels, got %s", got)
	}
}

func TestFakeReadAfterClose(t *testing.T) {
	f := NewFake(High)

	if got := f.ReadLevel(); got != High {
		t.Fatalf("expected High before close, got %s", got)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.ReadLevel(); got != Unavailable {
		t.Errorf("expected Unavailable after close, got %s", got)
	}
	if f.Available() {
		t.Error("expected Available()==false after close")
	}
}

func TestFakeDriveRecording(t *testing.T) {
	f := NewFake(High)

	if err := f.Drive(Low); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Drive(High); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.DriveCalls) != 2 {
		t.Fatalf("expected 2 drive calls, got %d", len(f.DriveCalls))
	}
	if f.DriveCalls[0] != Low || f.DriveCalls[1] != High {
		t.Errorf("unexpected drive calls: %v", f.DriveCalls)
	}
}

func TestFakeDriveError(t *testing.T) {
	f := NewFake(High)
	f.DriveErr = errors.New("simulated error")

	err := f.Drive(Low)
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
	if len(f.DriveCalls) != 1 {
		t.Errorf("failed drive should still be recorded, got %d calls", len(f.DriveCalls))
	}
}

func TestFakeCloseCount(t *testing.T) {
	f := NewFake(High)

	if f.Closed {
		t.Error("should not be closed initially")
	}
	f.Close()
	f.Close()
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
	if f.CloseCount != 2 {
		t.Errorf("expected CloseCount 2, got %d", f.CloseCount)
	}
}

func TestFakeReset(t *testing.T) {
	f := NewFake(High, Low)

	f.ReadLevel()
	f.Drive(Low)
	f.Close()
	f.Reset()

	if got := f.ReadLevel(); got != High {
		t.Errorf("after reset: expected High, got %s", got)
	}
	if f.Closed || f.CloseCount != 0 || len(f.DriveCalls) != 0 {
		t.Error("reset should clear close and drive state")
	}
}
