package realtime

import (
	"testing"
	"time"

	"hubchat/internal/pkg/errs"
)

// announceRecorder captures tracker announcements for assertions.
type announceRecorder struct {
	calls []StatusUpdatePayload
}

func (a *announceRecorder) record(userID string, status Status, statusMessage string) {
	a.calls = append(a.calls, StatusUpdatePayload{UserID: userID, Status: status, StatusMessage: statusMessage})
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
		ok   bool
	}{
		{"online", StatusOnline, true},
		{"idle", StatusIdle, true},
		{"busy", StatusBusy, true},
		{"invisible", StatusInvisible, true},
		{"offline", StatusOffline, true},
		{"ONLINE", "", false},
		{"away", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseStatus(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSetStatusValidatesAndAnnounces(t *testing.T) {
	rec := &announceRecorder{}
	tracker := NewTracker(5*time.Minute, time.Minute, rec.record)

	if customErr := tracker.SetStatus("alice", Status("sleeping"), ""); customErr == nil {
		t.Fatal("invalid status accepted")
	} else if customErr.Code != errs.ErrInvalidArgument {
		t.Fatalf("rejection code = %d, want %d", customErr.Code, errs.ErrInvalidArgument)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("invalid status produced %d announcements", len(rec.calls))
	}

	if customErr := tracker.SetStatus("alice", StatusBusy, "in a meeting"); customErr != nil {
		t.Fatalf("SetStatus failed: %v", customErr)
	}

	status, message := tracker.Status("alice")
	if status != StatusBusy || message != "in a meeting" {
		t.Fatalf("Status = (%q, %q), want (busy, in a meeting)", status, message)
	}
	if len(rec.calls) != 1 || rec.calls[0].Status != StatusBusy {
		t.Fatalf("announcements = %+v, want one busy announcement", rec.calls)
	}
}

func TestUnknownUserIsOffline(t *testing.T) {
	tracker := NewTracker(5*time.Minute, time.Minute, nil)

	status, message := tracker.Status("never-seen")
	if status != StatusOffline || message != "" {
		t.Fatalf("Status of unknown user = (%q, %q), want (offline, empty)", status, message)
	}
}

func TestIdleSweepDemotesStaleOnlineUsers(t *testing.T) {
	rec := &announceRecorder{}
	tracker := NewTracker(5*time.Minute, time.Minute, rec.record)

	now := time.Now()
	tracker.now = func() time.Time { return now }

	tracker.MarkConnected("stale")
	tracker.MarkConnected("fresh")
	tracker.SetStatus("busy-user", StatusBusy, "")
	rec.calls = nil

	// Stale and busy-user sit past the idle timeout; fresh stays recent.
	tracker.now = func() time.Time { return now.Add(6 * time.Minute) }
	tracker.TouchActivity("fresh")
	tracker.sweepIdle()

	if status, _ := tracker.Status("stale"); status != StatusIdle {
		t.Fatalf("stale user status = %q, want idle", status)
	}
	if status, _ := tracker.Status("fresh"); status != StatusOnline {
		t.Fatalf("fresh user status = %q, want online", status)
	}
	// Explicit busy is never demoted by the sweep.
	if status, _ := tracker.Status("busy-user"); status != StatusBusy {
		t.Fatalf("busy user status = %q, want busy", status)
	}

	if len(rec.calls) != 1 || rec.calls[0].UserID != "stale" || rec.calls[0].Status != StatusIdle {
		t.Fatalf("announcements = %+v, want one idle announcement for stale", rec.calls)
	}
}

func TestTouchActivityPromotesIdleOnce(t *testing.T) {
	rec := &announceRecorder{}
	tracker := NewTracker(5*time.Minute, time.Minute, rec.record)

	now := time.Now()
	tracker.now = func() time.Time { return now }
	tracker.MarkConnected("alice")

	tracker.now = func() time.Time { return now.Add(10 * time.Minute) }
	tracker.sweepIdle()
	if status, _ := tracker.Status("alice"); status != StatusIdle {
		t.Fatalf("status after sweep = %q, want idle", status)
	}
	rec.calls = nil

	tracker.TouchActivity("alice")
	tracker.TouchActivity("alice")

	if status, _ := tracker.Status("alice"); status != StatusOnline {
		t.Fatalf("status after activity = %q, want online", status)
	}
	if len(rec.calls) != 1 || rec.calls[0].Status != StatusOnline {
		t.Fatalf("announcements = %+v, want exactly one online announcement", rec.calls)
	}
}

func TestTouchActivityLeavesExplicitStatusAlone(t *testing.T) {
	rec := &announceRecorder{}
	tracker := NewTracker(5*time.Minute, time.Minute, rec.record)

	tracker.SetStatus("alice", StatusInvisible, "")
	rec.calls = nil

	tracker.TouchActivity("alice")

	if status, _ := tracker.Status("alice"); status != StatusInvisible {
		t.Fatalf("status after activity = %q, want invisible", status)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("activity on non-idle user produced %d announcements", len(rec.calls))
	}
}

func TestExplicitOfflineSurvivesActivity(t *testing.T) {
	tracker := NewTracker(5*time.Minute, time.Minute, nil)

	tracker.MarkConnected("alice")
	// Manual "appear offline" while connections stay open.
	tracker.SetStatus("alice", StatusOffline, "")

	tracker.TouchActivity("alice")
	tracker.sweepIdle()

	if status, _ := tracker.Status("alice"); status != StatusOffline {
		t.Fatalf("status = %q, want offline until a real reconnect", status)
	}
}

func TestReconnectForcesOnline(t *testing.T) {
	tracker := NewTracker(5*time.Minute, time.Minute, nil)

	tracker.SetStatus("alice", StatusBusy, "")
	tracker.MarkDisconnected("alice")

	// A fresh first connection forces online, whatever the user left behind.
	tracker.MarkConnected("alice")

	if status, _ := tracker.Status("alice"); status != StatusOnline {
		t.Fatalf("status after reconnect = %q, want online", status)
	}
}
