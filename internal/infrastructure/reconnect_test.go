package infrastructure

import (
	"errors"
	"testing"
	"time"
)

func TestShouldReconnect(t *testing.T) {
	tests := []struct {
		reason DisconnectReason
		want   bool
	}{
		{ReasonConnectionLost, true},
		{ReasonStreamReplaced, true},
		{ReasonConnectFailed, true},
		{ReasonTemporaryBan, true},
		{ReasonLoggedOut, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			if got := ShouldReconnect(tt.reason); got != tt.want {
				t.Errorf("ShouldReconnect(%s) = %v, want %v", tt.reason, got, tt.want)
			}
		})
	}
}

func TestReconnectBackoff(t *testing.T) {
	base := 5 * time.Second
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 5 * time.Second},
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{12, time.Minute},
		{60, maxReconnectBackoff},
		{1000, maxReconnectBackoff},
	}
	for _, tt := range tests {
		if got := reconnectBackoff(base, tt.attempt); got != tt.want {
			t.Errorf("reconnectBackoff(%s, %d) = %s, want %s", base, tt.attempt, got, tt.want)
		}
	}
}

func TestNextReconnect(t *testing.T) {
	tests := []struct {
		name         string
		reason       DisconnectReason
		queuedLogout bool
		established  bool
		attempt      int
		maxAttempts  int
		wantAttempt  int
		wantErr      error
		wantGiveUp   bool
	}{
		{name: "first drop", reason: ReasonConnectionLost, wantAttempt: 1},
		{name: "counts up", reason: ReasonConnectFailed, attempt: 3, wantAttempt: 4},
		{name: "logout", reason: ReasonLoggedOut, attempt: 2, wantErr: ErrLoggedOut},
		{name: "queued logout wins", reason: ReasonStreamReplaced, queuedLogout: true, wantErr: ErrLoggedOut},
		{name: "queued logout wins over established", reason: ReasonConnectionLost, queuedLogout: true, established: true, wantErr: ErrLoggedOut},
		{name: "established resets counter", reason: ReasonConnectionLost, established: true, attempt: 9, maxAttempts: 3, wantAttempt: 1},
		{name: "within limit", reason: ReasonTemporaryBan, attempt: 2, maxAttempts: 3, wantAttempt: 3},
		{name: "limit reached", reason: ReasonConnectFailed, attempt: 3, maxAttempts: 3, wantAttempt: 4, wantGiveUp: true},
		{name: "unbounded", reason: ReasonConnectFailed, attempt: 500, wantAttempt: 501},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextReconnect(tt.reason, tt.queuedLogout, tt.established, tt.attempt, tt.maxAttempts)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			case tt.wantGiveUp:
				if err == nil || errors.Is(err, ErrLoggedOut) {
					t.Fatalf("error = %v, want give-up error", err)
				}
			case err != nil:
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantAttempt {
				t.Errorf("attempt = %d, want %d", got, tt.wantAttempt)
			}
		})
	}
}
