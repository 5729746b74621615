package infrastructure

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrLoggedOut    = errors.New("whatsapp session logged out, re-pairing required")
	ErrNotConnected = errors.New("whatsapp client not connected")
)

// DisconnectReason classifies why the WhatsApp connection ended.
type DisconnectReason string

const (
	ReasonConnectionLost DisconnectReason = "connection_lost"
	ReasonStreamReplaced DisconnectReason = "stream_replaced"
	ReasonConnectFailed  DisconnectReason = "connect_failure"
	ReasonTemporaryBan   DisconnectReason = "temporary_ban"
	ReasonLoggedOut      DisconnectReason = "logged_out"
)

// ShouldReconnect reports whether a disconnect with this reason is recovered
// by connecting again. Only an explicit logout needs a new pairing.
func ShouldReconnect(reason DisconnectReason) bool {
	return reason != ReasonLoggedOut
}

const maxReconnectBackoff = 5 * time.Minute

// reconnectBackoff grows linearly with the attempt number and is capped.
func reconnectBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return min(base*time.Duration(attempt), maxReconnectBackoff)
}

// nextReconnect decides what Run does after a connection ends. It returns the
// attempt number to use for the next connect, or an error when Run must stop.
// A logout queued behind another reason still ends the session, and a
// connection that was established since the last attempt resets the counter.
func nextReconnect(reason DisconnectReason, queuedLogout, established bool, attempt, maxAttempts int) (int, error) {
	if queuedLogout || !ShouldReconnect(reason) {
		return 0, ErrLoggedOut
	}
	if established {
		attempt = 0
	}
	attempt++
	if maxAttempts > 0 && attempt > maxAttempts {
		return attempt, fmt.Errorf("whatsapp: gave up after %d reconnect attempts (last reason %s)", maxAttempts, reason)
	}
	return attempt, nil
}
