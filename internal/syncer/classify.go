package syncer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"attendance-kiosk/internal/api"
)

// outcomeClass is the exhaustive classification of one upload attempt.
// Representing it as a type (rather than branching on error types at each
// call site) keeps the retry policy in one table-shaped switch.
type outcomeClass int

const (
	// Server accepted the batch.
	outcomeSuccess outcomeClass = iota
	// Worth retrying after backoff: 429, 5xx, timeouts, refused connections.
	outcomeRetryable
	// Credentials rejected (401). Events stay pending; a later successful
	// auth attempt resumes them.
	outcomeAuth
	// The server will never accept this request (403, other 4xx), or the
	// transport failed in a way we cannot interpret. Events are marked
	// failed for operator attention.
	outcomePermanent
)

type outcome struct {
	class  outcomeClass
	detail string
}

// classify maps the raw result of one SubmitBatch call onto the retry
// policy. resp is nil exactly when err is non-nil.
func classify(resp *api.Response, err error) outcome {
	if err != nil {
		switch {
		case isTimeout(err):
			return outcome{outcomeRetryable, fmt.Sprintf("request timed out: %v", err)}
		case isConnectionError(err):
			return outcome{outcomeRetryable, fmt.Sprintf("connection failed: %v", err)}
		default:
			// Unknown transport failures are treated conservatively as
			// permanent rather than silently retried forever.
			return outcome{outcomePermanent, fmt.Sprintf("transport error: %v", err)}
		}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return outcome{outcomeSuccess, ""}
	case resp.StatusCode == http.StatusUnauthorized:
		return outcome{outcomeAuth, "authentication failed (401): check the API key"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return outcome{outcomeRetryable, "rate limited (429)"}
	case resp.StatusCode >= 500:
		return outcome{outcomeRetryable, fmt.Sprintf("server error (%d)", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return outcome{outcomePermanent, fmt.Sprintf("rejected (%d): %s", resp.StatusCode, truncateBody(resp.Body))}
	default:
		return outcome{outcomePermanent, fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
