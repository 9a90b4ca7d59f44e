package correlation

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// Traceparent is a parsed W3C trace-context header:
// version(2 hex)-traceid(32 hex)-spanid(16 hex)-flags(2 hex).
type Traceparent struct {
	Version string
	TraceID string
	SpanID  string
	Flags   string
}

// NewTraceparent synthesizes a trace-context header for a request that
// arrived without one: version 00, random trace and span ids, flags 01.
func NewTraceparent() Traceparent {
	return Traceparent{
		Version: "00",
		TraceID: randHex(16),
		SpanID:  randHex(8),
		Flags:   "01",
	}
}

// ParseTraceparent parses a traceparent header value. It returns false for
// anything that is not the 2-32-16-2 lowercase hex form, or that carries an
// all-zero trace or span id; callers synthesize a fresh header instead.
func ParseTraceparent(s string) (Traceparent, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return Traceparent{}, false
	}
	tp := Traceparent{Version: parts[0], TraceID: parts[1], SpanID: parts[2], Flags: parts[3]}
	if !isHex(tp.Version, 2) || !isHex(tp.TraceID, 32) || !isHex(tp.SpanID, 16) || !isHex(tp.Flags, 2) {
		return Traceparent{}, false
	}
	if tp.TraceID == strings.Repeat("0", 32) || tp.SpanID == strings.Repeat("0", 16) {
		return Traceparent{}, false
	}
	return tp, true
}

// Regenerate keeps the caller's version, trace id, and flags but mints a new
// span id. This mimics a server span: the response's traceparent identifies
// this service's hop within the caller's trace.
func (t Traceparent) Regenerate() Traceparent {
	t.SpanID = randHex(8)
	return t
}

func (t Traceparent) String() string {
	return t.Version + "-" + t.TraceID + "-" + t.SpanID + "-" + t.Flags
}

func isHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// randHex returns 2n lowercase hex digits from crypto/rand. rand.Read never
// fails on supported platforms.
func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
