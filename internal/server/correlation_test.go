package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/ainative/edge-backend/internal/correlation"
	"github.com/ainative/edge-backend/internal/problem"
)

var traceparentPattern = regexp.MustCompile(`^[0-9a-f]{2}-[0-9a-f]{32}-[0-9a-f]{16}-[0-9a-f]{2}$`)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func TestCorrelationMiddleware_GeneratesUUID(t *testing.T) {
	wrapped := CorrelationMiddleware(discardLogger())(okHandler())

	req := httptest.NewRequest("GET", "/test-route", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	cid := rec.Header().Get(correlation.HeaderCorrelationID)
	if cid == "" {
		t.Fatal("X-Correlation-ID header missing")
	}
	if _, err := uuid.Parse(cid); err != nil {
		t.Errorf("generated correlation id %q is not a valid UUID: %v", cid, err)
	}
}

func TestCorrelationMiddleware_EchoesClientID(t *testing.T) {
	wrapped := CorrelationMiddleware(discardLogger())(okHandler())

	want := uuid.New().String()
	req := httptest.NewRequest("GET", "/test-route", nil)
	req.Header.Set(correlation.HeaderCorrelationID, want)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if got := rec.Header().Get(correlation.HeaderCorrelationID); got != want {
		t.Errorf("X-Correlation-ID = %q, want echo of %q", got, want)
	}
}

func TestCorrelationMiddleware_IDVisibleToHandler(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = correlation.ID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	wrapped := CorrelationMiddleware(discardLogger())(handler)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(correlation.HeaderCorrelationID, "client-id-42")
	wrapped.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "client-id-42" {
		t.Errorf("handler saw correlation id %q, want client-id-42", seen)
	}
}

func TestCorrelationMiddleware_SynthesizesTraceparent(t *testing.T) {
	wrapped := CorrelationMiddleware(discardLogger())(okHandler())

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	tp := rec.Header().Get(correlation.HeaderTraceParent)
	if !traceparentPattern.MatchString(tp) {
		t.Errorf("traceparent = %q, want match for %s", tp, traceparentPattern)
	}
	if !strings.HasPrefix(tp, "00-") || !strings.HasSuffix(tp, "-01") {
		t.Errorf("synthesized traceparent %q should have version 00 and flags 01", tp)
	}
}

func TestCorrelationMiddleware_RegeneratesSpanID(t *testing.T) {
	wrapped := CorrelationMiddleware(discardLogger())(okHandler())

	const traceID = "0af7651916cd43dd8448eb211c80319c"
	const spanID = "b7ad6b7169203331"
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(correlation.HeaderTraceParent, "00-"+traceID+"-"+spanID+"-01")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	tp := rec.Header().Get(correlation.HeaderTraceParent)
	if !strings.HasPrefix(tp, "00-"+traceID+"-") {
		t.Fatalf("traceparent %q does not keep inbound trace id", tp)
	}
	parts := strings.Split(tp, "-")
	if len(parts) != 4 {
		t.Fatalf("malformed response traceparent %q", tp)
	}
	if parts[2] == spanID {
		t.Errorf("span id was not regenerated, still %s", spanID)
	}
	if parts[3] != "01" {
		t.Errorf("flags = %s, want inbound flags echoed", parts[3])
	}
}

func TestCorrelationMiddleware_MalformedTraceparent(t *testing.T) {
	wrapped := CorrelationMiddleware(discardLogger())(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(correlation.HeaderTraceParent, "not-a-traceparent")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if tp := rec.Header().Get(correlation.HeaderTraceParent); !traceparentPattern.MatchString(tp) {
		t.Errorf("malformed inbound header should be replaced, got %q", tp)
	}
}

func TestCorrelationMiddleware_PanicBecomesProblemResponse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went very wrong")
	})
	wrapped := CorrelationMiddleware(discardLogger())(handler)

	req := httptest.NewRequest("GET", "/unhandled-exception", nil)
	req.Header.Set(correlation.HeaderCorrelationID, "panic-cid")
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["type"] != "/errors/internal-server-error" {
		t.Errorf("type = %v", body["type"])
	}
	if body["detail"] != problem.GenericDetail {
		t.Errorf("detail = %v, want the fixed generic string", body["detail"])
	}
	if detail, _ := body["detail"].(string); strings.Contains(detail, "something went very wrong") {
		t.Error("panic value leaked into the response")
	}
	if body["instance"] != "/unhandled-exception" {
		t.Errorf("instance = %v", body["instance"])
	}
	if body["correlation_id"] != "panic-cid" {
		t.Errorf("body correlation_id = %v, want panic-cid", body["correlation_id"])
	}
	if got := rec.Header().Get(correlation.HeaderCorrelationID); got != "panic-cid" {
		t.Errorf("header correlation id = %q, want panic-cid", got)
	}
}

func TestCorrelationMiddleware_PanicAfterWrite(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		panic("too late")
	})
	wrapped := CorrelationMiddleware(discardLogger())(handler)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	// Response already on the wire; the middleware must not try to replace it.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want the handler's 200", rec.Code)
	}
	if got := rec.Body.String(); got != "partial" {
		t.Errorf("body = %q, want the handler's partial write only", got)
	}
}

func TestCorrelationMiddleware_ConcurrentRequestsDoNotCollide(t *testing.T) {
	wrapped := CorrelationMiddleware(discardLogger())(okHandler())

	const n = 50
	var (
		mu  sync.Mutex
		ids = make(map[string]struct{}, n)
		wg  sync.WaitGroup
	)

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

			cid := rec.Header().Get(correlation.HeaderCorrelationID)
			mu.Lock()
			ids[cid] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != n {
		t.Errorf("got %d distinct correlation ids for %d requests", len(ids), n)
	}
}
