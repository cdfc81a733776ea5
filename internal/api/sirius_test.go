package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// newSiriusTestServer serves both the token endpoint (/token) and the
// course-events endpoint from one httptest server.
func newSiriusTestServer(t *testing.T, events http.HandlerFunc) (*httptest.Server, *int) {
	t.Helper()
	tokenRequests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/courses/", events)
	return httptest.NewServer(mux), &tokenRequests
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	auth := NewAuth(server.URL+"/token", "id", "secret", ScopeSiriusRead, 5*time.Second, logger)
	return NewClient(server.URL, auth, 10, 5*time.Second, logger)
}

func TestListEvents_QueryParameters(t *testing.T) {
	from := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	server, _ := newSiriusTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/courses/BI-LA1.21/events") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("access_token") != "tok" {
			t.Errorf("expected access_token param, got %q", q.Get("access_token"))
		}
		if q.Get("event_type") != "assessment" {
			t.Errorf("expected assessment filter, got %q", q.Get("event_type"))
		}
		if q.Get("from") != "2024-05-01T10:00:00.000000+0200" {
			t.Errorf("unexpected from %q", q.Get("from"))
		}
		// Unset options stay out of the request.
		for _, key := range []string{"limit", "offset", "include", "deleted", "to", "with_original_date"} {
			if q.Has(key) {
				t.Errorf("did not expect %q param", key)
			}
		}

		w.Write([]byte(`{"events": [{"id": 42, "starts_at": "2024-05-01T10:00:00.000+0200"}]}`))
	})
	defer server.Close()

	client := newTestClient(t, server)

	events, err := client.ListEvents(context.Background(), "BI-LA1.21", EventOptions{
		EventType: EventTypeAssessment,
		From:      from,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID != EventID("42") {
		t.Errorf("unexpected id %q", events[0].ID)
	}
	if events[0].StartsAt.IsZero() {
		t.Error("expected starts_at to be set")
	}
	if want := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC); !events[0].StartsAt.UTC().Equal(want) {
		t.Errorf("unexpected starts_at %v", events[0].StartsAt)
	}
}

func TestListEvents_MissingEventsKey(t *testing.T) {
	server, _ := newSiriusTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta": {"count": 0}}`))
	})
	defer server.Close()

	client := newTestClient(t, server)

	events, err := client.ListEvents(context.Background(), "BI-LA1.21", EventOptions{})
	if err != nil {
		t.Fatalf("a response without events is not an error, got %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected zero events, got %d", len(events))
	}
}

func TestListEvents_APIError(t *testing.T) {
	server, _ := newSiriusTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("insufficient scope"))
	})
	defer server.Close()

	client := newTestClient(t, server)

	_, err := client.ListEvents(context.Background(), "BI-LA1.21", EventOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("unexpected status %d", apiErr.StatusCode)
	}
	if apiErr.Body != "insufficient scope" {
		t.Errorf("expected body to be carried, got %q", apiErr.Body)
	}
}

func TestListEvents_TokenReuse(t *testing.T) {
	server, tokenRequests := newSiriusTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events": []}`))
	})
	defer server.Close()

	client := newTestClient(t, server)

	for i := 0; i < 2; i++ {
		if _, err := client.ListEvents(context.Background(), "BI-LA1.21", EventOptions{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if *tokenRequests != 1 {
		t.Errorf("expected one token request for two list calls, got %d", *tokenRequests)
	}
}

func TestEventID_Roundtrip(t *testing.T) {
	var ev Event
	if err := json.Unmarshal([]byte(`{"id": 42}`), &ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ID != EventID("42") {
		t.Fatalf("unexpected id %q", ev.ID)
	}

	out, err := json.Marshal(ev.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "42" {
		t.Errorf("numeric id must marshal back as a number, got %s", out)
	}

	if err := json.Unmarshal([]byte(`{"id": "EX-1"}`), &ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, _ = json.Marshal(ev.ID)
	if string(out) != `"EX-1"` {
		t.Errorf("string id must marshal as a string, got %s", out)
	}
}
