package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dialdirect/backend/internal/types"
	"github.com/rs/zerolog"
)

func TestClassifyPlaceCallStatus(t *testing.T) {
	tests := []struct {
		status int
		want   CallErrorKind
	}{
		{http.StatusConflict, ErrKindBusy},
		{http.StatusNotFound, ErrKindUnavailable},
		{http.StatusGone, ErrKindUnavailable},
		{http.StatusForbidden, ErrKindUnavailable},
		{http.StatusBadRequest, ErrKindInvalidTarget},
		{http.StatusUnprocessableEntity, ErrKindInvalidTarget},
		{http.StatusInternalServerError, ErrKindTransport},
		{http.StatusBadGateway, ErrKindTransport},
	}

	for _, tt := range tests {
		got := classifyPlaceCallStatus(tt.status, "")
		if got.Kind != tt.want {
			t.Errorf("status %d: expected %s, got %s", tt.status, tt.want, got.Kind)
		}
	}
}

func TestResultOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want types.AttemptResult
	}{
		{"nil error", nil, types.AttemptSuccess},
		{"busy", &CallError{Kind: ErrKindBusy}, types.AttemptBusy},
		{"unavailable", &CallError{Kind: ErrKindUnavailable}, types.AttemptUnavailable},
		{"invalid target", &CallError{Kind: ErrKindInvalidTarget}, types.AttemptInvalidTarget},
		{"transport", &CallError{Kind: ErrKindTransport}, types.AttemptError},
		{"untyped", errors.New("boom"), types.AttemptError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResultOf(tt.err); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestHTTPClientListAgents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/agents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"a1","name":"Alice","status":"online"},{"id":"b2","name":"Bob","status":"calling"}]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", 2*time.Second, zerolog.Nop())
	agents, err := c.ListAgents(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}
	if agents[0].ID != "a1" || agents[0].Status != types.StatusOnline {
		t.Errorf("unexpected first agent: %+v", agents[0])
	}
}

func TestHTTPClientPlaceCallBusy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"agent on another call"}`, http.StatusConflict)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", 2*time.Second, zerolog.Nop())
	err := c.PlaceCall(context.Background(), "a1", "+4915112345678")
	if err == nil {
		t.Fatal("expected error")
	}
	callErr, ok := err.(*CallError)
	if !ok {
		t.Fatalf("expected *CallError, got %T", err)
	}
	if callErr.Kind != ErrKindBusy {
		t.Errorf("expected busy, got %s", callErr.Kind)
	}
}

func TestHTTPClientPlaceCallSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", 2*time.Second, zerolog.Nop())
	if err := c.PlaceCall(context.Background(), "a1", "+4915112345678"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCRMEnsureContact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"contactId":"c-42"}`))
	}))
	defer srv.Close()

	c := NewCRMHTTPClient(srv.URL, "", 2*time.Second, zerolog.Nop())
	id, err := c.EnsureContact(context.Background(), types.Lead{Name: "Jane", Phone: "+4915112345678"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "c-42" {
		t.Errorf("expected contact c-42, got %s", id)
	}
}
