package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/castock/listsync/internal/models"
	"github.com/castock/listsync/internal/shared"
)

// newRemote points a RESTStore at a test server with a short timeout.
func newRemote(t *testing.T, handler http.Handler) *RESTStore {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := shared.RemoteConfig{BaseURL: srv.URL, TimeoutSeconds: 1}
	return NewRESTStore(cfg, "test-token")
}

func TestRESTStore(t *testing.T) {
	ctx := context.Background()

	t.Run("GetAllLists Sends Bearer Token", func(t *testing.T) {
		var gotAuth string
		s := newRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode([]*models.List{
				{ID: "l1", Name: "Inbox"},
			})
		}))

		lists, err := s.GetAllLists(ctx)
		if err != nil {
			t.Fatalf("failed to get lists: %v", err)
		}
		if len(lists) != 1 || lists[0].ID != "l1" {
			t.Errorf("unexpected lists %+v", lists)
		}
		if gotAuth != "Bearer test-token" {
			t.Errorf("expected bearer token header, got %q", gotAuth)
		}
	})

	t.Run("SaveList Uses Idempotent PUT", func(t *testing.T) {
		var method, path string
		s := newRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			path = r.URL.Path
			w.WriteHeader(http.StatusOK)
		}))

		list := models.NewList("l1", "u1", "Inbox", "")
		if err := s.SaveList(ctx, list); err != nil {
			t.Fatalf("failed to save list: %v", err)
		}
		if method != http.MethodPut || path != "/v1/lists/l1" {
			t.Errorf("expected PUT /v1/lists/l1, got %s %s", method, path)
		}
	})

	t.Run("Forbidden Classification", func(t *testing.T) {
		s := newRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))

		err := s.DeleteList(ctx, "l1")
		if !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("NotFound Classification", func(t *testing.T) {
		s := newRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))

		_, err := s.GetListByID(ctx, "ghost")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ServerError Classification", func(t *testing.T) {
		s := newRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := s.GetAllLists(ctx)
		if !errors.Is(err, shared.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("Timeout Is Unavailable", func(t *testing.T) {
		s := newRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(2 * time.Second)
		}))

		_, err := s.GetAllLists(ctx)
		if !errors.Is(err, shared.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable for timeout, got %v", err)
		}
	})

	t.Run("Unreachable Backend", func(t *testing.T) {
		cfg := shared.RemoteConfig{BaseURL: "http://127.0.0.1:1", TimeoutSeconds: 1}
		s := NewRESTStore(cfg, "token")

		if s.IsAvailable(ctx) {
			t.Error("expected unreachable backend to report unavailable")
		}
		_, err := s.GetAllLists(ctx)
		if !errors.Is(err, shared.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("IsAvailable", func(t *testing.T) {
		s := newRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/health" {
				http.NotFound(w, r)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))

		if !s.IsAvailable(ctx) {
			t.Error("expected healthy backend to report available")
		}
	})
}

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusOK, nil},
		{http.StatusCreated, nil},
		{http.StatusUnauthorized, shared.ErrForbidden},
		{http.StatusForbidden, shared.ErrForbidden},
		{http.StatusNotFound, shared.ErrNotFound},
		{http.StatusBadGateway, shared.ErrUnavailable},
	}

	for _, tc := range cases {
		err := classifyStatus(tc.status)
		if tc.want == nil {
			if err != nil {
				t.Errorf("status %d: expected nil, got %v", tc.status, err)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}
