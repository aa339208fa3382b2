package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/castock/listsync/internal/models"
	"github.com/castock/listsync/internal/shared"
)

const testSecret = "test-secret-key-32-characters!!!"

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	srv := NewServer(db, shared.ServerConfig{Host: "localhost", Port: 0}, testSecret, shared.NewLogger(io.Discard))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := GenerateToken(userID, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return token
}

func request(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := request(t, http.MethodGet, ts.URL+"/v1/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 without auth, got %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := setupTestServer(t)

	t.Run("Missing Token", func(t *testing.T) {
		resp := request(t, http.MethodGet, ts.URL+"/v1/lists", "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Garbage Token", func(t *testing.T) {
		resp := request(t, http.MethodGet, ts.URL+"/v1/lists", "not-a-jwt", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		forged, err := GenerateToken("user-1", "some-other-secret", time.Hour)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		resp := request(t, http.MethodGet, ts.URL+"/v1/lists", forged, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func TestListLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	token := tokenFor(t, "user-1")

	list := models.NewList(shared.GenerateID(), "user-1", "Groceries", models.KindShopping)

	t.Run("Put Creates", func(t *testing.T) {
		resp := request(t, http.MethodPut, ts.URL+"/v1/lists/"+list.ID, token, list)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Get Returns It", func(t *testing.T) {
		resp := request(t, http.MethodGet, ts.URL+"/v1/lists/"+list.ID, token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var got models.List
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Name != "Groceries" || got.OwnerID != "user-1" {
			t.Errorf("unexpected list %+v", got)
		}
	})

	t.Run("Put Again Upserts", func(t *testing.T) {
		list.Name = "Weekly groceries"
		resp := request(t, http.MethodPut, ts.URL+"/v1/lists/"+list.ID, token, list)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		all := request(t, http.MethodGet, ts.URL+"/v1/lists", token, nil)
		var lists []models.List
		if err := json.NewDecoder(all.Body).Decode(&lists); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(lists) != 1 {
			t.Fatalf("upsert duplicated the row: %d lists", len(lists))
		}
	})

	t.Run("Delete Then Delete Again", func(t *testing.T) {
		resp := request(t, http.MethodDelete, ts.URL+"/v1/lists/"+list.ID, token, nil)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", resp.StatusCode)
		}

		resp = request(t, http.MethodDelete, ts.URL+"/v1/lists/"+list.ID, token, nil)
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("repeat delete should be a no-op 204, got %d", resp.StatusCode)
		}
	})

	t.Run("Unknown Id Is Not Found", func(t *testing.T) {
		resp := request(t, http.MethodDelete, ts.URL+"/v1/lists/no-such-list", token, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestRowLevelAuthorization(t *testing.T) {
	ts := setupTestServer(t)
	alice := tokenFor(t, "alice")
	mallory := tokenFor(t, "mallory")

	list := models.NewList(shared.GenerateID(), "alice", "Private", models.KindCustom)
	if resp := request(t, http.MethodPut, ts.URL+"/v1/lists/"+list.ID, alice, list); resp.StatusCode != http.StatusOK {
		t.Fatalf("seed: %d", resp.StatusCode)
	}
	item := models.NewItem(shared.GenerateID(), list.ID, "Secret errand")
	if resp := request(t, http.MethodPut, ts.URL+"/v1/items/"+item.ID, alice, item); resp.StatusCode != http.StatusOK {
		t.Fatalf("seed item: %d", resp.StatusCode)
	}

	cases := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"Read List", http.MethodGet, "/v1/lists/" + list.ID, nil},
		{"Overwrite List", http.MethodPut, "/v1/lists/" + list.ID, list},
		{"Delete List", http.MethodDelete, "/v1/lists/" + list.ID, nil},
		{"Read Items", http.MethodGet, "/v1/lists/" + list.ID + "/items", nil},
		{"Overwrite Item", http.MethodPut, "/v1/items/" + item.ID, item},
		{"Delete Item", http.MethodDelete, "/v1/items/" + item.ID, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := request(t, tc.method, ts.URL+tc.path, mallory, tc.body)
			if resp.StatusCode != http.StatusForbidden {
				t.Errorf("expected 403 for foreign row, got %d", resp.StatusCode)
			}
		})
	}

	t.Run("Owner Isolation On Scans", func(t *testing.T) {
		resp := request(t, http.MethodGet, ts.URL+"/v1/lists", mallory, nil)
		var lists []models.List
		if err := json.NewDecoder(resp.Body).Decode(&lists); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(lists) != 0 {
			t.Errorf("expected empty scan for other user, got %d", len(lists))
		}
	})
}

func TestItemRoutes(t *testing.T) {
	ts := setupTestServer(t)
	token := tokenFor(t, "user-1")

	list := models.NewList(shared.GenerateID(), "user-1", "Chores", models.KindRoutine)
	if resp := request(t, http.MethodPut, ts.URL+"/v1/lists/"+list.ID, token, list); resp.StatusCode != http.StatusOK {
		t.Fatalf("seed list: %d", resp.StatusCode)
	}

	t.Run("Post Assigns Id", func(t *testing.T) {
		resp := request(t, http.MethodPost, ts.URL+"/v1/items", token, map[string]string{
			"list_id": list.ID,
			"title":   "Vacuum",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		var created models.ListItem
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if created.ID == "" {
			t.Error("expected server-assigned id")
		}
	})

	t.Run("Orphan Item Rejected", func(t *testing.T) {
		resp := request(t, http.MethodPost, ts.URL+"/v1/items", token, map[string]string{
			"list_id": "no-such-list",
			"title":   "Orphan",
		})
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 for missing parent, got %d", resp.StatusCode)
		}
	})

	t.Run("List Items", func(t *testing.T) {
		resp := request(t, http.MethodGet, ts.URL+"/v1/lists/"+list.ID+"/items", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var items []models.ListItem
		if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(items) != 1 {
			t.Errorf("expected 1 item, got %d", len(items))
		}
	})
}

func TestTokens(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		token, err := GenerateToken("user-42", testSecret, time.Hour)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		userID, err := ValidateToken(token, testSecret)
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		if userID != "user-42" {
			t.Errorf("expected user-42, got %q", userID)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := GenerateToken("user-42", testSecret, -time.Minute)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, err := ValidateToken(token, testSecret); err == nil {
			t.Error("expected expired token to fail validation")
		}
	})

	t.Run("Subject Without Verification", func(t *testing.T) {
		token, err := GenerateToken("user-42", "unknown-secret", time.Hour)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		userID, err := UserFromToken(token)
		if err != nil {
			t.Fatalf("extract: %v", err)
		}
		if userID != "user-42" {
			t.Errorf("expected user-42, got %q", userID)
		}
	})
}

func TestStatusForMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{shared.ErrNotFound, http.StatusNotFound},
		{shared.ErrForbidden, http.StatusForbidden},
		{shared.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.status {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}
}
