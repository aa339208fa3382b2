package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/castock/listsync/internal/models"
	"github.com/castock/listsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// RESTStore implements [EntityStore] against the row-level-authorized remote
// backend. Every mutation is owner-guarded server-side; the adapter's job is
// to classify outcomes, never to interpret a rejected guard as success.
//
// Calls carry a bounded timeout so a dead remote can never stall the local
// write path, and requests are paced with a token-bucket limiter.
type RESTStore struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
}

// NewRESTStore creates a remote adapter for the backend at cfg.BaseURL,
// authenticated with the given bearer token.
func NewRESTStore(cfg shared.RemoteConfig, token string) *RESTStore {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := oauth2.NewClient(context.Background(), src)

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &RESTStore{
		baseURL:    cfg.BaseURL,
		httpClient: client,
		timeout:    cfg.Timeout(),
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (s *RESTStore) Name() string { return "remote" }

// IsAvailable probes the health endpoint with a short deadline.
func (s *RESTStore) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/health", nil)
	if err != nil {
		return false
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// GetAllLists returns all non-deleted lists owned by the authenticated user.
func (s *RESTStore) GetAllLists(ctx context.Context) ([]*models.List, error) {
	var lists []*models.List
	if err := s.do(ctx, http.MethodGet, "/v1/lists", nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// GetListByID returns one list, or ErrNotFound when absent or soft-deleted.
func (s *RESTStore) GetListByID(ctx context.Context, id string) (*models.List, error) {
	var list models.List
	if err := s.do(ctx, http.MethodGet, "/v1/lists/"+url.PathEscape(id), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// SaveList upserts a list. PUT by identifier keeps the call idempotent.
func (s *RESTStore) SaveList(ctx context.Context, list *models.List) error {
	if err := list.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return s.do(ctx, http.MethodPut, "/v1/lists/"+url.PathEscape(list.ID), list, nil)
}

// DeleteList soft-deletes a list through the backend's owner-guarded mutation.
func (s *RESTStore) DeleteList(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/v1/lists/"+url.PathEscape(id), nil, nil)
}

// GetItemsByListID returns all non-deleted items owned by the list.
func (s *RESTStore) GetItemsByListID(ctx context.Context, listID string) ([]*models.ListItem, error) {
	var items []*models.ListItem
	path := "/v1/lists/" + url.PathEscape(listID) + "/items"
	if err := s.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveItem upserts an item.
func (s *RESTStore) SaveItem(ctx context.Context, item *models.ListItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return s.do(ctx, http.MethodPut, "/v1/items/"+url.PathEscape(item.ID), item, nil)
}

// UpdateItem modifies an existing item. The backend distinguishes a missing
// row from a guard rejection; both arrive here as classified errors.
func (s *RESTStore) UpdateItem(ctx context.Context, item *models.ListItem) error {
	return s.SaveItem(ctx, item)
}

// DeleteItem soft-deletes an item through the owner-guarded mutation.
func (s *RESTStore) DeleteItem(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/v1/items/"+url.PathEscape(id), nil, nil)
}

// do performs one authenticated request with pacing, a bounded timeout, and
// status classification into the shared error taxonomy.
func (s *RESTStore) do(ctx context.Context, method, path string, body, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Timeouts and transport failures are the same condition to callers.
		return fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return fmt.Errorf("%w: %s %s returned %d", err, method, path, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// classifyStatus maps an HTTP status to the shared taxonomy. Authorization
// rejections and guard misses (zero rows affected) both arrive as 403.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return shared.ErrForbidden
	case status == http.StatusNotFound:
		return shared.ErrNotFound
	case status >= 500:
		return shared.ErrUnavailable
	default:
		return fmt.Errorf("%w: unexpected status", shared.ErrUnavailable)
	}
}
