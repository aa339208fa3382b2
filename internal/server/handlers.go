package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/castock/listsync/internal/models"
	"github.com/castock/listsync/internal/shared"
	"github.com/castock/listsync/internal/store"
	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps a store error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// scoped builds a store restricted to the authenticated caller's rows.
func (s *Server) scoped(r *http.Request) *store.SQLiteStore {
	return store.NewSQLiteStore(s.db, requestUser(r))
}

// authorizeList decides 403 vs 404 for a list the scoped query missed:
// a row owned by someone else is forbidden, no row at all is not found.
func (s *Server) authorizeList(r *http.Request, id string) int {
	owner, err := s.scoped(r).ListOwner(r.Context(), id)
	if err != nil {
		return http.StatusNotFound
	}
	if owner != requestUser(r) {
		return http.StatusForbidden
	}
	return http.StatusNotFound
}

func (s *Server) authorizeItem(r *http.Request, id string) int {
	owner, err := s.scoped(r).ItemOwner(r.Context(), id)
	if err != nil {
		return http.StatusNotFound
	}
	if owner != requestUser(r) {
		return http.StatusForbidden
	}
	return http.StatusNotFound
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.scoped(r).GetAllLists(r.Context())
	if err != nil {
		s.logger.Error("list scan failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read lists")
		return
	}
	if lists == nil {
		lists = []*models.List{}
	}
	writeJSON(w, http.StatusOK, lists)
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	list, err := s.scoped(r).GetListByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			writeError(w, s.authorizeList(r, id), "list not accessible")
			return
		}
		writeError(w, statusFor(err), "failed to read list")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var list models.List
	if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if list.ID == "" {
		list.ID = shared.GenerateID()
	}
	s.saveList(w, r, &list, http.StatusCreated)
}

func (s *Server) handlePutList(w http.ResponseWriter, r *http.Request) {
	var list models.List
	if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	list.ID = mux.Vars(r)["id"]
	s.saveList(w, r, &list, http.StatusOK)
}

// saveList upserts a list for the caller. Upserting over another user's row
// is forbidden.
func (s *Server) saveList(w http.ResponseWriter, r *http.Request, list *models.List, okStatus int) {
	user := requestUser(r)
	scoped := s.scoped(r)

	if owner, err := scoped.ListOwner(r.Context(), list.ID); err == nil && owner != user {
		writeError(w, http.StatusForbidden, "list owned by another user")
		return
	}

	list.OwnerID = user
	if err := list.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := scoped.SaveList(r.Context(), list); err != nil {
		s.logger.Error("list write failed", "id", list.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save list")
		return
	}
	writeJSON(w, okStatus, list)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	user := requestUser(r)
	scoped := s.scoped(r)

	if owner, err := scoped.ListOwner(r.Context(), id); err == nil && owner != user {
		writeError(w, http.StatusForbidden, "list owned by another user")
		return
	}

	if err := scoped.DeleteList(r.Context(), id); err != nil {
		writeError(w, statusFor(err), "list not accessible")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	scoped := s.scoped(r)

	if _, err := scoped.GetListByID(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			writeError(w, s.authorizeList(r, id), "list not accessible")
			return
		}
		writeError(w, statusFor(err), "failed to read list")
		return
	}

	items, err := scoped.GetItemsByListID(r.Context(), id)
	if err != nil {
		s.logger.Error("item scan failed", "list", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read items")
		return
	}
	if items == nil {
		items = []*models.ListItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var item models.ListItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if item.ID == "" {
		item.ID = shared.GenerateID()
	}
	s.saveItem(w, r, &item, http.StatusCreated)
}

func (s *Server) handlePutItem(w http.ResponseWriter, r *http.Request) {
	var item models.ListItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	item.ID = mux.Vars(r)["id"]
	s.saveItem(w, r, &item, http.StatusOK)
}

// saveItem upserts an item after checking the caller owns both the item's
// current row (if any) and its parent list.
func (s *Server) saveItem(w http.ResponseWriter, r *http.Request, item *models.ListItem, okStatus int) {
	user := requestUser(r)
	scoped := s.scoped(r)

	if owner, err := scoped.ItemOwner(r.Context(), item.ID); err == nil && owner != user {
		writeError(w, http.StatusForbidden, "item owned by another user")
		return
	}

	owner, err := scoped.ListOwner(r.Context(), item.ListID)
	if err != nil {
		writeError(w, http.StatusNotFound, "parent list not found")
		return
	}
	if owner != user {
		writeError(w, http.StatusForbidden, "parent list owned by another user")
		return
	}

	if err := item.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := scoped.SaveItem(r.Context(), item); err != nil {
		s.logger.Error("item write failed", "id", item.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save item")
		return
	}
	writeJSON(w, okStatus, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	user := requestUser(r)
	scoped := s.scoped(r)

	if owner, err := scoped.ItemOwner(r.Context(), id); err == nil && owner != user {
		writeError(w, http.StatusForbidden, "item owned by another user")
		return
	}

	if err := scoped.DeleteItem(r.Context(), id); err != nil {
		writeError(w, statusFor(err), "item not accessible")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
