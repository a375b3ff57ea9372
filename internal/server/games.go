package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/shared"
)

const (
	gamesPrefix     = "/api/v1/games/"
	defaultPageSize = 10
	maxPageSize     = 100
)

// GamesHandler serves the games collection and detail endpoints.
type GamesHandler struct {
	store *GameStore
	token string
}

// NewGamesHandler creates a handler over store. When token is non-empty,
// DELETE and PATCH require "Authorization: Token <token>".
func NewGamesHandler(store *GameStore, token string) *GamesHandler {
	return &GamesHandler{store: store, token: token}
}

// Routes returns the HTTP routes this handler serves.
func (h *GamesHandler) Routes() []string {
	return []string{gamesPrefix}
}

func (h *GamesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, gamesPrefix)
	if rest == "" {
		if r.Method != http.MethodGet {
			writeDetail(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method \"%s\" not allowed.", r.Method))
			return
		}
		h.list(w, r)
		return
	}

	shortID := strings.TrimSuffix(rest, "/")
	if shortID == "" || strings.Contains(shortID, "/") {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	switch r.Method {
	case http.MethodGet:
		replay, err := h.store.Get(shortID)
		if err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		writeJSON(w, http.StatusOK, replay)
	case http.MethodDelete:
		if !h.authorized(w, r) {
			return
		}
		if err := h.store.Delete(shortID); err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPatch:
		if !h.authorized(w, r) {
			return
		}
		h.patch(w, r, shortID)
	default:
		writeDetail(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method \"%s\" not allowed.", r.Method))
	}
}

func (h *GamesHandler) authorized(w http.ResponseWriter, r *http.Request) bool {
	if h.token == "" {
		return true
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return false
	}
	given := strings.TrimPrefix(header, "Token ")
	if given == header || subtle.ConstantTimeCompare([]byte(given), []byte(h.token)) != 1 {
		writeDetail(w, http.StatusForbidden, "Invalid token.")
		return false
	}
	return true
}

// list pages through the collection with page/page_size parameters and
// absolute next/previous links.
func (h *GamesHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := positiveInt(q.Get("page"), 1)
	size := positiveInt(q.Get("page_size"), defaultPageSize)
	if size > maxPageSize {
		size = maxPageSize
	}

	replays := h.store.List(q.Get("username"))
	start := (page - 1) * size
	if start > len(replays) && len(replays) > 0 {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	if start > len(replays) {
		start = len(replays)
	}
	end := min(start+size, len(replays))

	resp := models.FeedPage{Count: len(replays), Results: replays[start:end]}
	if end < len(replays) {
		resp.Next = pageLink(r, page+1)
	}
	if page > 1 {
		resp.Previous = pageLink(r, page-1)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GamesHandler) patch(w http.ResponseWriter, r *http.Request, shortID string) {
	var body struct {
		Visibility *json.RawMessage `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error.")
		return
	}
	if body.Visibility == nil {
		writeDetail(w, http.StatusBadRequest, "visibility: This field is required.")
		return
	}

	v, err := parseVisibilityJSON(*body.Visibility)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	replay, err := h.store.SetVisibility(shortID, v)
	if errors.Is(err, shared.ErrReplayNotFound) {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, replay)
}

// parseVisibilityJSON accepts the numeric value or its name.
func parseVisibilityJSON(raw json.RawMessage) (models.Visibility, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		v := models.Visibility(n)
		if !v.Valid() {
			return 0, fmt.Errorf("visibility: \"%d\" is not a valid choice.", n)
		}
		return v, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errors.New("visibility: invalid value.")
	}
	v, err := models.ParseVisibility(s)
	if err != nil {
		return 0, fmt.Errorf("visibility: \"%s\" is not a valid choice.", s)
	}
	return v, nil
}

func pageLink(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func positiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
