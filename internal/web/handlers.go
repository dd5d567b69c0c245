package web

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/scimfile/internal/directory"
	"github.com/JonMunkholm/scimfile/internal/logging"
	"github.com/go-chi/chi/v5"
)

// parsePageRequest reads startIndex and count. Neither present means no
// pagination. Values below the minimum are clamped: startIndex to 1 and
// count to 0.
func parsePageRequest(r *http.Request) (*directory.PageRequest, error) {
	q := r.URL.Query()
	rawStart, rawCount := q.Get("startIndex"), q.Get("count")
	if rawStart == "" && rawCount == "" {
		return nil, nil
	}

	page := &directory.PageRequest{StartIndex: 1, Count: math.MaxInt32}
	if rawStart != "" {
		v, err := strconv.Atoi(rawStart)
		if err != nil {
			return nil, fmt.Errorf("startIndex %q is not an integer", rawStart)
		}
		page.StartIndex = min(max(v, 1), math.MaxInt32)
	}
	if rawCount != "" {
		v, err := strconv.Atoi(rawCount)
		if err != nil {
			return nil, fmt.Errorf("count %q is not an integer", rawCount)
		}
		page.Count = min(max(v, 0), math.MaxInt32)
	}
	return page, nil
}

// handleListUsers answers GET /scim/v2/Users.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := parsePageRequest(r)
	if err != nil {
		respondSCIMBadRequest(w, r, "invalidValue", err)
		return
	}

	filter, err := ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if filter != nil {
		logging.WithFields(ctx, "filter", filter.String()).Debug("user query")
	}

	result, err := s.service.ListUsers(ctx, filter, page)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	resources := make([]any, len(result.Resources))
	for i, u := range result.Resources {
		resources[i] = userResource(u, s.userLocation(u.ID))
	}
	writeJSONStatus(w, scimContentType, http.StatusOK,
		newListResponse(result.TotalResults, result.StartIndex, resources))
}

// handleGetUser answers GET /scim/v2/Users/{id}.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := s.service.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSONStatus(w, scimContentType, http.StatusOK, userResource(u, s.userLocation(u.ID)))
}

// handleListGroups answers GET /scim/v2/Groups.
func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageRequest(r)
	if err != nil {
		respondSCIMBadRequest(w, r, "invalidValue", err)
		return
	}

	result, err := s.service.ListGroups(r.Context(), page)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	resources := make([]any, len(result.Resources))
	for i, g := range result.Resources {
		resources[i] = map[string]any{
			"schemas":     []string{schemaGroup},
			"id":          g.ID,
			"displayName": g.DisplayName,
		}
	}
	writeJSONStatus(w, scimContentType, http.StatusOK,
		newListResponse(result.TotalResults, result.StartIndex, resources))
}

// handleNotImplemented answers every write operation.
func (s *Server) handleNotImplemented(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, directory.ErrNotImplemented),
		http.StatusNotImplemented)
}

// handleServiceProviderConfig answers GET /scim/v2/ServiceProviderConfig.
func (s *Server) handleServiceProviderConfig(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, scimContentType, http.StatusOK,
		newServiceProviderConfig(s.service.Capabilities(), s.cfg.Security.RequireAPIKey))
}

// handleRefresh answers POST /admin/refresh with the refresh summary.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Refresh(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	logging.FromContext(r.Context()).Info("refresh requested",
		"users", result.Loaded,
		"generation", result.Generation,
	)
	writeJSONStatus(w, "application/json", http.StatusOK, result)
}

// handleStatus answers GET /admin/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, "application/json", http.StatusOK, s.service.Status())
}

// handleHealth answers GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, "application/json", http.StatusOK, map[string]string{"status": "ok"})
}

// respondSCIMBadRequest writes a 400 with the given scimType.
func respondSCIMBadRequest(w http.ResponseWriter, r *http.Request, scimType string, err error) {
	logging.FromContext(r.Context()).Debug("bad request", "path", r.URL.Path, "error", err)
	writeJSONStatus(w, scimContentType, http.StatusBadRequest, scimError{
		Schemas:  []string{schemaError},
		Status:   strconv.Itoa(http.StatusBadRequest),
		ScimType: scimType,
		Detail:   err.Error(),
	})
}

func (s *Server) userLocation(id string) string {
	return scimBasePath + "/Users/" + id
}
