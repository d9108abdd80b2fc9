package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/lab-portal/internal/domain/model"
	"github.com/target/lab-portal/internal/service"
)

// EngineerHandlers serves the ENGINEER portal API. Every operation is scoped
// to the session user's own projects.
type EngineerHandlers struct {
	Dashboard *service.DashboardService
	Projects  *service.ProjectService
	Logger    *slog.Logger
}

func (h *EngineerHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, h.Logger, err)
}

func ownerID(r *http.Request) string {
	return GetSessionFromContext(r.Context()).UserID
}

// Home is the engineer portal landing page.
// GET /engineer.
func (h *EngineerHandlers) Home(w http.ResponseWriter, r *http.Request) {
	d, err := h.Dashboard.Engineer(r.Context(), ownerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"page":      "engineer",
		"user":      sessionUser(GetSessionFromContext(r.Context())),
		"dashboard": d,
	})
}

func (h *EngineerHandlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProjectRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	p, err := h.Projects.Create(r.Context(), ownerID(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

func (h *EngineerHandlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	opts, ok := parseProjectListOptions(w, r)
	if !ok {
		return
	}
	items, err := h.Projects.ListOwned(r.Context(), ownerID(r), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"projects": items, "limit": opts.Limit, "offset": opts.Offset})
}

func (h *EngineerHandlers) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Projects.GetOwned(r.Context(), ownerID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h *EngineerHandlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateProjectRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	p, err := h.Projects.UpdateOwned(r.Context(), ownerID(r), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h *EngineerHandlers) SubmitProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Projects.Submit(r.Context(), ownerID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h *EngineerHandlers) WithdrawProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Projects.Withdraw(r.Context(), ownerID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h *EngineerHandlers) UploadProjectImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, closer, ok := readImageUpload(w, r)
	if !ok {
		return
	}
	defer closer.Close()

	p, err := h.Projects.SetImageOwned(r.Context(), ownerID(r), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h *EngineerHandlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.Projects.DeleteOwned(r.Context(), ownerID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeDeleted(w, deleted, "project")
}

// parseProjectListOptions reads paging plus ?status=, ?department_id= and ?q=.
func parseProjectListOptions(w http.ResponseWriter, r *http.Request) (model.ProjectsListOptions, bool) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.ProjectsListOptions{
		Limit:        limit,
		Offset:       offset,
		DepartmentID: optionalQuery(r, "department_id"),
		Q:            optionalQuery(r, "q"),
	}
	if raw := optionalQuery(r, "status"); raw != nil {
		st, ok := model.ParseProjectStatus(*raw)
		if !ok {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: errors.New("unknown project status")})
			return opts, false
		}
		opts.Status = &st
	}
	return opts, true
}
