package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/lab-portal/internal/domain/model"
	"github.com/target/lab-portal/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// AdminHandlers serves the ADMIN portal API. Routes are wrapped with
// RequireRole(ADMIN).
type AdminHandlers struct {
	Dashboard   *service.DashboardService
	Departments *service.DepartmentService
	Newsletters *service.NewsletterService
	Projects    *service.ProjectService
	Logger      *slog.Logger
}

func (h *AdminHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, h.Logger, err)
}

// Home is the admin portal landing page.
// GET /admin.
func (h *AdminHandlers) Home(w http.ResponseWriter, r *http.Request) {
	d, err := h.Dashboard.Admin(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"page":      "admin",
		"user":      sessionUser(GetSessionFromContext(r.Context())),
		"dashboard": d,
	})
}

func (h *AdminHandlers) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	d, err := h.Dashboard.Admin(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, d)
}

// Departments

func (h *AdminHandlers) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req model.CreateDepartmentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	d, err := h.Departments.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, d)
}

func (h *AdminHandlers) ListDepartments(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	items, err := h.Departments.List(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"departments": items, "limit": limit, "offset": offset})
}

func (h *AdminHandlers) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.Departments.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, d)
}

func (h *AdminHandlers) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateDepartmentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	d, err := h.Departments.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, d)
}

func (h *AdminHandlers) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.Departments.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeDeleted(w, deleted, "department")
}

// Newsletters

func (h *AdminHandlers) CreateNewsletter(w http.ResponseWriter, r *http.Request) {
	var req model.CreateNewsletterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	n, err := h.Newsletters.Create(r.Context(), req, GetSessionFromContext(r.Context()).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, n)
}

func (h *AdminHandlers) ListNewsletters(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.NewslettersListOptions{
		Limit:         limit,
		Offset:        offset,
		PublishedOnly: r.URL.Query().Get("published") == "true",
	}
	items, err := h.Newsletters.List(r.Context(), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"newsletters": items, "limit": limit, "offset": offset})
}

func (h *AdminHandlers) GetNewsletter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.Newsletters.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, n)
}

func (h *AdminHandlers) UpdateNewsletter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateNewsletterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	n, err := h.Newsletters.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, n)
}

func (h *AdminHandlers) PublishNewsletter(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

func (h *AdminHandlers) UnpublishNewsletter(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *AdminHandlers) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.Newsletters.SetPublished(r.Context(), id, published)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, n)
}

// UploadNewsletterCover accepts a multipart image in the "file" field.
func (h *AdminHandlers) UploadNewsletterCover(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, closer, ok := readImageUpload(w, r)
	if !ok {
		return
	}
	defer closer.Close()

	n, err := h.Newsletters.SetCover(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, n)
}

func (h *AdminHandlers) RemoveNewsletterCover(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.Newsletters.RemoveCover(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, n)
}

func (h *AdminHandlers) DeleteNewsletter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.Newsletters.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeDeleted(w, deleted, "newsletter")
}

// Projects

func (h *AdminHandlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	opts, ok := parseProjectListOptions(w, r)
	if !ok {
		return
	}
	opts.OwnerID = optionalQuery(r, "owner_id")
	items, err := h.Projects.List(r.Context(), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"projects": items, "limit": opts.Limit, "offset": opts.Offset})
}

func (h *AdminHandlers) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Projects.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// ReviewProject approves or rejects a pending project.
// POST /api/admin/projects/{id}/review.
func (h *AdminHandlers) ReviewProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.ReviewProjectRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	p, err := h.Projects.Review(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h *AdminHandlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.Projects.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeDeleted(w, deleted, "project")
}
