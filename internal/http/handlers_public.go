package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/target/lab-portal/internal/domain/model"
	"github.com/target/lab-portal/internal/service"
)

// marketingPages maps public roots to their page titles.
var marketingPages = map[string]string{
	"/":            "Home",
	"/products":    "Products",
	"/research":    "Research",
	"/insights":    "Insights",
	"/bootcamps":   "Bootcamps",
	"/careers":     "Careers",
	"/podcast":     "Podcast",
	"/teams":       "Teams",
	"/gallery":     "Gallery",
	"/contact":     "Contact",
	"/newsletter":  "Newsletter",
	"/services":    "Services",
	"/conferences": "Conferences",
	"/centers":     "Centers",
}

// PublicHandlers serves anonymous content and the contact form.
type PublicHandlers struct {
	Content *service.PublicContentService
	Contact *service.ContactService
	Logger  *slog.Logger
}

// Page answers a marketing route with a small page descriptor.
func (h *PublicHandlers) Page(w http.ResponseWriter, r *http.Request) {
	root := "/" + strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)[0]
	title, ok := marketingPages[root]
	if !ok {
		NotFound(w, r)
		return
	}
	body := map[string]any{"page": strings.TrimPrefix(root, "/"), "title": title, "path": r.URL.Path}
	if root == "/" {
		body["page"] = "home"
	}
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		body["user"] = sessionUser(sess)
	}
	WriteJSON(w, http.StatusOK, body)
}

func (h *PublicHandlers) Departments(w http.ResponseWriter, r *http.Request) {
	items, err := h.Content.Departments(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"departments": items})
}

func (h *PublicHandlers) Newsletters(w http.ResponseWriter, r *http.Request) {
	items, err := h.Content.Newsletters(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"newsletters": items})
}

func (h *PublicHandlers) Newsletter(w http.ResponseWriter, r *http.Request) {
	n, err := h.Content.Newsletter(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, n)
}

func (h *PublicHandlers) Projects(w http.ResponseWriter, r *http.Request) {
	items, err := h.Content.Projects(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"projects": items})
}

func (h *PublicHandlers) Project(w http.ResponseWriter, r *http.Request) {
	p, err := h.Content.Project(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// SubmitContact stores a contact form message.
// POST /api/contact.
func (h *PublicHandlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req model.CreateContactMessageRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		req = model.CreateContactMessageRequest{
			Name:    r.FormValue("name"),
			Email:   r.FormValue("email"),
			Subject: r.FormValue("subject"),
			Message: r.FormValue("message"),
		}
	}

	m, err := h.Contact.Submit(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"id": m.ID, "status": "received"})
}

// NotFound writes a JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]string{
		"error":   "not_found",
		"message": "no route for " + r.URL.Path,
	})
}
