package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/domain/model"
	"github.com/target/lab-portal/internal/service"
)

// UserHandlers administers accounts and contact messages for admins.
type UserHandlers struct {
	Users    *service.UserService
	Contacts *service.ContactService
	Logger   *slog.Logger
}

func (h *UserHandlers) actorID(r *http.Request) string {
	if s := GetSessionFromContext(r.Context()); s != nil {
		return s.UserID
	}
	return ""
}

func (h *UserHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	u, err := h.Users.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, u)
}

// ListUsers supports ?role=ADMIN|ENGINEER and ?q= filters.
func (h *UserHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.UsersListOptions{Limit: limit, Offset: offset, Q: optionalQuery(r, "q")}
	if raw := optionalQuery(r, "role"); raw != nil {
		role, ok := domainauth.ParseRole(*raw)
		if !ok {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: errors.New("unknown role")})
			return
		}
		opts.Role = &role
	}
	items, err := h.Users.List(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"users": items, "limit": limit, "offset": offset})
}

func (h *UserHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

// UpdateUser changes profile fields, password, or the ordered role set.
func (h *UserHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	u, err := h.Users.Update(r.Context(), h.actorID(r), id, req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

func (h *UserHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.Users.Delete(r.Context(), h.actorID(r), id)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeDeleted(w, deleted, "user")
}

// Contact messages

func (h *UserHandlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.ContactListOptions{Limit: limit, Offset: offset, UnreadOnly: r.URL.Query().Get("unread") == "true"}
	items, err := h.Contacts.List(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"messages": items, "limit": limit, "offset": offset})
}

func (h *UserHandlers) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := h.Contacts.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, m)
}

// MarkMessage sets the read flag from {"read": bool}.
func (h *UserHandlers) MarkMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Read bool `json:"read"`
	}
	if !DecodeJSON(w, r, &body) {
		return
	}
	updated, err := h.Contacts.MarkRead(r.Context(), id, body.Read)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	if !updated {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("message not found")})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"read": body.Read})
}

func (h *UserHandlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.Contacts.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeDeleted(w, deleted, "message")
}
