package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/judgehub/judgehub"
	"github.com/judgehub/judgehub/internal/store"
)

// UsersHandler exposes user listing and upsert.
type UsersHandler struct {
	store *store.Store
}

// NewUsersHandler builds a UsersHandler.
func NewUsersHandler(st *store.Store) *UsersHandler {
	return &UsersHandler{store: st}
}

func (h *UsersHandler) Routes(r judgehub.Router) {
	r.GET("/users", h.list)
	r.POST("/users", h.upsert)
}

func (h *UsersHandler) list(c judgehub.Context) error {
	users, err := h.store.ListUsers(c)
	if err != nil {
		return c.Error(judgehub.ReasonExternal, "failed to list users", judgehub.WithError(err))
	}
	return c.JSON(http.StatusOK, users)
}

// upsert creates a user when the body carries no id, or renames an existing
// one when it does.
func (h *UsersHandler) upsert(c judgehub.Context) error {
	var req userRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.Error(judgehub.ReasonInvalidArgument, "malformed request body", judgehub.WithError(err))
	}
	if req.Name == "" {
		return c.Error(judgehub.ReasonInvalidArgument, "name is required")
	}

	if req.ID != nil {
		return h.update(c, *req.ID, req.Name)
	}
	return h.create(c, req.Name)
}

func (h *UsersHandler) create(c judgehub.Context, name string) error {
	exists, err := h.store.UserNameExists(c, name, nil)
	if err != nil {
		return c.Error(judgehub.ReasonExternal, "failed to check user name", judgehub.WithError(err))
	}
	if exists {
		return c.Error(judgehub.ReasonInvalidArgument, fmt.Sprintf("user name %q already exists", name))
	}

	user, err := h.store.CreateUser(c, name)
	if err != nil {
		return c.Error(judgehub.ReasonExternal, "failed to create user", judgehub.WithError(err))
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UsersHandler) update(c judgehub.Context, id uint32, name string) error {
	if _, err := h.store.FindUserByID(c, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Error(judgehub.ReasonNotFound, fmt.Sprintf("user %d not found", id))
		}
		return c.Error(judgehub.ReasonExternal, "failed to look up user", judgehub.WithError(err))
	}

	exists, err := h.store.UserNameExists(c, name, &id)
	if err != nil {
		return c.Error(judgehub.ReasonExternal, "failed to check user name", judgehub.WithError(err))
	}
	if exists {
		return c.Error(judgehub.ReasonInvalidArgument, fmt.Sprintf("user name %q already exists", name))
	}

	user, err := h.store.UpdateUser(c, id, name)
	if err != nil {
		return c.Error(judgehub.ReasonExternal, "failed to update user", judgehub.WithError(err))
	}
	return c.JSON(http.StatusOK, user)
}
