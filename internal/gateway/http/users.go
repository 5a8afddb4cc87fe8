package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/clearhaven/idgate/internal/gateway/domain"
	"github.com/clearhaven/idgate/internal/gateway/service"
	"github.com/clearhaven/idgate/internal/gateway/store"
	"github.com/clearhaven/idgate/pkg/gatesdk"
	"github.com/clearhaven/idgate/pkg/httpx"
	"github.com/clearhaven/idgate/pkg/slogx"
)

// UsersHandler serves the directory lookup and administration endpoints.
type UsersHandler struct {
	DirectoryService *service.DirectoryService
}

func userResponse(u domain.User) gatesdk.UserResponse {
	resp := gatesdk.UserResponse{
		UserID:     u.ID,
		ExternalID: u.ExternalID,
		Username:   u.Username,
		Email:      u.Email,
		Active:     u.Active,
		Roles:      u.RoleNames(),
		CreatedAt:  u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  u.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if resp.Roles == nil {
		resp.Roles = []string{}
	}
	resp.FirstName = deref(u.FirstName)
	resp.LastName = deref(u.LastName)
	resp.Department = deref(u.Department)
	resp.JobTitle = deref(u.JobTitle)
	resp.PhoneNumber = deref(u.PhoneNumber)
	resp.EmployeeID = deref(u.EmployeeID)
	return resp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// HandleGetByExternalID looks up a directory user by external id.
//
//	@Summary		Get user by external id
//	@Description	Returns the directory user carrying the given provider external id,
//	@Description	roles attached, regardless of active state. Deactivated users are
//	@Description	returned with active=false. Requires 'directory:read' scope.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			externalID	path		string	true	"Provider external id"
//	@Success		200			{object}	gatesdk.UserResponse
//	@Failure		404			{object}	gatesdk.ErrorResponse	"User not found"
//	@Failure		500			{object}	gatesdk.ErrorResponse	"Internal server error"
//	@Router			/v1/users/external/{externalID} [get].
func (h *UsersHandler) HandleGetByExternalID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	externalID := r.PathValue("externalID")

	user, err := h.DirectoryService.FindByExternalIDWithRoles(ctx, externalID)
	if errors.Is(err, store.ErrNotFound) {
		gatesdk.NewUserNotFoundError(externalID).WriteError(w)
		return
	}
	if err != nil {
		log.Warn("failed to load user", "external_id", externalID, "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse(user))
}

// HandleGetByUsername looks up a directory user by username.
//
//	@Summary		Get user by username
//	@Description	Returns the directory user with the given username, roles attached,
//	@Description	regardless of active state. Requires 'directory:read' scope.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			username	path		string	true	"Directory username"
//	@Success		200			{object}	gatesdk.UserResponse
//	@Failure		404			{object}	gatesdk.ErrorResponse	"User not found"
//	@Failure		500			{object}	gatesdk.ErrorResponse	"Internal server error"
//	@Router			/v1/users/username/{username} [get].
func (h *UsersHandler) HandleGetByUsername(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	username := r.PathValue("username")

	user, err := h.DirectoryService.FindByUsernameWithRoles(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		gatesdk.NewUsernameNotFoundError(username).WriteError(w)
		return
	}
	if err != nil {
		log.Warn("failed to load user", "username", username, "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse(user))
}

// HandleExists reports whether a directory user exists for an external id.
//
//	@Summary		Check user existence
//	@Description	Reports whether any directory user, active or not, carries the given
//	@Description	provider external id. Requires 'directory:read' scope.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			externalID	path		string	true	"Provider external id"
//	@Success		200			{object}	gatesdk.ExistsResponse
//	@Failure		500			{object}	gatesdk.ErrorResponse	"Internal server error"
//	@Router			/v1/users/external/{externalID}/exists [get].
func (h *UsersHandler) HandleExists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	externalID := r.PathValue("externalID")

	exists, err := h.DirectoryService.Exists(ctx, externalID)
	if err != nil {
		log.Warn("failed to check user existence", "external_id", externalID, "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatesdk.ExistsResponse{
		ExternalID: externalID,
		Exists:     exists,
	})
}

// HandleDeactivate marks a directory user inactive.
//
//	@Summary		Deactivate user
//	@Description	Marks the directory user with the given external id inactive. Deactivated
//	@Description	users disappear from active lookups and stop receiving enhancement claims.
//	@Description	Requires 'directory:admin' scope.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			externalID	path		string	true	"Provider external id"
//	@Success		200			{object}	gatesdk.DeactivateResponse
//	@Failure		404			{object}	gatesdk.ErrorResponse	"User not found"
//	@Failure		500			{object}	gatesdk.ErrorResponse	"Internal server error"
//	@Router			/v1/users/external/{externalID}/deactivate [post].
func (h *UsersHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	externalID := r.PathValue("externalID")

	found, err := h.DirectoryService.Deactivate(ctx, externalID)
	if err != nil {
		log.Warn("failed to deactivate user", "external_id", externalID, "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}
	if !found {
		gatesdk.NewUserNotFoundError(externalID).WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatesdk.DeactivateResponse{
		ExternalID: externalID,
		Active:     false,
	})
}
