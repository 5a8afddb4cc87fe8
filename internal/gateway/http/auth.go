package http

import (
	"net/http"

	"github.com/clearhaven/idgate/internal/gateway/domain"
	"github.com/clearhaven/idgate/internal/gateway/service"
	"github.com/clearhaven/idgate/pkg/gatesdk"
	"github.com/clearhaven/idgate/pkg/httpx"
)

// AuthHandler serves the token-facing endpoints: who the caller is and what
// their enhanced claim set looks like.
type AuthHandler struct {
	EnhanceService *service.EnhanceService
}

// principal extracts the verified principal placed in the request context by
// the authn middleware.
func principal(r *http.Request) (domain.Principal, bool) {
	claims := httpx.ClaimsFromContext(r.Context())
	if claims == nil || claims.Subject == "" {
		return domain.Principal{}, false
	}
	return domain.PrincipalFromClaims(claims), true
}

// HandleLoginSuccess confirms a completed provider login.
//
//	@Summary		Login success
//	@Description	Confirms the caller's provider login and returns their identity plus any
//	@Description	enhancement claims the gateway produced. Requires 'profile:read' scope.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	gatesdk.LoginSuccessResponse
//	@Failure		401	{object}	gatesdk.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/auth/login/success [get].
func (h *AuthHandler) HandleLoginSuccess(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		gatesdk.ErrInvalidToken.WriteError(w)
		return
	}

	resp := gatesdk.LoginSuccessResponse{
		Status:   "success",
		Message:  "login successful",
		Username: p.PreferredUsername,
		Email:    p.Email,
	}
	if enhanced := h.EnhanceService.Enhance(r.Context(), p); len(enhanced) > 0 {
		resp.CustomClaims = enhanced
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleLoginFailure reports a failed provider login.
//
//	@Summary		Login failure
//	@Description	Returned when a provider login did not complete. Always 401 with an error payload.
//	@Tags			Auth
//	@Produce		json
//	@Failure		401	{object}	gatesdk.ErrorResponse
//	@Router			/v1/auth/login/failure [get].
func (h *AuthHandler) HandleLoginFailure(w http.ResponseWriter, r *http.Request) {
	gatesdk.ErrUnauthenticated.WriteError(w)
}

// HandleMe returns the caller's raw provider claims merged with enhancement.
//
//	@Summary		Current identity
//	@Description	Returns the full claim set of the caller's token merged with the gateway's
//	@Description	enhancement claims. Enhancement keys win on collision. Requires 'profile:read' scope.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	gatesdk.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		gatesdk.ErrInvalidToken.WriteError(w)
		return
	}

	out := make(map[string]any, len(p.Raw)+8)
	for k, v := range p.Raw {
		out[k] = v
	}
	for k, v := range h.EnhanceService.Enhance(r.Context(), p) {
		out[k] = v
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleToken returns the standard claims envelope merged with enhancement.
//
//	@Summary		Enhanced token claims
//	@Description	Returns the standard identity claims of the caller's token merged with the
//	@Description	gateway's enhancement claims. Requires 'profile:read' scope.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	gatesdk.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/auth/token [get].
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		gatesdk.ErrInvalidToken.WriteError(w)
		return
	}

	out := map[string]any{
		"sub":                p.Subject,
		"preferred_username": p.PreferredUsername,
		"email":              p.Email,
		"email_verified":     p.EmailVerified,
		"given_name":         p.GivenName,
		"family_name":        p.FamilyName,
	}
	for k, v := range h.EnhanceService.Enhance(r.Context(), p) {
		out[k] = v
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}
