package handler

import (
	"errors"
	"net/http"

	"github.com/artel-team/artel/internal/infra/gotrue"
	"github.com/artel-team/artel/internal/middleware"
	"github.com/artel-team/artel/internal/modules/serializer"
	"github.com/artel-team/artel/internal/modules/service"
	"github.com/artel-team/artel/internal/push"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc      service.AuthService
	profiles service.ProfileService
}

func NewAuthHandler(s service.AuthService, profiles service.ProfileService) *AuthHandler {
	return &AuthHandler{svc: s, profiles: profiles}
}

type SignUpReq struct {
	Email    string       `json:"email" binding:"required,email" example:"ann@example.com"`
	Password string       `json:"password" binding:"required,min=6"`
	FullName string       `json:"full_name" binding:"max=200" example:"Ann Lee"`
	Device   *push.Device `json:"device"`
}

// SignUp godoc
//
//	@Summary		Sign up with email and password
//	@Description	confirmation_required is set when the email must be verified with a code first.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.SignUpReq	true	"Credentials"
//	@Success		200	{object}	serializer.Response{data=service.AuthResult}
//	@Router			/auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	req := SignUpReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	res, err := h.svc.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName, req.Device)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: res})
}

type SignInReq struct {
	Email    string       `json:"email" binding:"required,email" example:"ann@example.com"`
	Password string       `json:"password" binding:"required"`
	Device   *push.Device `json:"device"`
}

// SignIn godoc
//
//	@Summary	Sign in with email and password
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	handler.SignInReq	true	"Credentials"
//	@Success	200	{object}	serializer.Response{data=service.AuthResult}
//	@Failure	401	{object}	serializer.Response{}
//	@Router		/auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	req := SignInReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	res, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password, req.Device)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: res})
}

type SendOTPReq struct {
	Email      string `json:"email" binding:"required,email"`
	CreateUser bool   `json:"create_user"`
}

// SendOTP godoc
//
//	@Summary	Email a one-time code
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	handler.SendOTPReq	true	"Recipient"
//	@Success	200	{object}	serializer.Response{}
//	@Router		/auth/otp [post]
func (h *AuthHandler) SendOTP(c *gin.Context) {
	req := SendOTPReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	if err := h.svc.SendOTP(c.Request.Context(), req.Email, req.CreateUser); err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}

type VerifyOTPReq struct {
	Email  string       `json:"email" binding:"required,email"`
	Token  string       `json:"token" binding:"required" example:"123456"`
	Type   string       `json:"type" example:"email"`
	Device *push.Device `json:"device"`
}

// VerifyOTP godoc
//
//	@Summary		Verify a one-time code
//	@Description	type is one of email, signup, recovery, magiclink (default email).
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.VerifyOTPReq	true	"Code"
//	@Success		200	{object}	serializer.Response{data=service.AuthResult}
//	@Router			/auth/verify [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	req := VerifyOTPReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	res, err := h.svc.VerifyOTP(c.Request.Context(), req.Email, req.Token, req.Type, req.Device)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: res})
}

type RecoverReq struct {
	Email string `json:"email" binding:"required,email"`
}

// SendPasswordReset godoc
//
//	@Summary	Send a password reset email
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	handler.RecoverReq	true	"Account email"
//	@Success	200	{object}	serializer.Response{}
//	@Router		/auth/recover [post]
func (h *AuthHandler) SendPasswordReset(c *gin.Context) {
	req := RecoverReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	if err := h.svc.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}

type RefreshReq struct {
	RefreshToken string       `json:"refresh_token" binding:"required"`
	Device       *push.Device `json:"device"`
}

// Refresh godoc
//
//	@Summary	Refresh a session
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	handler.RefreshReq	true	"Refresh token"
//	@Success	200	{object}	serializer.Response{data=service.AuthResult}
//	@Router		/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	req := RefreshReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	res, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken, req.Device)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: res})
}

type CallbackReq struct {
	URL    string       `json:"url" binding:"required" example:"artel://auth-callback?code=abc&flow_id=..."`
	FlowID string       `json:"flow_id"`
	Device *push.Device `json:"device"`
}

// StartOAuth godoc
//
//	@Summary		Start an OAuth sign-in
//	@Description	Returns the provider authorization URL and the flow id to send back with the callback URL.
//	@Tags			auth
//	@Produce		json
//	@Param			provider	path	string	true	"google, github, apple, gitlab or discord"
//	@Success		200	{object}	serializer.Response{data=service.OAuthStart}
//	@Router			/auth/oauth/{provider} [get]
func (h *AuthHandler) StartOAuth(c *gin.Context) {
	res, err := h.svc.StartOAuth(c.Request.Context(), c.Param("provider"))
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: res})
}

// CompleteCallback godoc
//
//	@Summary		Finish sign-in from a deep link
//	@Description	Accepts the full redirect URL. Handles PKCE codes, implicit tokens, recovery links and provider errors.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CallbackReq	true	"Redirect URL"
//	@Success		200	{object}	serializer.Response{data=service.AuthResult}
//	@Router			/auth/callback [post]
func (h *AuthHandler) CompleteCallback(c *gin.Context) {
	req := CallbackReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	res, err := h.svc.CompleteCallback(c.Request.Context(), req.URL, req.FlowID, req.Device)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: res})
}

type SignOutReq struct {
	Device *push.Device `json:"device"`
}

// SignOut godoc
//
//	@Summary	Sign out
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	handler.SignOutReq	false	"Device to unsubscribe"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=push.SyncResult}
//	@Router		/auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	req := SignOutReq{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
			return
		}
	}
	res, err := h.svc.SignOut(c.Request.Context(), c.GetString(middleware.CtxAccessToken), req.Device)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: res})
}

type UpdateUserReq struct {
	FullName *string `json:"full_name" example:"Ann Lee"`
	Password *string `json:"password" binding:"omitempty,min=6"`
}

// UpdateUser godoc
//
//	@Summary	Update account name or password
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	handler.UpdateUserReq	true	"Fields to change"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=gotrue.Identity}
//	@Router		/auth/user [put]
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req := UpdateUserReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	user, err := h.svc.UpdateUser(c.Request.Context(), c.GetString(middleware.CtxAccessToken), userID, req.FullName, req.Password)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: user})
}

type SessionView struct {
	User    *gotrue.Identity     `json:"user"`
	Profile *service.ProfileView `json:"profile"`
}

// GetSession godoc
//
//	@Summary		Current session
//	@Description	The authenticated identity and its profile. profile is null until the first write.
//	@Tags			auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=handler.SessionView}
//	@Router			/session [get]
func (h *AuthHandler) GetSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	view := SessionView{}
	if u, ok := c.Get(middleware.CtxUser); ok {
		view.User, _ = u.(*gotrue.Identity)
	}
	p, err := h.profiles.Get(c.Request.Context(), userID)
	switch {
	case err == nil:
		view.Profile = p
	case !errors.Is(err, service.ErrNotFound):
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: view})
}
