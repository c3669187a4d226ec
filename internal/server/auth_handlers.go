package server

import (
	"log/slog"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AuthResponse is the payload of register and login.
type AuthResponse struct {
	User *models.User `json:"user"`
	TokenPair
}

func (s *Server) respondAuth(c *fiber.Ctx, user *models.User, created bool) error {
	tokens, err := s.issueTokens(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	resp := AuthResponse{User: user, TokenPair: *tokens}
	if created {
		return models.RespondCreated(c, resp, "User registered successfully")
	}
	return models.RespondOK(c, resp)
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and return a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,username=string,password=string,firstName=string,lastName=string} true "Registration"
// @Success 201 {object} models.Envelope{data=AuthResponse}
// @Failure 400 {object} models.Envelope
// @Failure 409 {object} models.Envelope
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Email     string `json:"email"`
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return s.respondAuth(c, user, true)
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Authenticate by email or username
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{login=string,password=string} true "Credentials"
// @Success 200 {object} models.Envelope{data=AuthResponse}
// @Failure 401 {object} models.Envelope
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Login    string `json:"login"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	login := req.Login
	if login == "" {
		login = req.Email
	}
	if login == "" {
		login = req.Username
	}

	user, err := s.authService.Login(c.UserContext(), service.LoginInput{Login: login, Password: req.Password})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return s.respondAuth(c, user, false)
}

// Refresh handles POST /api/auth/refresh. The presented refresh token is
// revoked so each one can be exchanged once.
// @Summary Refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{refreshToken=string} true "Refresh token"
// @Success 200 {object} models.Envelope{data=TokenPair}
// @Failure 401 {object} models.Envelope
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	ctx := c.UserContext()

	claims, err := middleware.ParseToken(req.RefreshToken, s.config.JWTSecret, middleware.TokenTypeRefresh)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired refresh token"))
	}
	if err := checkRevoked(ctx, claims); err != nil {
		return models.RespondWithAppError(c, err)
	}
	userID, _ := claims.UserID()
	user, err := s.authService.ActiveUser(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if err := revoke(ctx, claims); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to revoke refresh token", slog.String("error", err.Error()))
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return models.RespondOK(c, tokens)
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the access token and, when supplied, the refresh token
// @Tags auth
// @Security BearerAuth
// @Param request body object{refreshToken=string} false "Refresh token"
// @Success 200 {object} models.Envelope
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	claims, _ := c.Locals("claims").(*middleware.Claims)
	if err := revoke(ctx, claims); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if len(c.Body()) > 0 && c.BodyParser(&req) == nil && req.RefreshToken != "" {
		if refresh, err := middleware.ParseToken(req.RefreshToken, s.config.JWTSecret, middleware.TokenTypeRefresh); err == nil {
			if err := revoke(ctx, refresh); err != nil {
				middleware.Logger.WarnContext(ctx, "failed to revoke refresh token", slog.String("error", err.Error()))
			}
		}
	}

	return models.RespondMessage(c, "Logged out successfully")
}

// GetProfile handles GET /api/auth/profile
// @Summary Current profile
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Envelope{data=models.User}
// @Router /auth/profile [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.authService.Profile(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondOK(c, user)
}

// UpdateProfile handles PUT /api/auth/profile
// @Summary Update profile
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{username=string,firstName=string,lastName=string,bio=string,avatar=string} true "Profile fields"
// @Success 200 {object} models.Envelope{data=models.User}
// @Failure 409 {object} models.Envelope
// @Router /auth/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Username  *string `json:"username"`
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		Bio       *string `json:"bio"`
		Avatar    *string `json:"avatar"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.authService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:    currentUserID(c),
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Avatar:    req.Avatar,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(models.Envelope{Success: true, Message: "Profile updated successfully", Data: user})
}

// ChangePassword handles PUT /api/auth/change-password
// @Summary Change password
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Param request body object{currentPassword=string,newPassword=string} true "Passwords"
// @Success 200 {object} models.Envelope
// @Failure 400 {object} models.Envelope
// @Router /auth/change-password [put]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	err := s.authService.ChangePassword(c.UserContext(), service.ChangePasswordInput{
		UserID:          currentUserID(c),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondMessage(c, "Password changed successfully")
}

// ForgotPassword handles POST /api/auth/forgot-password. It answers the same
// way whether or not the email is registered. Outside production the token is
// echoed back since no mailer is wired.
// @Summary Request a password reset
// @Tags auth
// @Accept json
// @Param request body object{email=string} true "Email"
// @Success 200 {object} models.Envelope
// @Router /auth/forgot-password [post]
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	token, err := s.authService.ForgotPassword(c.UserContext(), req.Email)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	resp := models.Envelope{
		Success: true,
		Message: "If the email exists, a password reset link has been sent",
	}
	if token != "" && !s.config.IsProduction() {
		resp.Data = fiber.Map{"resetToken": token}
	}
	return c.JSON(resp)
}

// ResetPassword handles POST /api/auth/reset-password
// @Summary Reset password
// @Tags auth
// @Accept json
// @Param request body object{token=string,password=string} true "Reset"
// @Success 200 {object} models.Envelope
// @Failure 400 {object} models.Envelope
// @Router /auth/reset-password [post]
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.authService.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondMessage(c, "Password reset successfully")
}
