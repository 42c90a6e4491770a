package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskmanager/internal/auth"
	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/middleware"
	"taskmanager/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	cookies     *auth.Cookies
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookies *auth.Cookies) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// SignupRequest represents a user registration request.
type SignupRequest struct {
	Email     string  `json:"email" validate:"required,emailshape"`
	Password  string  `json:"password" validate:"required"`
	Username  string  `json:"username" validate:"required"`
	Firstname string  `json:"firstname" validate:"required"`
	Lastname  *string `json:"lastname"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,emailshape"`
	Password string `json:"password" validate:"required"`
}

// Signup godoc
// @Summary Register a new user
// @Description Creates the account and sets the session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Registration data"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidBody
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.authService.Signup(c.Request().Context(), service.SignupInput{
		Username:  req.Username,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Password:  req.Password,
	})
	middleware.RecordAuthAttempt("signup", err == nil)
	if err != nil {
		return err
	}

	c.SetCookie(h.cookies.Session(session.Token))
	return c.JSON(http.StatusCreated, SessionResponse{
		Message: "User created successfully",
		User:    session.User,
	})
}

// Login godoc
// @Summary Login user
// @Description Checks the credentials and sets the session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidBody
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	middleware.RecordAuthAttempt("login", err == nil)
	if err != nil {
		return err
	}

	c.SetCookie(h.cookies.Session(session.Token))
	return c.JSON(http.StatusOK, SessionResponse{
		Message: "Login successful",
		User:    session.User,
	})
}

// Logout godoc
// @Summary Logout user
// @Description Revokes the current session, if any, and clears the cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var token string
	if cookie, err := c.Cookie(h.cookies.Name()); err == nil {
		token = cookie.Value
	}
	if err := h.authService.Logout(c.Request().Context(), token); err != nil {
		return err
	}

	c.SetCookie(h.cookies.Cleared())
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// AuthCheck godoc
// @Summary Check the session
// @Tags auth
// @Produce json
// @Success 200 {object} AuthCheckResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/authCheck [get]
func (h *AuthHandler) AuthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, AuthCheckResponse{
		IsAuthenticated: true,
		User:            middleware.IdentityFrom(c),
	})
}

// DeleteAccount godoc
// @Summary Delete the caller's account
// @Description Removes the user and all of its tasks, then ends the session.
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/deleteAccount [delete]
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return apperrors.ErrNoToken
	}
	if err := h.authService.DeleteAccount(c.Request().Context(), claims); err != nil {
		return err
	}

	c.SetCookie(h.cookies.Cleared())
	return c.JSON(http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
}
