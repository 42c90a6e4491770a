package handler

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"taskmanager/internal/auth"
	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/middleware"
	"taskmanager/internal/model"
	"taskmanager/internal/service"
)

const profileImageField = "profile_image"

// ProfileHandler handles the caller's own profile.
type ProfileHandler struct {
	profileService service.ProfileService
	authService    service.AuthService
	cookies        *auth.Cookies
	maxUploadBytes int64
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(
	profileService service.ProfileService,
	authService service.AuthService,
	cookies *auth.Cookies,
	maxUploadBytes int64,
) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		authService:    authService,
		cookies:        cookies,
		maxUploadBytes: maxUploadBytes,
	}
}

// UpdateProfileRequest represents a partial profile update.
type UpdateProfileRequest struct {
	Firstname      *string `json:"firstname"`
	Lastname       *string `json:"lastname"`
	Email          *string `json:"email" validate:"omitempty,emailshape"`
	ProfilePicture *string `json:"profilePicture"`
}

// UpdatePasswordRequest represents a password change.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// GetProfile godoc
// @Summary Get the caller's profile
// @Tags profile
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	user, err := h.profileService.GetProfile(c.Request().Context(), middleware.IdentityFrom(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProfileResponse{
		Message: "User profile retrieved successfully",
		User:    user,
	})
}

// UpdateProfile godoc
// @Summary Update profile fields
// @Tags profile
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /profile [patch]
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidBody
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.profileService.UpdateProfile(c.Request().Context(), middleware.IdentityFrom(c).ID, model.ProfileUpdate{
		Firstname:      req.Firstname,
		Lastname:       req.Lastname,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "User profile updated successfully"})
}

// UpdatePassword godoc
// @Summary Change password
// @Tags profile
// @Accept json
// @Produce json
// @Param request body UpdatePasswordRequest true "Current and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /profile [put]
func (h *ProfileHandler) UpdatePassword(c echo.Context) error {
	var req UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidBody
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.profileService.UpdatePassword(c.Request().Context(), middleware.IdentityFrom(c).ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Password updated successfully"})
}

// UploadProfilePicture godoc
// @Summary Upload a profile picture
// @Description Accepts a jpeg, png or gif image in the profile_image field.
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Param profile_image formData file true "Image"
// @Success 200 {object} ProfilePictureResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /profile/uploadProfilePicture [post]
func (h *ProfileHandler) UploadProfilePicture(c echo.Context) error {
	header, err := c.FormFile(profileImageField)
	if err != nil {
		if stderrors.Is(err, http.ErrMissingFile) || stderrors.Is(err, http.ErrNotMultipart) {
			return apperrors.ErrImageRequired
		}
		return apperrors.ErrInvalidBody
	}
	if header.Size > h.maxUploadBytes {
		return apperrors.ErrImageTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return errors.Wrap(err, "open upload")
	}
	defer file.Close()

	// One byte past the limit is enough for the service to reject oversized bodies.
	image, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return errors.Wrap(err, "read upload")
	}

	url, err := h.profileService.UploadProfilePicture(c.Request().Context(), middleware.IdentityFrom(c).ID, image)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProfilePictureResponse{
		Message:           "Profile picture uploaded successfully",
		ProfilePictureURL: url,
	})
}

// DeleteProfile godoc
// @Summary Delete the caller's profile
// @Description Same as DELETE /auth/deleteAccount.
// @Tags profile
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /profile/deleteProfile [delete]
func (h *ProfileHandler) DeleteProfile(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return apperrors.ErrNoToken
	}
	if err := h.authService.DeleteAccount(c.Request().Context(), claims); err != nil {
		return err
	}

	c.SetCookie(h.cookies.Cleared())
	return c.JSON(http.StatusOK, MessageResponse{Message: "Profile deleted successfully"})
}
