package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"taskmanager/internal/storage"
)

// UploadHandler serves stored objects for stores without their own public endpoint.
type UploadHandler struct {
	reader storage.Reader
}

// NewUploadHandler returns nil when store cannot serve its objects.
func NewUploadHandler(store storage.ObjectStore) *UploadHandler {
	reader, ok := store.(storage.Reader)
	if !ok {
		return nil
	}
	return &UploadHandler{reader: reader}
}

// Serve godoc
// @Summary Fetch an uploaded file
// @Tags uploads
// @Produce image/jpeg,image/png,image/gif
// @Param key path string true "Object key"
// @Success 200 {file} file
// @Failure 404 {object} errors.ErrorResponse
// @Router /uploads/{key} [get]
func (h *UploadHandler) Serve(c echo.Context) error {
	data, contentType, err := h.reader.Get(c.Request().Context(), c.Param("*"))
	if err != nil {
		if stderrors.Is(err, storage.ErrObjectNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, contentType, data)
}
