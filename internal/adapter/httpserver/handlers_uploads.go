package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/countdown/internal/platform/errors"
)

const uploadCacheControl = "public, max-age=86400"

// registerUploadRoutes serves stored backgrounds when they live on local disk.
// Cloud backends hand out their own public URLs.
func (s *Server) registerUploadRoutes() {
	if s.localFiles == nil {
		return
	}
	s.echo.GET("/uploads/:filename", s.handleUpload)
}

func (s *Server) handleUpload(c echo.Context) error {
	name := c.Param("filename")

	f, err := s.localFiles.Open(name)
	if err != nil {
		return apperrors.NotFoundError("file not found").WithContext("filename", name).WithCause(err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return apperrors.InternalError("failed to stat upload", err).WithContext("filename", name)
	}

	c.Response().Header().Set("Cache-Control", uploadCacheControl)
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(c.Response(), c.Request(), info.Name(), info.ModTime(), f)
	return nil
}

