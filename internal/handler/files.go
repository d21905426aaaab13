package handler

import (
	"errors"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/middleware"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// FileHandler handles uploads and serves stored content.
type FileHandler struct {
	UC *usecase.FileUsecase
}

// Upload reads the multipart "file" part.  The content type is detected
// from the bytes, not taken from the client.
func (h *FileHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return &usecase.Error{Kind: usecase.KindInvalid, Key: "file.missing"}
	}
	if err != nil {
		return &usecase.Error{Kind: usecase.KindInvalid, Key: "errors.bad_request", Err: err}
	}
	src, err := fh.Open()
	if err != nil {
		return &usecase.Error{Kind: usecase.KindInvalid, Key: "errors.bad_request", Err: err}
	}
	defer src.Close()

	f, err := h.UC.Upload(c.Request().Context(), middleware.Scope(c), usecase.UploadInput{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        src,
	})
	if err != nil {
		return err
	}
	return item(c, http.StatusCreated, f)
}

func (h *FileHandler) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.UC.List(ctx, middleware.Scope(c), staffQuery(c, q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *FileHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.UC.Get(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, f)
}

// Content streams the stored bytes of a file.
func (h *FileHandler) Content(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rc, f, err := h.UC.Open(c.Request().Context(), middleware.Scope(c), id)
	if err != nil {
		return err
	}
	defer rc.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("inline", map[string]string{"filename": f.OriginalName}))
	return c.Stream(http.StatusOK, f.ContentType, rc)
}

func (h *FileHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.UC.Delete(ctx, middleware.Scope(c), id); err != nil {
		return err
	}
	return noContent(c)
}

func (h *FileHandler) Restore(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.UC.Restore(ctx, middleware.Scope(c), id); err != nil {
		return err
	}
	return noContent(c)
}
