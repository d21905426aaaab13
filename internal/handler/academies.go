package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/middleware"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// AcademyHandler serves academies, their classes and enrollments.
type AcademyHandler struct {
	UC          *usecase.AcademyUsecase
	Enrollments *usecase.EnrollmentUsecase
}

func (h *AcademyHandler) List(c echo.Context) error {
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

func (h *AcademyHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.UC.Get(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, a)
}

func (h *AcademyHandler) Create(c echo.Context) error {
	var in usecase.AcademyInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.UC.Create(ctx, middleware.Scope(c), in)
	if err != nil {
		return err
	}
	return item(c, http.StatusCreated, a)
}

func (h *AcademyHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in usecase.AcademyInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.UC.Update(ctx, middleware.Scope(c), id, in)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, a)
}

func (h *AcademyHandler) Delete(c echo.Context) error {
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

func (h *AcademyHandler) Restore(c echo.Context) error {
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

// ---- Classes ----

func classIDs(c echo.Context) (academyID, classID uint64, err error) {
	if academyID, err = pathID(c, "id"); err != nil {
		return 0, 0, err
	}
	if c.Param("class_id") == "" {
		return academyID, 0, nil
	}
	classID, err = pathID(c, "class_id")
	return academyID, classID, err
}

func (h *AcademyHandler) ListClasses(c echo.Context) error {
	academyID, _, err := classIDs(c)
	if err != nil {
		return err
	}
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.UC.ListClasses(ctx, middleware.Scope(c), academyID, staffQuery(c, q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *AcademyHandler) GetClass(c echo.Context) error {
	academyID, id, err := classIDs(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	cl, err := h.UC.GetClass(ctx, middleware.Scope(c), academyID, id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, cl)
}

func (h *AcademyHandler) CreateClass(c echo.Context) error {
	academyID, _, err := classIDs(c)
	if err != nil {
		return err
	}
	var in usecase.ClassInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	cl, err := h.UC.CreateClass(ctx, middleware.Scope(c), academyID, in)
	if err != nil {
		return err
	}
	return item(c, http.StatusCreated, cl)
}

func (h *AcademyHandler) UpdateClass(c echo.Context) error {
	academyID, id, err := classIDs(c)
	if err != nil {
		return err
	}
	var in usecase.ClassInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	cl, err := h.UC.UpdateClass(ctx, middleware.Scope(c), academyID, id, in)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, cl)
}

func (h *AcademyHandler) DeleteClass(c echo.Context) error {
	academyID, id, err := classIDs(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.UC.DeleteClass(ctx, middleware.Scope(c), academyID, id); err != nil {
		return err
	}
	return noContent(c)
}

func (h *AcademyHandler) RestoreClass(c echo.Context) error {
	academyID, id, err := classIDs(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.UC.RestoreClass(ctx, middleware.Scope(c), academyID, id); err != nil {
		return err
	}
	return noContent(c)
}

// ---- Enrollments ----

func (h *AcademyHandler) Enroll(c echo.Context) error {
	var in usecase.EnrollInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Enrollments.Enroll(ctx, middleware.Scope(c), in)
	if err != nil {
		return err
	}
	return item(c, http.StatusCreated, e)
}

// ListEnrollments returns the caller's enrollments, or all of them for staff.
func (h *AcademyHandler) ListEnrollments(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Enrollments.List(ctx, middleware.Scope(c), staffQuery(c, q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *AcademyHandler) GetEnrollment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Enrollments.Get(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, e)
}

func (h *AcademyHandler) TransitionEnrollment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transitionReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Enrollments.Transition(ctx, middleware.Scope(c), id, req.Status)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, e)
}

func (h *AcademyHandler) CancelEnrollment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Enrollments.Cancel(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, e)
}

func (h *AcademyHandler) DeleteEnrollment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Enrollments.Delete(ctx, middleware.Scope(c), id); err != nil {
		return err
	}
	return noContent(c)
}
