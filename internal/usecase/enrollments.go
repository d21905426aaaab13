package usecase

import (
	"context"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/queue"
)

type enrollmentStore interface {
	store[model.Enrollment]
	CountOpen(ctx context.Context, classID uint64) (int, error)
	HasOpen(ctx context.Context, classID, userID uint64) (bool, error)
}

// EnrollmentUsecase signs customers up for academy classes and moves the
// enrollments through the ENROLLMENT chain.
type EnrollmentUsecase struct {
	Base
	Enrollments enrollmentStore
	Classes     store[model.AcademyClass]
	Payments    openPayments
}

type EnrollInput struct {
	ClassID uint64  `json:"class_id" validate:"required"`
	Notes   *string `json:"notes" validate:"omitempty,max=500"`
}

func (u *EnrollmentUsecase) dto(ctx context.Context, e *model.Enrollment) EnrollmentDTO {
	return EnrollmentDTO{ID: e.ID, ClassID: e.ClassID, UserID: e.UserID, Notes: e.Notes, CreatedAt: e.CreatedAt,
		Status: u.code(ctx, model.StatusKindEnrollment, e.StatusID)}
}

func (u *EnrollmentUsecase) eventData(ctx context.Context, s Scope, e *model.Enrollment) map[string]any {
	data := map[string]any{"id": e.ID, "class_id": e.ClassID, "class": ""}
	if c, err := u.Classes.Get(ctx, s.TenantID, e.ClassID); err == nil {
		data["class"] = c.Name
	}
	return data
}

// Enroll takes a seat in a class.  Capacity counts live PENDING and ACTIVE
// enrollments; the class row is locked so concurrent enrollments queue up.
func (u *EnrollmentUsecase) Enroll(ctx context.Context, s Scope, in EnrollInput) (*EnrollmentDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	if err := check(in); err != nil {
		return nil, err
	}
	e := &model.Enrollment{TenantID: s.TenantID, ClassID: in.ClassID, UserID: s.UserID, Notes: in.Notes}
	var className string
	err := u.inTx(ctx, func(ctx context.Context) error {
		c, err := u.Classes.Lock(ctx, s.TenantID, in.ClassID)
		if err != nil {
			return fromRepo(err)
		}
		if !c.IsActive {
			return errConflict("enrollment.class_inactive", nil)
		}
		className = c.Name
		dup, err := u.Enrollments.HasOpen(ctx, c.ID, s.UserID)
		if err != nil {
			return errInternal(err)
		}
		if dup {
			return errConflict("enrollment.duplicate", nil)
		}
		n, err := u.Enrollments.CountOpen(ctx, c.ID)
		if err != nil {
			return errInternal(err)
		}
		if n >= int(c.Capacity) {
			return errConflict("enrollment.class_full", nil)
		}
		st, err := u.initial(ctx, model.StatusKindEnrollment)
		if err != nil {
			return err
		}
		e.StatusID = st.ID
		return fromRepo(u.Enrollments.Create(ctx, e))
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, u.event(s, eventType(model.StatusKindEnrollment, "created"), e.UserID,
		map[string]any{"id": e.ID, "class_id": e.ClassID, "class": className}))
	dto := u.dto(ctx, e)
	return &dto, nil
}

// own loads an enrollment the caller may see: staff see all, customers
// only their own.
func (u *EnrollmentUsecase) own(ctx context.Context, s Scope, id uint64, lock bool) (*model.Enrollment, error) {
	get := u.Enrollments.Get
	if lock {
		get = u.Enrollments.Lock
	}
	e, err := get(ctx, s.TenantID, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !s.IsStaff() && e.UserID != s.UserID {
		return nil, errNotFound("errors.not_found")
	}
	return e, nil
}

func (u *EnrollmentUsecase) Get(ctx context.Context, s Scope, id uint64) (*EnrollmentDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	e, err := u.own(ctx, s, id, false)
	if err != nil {
		return nil, err
	}
	dto := u.dto(ctx, e)
	return &dto, nil
}

func (u *EnrollmentUsecase) List(ctx context.Context, s Scope, q ListQuery) (Page[EnrollmentDTO], error) {
	if err := requireUser(s); err != nil {
		return Page[EnrollmentDTO]{}, err
	}
	f := q.filter()
	if !s.IsStaff() {
		f.Eq["user_id"] = s.UserID
		f.IncludeDeleted = false
	}
	if err := u.withStatus(ctx, model.StatusKindEnrollment, q, &f); err != nil {
		return Page[EnrollmentDTO]{}, err
	}
	items, total, err := u.Enrollments.List(ctx, s.TenantID, f)
	if err != nil {
		return Page[EnrollmentDTO]{}, fromRepo(err)
	}
	return mapPage(items, total, f, func(e *model.Enrollment) EnrollmentDTO { return u.dto(ctx, e) }), nil
}

// advance moves a locked enrollment and returns the event to publish once
// the transaction commits.
func (u *EnrollmentUsecase) advance(ctx context.Context, s Scope, e *model.Enrollment, to string) (queue.Event, error) {
	next, err := u.move(ctx, model.StatusKindEnrollment, e.StatusID, to)
	if err != nil {
		return queue.Event{}, err
	}
	e.StatusID = next.ID
	if err := u.Enrollments.Update(ctx, s.TenantID, e); err != nil {
		return queue.Event{}, fromRepo(err)
	}
	return u.event(s, eventType(model.StatusKindEnrollment, next.Code), e.UserID, u.eventData(ctx, s, e)), nil
}

// Transition changes the status of an enrollment.  Staff may apply any
// allowed transition; customers may only cancel their own.
func (u *EnrollmentUsecase) Transition(ctx context.Context, s Scope, id uint64, to string) (*EnrollmentDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	if !s.IsStaff() && !isCancel(to) {
		return nil, errForbidden("errors.forbidden")
	}
	var (
		e  *model.Enrollment
		ev queue.Event
	)
	err := u.inTx(ctx, func(ctx context.Context) error {
		var err error
		if e, err = u.own(ctx, s, id, true); err != nil {
			return err
		}
		if isCancel(to) {
			if err := u.noPendingPayment(ctx, u.Payments, "enrollment_id", e.ID); err != nil {
				return err
			}
		}
		ev, err = u.advance(ctx, s, e, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, ev)
	dto := u.dto(ctx, e)
	return &dto, nil
}

func (u *EnrollmentUsecase) Cancel(ctx context.Context, s Scope, id uint64) (*EnrollmentDTO, error) {
	return u.Transition(ctx, s, id, model.StatusCancelled)
}

func (u *EnrollmentUsecase) Delete(ctx context.Context, s Scope, id uint64) error {
	if err := requireStaff(s); err != nil {
		return err
	}
	return fromDelete(u.Enrollments.Delete(ctx, s.TenantID, id))
}
