package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

func (e *env) class(t *testing.T, capacity uint32) *model.AcademyClass {
	t.Helper()
	a := &model.Academy{TenantID: 1, Name: "Swim", Sport: "swimming", IsActive: true}
	require.NoError(t, e.academy.Create(context.Background(), a))
	c := &model.AcademyClass{TenantID: 1, AcademyID: a.ID, Name: "Beginners", Capacity: capacity, Weekday: 1,
		StartTime: "18:00", EndTime: "19:00", Price: decimal.NewFromInt(30), IsActive: true}
	require.NoError(t, e.classes.Create(context.Background(), c))
	return c
}

func TestEnrollCapacityAndDuplicate(t *testing.T) {
	e := newEnv(t)
	uc := e.enrollments()
	ctx := context.Background()
	c := e.class(t, 2)
	a, b, d := e.user(t, model.RoleCustomer), e.user(t, model.RoleCustomer), e.user(t, model.RoleCustomer)

	first, err := uc.Enroll(ctx, a, EnrollInput{ClassID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, first.Status)
	assert.Equal(t, "Beginners", e.events.evs[0].Data["class"])

	_, err = uc.Enroll(ctx, a, EnrollInput{ClassID: c.ID})
	assert.Equal(t, "enrollment.duplicate", errKey(t, err))

	_, err = uc.Enroll(ctx, b, EnrollInput{ClassID: c.ID})
	require.NoError(t, err)

	_, err = uc.Enroll(ctx, d, EnrollInput{ClassID: c.ID})
	assert.Equal(t, "enrollment.class_full", errKey(t, err))

	// cancelling frees the seat
	_, err = uc.Cancel(ctx, a, first.ID)
	require.NoError(t, err)
	_, err = uc.Enroll(ctx, d, EnrollInput{ClassID: c.ID})
	require.NoError(t, err)

	assert.Equal(t, []string{"enrollment.created", "enrollment.created", "enrollment.cancelled", "enrollment.created"}, e.events.types())
}

func TestEnrollInactiveOrMissingClass(t *testing.T) {
	e := newEnv(t)
	uc := e.enrollments()
	ctx := context.Background()
	s := e.user(t, model.RoleCustomer)
	c := e.class(t, 5)
	c.IsActive = false
	require.NoError(t, e.classes.Update(ctx, 1, c))

	_, err := uc.Enroll(ctx, s, EnrollInput{ClassID: c.ID})
	assert.Equal(t, "enrollment.class_inactive", errKey(t, err))

	_, err = uc.Enroll(ctx, s, EnrollInput{ClassID: 404})
	assert.Equal(t, KindNotFound, errKind(t, err))

	_, err = uc.Enroll(ctx, s, EnrollInput{})
	assert.Equal(t, "validation.required", AsError(err).Fields["class_id"].Key)
}

func TestEnrollmentCustomerMayOnlyCancel(t *testing.T) {
	e := newEnv(t)
	uc := e.enrollments()
	ctx := context.Background()
	s := e.user(t, model.RoleCustomer)
	en, err := uc.Enroll(ctx, s, EnrollInput{ClassID: e.class(t, 5).ID})
	require.NoError(t, err)

	_, err = uc.Transition(ctx, s, en.ID, model.StatusActive)
	assert.Equal(t, KindForbidden, errKind(t, err))

	got, err := uc.Transition(ctx, e.user(t, model.RoleAdmin), en.ID, model.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status)
}

func TestClassTimes(t *testing.T) {
	e := newEnv(t)
	staff := e.user(t, model.RoleStaff)
	ac := e.academies()
	a, err := ac.Create(context.Background(), staff, AcademyInput{Name: "Tennis", Sport: "tennis"})
	require.NoError(t, err)

	_, err = ac.CreateClass(context.Background(), staff, a.ID, ClassInput{Name: "Pros", Capacity: 4, Weekday: 2,
		StartTime: "19:00", EndTime: "18:00", Price: decimal.NewFromInt(10)})
	assert.Equal(t, "validation.after", AsError(err).Fields["end_time"].Key)

	_, err = ac.CreateClass(context.Background(), staff, a.ID, ClassInput{Name: "Pros", Capacity: 4, Weekday: 2,
		StartTime: "7pm", EndTime: "20:00", Price: decimal.NewFromInt(10)})
	assert.Equal(t, "validation.time_format", AsError(err).Fields["start_time"].Key)

	cl, err := ac.CreateClass(context.Background(), staff, a.ID, ClassInput{Name: "Pros", Capacity: 4, Weekday: 2,
		StartTime: "18:00", EndTime: "19:30", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.Equal(t, "19:30", cl.EndTime)
}
