package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/repository"
)

type fileGetter interface {
	Get(ctx context.Context, tenantID, id uint64) (*model.File, error)
}

type academyStore interface {
	store[model.Academy]
	restorer
}

type classStore interface {
	store[model.AcademyClass]
	restorer
	GetWithDeleted(ctx context.Context, tenantID, id uint64) (*model.AcademyClass, error)
}

// AcademyUsecase manages academies and their weekly classes.  Reads are
// public; writes need STAFF or ADMIN.
type AcademyUsecase struct {
	Base
	Academies academyStore
	Classes   classStore
	Files     fileGetter
}

type AcademyInput struct {
	Name        string  `json:"name" validate:"required,max=150"`
	Sport       string  `json:"sport" validate:"required,max=60"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	LogoFileID  *uint64 `json:"logo_file_id"`
	IsActive    *bool   `json:"is_active"`
}

type ClassInput struct {
	Name        string          `json:"name" validate:"required,max=150"`
	Coach       *string         `json:"coach" validate:"omitempty,max=150"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Capacity    uint32          `json:"capacity" validate:"gt=0,lte=1000"`
	Weekday     uint8           `json:"weekday" validate:"lte=6"`
	StartTime   string          `json:"start_time" validate:"required,hhmm"`
	EndTime     string          `json:"end_time" validate:"required,hhmm"`
	Price       decimal.Decimal `json:"price"`
	IsActive    *bool           `json:"is_active"`
}

func (in ClassInput) rules(f fieldErrors) {
	f.notNegative("price", in.Price)
	if in.StartTime != "" && in.EndTime != "" && in.EndTime <= in.StartTime {
		f.add("end_time", "validation.after", map[string]any{"other": "start_time"})
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// checkFile verifies that an optional file reference exists in the tenant.
func checkFile(ctx context.Context, files fileGetter, tenantID uint64, field string, id *uint64) error {
	if id == nil {
		return nil
	}
	_, err := files.Get(ctx, tenantID, *id)
	if errors.Is(err, repository.ErrNotFound) {
		f := fieldErrors{}
		f.add(field, "file.not_found", nil)
		return f.err()
	}
	return fromRepo(err)
}

// publicFilter hides inactive rows from callers that are not staff.
func publicFilter(s Scope, f *repository.Filter) {
	if !s.IsStaff() {
		f.Eq["is_active"] = true
		f.IncludeDeleted = false
	}
}

func (u *AcademyUsecase) fill(a *model.Academy, in AcademyInput) {
	a.Name = strings.TrimSpace(in.Name)
	a.Sport = strings.TrimSpace(in.Sport)
	a.Description = in.Description
	a.Address = in.Address
	a.Phone = in.Phone
	a.LogoFileID = in.LogoFileID
	a.IsActive = boolOr(in.IsActive, a.IsActive)
}

func (u *AcademyUsecase) Create(ctx context.Context, s Scope, in AcademyInput) (*AcademyDTO, error) {
	if err := requireStaff(s); err != nil {
		return nil, err
	}
	if err := check(in); err != nil {
		return nil, err
	}
	if err := checkFile(ctx, u.Files, s.TenantID, "logo_file_id", in.LogoFileID); err != nil {
		return nil, err
	}
	a := &model.Academy{TenantID: s.TenantID, IsActive: true}
	u.fill(a, in)
	if err := u.Academies.Create(ctx, a); err != nil {
		return nil, fromRepo(err)
	}
	dto := academyDTO(a)
	return &dto, nil
}

func (u *AcademyUsecase) visible(ctx context.Context, s Scope, id uint64) (*model.Academy, error) {
	a, err := u.Academies.Get(ctx, s.TenantID, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !a.IsActive && !s.IsStaff() {
		return nil, errNotFound("errors.not_found")
	}
	return a, nil
}

func (u *AcademyUsecase) Get(ctx context.Context, s Scope, id uint64) (*AcademyDTO, error) {
	a, err := u.visible(ctx, s, id)
	if err != nil {
		return nil, err
	}
	dto := academyDTO(a)
	return &dto, nil
}

func (u *AcademyUsecase) List(ctx context.Context, s Scope, q ListQuery) (Page[AcademyDTO], error) {
	f := q.filter()
	publicFilter(s, &f)
	items, total, err := u.Academies.List(ctx, s.TenantID, f)
	if err != nil {
		return Page[AcademyDTO]{}, fromRepo(err)
	}
	return mapPage(items, total, f, academyDTO), nil
}

func (u *AcademyUsecase) Update(ctx context.Context, s Scope, id uint64, in AcademyInput) (*AcademyDTO, error) {
	if err := requireStaff(s); err != nil {
		return nil, err
	}
	if err := check(in); err != nil {
		return nil, err
	}
	if err := checkFile(ctx, u.Files, s.TenantID, "logo_file_id", in.LogoFileID); err != nil {
		return nil, err
	}
	a, err := u.Academies.Get(ctx, s.TenantID, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	u.fill(a, in)
	if err := u.Academies.Update(ctx, s.TenantID, a); err != nil {
		return nil, fromRepo(err)
	}
	dto := academyDTO(a)
	return &dto, nil
}

// Delete soft deletes the academy together with its classes.  It fails
// while any class still has open enrollments.
func (u *AcademyUsecase) Delete(ctx context.Context, s Scope, id uint64) error {
	if err := requireStaff(s); err != nil {
		return err
	}
	return fromDelete(u.Academies.Delete(ctx, s.TenantID, id))
}

func (u *AcademyUsecase) Restore(ctx context.Context, s Scope, id uint64) error {
	if err := requireAdmin(s); err != nil {
		return err
	}
	return fromRepo(u.Academies.Restore(ctx, s.TenantID, id))
}

func (u *AcademyUsecase) fillClass(c *model.AcademyClass, in ClassInput) {
	c.Name = strings.TrimSpace(in.Name)
	c.Coach = in.Coach
	c.Description = in.Description
	c.Capacity = in.Capacity
	c.Weekday = in.Weekday
	c.StartTime = in.StartTime
	c.EndTime = in.EndTime
	c.Price = in.Price
	c.IsActive = boolOr(in.IsActive, c.IsActive)
}

func (u *AcademyUsecase) CreateClass(ctx context.Context, s Scope, academyID uint64, in ClassInput) (*ClassDTO, error) {
	if err := requireStaff(s); err != nil {
		return nil, err
	}
	if err := check(in, in.rules); err != nil {
		return nil, err
	}
	if _, err := u.Academies.Get(ctx, s.TenantID, academyID); err != nil {
		return nil, fromRepo(err)
	}
	c := &model.AcademyClass{TenantID: s.TenantID, AcademyID: academyID, IsActive: true}
	u.fillClass(c, in)
	if err := u.Classes.Create(ctx, c); err != nil {
		return nil, fromRepo(err)
	}
	dto := classDTO(c)
	return &dto, nil
}

func (u *AcademyUsecase) classOf(ctx context.Context, s Scope, academyID, id uint64) (*model.AcademyClass, error) {
	c, err := u.Classes.Get(ctx, s.TenantID, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if c.AcademyID != academyID || (!c.IsActive && !s.IsStaff()) {
		return nil, errNotFound("errors.not_found")
	}
	return c, nil
}

func (u *AcademyUsecase) GetClass(ctx context.Context, s Scope, academyID, id uint64) (*ClassDTO, error) {
	c, err := u.classOf(ctx, s, academyID, id)
	if err != nil {
		return nil, err
	}
	dto := classDTO(c)
	return &dto, nil
}

func (u *AcademyUsecase) ListClasses(ctx context.Context, s Scope, academyID uint64, q ListQuery) (Page[ClassDTO], error) {
	if _, err := u.visible(ctx, s, academyID); err != nil {
		return Page[ClassDTO]{}, err
	}
	f := q.filter()
	f.Eq["academy_id"] = academyID
	publicFilter(s, &f)
	items, total, err := u.Classes.List(ctx, s.TenantID, f)
	if err != nil {
		return Page[ClassDTO]{}, fromRepo(err)
	}
	return mapPage(items, total, f, classDTO), nil
}

func (u *AcademyUsecase) UpdateClass(ctx context.Context, s Scope, academyID, id uint64, in ClassInput) (*ClassDTO, error) {
	if err := requireStaff(s); err != nil {
		return nil, err
	}
	if err := check(in, in.rules); err != nil {
		return nil, err
	}
	c, err := u.classOf(ctx, s, academyID, id)
	if err != nil {
		return nil, err
	}
	u.fillClass(c, in)
	if err := u.Classes.Update(ctx, s.TenantID, c); err != nil {
		return nil, fromRepo(err)
	}
	dto := classDTO(c)
	return &dto, nil
}

func (u *AcademyUsecase) DeleteClass(ctx context.Context, s Scope, academyID, id uint64) error {
	if err := requireStaff(s); err != nil {
		return err
	}
	if _, err := u.classOf(ctx, s, academyID, id); err != nil {
		return err
	}
	return fromDelete(u.Classes.Delete(ctx, s.TenantID, id))
}

func (u *AcademyUsecase) RestoreClass(ctx context.Context, s Scope, academyID, id uint64) error {
	if err := requireAdmin(s); err != nil {
		return err
	}
	c, err := u.Classes.GetWithDeleted(ctx, s.TenantID, id)
	if err != nil {
		return fromRepo(err)
	}
	if c.AcademyID != academyID {
		return errNotFound("errors.not_found")
	}
	return fromRepo(u.Classes.Restore(ctx, s.TenantID, id))
}
