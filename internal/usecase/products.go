package usecase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

type productStore interface {
	store[model.Product]
	restorer
	DecrementStock(ctx context.Context, tenantID, productID uint64, qty uint32) error
	IncrementStock(ctx context.Context, tenantID, productID uint64, qty uint32) error
}

// ProductUsecase manages the shop catalog.
type ProductUsecase struct {
	Base
	Products productStore
	Files    fileGetter
}

type ProductInput struct {
	SKU         string          `json:"sku" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required,max=150"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int32           `json:"stock" validate:"gte=0"`
	ImageFileID *uint64         `json:"image_file_id"`
	IsActive    *bool           `json:"is_active"`
}

func fillProduct(p *model.Product, in ProductInput) {
	p.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.ImageFileID = in.ImageFileID
	p.IsActive = boolOr(in.IsActive, p.IsActive)
}

func (u *ProductUsecase) validate(ctx context.Context, s Scope, in ProductInput) error {
	if err := requireStaff(s); err != nil {
		return err
	}
	if err := check(in, func(f fieldErrors) { f.notNegative("price", in.Price) }); err != nil {
		return err
	}
	return checkFile(ctx, u.Files, s.TenantID, "image_file_id", in.ImageFileID)
}

func (u *ProductUsecase) Create(ctx context.Context, s Scope, in ProductInput) (*ProductDTO, error) {
	if err := u.validate(ctx, s, in); err != nil {
		return nil, err
	}
	p := &model.Product{TenantID: s.TenantID, IsActive: true}
	fillProduct(p, in)
	if err := u.Products.Create(ctx, p); err != nil {
		return nil, conflictAs(err, "product.sku_taken")
	}
	dto := productDTO(p)
	return &dto, nil
}

func (u *ProductUsecase) Get(ctx context.Context, s Scope, id uint64) (*ProductDTO, error) {
	p, err := u.Products.Get(ctx, s.TenantID, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !p.IsActive && !s.IsStaff() {
		return nil, errNotFound("errors.not_found")
	}
	dto := productDTO(p)
	return &dto, nil
}

func (u *ProductUsecase) List(ctx context.Context, s Scope, q ListQuery) (Page[ProductDTO], error) {
	f := q.filter()
	publicFilter(s, &f)
	items, total, err := u.Products.List(ctx, s.TenantID, f)
	if err != nil {
		return Page[ProductDTO]{}, fromRepo(err)
	}
	return mapPage(items, total, f, productDTO), nil
}

func (u *ProductUsecase) Update(ctx context.Context, s Scope, id uint64, in ProductInput) (*ProductDTO, error) {
	if err := u.validate(ctx, s, in); err != nil {
		return nil, err
	}
	var p *model.Product
	err := u.inTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = u.Products.Lock(ctx, s.TenantID, id); err != nil {
			return fromRepo(err)
		}
		fillProduct(p, in)
		return conflictAs(u.Products.Update(ctx, s.TenantID, p), "product.sku_taken")
	})
	if err != nil {
		return nil, err
	}
	dto := productDTO(p)
	return &dto, nil
}

func (u *ProductUsecase) Delete(ctx context.Context, s Scope, id uint64) error {
	if err := requireStaff(s); err != nil {
		return err
	}
	return fromDelete(u.Products.Delete(ctx, s.TenantID, id))
}

func (u *ProductUsecase) Restore(ctx context.Context, s Scope, id uint64) error {
	if err := requireAdmin(s); err != nil {
		return err
	}
	return conflictAs(u.Products.Restore(ctx, s.TenantID, id), "product.sku_taken")
}
