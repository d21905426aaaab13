package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/storage"
)

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 3072

type fileStore interface {
	store[model.File]
	restorer
}

// FileUsecase stores uploads in the configured storage driver and keeps
// their metadata in the files table.
type FileUsecase struct {
	Base
	Files        fileStore
	Storage      storage.Storage
	Tenants      tenantGetter
	MaxSize      int64
	AllowedTypes []string
}

// UploadInput is one uploaded file.  Size is what the client announced;
// Body is read at most MaxSize+1 bytes.
type UploadInput struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (u *FileUsecase) dto(f *model.File) FileDTO {
	d := FileDTO{ID: f.ID, OriginalName: f.OriginalName, ContentType: f.ContentType, SizeBytes: f.SizeBytes,
		Driver: f.Driver, CreatedAt: f.CreatedAt}
	if u.Storage != nil && f.Driver == u.Storage.Name() {
		d.URL = u.Storage.URL(f.StorageKey)
	}
	return d
}

func (u *FileUsecase) allowed(ct string) bool {
	if len(u.AllowedTypes) == 0 {
		return true
	}
	for _, a := range u.AllowedTypes {
		if strings.EqualFold(strings.TrimSpace(a), ct) {
			return true
		}
	}
	return false
}

// detect sniffs the content type from the first bytes and returns a reader
// that still yields the whole body.
func detect(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	ct, _, perr := mime.ParseMediaType(mimetype.Detect(head).String())
	if perr != nil {
		ct = "application/octet-stream"
	}
	return ct, io.MultiReader(bytes.NewReader(head), r), nil
}

// countingReader fails once more than limit bytes went through.
type countingReader struct {
	r     io.Reader
	n     int64
	limit int64
}

var errTooLarge = errors.New("upload too large")

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.limit {
		return n, errTooLarge
	}
	return n, err
}

// Upload checks size and detected type, writes the object and records it.
// The object is removed again when the row cannot be written.
func (u *FileUsecase) Upload(ctx context.Context, s Scope, in UploadInput) (*FileDTO, error) {
	if err := requireStaff(s); err != nil {
		return nil, err
	}
	if in.Body == nil || in.Size == 0 {
		return nil, errInvalid("file.missing", nil)
	}
	if u.MaxSize > 0 && in.Size > u.MaxSize {
		return nil, errInvalid("file.too_large", map[string]any{"max": u.MaxSize})
	}
	ct, body, err := detect(in.Body)
	if err != nil {
		return nil, errInternal(err)
	}
	if !u.allowed(ct) {
		return nil, errInvalid("file.type_not_allowed", map[string]any{"type": ct})
	}
	t, err := u.Tenants.Get(ctx, 0, s.TenantID)
	if err != nil {
		return nil, fromRepo(err)
	}
	limit := u.MaxSize
	if limit <= 0 {
		limit = in.Size
	}
	cr := &countingReader{r: body, limit: limit}
	key := storage.NewKey(t.Slug, in.Name, u.now())
	if err := u.Storage.Put(ctx, key, cr, in.Size, ct); err != nil {
		if errors.Is(err, errTooLarge) {
			return nil, errInvalid("file.too_large", map[string]any{"max": limit})
		}
		return nil, errUnavailable("errors.unavailable", err)
	}

	uploader := s.UserID
	f := &model.File{
		TenantID:     s.TenantID,
		UploadedBy:   &uploader,
		Driver:       u.Storage.Name(),
		StorageKey:   key,
		OriginalName: strings.TrimSpace(in.Name),
		ContentType:  ct,
		SizeBytes:    cr.n,
	}
	if f.OriginalName == "" {
		f.OriginalName = key[strings.LastIndex(key, "/")+1:]
	}
	if err := u.Files.Create(ctx, f); err != nil {
		if derr := u.Storage.Delete(context.WithoutCancel(ctx), key); derr != nil && u.Log != nil {
			u.Log.Warn("remove orphan upload", zap.String("key", key), zap.Error(derr))
		}
		return nil, fromRepo(err)
	}
	dto := u.dto(f)
	return &dto, nil
}

func (u *FileUsecase) Get(ctx context.Context, s Scope, id uint64) (*FileDTO, error) {
	f, err := u.Files.Get(ctx, s.TenantID, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	dto := u.dto(f)
	return &dto, nil
}

// Open streams the content of a live file.  The caller closes the reader.
func (u *FileUsecase) Open(ctx context.Context, s Scope, id uint64) (io.ReadCloser, *FileDTO, error) {
	f, err := u.Files.Get(ctx, s.TenantID, id)
	if err != nil {
		return nil, nil, fromRepo(err)
	}
	if f.Driver != u.Storage.Name() {
		return nil, nil, errNotFound("errors.not_found")
	}
	rc, err := u.Storage.Open(ctx, f.StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, errNotFound("errors.not_found")
	}
	if err != nil {
		return nil, nil, errUnavailable("errors.unavailable", err)
	}
	dto := u.dto(f)
	return rc, &dto, nil
}

func (u *FileUsecase) List(ctx context.Context, s Scope, q ListQuery) (Page[FileDTO], error) {
	if err := requireStaff(s); err != nil {
		return Page[FileDTO]{}, err
	}
	f := q.filter()
	items, total, err := u.Files.List(ctx, s.TenantID, f)
	if err != nil {
		return Page[FileDTO]{}, fromRepo(err)
	}
	return mapPage(items, total, f, u.dto), nil
}

// Delete soft deletes the metadata and clears the references from products
// and academies.  The object stays so the file can be restored.
func (u *FileUsecase) Delete(ctx context.Context, s Scope, id uint64) error {
	if err := requireStaff(s); err != nil {
		return err
	}
	return fromDelete(u.Files.Delete(ctx, s.TenantID, id))
}

func (u *FileUsecase) Restore(ctx context.Context, s Scope, id uint64) error {
	if err := requireAdmin(s); err != nil {
		return err
	}
	return fromRepo(u.Files.Restore(ctx, s.TenantID, id))
}
