package usecase

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/repository"
	"github.com/iliyamo/sports-booking-backend/internal/storage"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newFiles(t *testing.T, e *env, max int64) *FileUsecase {
	t.Helper()
	st, err := storage.NewLocal(t.TempDir(), "http://cdn.test/files")
	require.NoError(t, err)
	return &FileUsecase{Base: e.base, Files: e.files, Storage: st, Tenants: e.tenants, MaxSize: max,
		AllowedTypes: []string{"image/png", "application/pdf"}}
}

func TestUploadAndOpen(t *testing.T) {
	e := newEnv(t)
	uc := newFiles(t, e, 1<<20)
	ctx := context.Background()
	staff := e.user(t, model.RoleStaff)
	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 100)...)

	f, err := uc.Upload(ctx, staff, UploadInput{Name: "Logo.PNG", ContentType: "text/plain", Size: int64(len(body)), Body: bytes.NewReader(body)})
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, int64(len(body)), f.SizeBytes)
	assert.Equal(t, "Logo.PNG", f.OriginalName)
	assert.True(t, strings.HasPrefix(f.URL, "http://cdn.test/files/club/2026/05/"), f.URL)
	assert.True(t, strings.HasSuffix(f.URL, ".png"), f.URL)

	rc, dto, err := uc.Open(ctx, staff, f.ID)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, f.ID, dto.ID)
}

func TestUploadRejects(t *testing.T) {
	e := newEnv(t)
	uc := newFiles(t, e, 64)
	ctx := context.Background()
	staff := e.user(t, model.RoleStaff)

	_, err := uc.Upload(ctx, e.user(t, model.RoleCustomer), UploadInput{Name: "a.png", Size: 3, Body: strings.NewReader("abc")})
	assert.Equal(t, KindForbidden, errKind(t, err))

	_, err = uc.Upload(ctx, staff, UploadInput{Name: "a.png"})
	assert.Equal(t, "file.missing", errKey(t, err))

	_, err = uc.Upload(ctx, staff, UploadInput{Name: "a.png", Size: 65, Body: bytes.NewReader(make([]byte, 65))})
	assert.Equal(t, "file.too_large", errKey(t, err))

	_, err = uc.Upload(ctx, staff, UploadInput{Name: "a.txt", Size: 5, Body: strings.NewReader("hello")})
	ue := AsError(err)
	assert.Equal(t, "file.type_not_allowed", ue.Key)
	assert.Equal(t, "text/plain", ue.Args["type"])

	// the announced size lies: the body is cut off at MaxSize
	body := append(append([]byte{}, pngHeader...), make([]byte, 100)...)
	_, err = uc.Upload(ctx, staff, UploadInput{Name: "big.png", Size: 10, Body: bytes.NewReader(body)})
	assert.Equal(t, "file.too_large", errKey(t, err))
	assert.Empty(t, e.files.all())
}

func TestUploadRemovesObjectWhenRowFails(t *testing.T) {
	e := newEnv(t)
	dir := t.TempDir()
	st, err := storage.NewLocal(dir, "")
	require.NoError(t, err)
	require.NoError(t, e.files.Create(context.Background(), &model.File{TenantID: 1, StorageKey: "seed"}))
	e.files.unique = func(*model.File, *model.File) bool { return true }
	uc := &FileUsecase{Base: e.base, Files: e.files, Storage: st, Tenants: e.tenants, MaxSize: 1 << 20}

	_, err = uc.Upload(context.Background(), e.user(t, model.RoleStaff),
		UploadInput{Name: "x.png", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader)})
	assert.Equal(t, KindConflict, errKind(t, err))
	assert.Len(t, e.files.all(), 1)

	var left []string
	require.NoError(t, filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			left = append(left, p)
		}
		return err
	}))
	assert.Empty(t, left)
}

func TestFileDeleteInUse(t *testing.T) {
	e := newEnv(t)
	uc := newFiles(t, e, 0)
	e.files.deleteErr = repository.ErrConflict
	err := uc.Delete(context.Background(), e.user(t, model.RoleStaff), 1)
	assert.Equal(t, "errors.in_use", errKey(t, err))
}
