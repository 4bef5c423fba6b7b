package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/storageapp/internal/api/middleware"
	"github.com/bigkaa/storageapp/internal/domain/ident"
	"github.com/bigkaa/storageapp/internal/domain/model"
	"github.com/bigkaa/storageapp/internal/repository"
	"github.com/bigkaa/storageapp/internal/service"
	"github.com/bigkaa/storageapp/internal/storage/filestore"
)

// stubFileRepo — минимальная реализация FileRepository для HTTP-тестов.
type stubFileRepo struct {
	inserted *model.FileRecord
}

func (s *stubFileRepo) Insert(_ context.Context, f *model.FileRecord) error {
	s.inserted = f
	return nil
}

func (s *stubFileRepo) ListByOwner(_ context.Context, _ string, _, _ int) ([]*model.FileRecord, error) {
	return nil, nil
}

func (s *stubFileRepo) Search(_ context.Context, _ string, _ repository.SearchParams) ([]*model.FileRecord, error) {
	return nil, nil
}

func (s *stubFileRepo) FindForDownload(_ context.Context, _ string, _ ident.Ref) (*model.FileRecord, error) {
	return nil, repository.ErrNotFound
}

func (s *stubFileRepo) Health(_ context.Context) (time.Duration, error) {
	return time.Millisecond, nil
}

// stubResultCache — no-op реализация ResultCache.
type stubResultCache struct{}

func (stubResultCache) Get(_ context.Context, _ string) ([]byte, bool) { return nil, false }
func (stubResultCache) Set(_ context.Context, _ string, _ []byte)      {}
func (stubResultCache) Delete(_ context.Context, _ ...string)          {}
func (stubResultCache) DeleteByPattern(_ context.Context, _ string)    {}

// newUploadRouter собирает роутер с файловым сервисом поверх стабов.
func newUploadRouter(repo *stubFileRepo) chi.Router {
	fileSvc := service.NewFileService(
		repo,
		stubResultCache{},
		filestore.New(0),
		service.NewMetadataCache(8, time.Minute),
		slog.Default(),
	)
	h := NewAPIHandler(fileSvc, nil, nil, NewHealthHandler(nil), slog.Default())
	router := chi.NewRouter()
	h.Routes(router)
	return router
}

// multipartBody строит multipart-форму с одним файловым полем.
func multipartBody(t *testing.T, fieldName, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("создание multipart-поля: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("запись multipart-поля: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("закрытие multipart-формы: %v", err)
	}
	return body, mw.FormDataContentType()
}

// TestHandleUpload_OKNoBody проверяет контракт успешной загрузки:
// статус 200 и пустое тело ответа.
func TestHandleUpload_OKNoBody(t *testing.T) {
	repo := &stubFileRepo{}
	router := newUploadRouter(repo)
	dir := t.TempDir()

	body, contentType := multipartBody(t, "file", "report.txt", []byte("file content"))

	req := httptest.NewRequest(http.MethodPost,
		"/api/files/upload?path="+url.QueryEscape(dir+"/"), body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyAccountID, "owner-1"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, ожидался 200; тело: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() != 0 {
		t.Errorf("тело ответа не пустое: %q", rec.Body.String())
	}
	if repo.inserted == nil {
		t.Fatal("запись метаданных не создана")
	}
	if repo.inserted.Name != "report.txt" {
		t.Errorf("Name = %q, ожидался 'report.txt'", repo.inserted.Name)
	}
	if repo.inserted.CreatedBy != "owner-1" {
		t.Errorf("CreatedBy = %q, ожидался 'owner-1'", repo.inserted.CreatedBy)
	}
}

// TestHandleUpload_InvalidPath проверяет 400 для относительного пути.
func TestHandleUpload_InvalidPath(t *testing.T) {
	repo := &stubFileRepo{}
	router := newUploadRouter(repo)

	body, contentType := multipartBody(t, "file", "report.txt", []byte("x"))

	req := httptest.NewRequest(http.MethodPost,
		"/api/files/upload?path="+url.QueryEscape("relative/dir/"), body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyAccountID, "owner-1"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, ожидался 400", rec.Code)
	}
	if repo.inserted != nil {
		t.Error("запись создана при невалидном пути")
	}
}
