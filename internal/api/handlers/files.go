// files.go — обработчики файловых операций:
// POST /api/files/upload, GET /api/files/download,
// GET /api/files/list, GET /api/files/search.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/bigkaa/storageapp/internal/api/errors"
	"github.com/bigkaa/storageapp/internal/api/middleware"
	"github.com/bigkaa/storageapp/internal/domain/ident"
	"github.com/bigkaa/storageapp/internal/repository"
	"github.com/bigkaa/storageapp/internal/service"
	"github.com/bigkaa/storageapp/internal/storage/filestore"
)

// maxMultipartMemory — память на разбор multipart-формы,
// остальное уходит во временные файлы.
const maxMultipartMemory = 32 << 20

// handleUpload — реализация POST /api/files/upload.
// Файл — multipart-поле "file", целевой путь — query-параметр "path".
func (h *APIHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	owner := middleware.AccountFromContext(r.Context())
	if owner == "" {
		apierrors.Unauthorized(w, "Запрос без аутентификации")
		return
	}

	target := r.URL.Query().Get("path")
	if target == "" {
		apierrors.ValidationError(w, "Отсутствует query-параметр path")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		apierrors.ValidationError(w, "Некорректная multipart-форма")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Отсутствует multipart-поле file")
		return
	}
	defer file.Close()

	// Запись возвращается сервисом для логирования; тело ответа пустое.
	if _, err := h.files.Upload(r.Context(), owner, file, header.Filename, target); err != nil {
		if errors.Is(err, filestore.ErrInvalidPath) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("Ошибка загрузки файла",
			slog.String("target", target),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при загрузке файла")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleDownload — реализация GET /api/files/download.
// Идентификатор — query-параметр "file_id": UUID записи либо полный путь.
func (h *APIHandler) handleDownload(w http.ResponseWriter, r *http.Request) {
	owner := middleware.AccountFromContext(r.Context())
	if owner == "" {
		apierrors.Unauthorized(w, "Запрос без аутентификации")
		return
	}

	identifier := r.URL.Query().Get("file_id")
	if identifier == "" {
		apierrors.ValidationError(w, "Отсутствует query-параметр file_id")
		return
	}

	record, err := h.files.Download(r.Context(), owner, identifier)
	if err != nil {
		switch {
		case errors.Is(err, ident.ErrInvalid):
			apierrors.ValidationError(w, "Некорректный идентификатор файла")
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Файл не найден")
		default:
			h.logger.Error("Ошибка скачивания файла",
				slog.String("file_id", identifier),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Внутренняя ошибка при скачивании файла")
		}
		return
	}

	f, err := h.files.OpenFile(record)
	if err != nil {
		apierrors.NotFound(w, "Файл не найден")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", `attachment; filename="`+record.Name+`"`)
	http.ServeContent(w, r, record.Name, record.CreatedAt, f)
}

// handleList — реализация GET /api/files/list.
func (h *APIHandler) handleList(w http.ResponseWriter, r *http.Request) {
	owner := middleware.AccountFromContext(r.Context())
	if owner == "" {
		apierrors.Unauthorized(w, "Запрос без аутентификации")
		return
	}

	result, err := h.files.List(r.Context(), owner)
	if err != nil {
		h.logger.Error("Ошибка получения списка файлов",
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при получении списка файлов")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleSearch — реализация GET /api/files/search.
// Query-параметры: path — точный каталог, extension — подстрока имени,
// order_by — поле сортировки, max-size — предел количества результатов.
func (h *APIHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	owner := middleware.AccountFromContext(r.Context())
	if owner == "" {
		apierrors.Unauthorized(w, "Запрос без аутентификации")
		return
	}

	q := r.URL.Query()

	limit := repository.DefaultListLimit
	if raw := q.Get("max-size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			apierrors.ValidationError(w, "max-size должен быть неотрицательным целым числом")
			return
		}
		limit = parsed
	}

	params := repository.SearchParams{
		Path:      q.Get("path"),
		Extension: q.Get("extension"),
		OrderBy:   q.Get("order_by"),
		Limit:     limit,
	}

	result, err := h.files.Search(r.Context(), owner, params)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrderBy) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("Ошибка поиска файлов",
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при поиске файлов")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
