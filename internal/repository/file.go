package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/storageapp/internal/domain/ident"
	"github.com/bigkaa/storageapp/internal/domain/model"
)

// fileColumns — список столбцов таблицы files для SELECT-запросов.
// DRY: одно место для всех SELECT'ов.
const fileColumns = `id, name, path, created_by, created_at, is_downloadable, size`

// DefaultListLimit — лимит выборки списка файлов по умолчанию.
// Ограничивает скан даже если вызывающий код не задал limit.
const DefaultListLimit = 100

// SearchParams — параметры поиска файлов владельца.
type SearchParams struct {
	// Path — точное совпадение директории (пустая строка — фильтр не применяется)
	Path string
	// Extension — подстрока имени файла, без учёта регистра
	Extension string
	// OrderBy — поле сортировки, только из whitelist (см. ValidOrderBy)
	OrderBy string
	// Limit — максимум результатов; 0 — без ограничения
	Limit int
}

// FileRepository — интерфейс доступа к таблице files.
// Записи создаются при загрузке и далее не изменяются и не удаляются.
type FileRepository interface {
	// Insert создаёт новую запись файла. Вызывается только после того,
	// как байты файла записаны на диск (write-then-record).
	Insert(ctx context.Context, f *model.FileRecord) error
	// ListByOwner возвращает файлы владельца в порядке хранения с пагинацией.
	ListByOwner(ctx context.Context, owner string, offset, limit int) ([]*model.FileRecord, error)
	// Search выполняет поиск файлов владельца по фильтрам.
	Search(ctx context.Context, owner string, params SearchParams) ([]*model.FileRecord, error)
	// FindForDownload возвращает запись по разобранному идентификатору.
	// Поиск всегда ограничен владельцем: чужой UUID или путь дают
	// ErrNotFound, а не Forbidden — существование файла не раскрывается.
	FindForDownload(ctx context.Context, owner string, ref ident.Ref) (*model.FileRecord, error)
	// Health выполняет тривиальное чтение и возвращает его длительность.
	Health(ctx context.Context) (time.Duration, error)
}

// fileRepo — реализация FileRepository через pgx.
type fileRepo struct {
	db DBTX
}

// NewFileRepository создаёт репозиторий файлов.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db}
}

// Insert создаёт запись файла. created_at выставляет сервер БД.
func (r *fileRepo) Insert(ctx context.Context, f *model.FileRecord) error {
	query := `
		INSERT INTO files (id, name, path, created_by, is_downloadable, size)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		f.ID, f.Name, f.Path, f.CreatedBy, f.IsDownloadable, f.Size,
	).Scan(&f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: файл с таким ID уже зарегистрирован", ErrConflict)
		}
		return fmt.Errorf("ошибка вставки записи файла: %w", err)
	}
	return nil
}

// ListByOwner возвращает файлы владельца в порядке хранения.
// limit <= 0 заменяется на DefaultListLimit.
func (r *fileRepo) ListByOwner(ctx context.Context, owner string, offset, limit int) ([]*model.FileRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(
		`SELECT %s FROM files WHERE created_by = $1 OFFSET $2 LIMIT $3`,
		fileColumns,
	)

	rows, err := r.db.Query(ctx, query, owner, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка файлов: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

// Search выполняет поиск файлов владельца с фильтрами и сортировкой.
// OrderBy интерполируется в запрос, поэтому проходит через whitelist
// (buildOrderBy) — защита от SQL-инъекций.
func (r *fileRepo) Search(ctx context.Context, owner string, params SearchParams) ([]*model.FileRecord, error) {
	where, args := buildSearchWhere(owner, params)

	query := fmt.Sprintf(`SELECT %s FROM files %s %s`,
		fileColumns, where, buildOrderBy(params.OrderBy))

	// limit > 0 — ограничиваем выборку; 0 — без ограничения
	if params.Limit > 0 {
		query = fmt.Sprintf("%s LIMIT $%d", query, len(args)+1)
		args = append(args, params.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска файлов: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

// FindForDownload возвращает запись по UUID или по паре (path, name),
// всегда в пределах владельца.
func (r *fileRepo) FindForDownload(ctx context.Context, owner string, ref ident.Ref) (*model.FileRecord, error) {
	var (
		query string
		args  []any
	)

	switch ref.Kind {
	case ident.ByID:
		query = fmt.Sprintf(
			`SELECT %s FROM files WHERE id = $1 AND created_by = $2`,
			fileColumns,
		)
		args = []any{ref.FileID, owner}
	case ident.ByPath:
		query = fmt.Sprintf(
			`SELECT %s FROM files WHERE path = $1 AND name = $2 AND created_by = $3`,
			fileColumns,
		)
		args = []any{ref.Dir, ref.Name, owner}
	default:
		return nil, fmt.Errorf("неизвестный вид идентификатора: %d", ref.Kind)
	}

	f := &model.FileRecord{}
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&f.ID, &f.Name, &f.Path, &f.CreatedBy, &f.CreatedAt, &f.IsDownloadable, &f.Size,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}

// Health выполняет тривиальное чтение из таблицы files
// и возвращает затраченное время. Используется health-check endpoint'ом.
func (r *fileRepo) Health(ctx context.Context) (time.Duration, error) {
	start := time.Now()

	rows, err := r.db.Query(ctx, `SELECT name FROM files LIMIT 1`)
	if err != nil {
		return 0, fmt.Errorf("ошибка проверки БД: %w", err)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("ошибка проверки БД: %w", err)
	}

	return time.Since(start), nil
}

// scanFiles читает все строки результата в срез FileRecord.
func scanFiles(rows pgx.Rows) ([]*model.FileRecord, error) {
	var result []*model.FileRecord
	for rows.Next() {
		f := &model.FileRecord{}
		if err := rows.Scan(
			&f.ID, &f.Name, &f.Path, &f.CreatedBy, &f.CreatedAt, &f.IsDownloadable, &f.Size,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}

// buildSearchWhere строит WHERE-условие и аргументы для поиска файлов.
// Условие по владельцу присутствует всегда и идёт первым.
func buildSearchWhere(owner string, params SearchParams) (whereClause string, args []any) {
	conditions := []string{"created_by = $1"}
	args = []any{owner}
	argNum := 2

	// Фильтр по директории (exact match)
	if params.Path != "" {
		conditions = append(conditions, fmt.Sprintf("path = $%d", argNum))
		args = append(args, params.Path)
		argNum++
	}

	// Фильтр по расширению — подстрока имени без учёта регистра (ILIKE)
	if params.Extension != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argNum))
		args = append(args, "%"+params.Extension+"%")
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// Поле сортировки по умолчанию.
const defaultOrderColumn = "name"

// ValidOrderBy проверяет поле сортировки против whitelist атрибутов
// FileRecord. order_by интерполируется в SQL, поэтому любое другое
// значение должно быть отвергнуто валидацией до запроса.
func ValidOrderBy(field string) bool {
	switch field {
	case "id", "name", "path", "created_at", "is_downloadable", "size":
		return true
	}
	return false
}

// buildOrderBy строит ORDER BY с безопасным whitelist полей.
// Недопустимое поле заменяется на сортировку по умолчанию.
func buildOrderBy(orderBy string) string {
	if !ValidOrderBy(orderBy) {
		orderBy = defaultOrderColumn
	}
	return fmt.Sprintf("ORDER BY %s", orderBy)
}
