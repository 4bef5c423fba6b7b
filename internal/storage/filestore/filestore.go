// Пакет filestore — запись загружаемых файлов на диск.
// Валидация формы пути выполняется до любого обращения к файловой системе,
// запись — потоковая с ограниченным буфером, размер берётся повторным
// stat'ом записанного файла.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Ошибки записи файлов.
var (
	// ErrInvalidPath — путь не абсолютный или не является ни директорией
	// (завершающий разделитель), ни файлом (расширение в последнем компоненте).
	ErrInvalidPath = errors.New("некорректная форма пути")
)

// defaultBufSize — размер буфера потоковой записи.
const defaultBufSize = 32 * 1024

// Writer — запись физических файлов на диск.
type Writer struct {
	bufSize int
}

// SaveResult — результат сохранения файла на диск.
type SaveResult struct {
	// Dir — директория, в которой лежит файл
	Dir string
	// Name — базовое имя записанного файла
	Name string
	// FullPath — полный путь файла на диске
	FullPath string
	// Size — размер файла по данным stat после записи
	Size int64
}

// New создаёт Writer с буфером указанного размера.
// bufSize <= 0 заменяется значением по умолчанию (32 КиБ).
func New(bufSize int) *Writer {
	if bufSize <= 0 {
		bufSize = defaultBufSize
	}
	return &Writer{bufSize: bufSize}
}

// ValidateTarget проверяет форму целевого пути до обращения к ФС.
// Путь обязан быть абсолютным и либо заканчиваться разделителем
// (форма директории), либо содержать "." в последнем компоненте
// (форма файла). Иначе — ErrInvalidPath.
func ValidateTarget(target string) error {
	if target == "" || !filepath.IsAbs(target) {
		return fmt.Errorf("%w: путь должен быть абсолютным", ErrInvalidPath)
	}
	// Строже, чем isDirTarget: директория обязана заканчиваться
	// разделителем, "/data/user1" без него отбрасывается.
	last := target[len(target)-1]
	if last == '/' || last == '\\' || strings.Contains(filepath.Base(target), ".") {
		return nil
	}
	return fmt.Errorf("%w: путь должен быть директорией (завершающий /) или файлом с расширением", ErrInvalidPath)
}

// isDirTarget определяет, задан ли путь в форме директории:
// завершающий разделитель либо последний компонент без расширения.
func isDirTarget(target string) bool {
	last := target[len(target)-1]
	if last == '/' || last == '\\' {
		return true
	}
	return !strings.Contains(filepath.Base(target), ".")
}

// Save записывает поток в целевой путь и возвращает итоговое расположение.
//
// Если target — директория, она создаётся рекурсивно, а имя файла берётся
// из uploadName. Если target — конкретный файл, байты пишутся ровно по
// этому пути, родительские директории создаются при необходимости.
//
// Частично записанный файл при ошибке НЕ удаляется: остаётся осиротевший
// файл без записи метаданных. Это принятое ограничение контракта, а не
// упущение — см. DESIGN.md.
func (w *Writer) Save(reader io.Reader, target, uploadName string) (*SaveResult, error) {
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}

	var outPath string
	if isDirTarget(target) {
		// Имя из multipart-заголовка приходит от клиента: берём только
		// базовое имя, чтобы "../x" не вышел за пределы target.
		name := filepath.Base(uploadName)
		if name == "." || name == ".." || name == string(filepath.Separator) {
			return nil, fmt.Errorf("%w: некорректное имя загружаемого файла %q", ErrInvalidPath, uploadName)
		}
		if err := os.MkdirAll(target, 0o750); err != nil {
			return nil, fmt.Errorf("ошибка создания директории %s: %w", target, err)
		}
		outPath = filepath.Join(target, name)
	} else {
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return nil, fmt.Errorf("ошибка создания директории %s: %w", filepath.Dir(target), err)
		}
		outPath = target
	}

	f, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла %s: %w", outPath, err)
	}

	// Потоковая запись с ограниченным буфером
	buf := make([]byte, w.bufSize)
	_, copyErr := io.CopyBuffer(f, reader, buf)
	closeErr := f.Close()
	if copyErr != nil {
		return nil, fmt.Errorf("ошибка записи данных в %s: %w", outPath, copyErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("ошибка закрытия файла %s: %w", outPath, closeErr)
	}

	// Размер — повторный stat записанного файла, а не сумма прочитанных
	// байт: отчётный размер всегда отражает фактически записанный файл.
	info, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения информации о файле %s: %w", outPath, err)
	}

	return &SaveResult{
		Dir:      filepath.Dir(outPath),
		Name:     filepath.Base(outPath),
		FullPath: outPath,
		Size:     info.Size(),
	}, nil
}

// Open открывает записанный ранее файл для чтения.
// Вызывающий код обязан закрыть ReadCloser.
func (w *Writer) Open(fullPath string) (*os.File, error) {
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("файл не найден: %s", fullPath)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", fullPath, err)
	}
	return f, nil
}
