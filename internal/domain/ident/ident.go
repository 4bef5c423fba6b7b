// Пакет ident — разбор идентификатора файла, переданного клиентом.
// Идентификатором может быть UUID записи либо литеральный путь к файлу.
// Чистая логика без I/O: результат — tagged variant, downstream-код
// делает switch по Kind без угадывания типов в рантайме.
package ident

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxLen — максимальная длина идентификатора (совпадает с ограничением API).
const MaxLen = 500

// Ошибки разбора идентификатора.
var (
	// ErrInvalid — строка не является ни UUID, ни путём.
	ErrInvalid = errors.New("некорректный идентификатор файла")
)

// Kind — вид идентификатора.
type Kind int

const (
	// ByID — идентификатор является UUID записи.
	ByID Kind = iota
	// ByPath — идентификатор является путём: директория + имя файла.
	ByPath
)

// Ref — разобранный идентификатор файла.
// Для ByID заполнен FileID, для ByPath — Dir и Name.
type Ref struct {
	Kind   Kind
	FileID string
	Dir    string
	Name   string
}

// Parse классифицирует идентификатор файла.
// Сначала строгий разбор UUID; при неудаче строка интерпретируется
// как путь и разбивается на директорию и последний компонент.
// Ошибка возвращается только если строка не подходит ни под один вариант;
// путь к несуществующему файлу — валидный Ref, "не найдено" возникает
// позже при запросе к хранилищу метаданных.
func Parse(s string) (Ref, error) {
	if s == "" || len(s) > MaxLen {
		return Ref{}, ErrInvalid
	}

	// UUID — строгая проверка формата
	if id, err := uuid.Parse(s); err == nil && strings.Count(s, "-") == 4 {
		return Ref{Kind: ByID, FileID: id.String()}, nil
	}

	// Путь: отбрасываем завершающий разделитель, делим на dir + name.
	// Путь, состоящий из одного разделителя, именем файла быть не может.
	trimmed := strings.TrimRight(s, "/")
	if trimmed == "" {
		return Ref{}, ErrInvalid
	}

	name := filepath.Base(trimmed)
	if name == "." || name == string(filepath.Separator) {
		return Ref{}, ErrInvalid
	}

	return Ref{
		Kind: ByPath,
		Dir:  filepath.Dir(trimmed),
		Name: name,
	}, nil
}
