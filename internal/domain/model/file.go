// Пакет model — доменные модели StorageApp.
// FileRecord — маппинг таблицы files, Account — таблицы users.
package model

import (
	"path/filepath"
	"time"
)

// FileRecord — запись файла в таблице files.
// Запись создаётся один раз при успешной загрузке и далее не изменяется:
// нет операций редактирования и удаления, id никогда не переиспользуется.
type FileRecord struct {
	// ID — UUID файла (генерируется при загрузке)
	ID string `json:"id"`
	// Name — базовое имя файла
	Name string `json:"name"`
	// Path — абсолютный путь к директории, содержащей файл
	Path string `json:"path"`
	// CreatedBy — UUID аккаунта-владельца (назначается один раз)
	CreatedBy string `json:"-"`
	// CreatedAt — время создания записи (часы сервера)
	CreatedAt time.Time `json:"created_at"`
	// IsDownloadable — флаг доступности для скачивания
	IsDownloadable bool `json:"is_downloadable"`
	// Size — размер физического файла в байтах на момент загрузки
	Size int64 `json:"size"`
}

// FullPath возвращает полный путь к физическому файлу на диске.
func (f *FileRecord) FullPath() string {
	return filepath.Join(f.Path, f.Name)
}

// Account — аккаунт пользователя в таблице users.
type Account struct {
	// ID — UUID аккаунта (стабильный, никогда не переназначается)
	ID string
	// Name — имя пользователя (уникальное, ограниченной длины)
	Name string
	// PswHash — bcrypt-хэш пароля
	PswHash string
}

// FilesList — список файлов владельца (ответ /api/files/list).
type FilesList struct {
	AccountID string        `json:"account_id"`
	Files     []*FileRecord `json:"files"`
}

// SearchResult — результат поиска (ответ /api/files/search).
type SearchResult struct {
	Matches []*FileRecord `json:"matches"`
}
