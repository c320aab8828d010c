package download

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirSaver сохраняет скачанные файлы в каталог на диске
type DirSaver struct {
	dir string
}

// NewDirSaver создает хранилище в каталоге dir
func NewDirSaver(dir string) *DirSaver {
	return &DirSaver{dir: dir}
}

// Save записывает файл, создавая каталог при первом обращении
func (s *DirSaver) Save(filename string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}
	// Имя не должно выводить запись за пределы каталога
	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
