package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/application/project"
)

var (
	_ inventory.ObjectStorage = (*LocalStorage)(nil)
	_ project.ObjectStorage   = (*LocalStorage)(nil)
)

// LocalStorage guarda objetos en disco bajo dir. Pensado para desarrollo;
// el router sirve dir en publicURL.
type LocalStorage struct {
	dir       string
	publicURL string
}

// NewLocalStorage crea dir si no existe.
func NewLocalStorage(dir, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: crear directorio %s: %w", dir, err)
	}
	return &LocalStorage{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Dir directorio raíz de los objetos.
func (s *LocalStorage) Dir() string { return s.dir }

// Put escribe el objeto; falla si la llave ya existe o intenta salir de dir.
func (s *LocalStorage) Put(ctx context.Context, key, _ string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("storage: llave vacía")
	}
	path := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("storage: crear directorio: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: crear %s: %w", key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: escribir %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: cerrar %s: %w", key, err)
	}
	return s.publicURL + filepath.ToSlash(clean), nil
}
