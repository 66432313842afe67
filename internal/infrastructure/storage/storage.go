// Package storage implementa el almacenamiento de objetos (comprobantes y adjuntos de obras).
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/jhoicas/materiales-api/pkg/config"
)

// ObjectStorage contrato común de los adaptadores; coincide con los puertos de inventory y project.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// New elige el adaptador según STORAGE_DRIVER.
func New(cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Driver {
	case "supabase":
		return NewSupabaseStorage(cfg.URL, cfg.Bucket, cfg.APIKey), nil
	case "local", "":
		return NewLocalStorage(cfg.LocalDir, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("storage: driver desconocido %q", cfg.Driver)
	}
}
