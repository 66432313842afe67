package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/application/project"
)

var (
	_ inventory.ObjectStorage = (*SupabaseStorage)(nil)
	_ project.ObjectStorage   = (*SupabaseStorage)(nil)
)

// SupabaseStorage sube objetos a un bucket de Supabase Storage vía su API REST.
// Usa net/http; no requiere SDK.
type SupabaseStorage struct {
	baseURL    string // https://<proyecto>.supabase.co
	bucket     string
	apiKey     string // service role key
	httpClient *http.Client
}

// NewSupabaseStorage construye el adaptador. baseURL sin barra final.
func NewSupabaseStorage(baseURL, bucket, apiKey string) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type supabaseError struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// Put sube el objeto en key (sin sobrescribir) y devuelve su URL pública.
func (s *SupabaseStorage) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("storage: STORAGE_API_KEY no configurado")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	endpoint := s.baseURL + "/storage/v1/object/" + url.PathEscape(s.bucket) + "/" + escapeKey(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("storage: crear HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("storage: timeout o cancelación: %w", ctx.Err())
		}
		return "", fmt.Errorf("storage: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
		var errResp supabaseError
		if jsonErr := json.Unmarshal(raw, &errResp); jsonErr == nil && errResp.Message != "" {
			return "", fmt.Errorf("storage: Supabase HTTP %d (%s): %s", resp.StatusCode, errResp.Error, errResp.Message)
		}
		return "", fmt.Errorf("storage: Supabase HTTP %d: %s", resp.StatusCode, string(raw))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return s.PublicURL(key), nil
}

// PublicURL URL de lectura del objeto en un bucket público.
func (s *SupabaseStorage) PublicURL(key string) string {
	return s.baseURL + "/storage/v1/object/public/" + url.PathEscape(s.bucket) + "/" + escapeKey(key)
}

// escapeKey escapa cada segmento de la llave conservando las barras.
func escapeKey(key string) string {
	parts := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
