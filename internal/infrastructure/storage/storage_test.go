package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/infrastructure/storage"
	"github.com/jhoicas/materiales-api/pkg/config"
)

// ─── Supabase ────────────────────────────────────────────────────────────────

func TestSupabase_PutEnviaObjetoYDevuelveURLPublica(t *testing.T) {
	var (
		gotPath, gotAuth, gotType, gotUpsert string
		gotBody                              []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotUpsert = r.Header.Get("x-upsert")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"Key":"materiales/receipts/m1/x.pdf"}`))
	}))
	defer srv.Close()

	s := storage.NewSupabaseStorage(srv.URL+"/", "materiales", "secret")
	url, err := s.Put(context.Background(), "receipts/m1/20260301T101500.pdf", "application/pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/materiales/receipts/m1/20260301T101500.pdf", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, "false", gotUpsert)
	assert.Equal(t, "%PDF", string(gotBody))
	assert.Equal(t, srv.URL+"/storage/v1/object/public/materiales/receipts/m1/20260301T101500.pdf", url)
}

func TestSupabase_ErrorHTTPIncluyeMensaje(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"statusCode":"409","error":"Duplicate","message":"The resource already exists"}`))
	}))
	defer srv.Close()

	s := storage.NewSupabaseStorage(srv.URL, "materiales", "secret")
	_, err := s.Put(context.Background(), "a/b.pdf", "", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "already exists")
}

func TestSupabase_SinAPIKeyFalla(t *testing.T) {
	s := storage.NewSupabaseStorage("http://localhost", "materiales", "")
	_, err := s.Put(context.Background(), "a.pdf", "", strings.NewReader("x"))
	assert.Error(t, err)
}

// ─── Local ───────────────────────────────────────────────────────────────────

func TestLocal_PutEscribeArchivo(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.NewLocalStorage(dir, "/files/")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "projects/p1/plano.pdf", "application/pdf", strings.NewReader("contenido"))
	require.NoError(t, err)
	assert.Equal(t, "/files/projects/p1/plano.pdf", url)

	raw, err := os.ReadFile(filepath.Join(dir, "projects", "p1", "plano.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "contenido", string(raw))
}

func TestLocal_NoSobrescribe(t *testing.T) {
	s, err := storage.NewLocalStorage(t.TempDir(), "/files")
	require.NoError(t, err)
	_, err = s.Put(context.Background(), "a/b.txt", "", strings.NewReader("1"))
	require.NoError(t, err)
	_, err = s.Put(context.Background(), "a/b.txt", "", strings.NewReader("2"))
	assert.Error(t, err)
}

func TestLocal_NoSaleDelDirectorio(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.NewLocalStorage(filepath.Join(dir, "root"), "/files")
	require.NoError(t, err)
	url, err := s.Put(context.Background(), "../../escape.txt", "", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "/files/escape.txt", url)
	_, statErr := os.Stat(filepath.Join(dir, "root", "escape.txt"))
	assert.NoError(t, statErr)
}

func TestNew_EligeDriver(t *testing.T) {
	s, err := storage.New(config.StorageConfig{Driver: "supabase", URL: "http://x", Bucket: "b", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &storage.SupabaseStorage{}, s)

	s, err = storage.New(config.StorageConfig{Driver: "local", LocalDir: t.TempDir(), PublicURL: "/files"})
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorage{}, s)

	_, err = storage.New(config.StorageConfig{Driver: "s3"})
	assert.Error(t, err)
}
