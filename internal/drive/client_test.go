// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package drive

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/drive-sync/pkg/types"
)

// readMultipart splits a related-multipart request into its metadata
// and media parts.
func readMultipart(t *testing.T, r *http.Request) (uploadMeta, []byte, string) {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/related", mediaType)

	mr := multipart.NewReader(r.Body, params["boundary"])

	metaPart, err := mr.NextPart()
	require.NoError(t, err)
	var meta uploadMeta
	require.NoError(t, json.NewDecoder(metaPart).Decode(&meta))

	mediaPart, err := mr.NextPart()
	require.NoError(t, err)
	media, err := io.ReadAll(mediaPart)
	require.NoError(t, err)

	return meta, media, mediaPart.Header.Get("Content-Type")
}

func TestUploadBytes(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "multipart", r.URL.Query().Get("uploadType"))

		meta, media, mediaType := readMultipart(t, r)
		assert.Equal(t, "mermaid_ab12cd34.png", meta.Name)
		assert.Equal(t, []string{"folder-1"}, meta.Parents)
		assert.Equal(t, png, media)
		assert.Equal(t, "image/png", mediaType)

		w.Write([]byte(`{"id": "file-9", "name": "mermaid_ab12cd34.png"}`))
	}))
	defer server.Close()

	client := &Client{HTTP: server.Client(), BaseURL: server.URL, UploadBaseURL: server.URL}
	file, err := client.UploadBytes(context.Background(), png, "mermaid_ab12cd34.png", "folder-1", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "file-9", file.ID)
	assert.Equal(t, "mermaid_ab12cd34.png", file.Name)
}

func TestUploadFileCreates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\n"), 0o644))

	var created bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			// Name search: nothing stored yet.
			assert.Contains(t, r.URL.Query().Get("q"), "name='notes'")
			assert.Contains(t, r.URL.Query().Get("q"), "trashed=false")
			w.Write([]byte(`{"files": []}`))
		case r.Method == http.MethodPost:
			created = true
			meta, media, mediaType := readMultipart(t, r)
			assert.Equal(t, "notes", meta.Name)
			assert.Equal(t, "application/vnd.google-apps.document", meta.MimeType)
			assert.Equal(t, "# Notes\n", string(media))
			assert.Equal(t, "text/markdown", mediaType)
			w.Write([]byte(`{"id": "doc-1"}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL)
		}
	}))
	defer server.Close()

	client := &Client{HTTP: server.Client(), BaseURL: server.URL, UploadBaseURL: server.URL}
	id, isNew, err := client.UploadFile(context.Background(), path, "notes", "folder-1", types.KindMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)
	assert.True(t, isNew)
	assert.True(t, created)
}

func TestUploadFileUpdatesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Updated\n"), 0o644))

	var patched string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"files": [{"id": "doc-1", "name": "notes"}]}`))
		case http.MethodPatch:
			patched = r.URL.Path
			_, media, _ := readMultipart(t, r)
			assert.Equal(t, "# Updated\n", string(media))
			w.Write([]byte(`{"id": "doc-1"}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL)
		}
	}))
	defer server.Close()

	client := &Client{HTTP: server.Client(), BaseURL: server.URL, UploadBaseURL: server.URL}
	id, isNew, err := client.UploadFile(context.Background(), path, "notes", "folder-1", types.KindMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)
	assert.False(t, isNew)
	assert.Equal(t, "/doc-1", patched)
}

func TestGetOrCreateFolder(t *testing.T) {
	t.Run("existing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			assert.Contains(t, r.URL.Query().Get("q"), folderMIME)
			w.Write([]byte(`{"files": [{"id": "folder-7", "name": "Diagram Images"}]}`))
		}))
		defer server.Close()

		client := &Client{HTTP: server.Client(), BaseURL: server.URL}
		id, err := client.GetOrCreateFolder(context.Background(), "Diagram Images", "parent-1")
		require.NoError(t, err)
		assert.Equal(t, "folder-7", id)
	})

	t.Run("created", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				w.Write([]byte(`{"files": []}`))
			case http.MethodPost:
				var meta uploadMeta
				require.NoError(t, json.NewDecoder(r.Body).Decode(&meta))
				assert.Equal(t, "Diagram Images", meta.Name)
				assert.Equal(t, folderMIME, meta.MimeType)
				assert.Equal(t, []string{"parent-1"}, meta.Parents)
				w.Write([]byte(`{"id": "folder-8"}`))
			}
		}))
		defer server.Close()

		client := &Client{HTTP: server.Client(), BaseURL: server.URL}
		id, err := client.GetOrCreateFolder(context.Background(), "Diagram Images", "parent-1")
		require.NoError(t, err)
		assert.Equal(t, "folder-8", id)
	})
}

func TestSetPublic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/file-9/permissions", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("sendNotificationEmail"))

		var p permission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, permission{Type: "anyone", Role: "reader"}, p)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := &Client{HTTP: server.Client(), BaseURL: server.URL}
	require.NoError(t, client.SetPublic(context.Background(), "file-9"))
}

func TestAddReader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p permission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "user", p.Type)
		assert.Equal(t, "svc@project.iam.gserviceaccount.com", p.EmailAddress)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := &Client{HTTP: server.Client(), BaseURL: server.URL}
	err := client.AddReader(context.Background(), "file-9", "svc@project.iam.gserviceaccount.com")
	require.NoError(t, err)
}

func TestClientHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"message": "insufficient permissions"}}`))
	}))
	defer server.Close()

	client := &Client{HTTP: server.Client(), BaseURL: server.URL}
	_, err := client.FindByName(context.Background(), "notes", folderMIME, "parent-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "insufficient permissions")
}

func TestViewURL(t *testing.T) {
	assert.Equal(t, "https://drive.google.com/uc?export=view&id=file-9", ViewURL("file-9"))
}

func TestDocName(t *testing.T) {
	assert.Equal(t, "design-notes", DocName("/docs/design-notes.md"))
	assert.Equal(t, "report.final", DocName("report.final.pdf"))
	assert.Equal(t, "README", DocName("README"))
}
