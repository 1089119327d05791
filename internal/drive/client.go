// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package drive is the asset-store client: file upload with optional
// format conversion, folder management, and sharing permissions over
// the storage REST API. The HTTP client is expected to carry
// authorization; auth is not this package's concern.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pdiddy/drive-sync/internal/httputil"
	"github.com/pdiddy/drive-sync/pkg/types"
)

// folderMIME marks a storage object as a folder.
const folderMIME = "application/vnd.google-apps.folder"

// API endpoints, declared as vars so tests can substitute an httptest
// server.
var (
	filesAPIBase  = "https://www.googleapis.com/drive/v3/files"
	uploadAPIBase = "https://www.googleapis.com/upload/drive/v3/files"
)

// FileMeta is the metadata slice of a stored file the pipeline cares
// about.
type FileMeta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client talks to the asset store.
type Client struct {
	HTTP *http.Client

	// Limiter, when set, enforces the minimum gap between store calls.
	Limiter *httputil.Limiter

	// BaseURL and UploadBaseURL override the API endpoints when non-empty.
	BaseURL       string
	UploadBaseURL string
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return filesAPIBase
}

func (c *Client) uploadBase() string {
	if c.UploadBaseURL != "" {
		return c.UploadBaseURL
	}
	return uploadAPIBase
}

func (c *Client) wait(ctx context.Context) error {
	if c.Limiter == nil {
		return nil
	}
	return c.Limiter.Wait(ctx)
}

// do sends the request through the retry layer and fails on non-2xx.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("asset store returned HTTP %d: %s", resp.StatusCode, msg)
	}
	return resp, nil
}

// uploadMeta is the metadata part of a multipart upload.
type uploadMeta struct {
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType,omitempty"`
	Parents  []string `json:"parents,omitempty"`
}

// multipartBody assembles a metadata+media related-multipart request
// body and returns it with its content type.
func multipartBody(meta uploadMeta, media []byte, mediaMIME string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	part, err := mw.CreatePart(metaHeader)
	if err != nil {
		return nil, "", err
	}
	if err := json.NewEncoder(part).Encode(meta); err != nil {
		return nil, "", err
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", mediaMIME)
	part, err = mw.CreatePart(mediaHeader)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(media); err != nil {
		return nil, "", err
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, "multipart/related; boundary=" + mw.Boundary(), nil
}

// UploadBytes stores raw bytes as a new file in folderID and returns
// its metadata.
func (c *Client) UploadBytes(ctx context.Context, data []byte, name, folderID, mimeType string) (FileMeta, error) {
	meta := uploadMeta{Name: name, Parents: []string{folderID}}
	body, contentType, err := multipartBody(meta, data, mimeType)
	if err != nil {
		return FileMeta{}, fmt.Errorf("assembling upload for %s: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.uploadBase()+"?uploadType=multipart&fields=id,name", body)
	if err != nil {
		return FileMeta{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(ctx, req)
	if err != nil {
		return FileMeta{}, fmt.Errorf("uploading %s: %w", name, err)
	}
	defer resp.Body.Close()

	var file FileMeta
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return FileMeta{}, fmt.Errorf("parsing upload response for %s: %w", name, err)
	}
	return file, nil
}

// FindByName returns the ID of the first non-trashed file in folderID
// with the given name and MIME type, or "" when none exists.
func (c *Client) FindByName(ctx context.Context, name, mimeType, folderID string) (string, error) {
	query := fmt.Sprintf("name='%s' and mimeType='%s' and '%s' in parents and trashed=false",
		name, mimeType, folderID)
	params := url.Values{}
	params.Set("q", query)
	params.Set("fields", "files(id, name)")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.base()+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("searching for %s: %w", name, err)
	}
	defer resp.Body.Close()

	var result struct {
		Files []FileMeta `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("parsing search response: %w", err)
	}
	if len(result.Files) == 0 {
		return "", nil
	}
	return result.Files[0].ID, nil
}

// UploadFile stores the file at path in folderID under name, converting
// it to the target format for its kind. An existing file with the same
// name and target type is updated in place; otherwise a new one is
// created. Returns the stored file's ID and whether it was created.
func (c *Client) UploadFile(ctx context.Context, path, name, folderID string, kind types.FileKind) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", path, err)
	}

	existing, err := c.FindByName(ctx, name, kind.TargetMIME(), folderID)
	if err != nil {
		return "", false, err
	}

	if existing != "" {
		// Update replaces content only; the media carries the source type
		// and the store re-runs the conversion.
		body, contentType, err := multipartBody(uploadMeta{}, data, kind.SourceMIME())
		if err != nil {
			return "", false, fmt.Errorf("assembling upload for %s: %w", name, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
			c.uploadBase()+"/"+existing+"?uploadType=multipart&fields=id", body)
		if err != nil {
			return "", false, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.do(ctx, req)
		if err != nil {
			return "", false, fmt.Errorf("updating %s: %w", name, err)
		}
		resp.Body.Close()
		return existing, false, nil
	}

	meta := uploadMeta{Name: name, MimeType: kind.TargetMIME(), Parents: []string{folderID}}
	body, contentType, err := multipartBody(meta, data, kind.SourceMIME())
	if err != nil {
		return "", false, fmt.Errorf("assembling upload for %s: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.uploadBase()+"?uploadType=multipart&fields=id", body)
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(ctx, req)
	if err != nil {
		return "", false, fmt.Errorf("creating %s: %w", name, err)
	}
	defer resp.Body.Close()

	var file FileMeta
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return "", false, fmt.Errorf("parsing upload response for %s: %w", name, err)
	}
	return file.ID, true, nil
}

// GetOrCreateFolder returns the ID of the named folder under parentID,
// creating it when absent.
func (c *Client) GetOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	existing, err := c.FindByName(ctx, name, folderMIME, parentID)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	meta := uploadMeta{Name: name, MimeType: folderMIME, Parents: []string{parentID}}
	payload, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshaling folder metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base()+"?fields=id", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("creating folder %s: %w", name, err)
	}
	defer resp.Body.Close()

	var folder FileMeta
	if err := json.NewDecoder(resp.Body).Decode(&folder); err != nil {
		return "", fmt.Errorf("parsing folder response: %w", err)
	}
	return folder.ID, nil
}

// permission is the body of a sharing grant.
type permission struct {
	Type         string `json:"type"`
	Role         string `json:"role"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

func (c *Client) grant(ctx context.Context, fileID string, p permission) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling permission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base()+"/"+fileID+"/permissions?sendNotificationEmail=false", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return fmt.Errorf("granting %s access to %s: %w", p.Role, fileID, err)
	}
	resp.Body.Close()
	return nil
}

// SetPublic makes the file readable by anyone, so the document store
// can fetch it when resolving an inline image URL.
func (c *Client) SetPublic(ctx context.Context, fileID string) error {
	return c.grant(ctx, fileID, permission{Type: "anyone", Role: "reader"})
}

// AddReader grants read access to a specific account.
func (c *Client) AddReader(ctx context.Context, fileID, email string) error {
	return c.grant(ctx, fileID, permission{Type: "user", Role: "reader", EmailAddress: email})
}

// ViewURL is the direct-view URL for a stored file, the form the
// document store accepts for inline images.
func ViewURL(fileID string) string {
	return "https://drive.google.com/uc?export=view&id=" + fileID
}

// DocName strips the extension from a file path, the display name a
// converted document gets in the store.
func DocName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
