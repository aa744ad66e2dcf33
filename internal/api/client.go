package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/JaimeStill/docview/internal/auth"
	"github.com/JaimeStill/docview/internal/config"
	"github.com/JaimeStill/docview/internal/documents"
	"github.com/docker/go-units"
)

// File is the raw content of one version as served.
type File struct {
	Data        []byte
	ContentType string
}

// Client issues repository requests with the current bearer credential.
type Client struct {
	baseURL     string
	maxFileSize int64
	http        *http.Client
	creds       auth.Provider
	logger      *slog.Logger
}

// New creates a client for the configured repository. A nil provider sends
// requests unauthenticated.
func New(cfg *config.APIConfig, creds auth.Provider, logger *slog.Logger) *Client {
	if creds == nil {
		creds = auth.None
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		maxFileSize: cfg.MaxFileSizeBytes(),
		http:        &http.Client{Timeout: cfg.TimeoutDuration()},
		creds:       creds,
		logger:      logger.With("system", "api"),
	}
}

// Document fetches one document's metadata.
func (c *Client) Document(ctx context.Context, id string) (*documents.Document, error) {
	var doc documents.Document
	if err := c.getJSON(ctx, "/documents/"+url.PathEscape(id), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Versions fetches every version of a document in server order.
func (c *Client) Versions(ctx context.Context, documentID string) ([]documents.Version, error) {
	var vs []documents.Version
	if err := c.getJSON(ctx, "/documents/"+url.PathEscape(documentID)+"/versions", &vs); err != nil {
		return nil, err
	}
	return vs, nil
}

// VersionFile fetches the raw bytes of one version.
func (c *Client) VersionFile(ctx context.Context, versionID string) (*File, error) {
	path := "/documents/versions/" + url.PathEscape(versionID) + "/file"

	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrNetwork, path, err)
	}
	if int64(len(data)) > c.maxFileSize {
		return nil, fmt.Errorf("%w: %s larger than %s", ErrFileTooLarge, path, units.HumanSize(float64(c.maxFileSize)))
	}

	return &File{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// CreateVersion uploads data as the next version of a document.
func (c *Client) CreateVersion(ctx context.Context, documentID, filename string, data []byte) (*documents.Version, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrValidation)
	}
	if int64(len(data)) > c.maxFileSize {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, units.HumanSize(float64(len(data))))
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	path := "/documents/" + url.PathEscape(documentID) + "/versions"
	resp, err := c.do(ctx, http.MethodPost, path, &body, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var v documents.Version
	if err := decode(resp, path, &v); err != nil {
		return nil, err
	}

	c.logger.Info("version created", "document_id", documentID, "version_id", v.ID, "version_number", v.VersionNumber)
	return &v, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, path, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decode(resp, path, out)
}

// do sends a request and returns the response only for 2xx statuses.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token, ok := c.creds.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
		c.checkExpiry(token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}

	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Detail: readDetail(resp.Body),
			kind:   MapStatus(resp.StatusCode),
		}
	}

	return resp, nil
}

// checkExpiry logs locally expired tokens. The request still goes out; the
// server decides.
func (c *Client) checkExpiry(token string) {
	claims, err := auth.Inspect(token)
	if err != nil {
		return
	}
	if claims.Expired(time.Now()) {
		c.logger.Warn("bearer token expired", "subject", claims.Subject, "expired_at", claims.ExpiresAt)
	}
}

func decode(resp *http.Response, path string, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrNetwork, path, err)
	}
	return nil
}

// readDetail extracts the server's {"detail": ...} message, if any.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return s
		}
		return string(body.Detail)
	}
	detail := strings.TrimSpace(string(raw))
	if len(detail) > 256 {
		detail = detail[:256]
	}
	return detail
}
