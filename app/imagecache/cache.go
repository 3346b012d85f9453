package imagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"
)

const (
	// MaxImageBytes bounds disk and bandwidth use per image on a job
	// that runs every few minutes.
	MaxImageBytes = 1536 * 1024

	downloadTimeout = 15 * time.Second
)

// Cache downloads remote images at most once per distinct URL and
// stores them content-addressed in the Store.
type Cache struct {
	store      Store
	httpClient *http.Client
	userAgent  string
}

func NewCache(store Store, httpClient *http.Client, userAgent string) *Cache {
	return &Cache{
		store:      store,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Key derives the cache key for a remote image URL.
func Key(remoteURL string) string {
	hash := sha256.Sum256([]byte(remoteURL))
	return hex.EncodeToString(hash[:])[:16]
}

// FetchAndCache returns the local path for the remote image, downloading
// it only when no file with its key exists yet. Any failure yields an
// empty path; items proceed without an image. A concurrent duplicate
// download of the same URL is harmless since both writers produce the
// same key.
func (c *Cache) FetchAndCache(ctx context.Context, remoteURL string) string {
	if remoteURL == "" {
		return ""
	}

	key := Key(remoteURL)
	if local, ok := c.store.Has(key); ok {
		return local
	}

	data, contentType, err := c.download(ctx, remoteURL)
	if err != nil {
		slog.Debug("Image download failed", "url", remoteURL, "error", err)
		return ""
	}

	local, err := c.store.Put(key, inferExtension(contentType, remoteURL), data)
	if err != nil {
		slog.Warn("Failed to store cached image", "url", remoteURL, "error", err)
		return ""
	}

	return local
}

// Sweep deletes cached files whose key is not referenced by the given
// manifest image paths, keeping the cache bounded to the current
// manifest.
func (c *Cache) Sweep(referenced []string) int {
	keep := make(map[string]bool, len(referenced))
	for _, imagePath := range referenced {
		if imagePath == "" {
			continue
		}
		name := path.Base(imagePath)
		keep[strings.TrimSuffix(name, path.Ext(name))] = true
	}

	names, err := c.store.List()
	if err != nil {
		slog.Warn("Failed to list image cache for sweep", "error", err)
		return 0
	}

	removed := 0
	for _, name := range names {
		key := strings.TrimSuffix(name, path.Ext(name))
		if keep[key] {
			continue
		}
		if err := c.store.Delete(name); err != nil {
			slog.Warn("Failed to delete unreferenced cached image", "file", name, "error", err)
			continue
		}
		removed++
	}

	return removed
}

func (c *Cache) download(ctx context.Context, remoteURL string) ([]byte, string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", remoteURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if resp.ContentLength > MaxImageBytes {
		return nil, "", fmt.Errorf("image too large: %d bytes (max: %d)", resp.ContentLength, MaxImageBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > MaxImageBytes {
		return nil, "", fmt.Errorf("image too large: exceeds %d bytes", MaxImageBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

var contentTypeExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

func inferExtension(contentType, remoteURL string) string {
	if semicolon := strings.Index(contentType, ";"); semicolon >= 0 {
		contentType = contentType[:semicolon]
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	if ext, ok := contentTypeExtensions[contentType]; ok {
		return ext
	}

	switch strings.ToLower(path.Ext(strings.SplitN(remoteURL, "?", 2)[0])) {
	case ".jpg", ".jpeg":
		return ".jpg"
	case ".png":
		return ".png"
	case ".gif":
		return ".gif"
	case ".webp":
		return ".webp"
	case ".svg":
		return ".svg"
	}

	return ".jpg"
}
