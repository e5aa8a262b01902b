// Package imagecapture stores listing images submitted as data URIs in the
// blob store and serves them back.
package imagecapture

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
)

// URLPrefix is the path stored images are served under.
const URLPrefix = "/api/images/"

// MaxImageBytes bounds a single decoded image.
const MaxImageBytes = 5 << 20

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Blobs is satisfied by *store.MinioStore.
type Blobs interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// Capture implements listing.ImageCapture.
type Capture struct {
	blobs Blobs
	log   *zap.Logger
}

// New returns a Capture. With nil blobs every image passes through unchanged.
func New(blobs Blobs, log *zap.Logger) *Capture {
	if log == nil {
		log = zap.NewNop()
	}
	return &Capture{blobs: blobs, log: log}
}

// DataURI is a decoded "data:<type>;base64,<payload>" image.
type DataURI struct {
	ContentType string
	Data        []byte
}

// ParseDataURI decodes s. ok is false when s is not a data URI at all.
func ParseDataURI(s string) (d DataURI, ok bool, err error) {
	if !strings.HasPrefix(s, "data:") {
		return DataURI{}, false, nil
	}
	meta, payload, found := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return DataURI{}, true, invalid("image must be base64 encoded")
	}
	ct := strings.ToLower(strings.TrimSuffix(meta, ";base64"))
	if _, known := extensions[ct]; !known {
		return DataURI{}, true, invalid("unsupported image type " + ct)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return DataURI{}, true, invalid("image is too large")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DataURI{}, true, invalid("image data is corrupt")
	}
	if len(data) > MaxImageBytes {
		return DataURI{}, true, invalid("image is too large")
	}
	return DataURI{ContentType: ct, Data: data}, true, nil
}

func invalid(msg string) error {
	return &apperr.Error{Kind: apperr.Validation, Op: "imagecapture.ParseDataURI", Field: "images", Message: msg}
}

// Capture uploads data URIs under ownerID and returns the stored URLs in
// place. Other URIs are kept as they are and blank entries dropped. Stored
// images of another owner are rejected. On failure nothing uploaded by this
// call is left behind.
func (c *Capture) Capture(ctx context.Context, ownerID string, images []string) ([]string, error) {
	out := make([]string, 0, len(images))
	var uploaded []string
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if key, stored := strings.CutPrefix(img, URLPrefix); stored && !ownedBy(key, ownerID) {
			c.Release(ctx, ownerID, uploaded)
			return nil, &apperr.Error{Kind: apperr.Validation, Op: "imagecapture.Capture", Field: "images",
				Message: "image belongs to another listing owner"}
		}
		if c.blobs == nil {
			out = append(out, img)
			continue
		}
		d, isData, err := ParseDataURI(img)
		if err != nil {
			c.Release(ctx, ownerID, uploaded)
			return nil, err
		}
		if !isData {
			out = append(out, img)
			continue
		}
		key := ownerID + "/" + uuid.New().String() + extensions[d.ContentType]
		if err := c.blobs.Upload(ctx, key, d.Data, d.ContentType); err != nil {
			c.Release(ctx, ownerID, uploaded)
			return nil, err
		}
		url := URLPrefix + key
		uploaded = append(uploaded, url)
		out = append(out, url)
	}
	return out, nil
}

// Release removes the images among images that ownerID stored. Anything else
// is left alone. Failures are logged only.
func (c *Capture) Release(ctx context.Context, ownerID string, images []string) {
	if c.blobs == nil {
		return
	}
	for _, img := range images {
		key, ok := strings.CutPrefix(img, URLPrefix)
		if !ok || !ownedBy(key, ownerID) {
			if ok {
				c.log.Warn("image not released, foreign owner", zap.String("key", key), zap.String("owner", ownerID))
			}
			continue
		}
		if err := c.blobs.Remove(ctx, key); err != nil {
			c.log.Warn("image remove failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// ownedBy reports whether key was stored under ownerID.
func ownedBy(key, ownerID string) bool {
	rest, ok := strings.CutPrefix(key, ownerID+"/")
	return ownerID != "" && ok && rest != "" && !strings.Contains(key, "..")
}

// Serve handles GET /api/images/*.
func (c *Capture) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if c.blobs == nil || key == "" || strings.Contains(key, "..") {
		apperr.WriteJSON(w, apperr.ErrNotFound)
		return
	}
	data, contentType, err := c.blobs.Download(r.Context(), key)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(data)
}
