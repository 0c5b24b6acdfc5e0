// Package imagehost uploads patient images to Cloudinary.
package imagehost

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"patient-companion-server/internal/config"
)

// Asset is a hosted image.
type Asset struct {
	URL      string
	PublicID string
}

// Cloudinary uploads images into a fixed folder.
type Cloudinary struct {
	cld     *cloudinary.Cloudinary
	folder  string
	timeout time.Duration
}

// NewCloudinary creates an uploader from the account credentials.
func NewCloudinary(cfg config.CloudinaryConfig, timeout time.Duration) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("configuring cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Cloudinary{cld: cld, folder: cfg.Folder, timeout: timeout}, nil
}

// Upload stores dataURI in the configured folder, tagged with the owner's
// phone number.
func (c *Cloudinary) Upload(ctx context.Context, dataURI, phoneNumber string) (*Asset, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := uploader.UploadParams{Folder: c.folder}
	if phoneNumber != "" {
		params.Context = api.CldAPIMap{"phone_number": phoneNumber}
	}

	resp, err := c.cld.Upload.Upload(ctx, dataURI, params)
	if err != nil {
		return nil, fmt.Errorf("uploading image: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("uploading image: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return nil, errors.New("uploading image: response carried no url")
	}
	return &Asset{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

// DataURI encodes raw bytes as a base64 data URI.
func DataURI(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("image hosting is not configured")

// Disabled rejects every upload. It stands in when no credentials are set.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string) (*Asset, error) {
	return nil, ErrNotConfigured
}
