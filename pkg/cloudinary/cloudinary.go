package cloudinary

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Uploader stores images on Cloudinary and returns their public URL.
type Uploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url string, err error)
}

type client struct {
	uploader *uploader.API
}

// UploadImage uploads without transformation; proofs are kept byte-for-byte.
func (c *client) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	overwrite := false
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:    folder,
		PublicID:  publicID,
		Overwrite: &overwrite,
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}

// NewClientFromParams builds an Uploader from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Uploader, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &client{uploader: up}, nil
}
