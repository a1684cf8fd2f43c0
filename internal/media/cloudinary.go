package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/yourusername/campaign-api/internal/config"
)

// CloudinaryHost — fast-бэкенд: размещает видео и отдает постер одним вызовом.
// Также используется bulk-путем как PosterUploader для кадров.
type CloudinaryHost struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryHost создает клиент fast-бэкенда
func NewCloudinaryHost(cfg config.CloudinaryConfig) (*CloudinaryHost, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to init cloudinary client: %w", err)
	}
	folder := cfg.Folder
	if folder == "" {
		folder = "campaigns"
	}
	return &CloudinaryHost{cld: cld, folder: folder}, nil
}

// Upload размещает видео; постер — то же видео с расширением, переписанным на .jpg
// (хостинг рендерит кадр на лету по такой ссылке)
func (h *CloudinaryHost) Upload(ctx context.Context, data []byte, publicID string) (*Asset, error) {
	resp, err := h.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       h.folder,
		ResourceType: "video",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary video upload: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary video upload: %s", resp.Error.Message)
	}

	return &Asset{
		VideoURL:     resp.SecureURL,
		ThumbnailURL: swapExtension(resp.SecureURL, ".jpg"),
	}, nil
}

// UploadPoster размещает извлеченный кадр как изображение "<publicID>_thumb"
func (h *CloudinaryHost) UploadPoster(ctx context.Context, frame []byte, publicID string) (string, error) {
	resp, err := h.cld.Upload.Upload(ctx, bytes.NewReader(frame), uploader.UploadParams{
		PublicID:     publicID + "_thumb",
		Folder:       h.folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary poster upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary poster upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// swapExtension заменяет последнее расширение URL на newExt
func swapExtension(url, newExt string) string {
	if url == "" {
		return ""
	}
	slash := strings.LastIndex(url, "/")
	dot := strings.LastIndex(url, ".")
	if dot <= slash {
		return url + newExt
	}
	return url[:dot] + newExt
}
