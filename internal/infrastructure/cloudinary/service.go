package cloudinary

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"servicehub/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Service uploads provider and service images to Cloudinary
type Service struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// UploadResult contains information about an uploaded file
type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int    `json:"bytes"`
}

// NewService creates a new Cloudinary service, or nil when not configured.
// Image upload is optional; everything else works without it.
func NewService(cfg config.CloudinaryConfig) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, nil
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	folder := cfg.Folder
	if folder == "" {
		folder = "servicehub"
	}

	return &Service{cld: cld, folder: folder}, nil
}

// UploadProviderPhoto uploads a provider profile photo, overwriting any
// previous one for the same provider.
func (s *Service) UploadProviderPhoto(ctx context.Context, file io.Reader, providerID string) (*UploadResult, error) {
	return s.upload(ctx, file, uploader.UploadParams{
		Folder:         s.folder + "/providers",
		PublicID:       "provider_" + providerID,
		Overwrite:      api.Bool(true),
		UniqueFilename: api.Bool(false),
		ResourceType:   "image",
		AllowedFormats: []string{"jpg", "jpeg", "png", "webp"},
		Transformation: "w_600,h_600,c_fill,q_auto,f_auto",
		Tags:           api.CldAPIArray{"provider", providerID},
	})
}

// UploadServiceImage uploads a service listing image
func (s *Service) UploadServiceImage(ctx context.Context, file io.Reader, serviceID string) (*UploadResult, error) {
	return s.upload(ctx, file, uploader.UploadParams{
		Folder:         s.folder + "/services",
		PublicID:       fmt.Sprintf("service_%s_%d", serviceID, time.Now().Unix()),
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
		ResourceType:   "image",
		AllowedFormats: []string{"jpg", "jpeg", "png", "webp"},
		Transformation: "q_auto,f_auto",
		Tags:           api.CldAPIArray{"service", serviceID},
	})
}

// UploadMultipartFile uploads a multipart form file as a service image
func (s *Service) UploadMultipartFile(ctx context.Context, fileHeader *multipart.FileHeader, serviceID string) (*UploadResult, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open multipart file: %w", err)
	}
	defer file.Close()

	return s.UploadServiceImage(ctx, file, serviceID)
}

// DeleteFile deletes a file from Cloudinary by public ID
func (s *Service) DeleteFile(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *Service) upload(ctx context.Context, file io.Reader, params uploader.UploadParams) (*UploadResult, error) {
	result, err := s.cld.Upload.Upload(ctx, file, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	if result == nil || result.PublicID == "" {
		return nil, fmt.Errorf("cloudinary upload failed: empty public ID")
	}

	return &UploadResult{
		PublicID:  result.PublicID,
		SecureURL: result.SecureURL,
		Format:    result.Format,
		Width:     result.Width,
		Height:    result.Height,
		Bytes:     result.Bytes,
	}, nil
}
