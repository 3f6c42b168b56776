package s3

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"filevault/internal/modules/files/domain"
)

// S3Config holds configuration for S3/MinIO storage
type S3Config struct {
	BucketName     string
	Region         string
	Endpoint       string // Internal endpoint (e.g., minio:9000)
	PublicEndpoint string // Public endpoint (e.g., localhost:9000)
	AccessKey      string
	SecretKey      string
	UseSSL         bool
}

// S3BlobStore implements domain.BlobStore using AWS S3 or MinIO. Presigning
// goes through a client pointed at the public endpoint so the URLs we hand
// out resolve from outside the deployment network.
type S3BlobStore struct {
	client        *s3.Client
	presignClient *s3.Client
	config        S3Config
}

// NewS3BlobStore creates a new S3-backed blob store
func NewS3BlobStore(ctx context.Context, cfg S3Config) (*S3BlobStore, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	var awsCfg aws.Config
	var err error

	if cfg.Endpoint != "" {
		// MinIO / LocalStack Configuration
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		)
	} else {
		// Standard AWS S3 Configuration
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(withScheme(cfg.Endpoint, cfg.UseSSL))
			o.UsePathStyle = true // Required for MinIO
		}
	})

	presignClient := client
	if cfg.Endpoint != "" && cfg.PublicEndpoint != "" {
		presignClient = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(withScheme(cfg.PublicEndpoint, cfg.UseSSL))
			o.UsePathStyle = true
		})
	}

	return &S3BlobStore{
		client:        client,
		presignClient: presignClient,
		config:        cfg,
	}, nil
}

// PresignUpload generates a presigned POST the client can use to upload one
// object directly. The policy pins the exact Content-Type and caps the
// payload at maxBytes, so the store rejects anything the grant did not
// promise.
func (s *S3BlobStore) PresignUpload(ctx context.Context, key, contentType string, maxBytes int64, ttl time.Duration) (*domain.UploadGrant, error) {
	presigner := s3.NewPresignClient(s.presignClient)

	request, err := presigner.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(key),
	}, func(opts *s3.PresignPostOptions) {
		opts.Expires = ttl
		opts.Conditions = []interface{}{
			[]interface{}{"content-length-range", 1, maxBytes},
			[]interface{}{"eq", "$Content-Type", contentType},
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned upload: %w", err)
	}

	fields := make(map[string]string, len(request.Values)+1)
	for k, v := range request.Values {
		fields[k] = v
	}
	fields["Content-Type"] = contentType

	return &domain.UploadGrant{URL: request.URL, Fields: fields}, nil
}

// PresignDownload generates a presigned GET that serves the object as an
// attachment under its original name.
func (s *S3BlobStore) PresignDownload(ctx context.Context, key, downloadName string, ttl time.Duration) (string, error) {
	presigner := s3.NewPresignClient(s.presignClient)

	if downloadName == "" || downloadName == "." {
		downloadName = "download.csv"
	}
	contentDisposition := fmt.Sprintf("attachment; filename=%q", downloadName)

	request, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.config.BucketName),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(contentDisposition),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return request.URL, nil
}

func withScheme(endpoint string, useSSL bool) string {
	if hasHTTPPrefix(endpoint) {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// hasHTTPPrefix checks if a string has http:// or https:// prefix
func hasHTTPPrefix(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
