// Package storage presigns attachment uploads against S3-compatible object
// storage. The chat service never proxies file bytes; clients upload directly
// with a short-lived signed URL and attach the resulting public URL to a
// message.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	appconfig "projecthub-chat/internal/config"
	"projecthub-chat/internal/domain"
	chaterrors "projecthub-chat/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type Client struct {
	cfg     appconfig.S3Config
	s3      *s3.Client
	presign *s3.PresignClient
}

func NewClient(ctx context.Context, cfg appconfig.S3Config) (*Client, error) {
	if cfg.Region == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 region and bucket are required")
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if parsed, err := url.Parse(endpoint); err == nil {
			endpoint = parsed.String()
		}
		opts = append(opts, config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				if service == s3.ServiceID {
					return aws.Endpoint{URL: endpoint, SigningRegion: cfg.Region}, nil
				}
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			}),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	return &Client{
		cfg:     cfg,
		s3:      s3Client,
		presign: s3.NewPresignClient(s3Client),
	}, nil
}

// PresignUpload signs a PUT for one attachment. Keys are namespaced by
// project so bucket lifecycle rules can expire a project's files together.
func (c *Client) PresignUpload(ctx context.Context, projectID uuid.UUID, filename, contentType string, sizeBytes int64) (uploadURL, fileURL string, headers map[string]string, err error) {
	if c == nil {
		return "", "", nil, errors.New("s3 client not initialized")
	}
	if filename == "" {
		return "", "", nil, fmt.Errorf("%w: filename is required", chaterrors.ErrInvalidInput)
	}
	if contentType == "" {
		return "", "", nil, fmt.Errorf("%w: content type is required", chaterrors.ErrInvalidInput)
	}
	if sizeBytes <= 0 {
		return "", "", nil, fmt.Errorf("%w: size must be positive", chaterrors.ErrInvalidInput)
	}

	key := fmt.Sprintf("chat/%s/%s%s", projectID, uuid.New(), sanitizeExt(filename))

	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.cfg.Bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(sizeBytes),
	}

	presigned, err := c.presign.PresignPutObject(ctx, input, func(po *s3.PresignOptions) {
		if c.cfg.PresignTTL > 0 {
			po.Expires = c.cfg.PresignTTL
		}
	})
	if err != nil {
		return "", "", nil, err
	}

	headers = map[string]string{
		"Content-Type":   contentType,
		"Content-Length": strconv.FormatInt(sizeBytes, 10),
	}
	return presigned.URL, c.fileURL(key), headers, nil
}

func (c *Client) fileURL(key string) string {
	if c.cfg.PublicBase != "" {
		return c.cfg.PublicBase + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.cfg.Bucket, c.cfg.Region, key)
}

func sanitizeExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 {
		return ""
	}
	return ext
}

// KindForContentType maps an upload's MIME type to the attachment kind used
// by room policy checks.
func KindForContentType(contentType string) domain.AttachmentKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return domain.AttachmentImage
	case strings.HasPrefix(contentType, "video/"):
		return domain.AttachmentVideo
	case strings.HasPrefix(contentType, "audio/"):
		return domain.AttachmentAudio
	case contentType == "application/pdf",
		strings.HasPrefix(contentType, "text/"),
		strings.Contains(contentType, "document"),
		strings.Contains(contentType, "spreadsheet"),
		strings.Contains(contentType, "presentation"):
		return domain.AttachmentDocument
	default:
		return domain.AttachmentOther
	}
}
