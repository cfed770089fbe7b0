// Package images hands out presigned S3 PUT URLs so clients can upload
// product pictures straight to object storage. The server never sees the
// image bytes; it only stores the resulting public URL on the product.
package images

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"github.com/google/uuid"
)

const UploadExpiry = 15 * time.Minute

// ErrDisabled is returned when no bucket is configured.
var ErrDisabled = errors.New("image uploads are not configured")

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

type Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	// PublicBaseURL prefixes bucket and key in the image URL stored on
	// products. Defaults to BaseEndpoint.
	PublicBaseURL string
}

type Upload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	ImageURL  string    `json:"imageUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Presigner struct {
	cfg Config
	now func() time.Time
}

func NewPresigner(cfg Config) *Presigner {
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = cfg.BaseEndpoint
	}
	return &Presigner{cfg: cfg, now: time.Now}
}

func (p *Presigner) Enabled() bool {
	return p != nil && p.cfg.Bucket != ""
}

// ObjectKey places uploads under the wishlist and the month of upload.
func ObjectKey(wishlistID string, at time.Time) string {
	return fmt.Sprintf("wishlists/%s/%04d/%02d/%s", wishlistID, at.Year(), int(at.Month()), uuid.New())
}

func (p *Presigner) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(p.cfg.Region)}
	if p.cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(p.cfg.AccessKey, p.cfg.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if p.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(p.cfg.BaseEndpoint)
			// MinIO and most S3-compatible stores need path-style addressing.
			o.UsePathStyle = true
		}
	})
	return newS3PresignClient(client), nil
}

// PresignUpload returns a PUT URL valid for UploadExpiry. A non-empty
// contentType must be an image type; it becomes part of the signature.
func (p *Presigner) PresignUpload(ctx context.Context, wishlistID, contentType string) (*Upload, error) {
	if !p.Enabled() {
		return nil, ErrDisabled
	}
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content type %q is not an image", common.ErrValidation, contentType)
	}

	pc, err := p.presignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	now := p.now().UTC()
	bucket := p.cfg.Bucket
	key := ObjectKey(wishlistID, now)

	in := &s3.PutObjectInput{Bucket: &bucket, Key: &key}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := presignPutObject(pc, ctx, in, s3.WithPresignExpires(UploadExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &Upload{
		Key:       key,
		UploadURL: req.URL,
		ImageURL:  strings.TrimRight(p.cfg.PublicBaseURL, "/") + "/" + bucket + "/" + key,
		ExpiresAt: now.Add(UploadExpiry),
	}, nil
}
