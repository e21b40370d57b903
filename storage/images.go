// Package storage resolves stored image keys to URLs clients can download.
package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ecotrail/api-go/config"
)

var ErrNotConfigured = errors.New("image storage is not configured")

type presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ImageResolver builds public URLs when a public base URL is configured and
// presigned GET URLs otherwise.
type ImageResolver struct {
	publicURL string
	bucket    string
	ttl       time.Duration
	presigner presigner
}

// NewImageResolver returns nil when cfg names neither a public URL nor a
// bucket.
func NewImageResolver(cfg config.ImageConfig) *ImageResolver {
	if cfg.PublicURL == "" && cfg.Bucket == "" {
		return nil
	}

	r := &ImageResolver{
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		bucket:    cfg.Bucket,
		ttl:       cfg.URLTTL,
	}
	if r.ttl <= 0 {
		r.ttl = time.Hour
	}

	if r.publicURL == "" {
		opts := s3.Options{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		}
		if cfg.Endpoint != "" {
			opts.BaseEndpoint = aws.String(cfg.Endpoint)
			opts.UsePathStyle = true
		}
		r.presigner = s3.NewPresignClient(s3.New(opts))
	}
	return r
}

func (r *ImageResolver) ImageURL(ctx context.Context, key string) (string, error) {
	if r == nil {
		return "", ErrNotConfigured
	}
	key = strings.TrimLeft(key, "/")

	if r.publicURL != "" {
		return r.publicURL + "/" + escapePath(key), nil
	}

	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = r.ttl
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func escapePath(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
