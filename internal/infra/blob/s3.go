package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/artel-team/artel/internal/config"
	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

var ErrNotImage = errors.New("file is not an image")

// UploadedMeta describes an object written by Upload.
type UploadedMeta struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	MIME      string `json:"mime"`
	Extension string `json:"extension"`
	SizeB     int64  `json:"size_b"`
}

// Store is the object storage surface the services depend on.
type Store interface {
	UploadImage(ctx context.Context, bucket, keyPrefix string, body []byte) (*UploadedMeta, error)
	Remove(ctx context.Context, bucket, key string) error
	PublicURL(bucket, key string) string
}

type S3Deps struct {
	Client        *s3.Client
	Uploader      *manager.Uploader
	publicBaseURL string
}

func NewS3(ctx context.Context, cfg *config.Config) (*S3Deps, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3.Region),
	}
	if cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		))
	}
	acfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	otelaws.AppendMiddlewares(&acfg.APIOptions)

	endpoint := cfg.S3.InternalEndpoint
	if endpoint == "" {
		endpoint = cfg.S3.Endpoint
	}
	client := s3.NewFromConfig(acfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	})

	base := cfg.S3.PublicBaseURL
	if base == "" {
		base = cfg.S3.Endpoint
	}

	return &S3Deps{
		Client:        client,
		Uploader:      manager.NewUploader(client),
		publicBaseURL: strings.TrimRight(base, "/"),
	}, nil
}

// UploadImage sniffs body, rejects anything that is not an image and stores it
// at keyPrefix + "." + extension.
func (s *S3Deps) UploadImage(ctx context.Context, bucket, keyPrefix string, body []byte) (*UploadedMeta, error) {
	meta, err := sniffImage(body)
	if err != nil {
		return nil, err
	}
	meta.Bucket = bucket
	meta.Key = keyPrefix + meta.Extension

	_, err = s.Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(meta.Key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(meta.MIME),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s/%s: %w", bucket, meta.Key, err)
	}
	return meta, nil
}

func (s *S3Deps) Remove(ctx context.Context, bucket, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *S3Deps) PublicURL(bucket, key string) string {
	return publicURL(s.publicBaseURL, bucket, key)
}

func publicURL(base, bucket, key string) string {
	if key == "" {
		return ""
	}
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return base + "/" + bucket + "/" + strings.Join(segs, "/")
}

func sniffImage(body []byte) (*UploadedMeta, error) {
	if len(body) == 0 {
		return nil, ErrNotImage
	}
	mt := mimetype.Detect(body)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, ErrNotImage
	}
	ext := mt.Extension()
	if ext == "" {
		ext = ".img"
	}
	return &UploadedMeta{
		MIME:      mt.String(),
		Extension: ext,
		SizeB:     int64(len(body)),
	}, nil
}
