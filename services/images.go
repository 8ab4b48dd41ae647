package services

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rpupo63/blog-publisher-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ObjectAPI is the part of the S3 client the image store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// ImageStoreConfig points at an S3-compatible bucket (Backblaze B2 in production).
type ImageStoreConfig struct {
	Endpoint        string // e.g. https://s3.us-east-005.backblazeb2.com; empty for AWS
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string // optional; derived from bucket and endpoint when empty
}

// Image describes an uploaded object.
type Image struct {
	URL          string `json:"url"`
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	ContentType  string `json:"mimetype"`
	OriginalName string `json:"original_name"`
}

type ImageStore struct {
	client     ObjectAPI
	bucket     string
	publicBase string
	logger     zerolog.Logger
	newKey     func() string
}

// NewS3Client builds a path-style S3 client with static credentials.
func NewS3Client(ctx context.Context, cfg ImageStoreConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, errs.NewConfigInvalidError("B2_ACCESS_KEY_ID", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
		// B2 rejects the checksum trailers the SDK adds by default.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	}), nil
}

func NewImageStore(client ObjectAPI, cfg ImageStoreConfig) (*ImageStore, error) {
	if cfg.Bucket == "" {
		return nil, errs.NewConfigMissingError("B2_BUCKET")
	}
	publicBase, err := publicBaseURL(cfg)
	if err != nil {
		return nil, err
	}
	return &ImageStore{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: publicBase,
		logger:     log.With().Str("component", "imageStore").Logger(),
		newKey:     uuid.NewString,
	}, nil
}

func publicBaseURL(cfg ImageStoreConfig) (string, error) {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/"), nil
	}
	if cfg.Endpoint == "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region), nil
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Host == "" {
		return "", errs.NewConfigInvalidError("B2_ENDPOINT", err)
	}
	return fmt.Sprintf("https://%s.%s", cfg.Bucket, u.Host), nil
}

// DetectImage sniffs data and reports its MIME type when it is an image.
func DetectImage(data []byte) (*mimetype.MIME, bool) {
	mtype := mimetype.Detect(data)
	return mtype, strings.HasPrefix(mtype.String(), "image/")
}

// Upload stores data under a random key that keeps the original extension and
// returns its public URL. Both the declared type (when given) and the sniffed
// content must be images.
func (s *ImageStore) Upload(ctx context.Context, originalName, declaredType string, data []byte) (Image, error) {
	if declaredType != "" && !strings.HasPrefix(declaredType, "image/") {
		return Image{}, errs.NewUnsupportedMediaTypeError(declaredType, "image/*")
	}
	mtype, ok := DetectImage(data)
	if !ok {
		return Image{}, errs.NewUnsupportedMediaTypeError(mtype.String(), "image/*")
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = mtype.Extension()
	}
	key := s.newKey() + ext

	s.logger.Info().Str("key", key).Str("originalName", originalName).Int("size", len(data)).Msg("Uploading image")

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mtype.String()),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Image upload failed")
		return Image{}, errs.NewObjectStoreError("upload image", err)
	}

	image := Image{
		URL:          s.publicBase + "/" + key,
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  mtype.String(),
		OriginalName: originalName,
	}
	s.logger.Info().Str("url", image.URL).Msg("Image uploaded")
	return image, nil
}

// Ping checks that the bucket is reachable with the configured credentials.
func (s *ImageStore) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return errs.NewServiceUnreachableError("object storage", err)
	}
	return nil
}
