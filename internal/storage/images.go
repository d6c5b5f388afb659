// Package storage keeps grocery item photos in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// KeyPrefix is the folder every item image is stored under.
const KeyPrefix = "grocery_images/"

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 10 << 20

var (
	ErrNotConfigured   = errors.New("image storage not configured")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
	ErrInvalidPath     = errors.New("invalid image path")
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
	"image/heic": "heic",
}

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// PublicBaseURL is prepended to object paths to form image URLs.
	PublicBaseURL string
}

// Images uploads, serves and deletes item images.
type Images struct {
	client     s3Client
	bucket     string
	publicBase string
}

// NewImages creates an image store. Without bucket credentials every
// operation returns ErrNotConfigured.
func NewImages(cfg S3Config) *Images {
	im := &Images{
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		im.client = newS3Client(cfg)
	}
	return im
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Configured reports whether uploads are possible.
func (im *Images) Configured() bool {
	return im.client != nil
}

// Upload stores data under a fresh random key and returns the object path
// and its public URL.
func (im *Images) Upload(ctx context.Context, data []byte, contentType string) (path, url string, err error) {
	if im.client == nil {
		return "", "", ErrNotConfigured
	}
	ext, ok := extensions[strings.ToLower(contentType)]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if len(data) == 0 {
		return "", "", fmt.Errorf("upload image: empty body")
	}
	if len(data) > MaxImageSize {
		return "", "", ErrTooLarge
	}

	path = KeyPrefix + uuid.NewString() + "." + ext
	_, err = im.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(im.bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", "", fmt.Errorf("upload to s3: %w", err)
	}
	return path, im.PublicURL(path), nil
}

// PublicURL returns the URL clients use to fetch the object at path.
func (im *Images) PublicURL(path string) string {
	return im.publicBase + "/" + path
}

// Open streams an image back out of the bucket.
func (im *Images) Open(ctx context.Context, path string) (io.ReadCloser, string, error) {
	if im.client == nil {
		return nil, "", ErrNotConfigured
	}
	if !validPath(path) {
		return nil, "", ErrInvalidPath
	}
	result, err := im.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(im.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, "", fmt.Errorf("download from s3: %w", err)
	}
	return result.Body, aws.ToString(result.ContentType), nil
}

// Delete removes the image at path.
func (im *Images) Delete(ctx context.Context, path string) error {
	if im.client == nil {
		return ErrNotConfigured
	}
	if !validPath(path) {
		return ErrInvalidPath
	}
	_, err := im.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(im.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("delete from s3: %w", err)
	}
	return nil
}

// PathFromURL returns the object path of a URL produced by PublicURL, or
// false when the URL points elsewhere.
func (im *Images) PathFromURL(url string) (string, bool) {
	path, ok := strings.CutPrefix(url, im.publicBase+"/")
	if !ok || !validPath(path) {
		return "", false
	}
	return path, true
}

func validPath(path string) bool {
	rest, ok := strings.CutPrefix(path, KeyPrefix)
	return ok && rest != "" && !strings.Contains(rest, "/") && !strings.Contains(rest, "..")
}
