package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3Uploader puts images into an S3-compatible bucket with path-style
// addressing and public-read ACL.
type S3Uploader struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// NewS3Uploader returns nil when endpoint, credentials or bucket are
// missing so the caller can fall back to local storage.
func NewS3Uploader(cfg S3Config) *S3Uploader {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})
	return &S3Uploader{
		s3:        client,
		bucket:    cfg.Bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}
}

func (u *S3Uploader) Upload(ctx context.Context, dataURI string) (Asset, error) {
	img, err := DecodeDataURI(dataURI)
	if err != nil {
		return Asset{}, err
	}
	key := fmt.Sprintf("products/%s.%s", uuid.NewString(), img.Ext)
	_, err = u.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          img.reader(),
		ContentLength: aws.Int64(int64(len(img.Data))),
		ContentType:   aws.String(img.ContentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("s3 upload %s/%s: %w", u.bucket, key, err)
	}
	return Asset{PublicID: key, URL: u.fileURL(key)}, nil
}

func (u *S3Uploader) fileURL(key string) string {
	if u.publicURL != "" {
		return u.publicURL + "/" + key
	}
	return u.endpoint + "/" + u.bucket + "/" + key
}
