package prices

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Options struct {
	Endpoint        string
	Region          string
	Bucket          string
	Key             string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

type S3Store struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Store targets any S3-compatible endpoint; path-style addressing keeps
// MinIO working.
func NewS3Store(ctx context.Context, o S3Options) (*S3Store, error) {
	region := o.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if o.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := o.Endpoint
	client := s3.NewFromConfig(awsCfg, func(so *s3.Options) {
		if endpoint == "" {
			return
		}
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			if o.UseSSL {
				endpoint = "https://" + endpoint
			} else {
				endpoint = "http://" + endpoint
			}
		}
		so.BaseEndpoint = aws.String(endpoint)
		so.UsePathStyle = true
	})

	return &S3Store{client: client, bucket: o.Bucket, key: o.Key}, nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
		return err
	})
}

func (s *S3Store) Load(ctx context.Context) (Catalog, error) {
	var doc []byte
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()

		doc, err = io.ReadAll(out.Body)
		return err
	})

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return Catalog{}, ErrNoDocument
	}
	if err != nil {
		return Catalog{}, err
	}
	return Decode(doc)
}

func (s *S3Store) Save(ctx context.Context, c Catalog) error {
	doc, err := Encode(c)
	if err != nil {
		return err
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.key),
			Body:        bytes.NewReader(doc),
			ContentType: aws.String("application/json"),
		})
		return err
	})
}
