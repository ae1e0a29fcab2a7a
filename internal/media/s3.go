// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// keyPrefix namespaces thumbnails inside the bucket.
const keyPrefix = "uploads/"

// S3 is a media store backed by an S3-compatible bucket. It uses
// path-style addressing, which CEPH/Hetzner and MinIO require.
type S3 struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string // optional CDN/direct URL for public files
}

// NewS3 creates an S3 media store. Returns an error if endpoint, bucket or
// credentials are empty.
func NewS3(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*S3, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, fmt.Errorf("s3 media store: endpoint, bucket and credentials are required")
	}

	endpoint = strings.TrimRight(endpoint, "/")

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &S3{
		s3:        client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Save uploads a thumbnail with a public-read ACL so it can be served
// directly from the bucket.
func (c *S3) Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) error {
	if err := validName(name); err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(keyPrefix + name),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, name, err)
	}
	return nil
}

// Delete removes a thumbnail from the bucket.
func (c *S3) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(keyPrefix + name),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, name, err)
	}
	return nil
}

// Exists checks for a thumbnail with a HEAD request.
func (c *S3) Exists(ctx context.Context, name string) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	_, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(keyPrefix + name),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("s3 head %s/%s: %w", c.bucket, name, err)
	}
	return true, nil
}

// URL returns the public URL for a thumbnail. Uses the configured public
// URL if set, otherwise builds a path-style URL.
func (c *S3) URL(name string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + keyPrefix + name
	}
	return c.endpoint + "/" + c.bucket + "/" + keyPrefix + name
}
