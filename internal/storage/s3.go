// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client for
// catalog images. It wraps the AWS SDK v2 and is configured for
// path-style access (required by CEPH/Hetzner and MinIO).
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
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"jellyarcade/internal/imaging"
)

// ErrNotConfigured is returned by Unconfigured for every write.
var ErrNotConfigured = errors.New("object storage is not configured")

// Client wraps an S3 client for image operations on one public bucket.
type Client struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string // optional CDN/direct URL for public files
}

// New creates an S3 storage client configured with path-style addressing.
// Returns (nil, nil) if endpoint or credentials are empty, allowing the
// app to start without storage.
func New(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	// Strip trailing slash from endpoint for consistent URL building.
	endpoint = strings.TrimRight(endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload crops data to spec, stores it under spec.Folder with a random
// name and returns its public URL.
func (c *Client) Upload(ctx context.Context, data []byte, spec imaging.Spec) (string, error) {
	processed, err := imaging.Fill(data, spec)
	if err != nil {
		return "", err
	}
	key := ObjectKey(spec.Folder, uuid.New())
	if err := c.Put(ctx, key, imaging.ContentType, bytes.NewReader(processed), int64(len(processed))); err != nil {
		return "", err
	}
	return c.FileURL(key), nil
}

// Destroy deletes the object behind url. URLs that do not belong to this
// storage are ignored.
func (c *Client) Destroy(ctx context.Context, url string) error {
	key, ok := c.ExtractS3Key(url)
	if !ok {
		return nil
	}
	return c.Delete(ctx, key)
}

// Owns reports whether url points into this storage.
func (c *Client) Owns(url string) bool {
	_, ok := c.ExtractS3Key(url)
	return ok
}

// Put stores an object with public-read ACL so it can be served directly.
func (c *Client) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Delete removes an object from the bucket.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// FileURL returns the public URL for a key.
// Uses the configured public URL if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}

// ExtractS3Key extracts the S3 object key from a public file URL.
// Returns the key and true if the URL matches the storage URL pattern,
// or ("", false) if it doesn't belong to this storage.
func (c *Client) ExtractS3Key(rawURL string) (string, bool) {
	// Try publicURL prefix first (CDN or custom domain).
	if c.publicURL != "" {
		prefix := c.publicURL + "/"
		if strings.HasPrefix(rawURL, prefix) && len(rawURL) > len(prefix) {
			return rawURL[len(prefix):], true
		}
	}

	// Try endpoint/bucket prefix (path-style S3).
	prefix := c.endpoint + "/" + c.bucket + "/"
	if strings.HasPrefix(rawURL, prefix) && len(rawURL) > len(prefix) {
		return rawURL[len(prefix):], true
	}

	return "", false
}

// ObjectKey builds the storage key for a new image in folder.
func ObjectKey(folder string, id uuid.UUID) string {
	return "jellyarcade/" + strings.Trim(folder, "/") + "/" + id.String() + ".jpg"
}

// Unconfigured stands in for Client when no storage is configured. Reads
// keep working; every upload fails.
type Unconfigured struct{}

// Upload always fails with ErrNotConfigured.
func (Unconfigured) Upload(context.Context, []byte, imaging.Spec) (string, error) {
	return "", ErrNotConfigured
}

// Destroy is a no-op; nothing was ever stored.
func (Unconfigured) Destroy(context.Context, string) error { return nil }

// Owns always reports false.
func (Unconfigured) Owns(string) bool { return false }
