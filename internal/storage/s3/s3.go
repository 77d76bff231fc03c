// Package s3 uploads artifacts to AWS S3 or an S3-compatible service such as
// MinIO. A custom endpoint switches the client to path-style addressing.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"exporthub/internal/checksum"
	"exporthub/internal/config"
	"exporthub/internal/storage"
)

func init() {
	storage.Register("s3", func(cfg config.StorageConfig) (storage.Storage, error) {
		return New(context.Background(), cfg.S3)
	})
}

// S3Storage implements storage.Storage for S3-compatible object stores.
type S3Storage struct {
	client        *s3.Client
	bucket        string
	region        string
	endpoint      string
	prefix        string
	publicBaseURL string
}

// New builds the client. Static credentials are used when both keys are set,
// otherwise the default AWS credential chain.
func New(ctx context.Context, cfg config.S3Storage) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 region is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, fmt.Errorf("access_key_id and secret_access_key must be set together")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
			// Many S3-compatible services reject the SDK's default CRC trailers.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		})
	}

	return &S3Storage{
		client:        s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		prefix:        strings.Trim(cfg.Prefix, "/"),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *S3Storage) objectKey(key string) (string, error) {
	k, err := storage.CleanKey(key)
	if err != nil {
		return "", err
	}
	if s.prefix != "" {
		k = path.Join(s.prefix, k)
	}
	return k, nil
}

// Upload stores the artifact with its sha256 in the object metadata. Seekable
// readers are hashed and rewound; anything else is buffered in memory.
func (s *S3Storage) Upload(ctx context.Context, key string, r io.Reader, size int64) (*storage.UploadResult, error) {
	k, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}

	var body io.ReadSeeker
	if rs, ok := r.(io.ReadSeeker); ok {
		body = rs
	} else {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read data: %w", err)
		}
		body = bytes.NewReader(data)
	}
	start, err := body.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to seek artifact: %w", err)
	}
	sum, err := checksum.CalculateSHA256(body)
	if err != nil {
		return nil, err
	}
	end, err := body.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to seek artifact: %w", err)
	}
	n := end - start
	if size >= 0 && n != size {
		return nil, fmt.Errorf("artifact size mismatch for %s: read %d of %d bytes", k, n, size)
	}
	if _, err := body.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind artifact: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(k),
		Body:          body,
		ContentLength: aws.Int64(n),
		ContentType:   aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"sha256": sum,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &storage.UploadResult{Key: k, URL: s.URL(key), Size: n, Checksum: sum}, nil
}

// Exists issues a HeadObject; a 404 is reported as false, nil.
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	k, err := s.objectKey(key)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object: %w", err)
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re interface{ HTTPStatusCode() int }
	return errors.As(err, &re) && re.HTTPStatusCode() == 404
}

// URL prefers public_base_url, then the custom endpoint (path-style), then
// the virtual-hosted AWS address.
func (s *S3Storage) URL(key string) string {
	k, err := s.objectKey(key)
	if err != nil {
		return ""
	}
	escaped := (&url.URL{Path: k}).EscapedPath()
	switch {
	case s.publicBaseURL != "":
		return s.publicBaseURL + "/" + escaped
	case s.endpoint != "":
		return s.endpoint + "/" + s.bucket + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
	}
}
