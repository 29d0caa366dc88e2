package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	sconf "github.com/modelyard/modelyard/pkg/configs/server"
	kio "github.com/modelyard/modelyard/pkg/utils/io"
)

// S3Store lays blobs out in a S3 (or compatible) bucket, as
// <prefix>/sha256/<hex>.
type S3Store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	prefix     string
}

// NewS3 creates a S3Store against the bucket in cfg.
//
// Credentials come from static keys in cfg when set,
// or from the SDK default chain (IAM role, env, shared config) otherwise.
func NewS3(ctx context.Context, cfg *sconf.S3StorageConfig) (*S3Store, error) {
	loadOptions := []func(*awsconfig.LoadOptions) error{}
	if r := cfg.Region(); r != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(r))
	}
	if id := cfg.AccessKeyId(); id != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, cfg.SecretAccessKey(), ""),
		))
	}
	awscfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awscfg, func(o *s3.Options) {
		if ep := cfg.Endpoint(); ep != "" {
			o.BaseEndpoint = aws.String(ep)
			// S3 compatibles want path-style addressing.
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     cfg.Bucket(),
		prefix:     cfg.Prefix(),
	}, nil
}

func (s *S3Store) keyOf(digest string) (string, error) {
	key, err := ObjectKey(digest)
	if err != nil {
		return "", err
	}
	return path.Join(s.prefix, key), nil
}

func (s *S3Store) Put(ctx context.Context, r io.Reader) (string, int64, error) {
	// Spool to a temp file. The key is not known until the whole content is hashed.
	tmp, err := os.CreateTemp("", "yard-upload-*")
	if err != nil {
		return "", 0, err
	}
	tmpname := tmp.Name()
	defer os.Remove(tmpname)
	defer tmp.Close()

	chr := kio.NewSHA256Reader(r)
	size, err := io.Copy(tmp, chr)
	if err != nil {
		return "", 0, err
	}

	digest := "sha256:" + hex.EncodeToString(chr.Sum())
	key, err := s.keyOf(digest)
	if err != nil {
		return "", 0, err
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", 0, err
	}
	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   tmp,
	}); err != nil {
		return "", 0, err
	}
	return digest, size, nil
}

func (s *S3Store) Open(ctx context.Context, digest string) (io.ReadCloser, int64, error) {
	key, err := s.keyOf(digest)
	if err != nil {
		return nil, 0, err
	}

	tmp, err := os.CreateTemp("", "yard-download-*")
	if err != nil {
		return nil, 0, err
	}
	tmpname := tmp.Name()

	size, err := s.downloader.Download(ctx, tmp, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tmp.Close()
		os.Remove(tmpname)
		if isNotFound(err) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, digest)
		}
		return nil, 0, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmpname)
		return nil, 0, err
	}
	return kio.WithCloseHook(tmp, func() { os.Remove(tmpname) }), size, nil
}

func (s *S3Store) Remove(ctx context.Context, digest string) error {
	key, err := s.keyOf(digest)
	if err != nil {
		return err
	}
	// S3 DeleteObject of a missing key succeeds.
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3Store) Exists(ctx context.Context, digest string) (bool, error) {
	key, err := s.keyOf(digest)
	if err != nil {
		return false, err
	}
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

var _ Store = &S3Store{}
