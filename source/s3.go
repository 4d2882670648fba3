package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/bitrise-io/go-utils/retry"
	"github.com/bitrise-io/go-utils/v2/log"
)

const numFetchRetries = 3

var errObjectNotFound = errors.New("object not found in bucket")

// S3Params ...
type S3Params struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type s3Fetcher struct {
	client *s3.Client
	logger log.Logger
}

// NewS3Fetcher creates an ObjectFetcher for s3:// locations.
func NewS3Fetcher(ctx context.Context, params S3Params, logger log.Logger) (ObjectFetcher, error) {
	cfg, err := loadAWSCredentials(ctx, params.Region, params.AccessKeyID, params.SecretAccessKey, logger)
	if err != nil {
		return nil, fmt.Errorf("load aws credentials: %w", err)
	}

	return &s3Fetcher{
		client: s3.NewFromConfig(*cfg),
		logger: logger,
	}, nil
}

// Fetch ...
func (f *s3Fetcher) Fetch(ctx context.Context, bucket, key, destination string) error {
	err := retry.Times(numFetchRetries).Wait(5 * time.Second).TryWithAbort(func(attempt uint) (error, bool) {
		_, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var apiError smithy.APIError
			if errors.As(err, &apiError) {
				switch apiError.(type) {
				case *types.NotFound, *types.NoSuchKey:
					return errObjectNotFound, true
				}
			}
			f.logger.Debugf("Head object %s (attempt %d): %s", key, attempt+1, err)
			return fmt.Errorf("head object: %w", err), false
		}
		return nil, true
	})
	if err != nil {
		return err
	}

	return retry.Times(numFetchRetries).Wait(5 * time.Second).TryWithAbort(func(attempt uint) (error, bool) {
		file, err := os.Create(destination)
		if err != nil {
			return fmt.Errorf("create file: %w", err), true
		}
		defer file.Close() //nolint:errcheck

		downloader := manager.NewDownloader(f.client)
		n, err := downloader.Download(ctx, file, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			f.logger.Debugf("Download object %s (attempt %d): %s", key, attempt+1, err)
			return fmt.Errorf("download object: %w", err), false
		}

		f.logger.Debugf("Fetched %d bytes from s3://%s/%s", n, bucket, key)
		return nil, true
	})
}

func loadAWSCredentials(
	ctx context.Context,
	region string,
	accessKeyID string,
	secretKey string,
	logger log.Logger,
) (*aws.Config, error) {
	if region == "" {
		return nil, fmt.Errorf("region must not be empty")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if accessKeyID != "" && secretKey != "" {
		logger.Debugf("aws credentials provided, using them...")
		opts = append(opts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config, %v", err)
	}

	return &cfg, nil
}
