package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	trackers "github.com/bitrise-io/go-mediaupload/analytics"
	"github.com/bitrise-io/go-mediaupload/config"
	"github.com/bitrise-io/go-mediaupload/credential"
	"github.com/bitrise-io/go-mediaupload/internal"
	"github.com/bitrise-io/go-mediaupload/mediaupload"
	"github.com/bitrise-io/go-mediaupload/network"
	"github.com/bitrise-io/go-mediaupload/source"
	"github.com/bitrise-io/go-utils/v2/analytics"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/spf13/cobra"
)

type postOptions struct {
	file    string
	status  string
	account string
	verbose bool
}

func newPostCmd() *cobra.Command {
	opts := postOptions{}
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Upload a video and post a status with it",
		Example: `  mediaupload post --file ./demo.mov --status "New release"
  mediaupload post --file s3://videos/demo.mov --status "New release" --account team`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Video location: path, glob pattern, http(s):// URL or s3://bucket/key")
	cmd.Flags().StringVarP(&opts.status, "status", "s", "", "Text of the status")
	cmd.Flags().StringVar(&opts.account, "account", "", "Account name in the accounts file")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runPost(ctx context.Context, opts postOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	envRepo := env.NewRepository()
	logger := log.NewLogger()

	cfg, err := config.Load(envRepo, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.account != "" {
		cfg.Account = opts.account
	}
	logger.EnableDebugLog(cfg.Verbose || opts.verbose)

	resolver, err := newResolver(ctx, cfg, logger)
	if err != nil {
		return err
	}

	tracker := newTracker(cfg, envRepo, logger)
	defer tracker.Wait()

	uploader := mediaupload.New(
		cfg.UploaderConfig(),
		resolver,
		newCredentialProvider(cfg, envRepo),
		network.NewSignedClient(nil, logger),
		tracker,
		logger,
	)

	logger.Infof("Posting %s", opts.file)
	outcome := uploader.Upload(ctx, mediaupload.UploadRequest{FileLocation: opts.file, Status: opts.status})
	if outcome.Err != nil {
		logger.Errorf("Upload failed (%s)", outcome.Kind())
		return outcome.Err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(outcome.Body)
}

func newCredentialProvider(cfg config.Config, envRepo env.Repository) credential.Provider {
	if cfg.AccountsFile != "" {
		return credential.NewFileProvider(cfg.AccountsFile, cfg.Account)
	}
	return credential.NewEnvProvider(envRepo)
}

func newResolver(ctx context.Context, cfg config.Config, logger log.Logger) (source.Resolver, error) {
	var objects source.ObjectFetcher
	if cfg.AWSRegion != "" {
		fetcher, err := source.NewS3Fetcher(ctx, source.S3Params{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey.Value(),
		}, logger)
		if err != nil {
			return nil, err
		}
		objects = fetcher
	}

	return source.NewResolver(
		internal.RealOS{},
		pathutil.NewPathModifier(),
		pathutil.NewPathProvider(),
		source.NewHTTPDownloader(logger),
		objects,
		logger,
	), nil
}

func newTracker(cfg config.Config, envRepo env.Repository, logger log.Logger) analytics.Tracker {
	if !cfg.EnableAnalytics {
		return trackers.NewNoopTracker()
	}
	tracker, err := trackers.NewDefaultAttemptTracker(envRepo, logger)
	if err != nil {
		logger.Warnf("Analytics disabled: %s", err)
		return trackers.NewNoopTracker()
	}
	return tracker
}
