// Package mediaupload posts a video to a social platform: the file goes through
// the chunked media upload protocol (INIT, APPEND, FINALIZE) and the resulting
// media id is attached to a new status.
//
// Every attempt runs its phases strictly in order and exactly once. The first
// failing step ends the attempt; media already created on the remote side is
// not cleaned up.
package mediaupload

import (
	"context"
	"time"

	trackers "github.com/bitrise-io/go-mediaupload/analytics"
	"github.com/bitrise-io/go-mediaupload/credential"
	"github.com/bitrise-io/go-mediaupload/network"
	"github.com/bitrise-io/go-mediaupload/source"
	"github.com/bitrise-io/go-utils/v2/analytics"
	"github.com/bitrise-io/go-utils/v2/log"
)

// Config holds configuration for the uploader.
type Config struct {
	Endpoints Endpoints

	// PhaseTimeout bounds every single network phase. Zero means no deadline.
	// Default: 2 minutes
	PhaseTimeout time.Duration

	// WaitForProcessing polls the STATUS command after FINALIZE until the
	// platform reports the media as processed.
	// Default: false
	WaitForProcessing bool

	// MaxProcessingWait bounds the whole STATUS polling. Zero means no limit.
	// Default: 5 minutes
	MaxProcessingWait time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Endpoints:         DefaultEndpoints(),
		PhaseTimeout:      2 * time.Minute,
		WaitForProcessing: false,
		MaxProcessingWait: 5 * time.Minute,
	}
}

// UploadRequest is the input of one upload attempt.
type UploadRequest struct {
	// FileLocation is a path, file:// URL, glob pattern, http(s):// URL or s3://bucket/key.
	FileLocation string
	// Status is the text of the post the media gets attached to.
	Status string
}

// Uploader runs upload attempts. It holds no per-attempt state, so it is safe
// to start several attempts concurrently.
type Uploader struct {
	config      Config
	source      source.Resolver
	credentials credential.Provider
	executor    network.Executor
	tracker     analytics.Tracker
	logger      log.Logger
	stats       *Stats

	after func(time.Duration) <-chan time.Time
}

// New creates an Uploader. `tracker` can be nil, in which case no events are sent.
func New(
	config Config,
	src source.Resolver,
	credentials credential.Provider,
	executor network.Executor,
	tracker analytics.Tracker,
	logger log.Logger,
) *Uploader {
	if tracker == nil {
		tracker = trackers.NewNoopTracker()
	}
	return &Uploader{
		config:      config,
		source:      src,
		credentials: credentials,
		executor:    executor,
		tracker:     tracker,
		logger:      logger,
		stats:       NewStats(),
		after:       time.After,
	}
}

// Stats returns the phase statistics of all attempts.
func (u *Uploader) Stats() *Stats {
	return u.stats
}

// Start runs a new attempt in the background. The returned channel receives
// exactly one Outcome and is closed afterwards.
func (u *Uploader) Start(ctx context.Context, request UploadRequest) <-chan Outcome {
	results := make(chan Outcome, 1)
	go func() {
		defer close(results)
		results <- u.run(ctx, request)
	}()
	return results
}

// Upload runs a new attempt and waits for its Outcome.
func (u *Uploader) Upload(ctx context.Context, request UploadRequest) Outcome {
	return <-u.Start(ctx, request)
}

// UploadVideo starts a new attempt and reports its result through exactly one
// of the callbacks, called once from a background goroutine.
// Nil callbacks are skipped.
func (u *Uploader) UploadVideo(
	ctx context.Context,
	fileLocation, status string,
	onSuccess func(body map[string]interface{}),
	onFailure func(err error),
) {
	results := u.Start(ctx, UploadRequest{FileLocation: fileLocation, Status: status})
	go func() {
		outcome := <-results
		if outcome.Err != nil {
			if onFailure != nil {
				onFailure(outcome.Err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(outcome.Body)
		}
	}()
}

func (u *Uploader) run(ctx context.Context, request UploadRequest) Outcome {
	a := newAttempt(u, request)
	start := time.Now()

	body, err := a.run(ctx)
	lastState := a.state
	a.transition(StateDone)

	if err != nil {
		u.logger.Warnf("Upload failed in state %s: %s", lastState, err)
		a.tracker.logFailed(err, lastState)
		return Outcome{Err: err}
	}

	u.logger.Donef("Status posted with media %s", a.session.mediaID)
	a.tracker.logSucceeded(time.Since(start), a.session.fileSize)
	return Outcome{Body: body}
}

func (u *Uploader) phaseContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.config.PhaseTimeout > 0 {
		return context.WithTimeout(ctx, u.config.PhaseTimeout)
	}
	return context.WithCancel(ctx)
}
