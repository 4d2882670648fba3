package analytics

import (
	"fmt"

	"github.com/bitrise-io/go-utils/v2/analytics"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
)

type TrackerFactory func(log.Logger, ...analytics.Properties) analytics.Tracker

const (
	AttemptIDEnvKey = "MEDIAUPLOAD_ATTEMPT_ID"
	AttemptID       = "attempt_id"
)

func NewAttemptTracker(repository env.Repository, logger log.Logger, trackerFactory TrackerFactory) (analytics.Tracker, error) {
	attemptID := repository.Get(AttemptIDEnvKey)
	if attemptID == "" {
		return nil, fmt.Errorf("no upload attempt ID found")
	}
	return trackerFactory(logger, analytics.Properties{AttemptID: attemptID}), nil
}

func NewDefaultAttemptTracker(repository env.Repository, logger log.Logger) (analytics.Tracker, error) {
	return NewAttemptTracker(repository, logger, analytics.NewDefaultTracker)
}

type noopTracker struct{}

// NewNoopTracker returns a Tracker that drops every event.
func NewNoopTracker() analytics.Tracker {
	return noopTracker{}
}

func (noopTracker) Enqueue(string, ...analytics.Properties) {}

func (noopTracker) Wait() {}
