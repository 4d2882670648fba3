package mediaupload

import (
	"time"

	"github.com/bitrise-io/go-utils/v2/analytics"
	"github.com/bitrise-io/go-utils/v2/log"
)

type attemptTracker struct {
	tracker analytics.Tracker
	logger  log.Logger
}

func newAttemptTracker(tracker analytics.Tracker, logger log.Logger) attemptTracker {
	return attemptTracker{
		tracker: tracker,
		logger:  logger,
	}
}

func (t *attemptTracker) logPhaseCompleted(phase Phase, duration time.Duration) {
	properties := analytics.Properties{
		"phase":      string(phase),
		"duration_s": duration.Truncate(time.Millisecond).Seconds(),
	}
	t.tracker.Enqueue("media_upload_phase_completed", properties)
}

func (t *attemptTracker) logSucceeded(totalTime time.Duration, sizeBytes uint64) {
	properties := analytics.Properties{
		"upload_time_s":     totalTime.Truncate(time.Second).Seconds(),
		"upload_size_bytes": sizeBytes,
	}
	t.tracker.Enqueue("media_upload_succeeded", properties)
}

func (t *attemptTracker) logFailed(err error, state State) {
	properties := analytics.Properties{
		"error_kind": KindOf(err).String(),
		"state":      state.String(),
	}
	if phase, ok := PhaseOf(err); ok {
		properties["phase"] = string(phase)
	}
	t.tracker.Enqueue("media_upload_failed", properties)
}
