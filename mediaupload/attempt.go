package mediaupload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitrise-io/go-mediaupload/credential"
	"github.com/bitrise-io/go-mediaupload/network"
	"github.com/docker/go-units"
)

const defaultCheckAfter = time.Second

// session is the context threaded through the phases of a single attempt.
// mediaID is empty until INIT completes.
type session struct {
	mediaID    string
	fileSize   uint64
	status     string
	credential credential.Credential
}

type attempt struct {
	u       *Uploader
	request UploadRequest
	session session
	state   State
	tracker attemptTracker
}

func newAttempt(u *Uploader, request UploadRequest) *attempt {
	return &attempt{
		u:       u,
		request: request,
		session: session{status: request.Status},
		state:   StateIdle,
		tracker: newAttemptTracker(u.tracker, u.logger),
	}
}

func (a *attempt) transition(to State) {
	a.u.logger.Debugf("Upload state: %s -> %s", a.state, to)
	a.state = to
}

func (a *attempt) run(ctx context.Context) (map[string]interface{}, error) {
	a.transition(StateReadingFile)
	file, err := a.u.source.Resolve(ctx, a.request.FileLocation)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			a.u.logger.Warnf("Failed to clean up %s: %s", file.Path, err)
		}
	}()
	a.session.fileSize = file.Size
	a.u.logger.Printf("Video size: %s", units.HumanSizeWithPrecision(float64(file.Size), 3))

	a.transition(StateAcquiringCredential)
	cred, err := a.u.credentials.Credential(ctx)
	if err != nil {
		return nil, credentialError(err)
	}
	a.session.credential = cred
	a.u.logger.Debugf("Using account %s", cred.Name)

	a.transition(StateInit)
	// The whole video is held in memory and sent as one segment, so only short clips are supported.
	payload, err := file.ReadAll()
	if err != nil {
		return nil, err
	}
	if size := uint64(len(payload)); size != a.session.fileSize {
		a.u.logger.Warnf("File size changed since it was checked: expected %d bytes, read %d bytes", a.session.fileSize, size)
		a.session.fileSize = size
	}
	if err := a.initUpload(ctx); err != nil {
		return nil, err
	}

	a.transition(StateAppend)
	if err := a.appendMedia(ctx, payload); err != nil {
		return nil, err
	}

	a.transition(StateFinalize)
	info, err := a.finalizeUpload(ctx)
	if err != nil {
		return nil, err
	}

	if a.u.config.WaitForProcessing && info != nil {
		a.transition(StateAwaitingProcessing)
		if err := a.awaitProcessing(ctx, *info); err != nil {
			return nil, err
		}
	}

	a.transition(StatePostingStatus)
	return a.postStatus(ctx)
}

func (a *attempt) initUpload(ctx context.Context) error {
	body, err := a.execute(ctx, PhaseInit, newInitRequest(a.u.config.Endpoints, a.session.fileSize))
	if err != nil {
		return err
	}

	response, err := decodeInitResponse(body)
	if err != nil {
		return &RequestFailedError{Phase: PhaseInit, Cause: err}
	}
	a.session.mediaID = response.MediaIDString
	a.u.logger.Printf("Media ID: %s", a.session.mediaID)

	return nil
}

func (a *attempt) appendMedia(ctx context.Context, payload []byte) error {
	_, err := a.execute(ctx, PhaseAppend, newAppendRequest(a.u.config.Endpoints, a.session.mediaID, payload))
	return err
}

func (a *attempt) finalizeUpload(ctx context.Context) (*processingInfo, error) {
	body, err := a.execute(ctx, PhaseFinalize, newFinalizeRequest(a.u.config.Endpoints, a.session.mediaID))
	if err != nil {
		return nil, err
	}

	response, err := decodeProcessingResponse(body)
	if err != nil {
		return nil, &RequestFailedError{Phase: PhaseFinalize, Cause: err}
	}
	return response.ProcessingInfo, nil
}

func (a *attempt) awaitProcessing(ctx context.Context, info processingInfo) error {
	if a.u.config.MaxProcessingWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.u.config.MaxProcessingWait)
		defer cancel()
	}

	for {
		switch {
		case info.State == processingSucceeded:
			a.u.logger.Printf("Media processing succeeded")
			return nil
		case info.State == processingFailed:
			return &RequestFailedError{Phase: PhaseStatus, Cause: fmt.Errorf("%w: %s", ErrProcessingFailed, info.errorMessage())}
		case !info.pending():
			return &RequestFailedError{Phase: PhaseStatus, Cause: fmt.Errorf("%w: unknown processing state %q", ErrMalformedResponse, info.State)}
		}

		wait := time.Duration(info.CheckAfterSecs) * time.Second
		if wait <= 0 {
			wait = defaultCheckAfter
		}
		a.u.logger.Printf("Media processing %s (%d%%), checking again in %s", info.State, info.ProgressPercent, wait)

		select {
		case <-ctx.Done():
			return &RequestFailedError{Phase: PhaseStatus, Cause: ctx.Err()}
		case <-a.u.after(wait):
		}

		body, err := a.execute(ctx, PhaseStatus, newStatusRequest(a.u.config.Endpoints, a.session.mediaID))
		if err != nil {
			return err
		}
		response, err := decodeProcessingResponse(body)
		if err != nil {
			return &RequestFailedError{Phase: PhaseStatus, Cause: err}
		}
		if response.ProcessingInfo == nil {
			return nil
		}
		info = *response.ProcessingInfo
	}
}

func (a *attempt) postStatus(ctx context.Context) (map[string]interface{}, error) {
	body, err := a.execute(ctx, PhasePost, newPostRequest(a.u.config.Endpoints, a.session.status, a.session.mediaID))
	if err != nil {
		return nil, err
	}

	result, err := parseObject(body)
	if err != nil {
		return nil, &RequestFailedError{Phase: PhasePost, Cause: err}
	}
	return result, nil
}

// execute sends one phase request under the phase deadline.
func (a *attempt) execute(ctx context.Context, phase Phase, req network.Request) ([]byte, error) {
	phaseCtx, cancel := a.u.phaseContext(ctx)
	defer cancel()

	a.u.logger.Debugf("Sending %s request to %s", phase, req.URL)
	start := time.Now()

	body, err := a.u.executor.Do(phaseCtx, req, a.session.credential)
	if err != nil {
		return nil, &RequestFailedError{Phase: phase, Cause: err}
	}

	elapsed := time.Since(start)
	a.u.stats.Update(phase, elapsed)
	a.tracker.logPhaseCompleted(phase, elapsed)
	a.u.logger.Debugf("%s finished in %s", phase, elapsed.Round(time.Millisecond))

	return body, nil
}

func credentialError(err error) error {
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrNoAccountsFound) {
		return err
	}
	return fmt.Errorf("%w: %s", ErrNoAccountsFound, err)
}
