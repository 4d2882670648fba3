package mediaupload

import (
	"net/http"
	"strconv"

	"github.com/bitrise-io/go-mediaupload/network"
)

const (
	DefaultUploadURL       = "https://upload.twitter.com/1.1/media/upload.json"
	DefaultStatusUpdateURL = "https://api.twitter.com/1.1/statuses/update.json"

	mediaType      = "video/mov"
	mediaFieldName = "media"
	mediaFileName  = "mediaFile"

	// The whole payload is appended as a single segment.
	segmentIndex = 0
)

// Endpoints are the platform URLs the protocol talks to.
type Endpoints struct {
	UploadURL       string
	StatusUpdateURL string
}

// DefaultEndpoints ...
func DefaultEndpoints() Endpoints {
	return Endpoints{
		UploadURL:       DefaultUploadURL,
		StatusUpdateURL: DefaultStatusUpdateURL,
	}
}

func newInitRequest(endpoints Endpoints, totalBytes uint64) network.Request {
	return network.Request{
		Command: string(PhaseInit),
		Method:  http.MethodPost,
		URL:     endpoints.UploadURL,
		Params: map[string]string{
			"command":     "INIT",
			"total_bytes": strconv.FormatUint(totalBytes, 10),
			"media_type":  mediaType,
		},
	}
}

func newAppendRequest(endpoints Endpoints, mediaID string, payload []byte) network.Request {
	return network.Request{
		Command: string(PhaseAppend),
		Method:  http.MethodPost,
		URL:     endpoints.UploadURL,
		Params: map[string]string{
			"command":       "APPEND",
			"media_id":      mediaID,
			"segment_index": strconv.Itoa(segmentIndex),
		},
		Attachment: &network.Attachment{
			FieldName:   mediaFieldName,
			FileName:    mediaFileName,
			ContentType: mediaType,
			Data:        payload,
		},
	}
}

func newFinalizeRequest(endpoints Endpoints, mediaID string) network.Request {
	return network.Request{
		Command: string(PhaseFinalize),
		Method:  http.MethodPost,
		URL:     endpoints.UploadURL,
		Params: map[string]string{
			"command":  "FINALIZE",
			"media_id": mediaID,
		},
	}
}

func newStatusRequest(endpoints Endpoints, mediaID string) network.Request {
	return network.Request{
		Command: string(PhaseStatus),
		Method:  http.MethodGet,
		URL:     endpoints.UploadURL,
		Params: map[string]string{
			"command":  "STATUS",
			"media_id": mediaID,
		},
	}
}

func newPostRequest(endpoints Endpoints, status, mediaID string) network.Request {
	return network.Request{
		Command: string(PhasePost),
		Method:  http.MethodPost,
		URL:     endpoints.StatusUpdateURL,
		Params: map[string]string{
			"status":    status,
			"media_ids": mediaID,
		},
	}
}
