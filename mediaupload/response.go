package mediaupload

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	processingPending    = "pending"
	processingInProgress = "in_progress"
	processingSucceeded  = "succeeded"
	processingFailed     = "failed"
)

type initResponse struct {
	MediaIDString string `json:"media_id_string"`
}

type processingError struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type processingInfo struct {
	State           string           `json:"state"`
	CheckAfterSecs  int              `json:"check_after_secs"`
	ProgressPercent int              `json:"progress_percent"`
	Error           *processingError `json:"error"`
}

func (p processingInfo) pending() bool {
	return p.State == processingPending || p.State == processingInProgress
}

func (p processingInfo) errorMessage() string {
	if p.Error == nil {
		return "no details"
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", p.Error.Name, p.Error.Message))
}

// Shared by FINALIZE and STATUS responses.
type processingResponse struct {
	MediaIDString  string          `json:"media_id_string"`
	ProcessingInfo *processingInfo `json:"processing_info"`
}

// parseObject decodes a response body that must be a JSON object at the top level.
func parseObject(data []byte) (map[string]interface{}, error) {
	var object map[string]interface{}
	if err := json.Unmarshal(data, &object); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}
	if object == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedResponse)
	}
	return object, nil
}

func decodeInitResponse(data []byte) (initResponse, error) {
	if _, err := parseObject(data); err != nil {
		return initResponse{}, err
	}

	var response initResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return initResponse{}, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}
	if response.MediaIDString == "" {
		return initResponse{}, fmt.Errorf("%w: media_id_string is missing", ErrMalformedResponse)
	}
	return response, nil
}

func decodeProcessingResponse(data []byte) (processingResponse, error) {
	if _, err := parseObject(data); err != nil {
		return processingResponse{}, err
	}

	var response processingResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return processingResponse{}, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}
	return response, nil
}
