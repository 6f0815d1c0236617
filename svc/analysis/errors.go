package analysis

import "errors"

var (
	ErrMissingBaseURL         = errors.New("analysis: upstream base url is required")
	ErrUpstream               = errors.New("analysis: upstream request failed")
	ErrInvalidResponse        = errors.New("analysis: upstream returned a malformed response")
	ErrBodyAnalysisNotAllowed = errors.New("body analysis requires the clinical plan")
)
