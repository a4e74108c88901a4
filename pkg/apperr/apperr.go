package apperr

import (
	"errors"
	"fmt"
)

const (
	MetaReason      = "reason"
	MetaStage       = "stage"
	MetaField       = "field"
	MetaStepID      = "step_id"
	MetaRequirement = "requirement"
	MetaAction      = "action"
	MetaSelector    = "selector"
	MetaURL         = "url"
	MetaPath        = "path"

	StageBrowser     = "browser"
	StageNavigation  = "navigation"
	StageInteraction = "interaction"
	StageScreenshot  = "screenshot"
	StageCapture     = "capture"
	StageGeneration  = "generation"
	StageResolution  = "resolution"
	StageRecording   = "recording"
	StageReplay      = "replay"
	StageScenario    = "scenario"

	CodeInternal           = "internal"
	CodeInvalidArgument    = "invalid_argument"
	CodeNotFound           = "not_found"
	CodeTimeout            = "timeout"
	CodeCancelledByUser    = "cancelled_by_user"
	CodeBrowserNotReady    = "browser_not_ready"
	CodeActionFailed       = "action_failed"
	CodeStaleElement       = "stale_element"
	CodeNoCandidates       = "no_candidates"
	CodeElementNotFound    = "element_not_found"
	CodeInvalidRequirement = "invalid_requirement"
	CodeNoRequirement      = "no_requirement"
)

type Error struct {
	Op       string
	Code     string
	Err      error
	Metadata map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(op, code string, err error, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Error{
		Op:       op,
		Code:     code,
		Err:      err,
		Metadata: metadata,
	}
}

func WrapWithReason(op, code string, err error, reason string) error {
	return Wrap(op, code, err, map[string]any{
		MetaReason: reason,
	})
}

func WrapErrorWithReason(op, code, reason string) error {
	return Wrap(op, code, errors.New(reason), map[string]any{
		MetaReason: reason,
	})
}

func InvalidReqError(op, field string, err error) error {
	return Wrap(op, CodeInvalidArgument, err, map[string]any{
		MetaField:  field,
		MetaReason: "invalid_request",
	})
}

func NotFoundError(op string, err error) error {
	return Wrap(op, CodeNotFound, err, map[string]any{
		MetaReason: "not_found",
	})
}

// CodeOf returns the code of the outermost *Error in the chain, or CodeInternal.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	return CodeInternal
}
