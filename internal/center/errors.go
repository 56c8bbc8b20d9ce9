package center

import "errors"

var (
	// ErrUnauthenticated is returned when an operation requires a session and none is held.
	ErrUnauthenticated = errors.New("center: unauthenticated")
	// ErrPermissionDenied is returned when a non-admin attempts an admin action.
	ErrPermissionDenied = errors.New("center: permission denied")
	// ErrNotFound is returned when a referenced campaign or application does not exist.
	ErrNotFound = errors.New("center: not found")
	// ErrUpstreamFailure is matched by every UpstreamError.
	ErrUpstreamFailure = errors.New("center: upstream failure")
	// ErrAlreadyApplied is returned when a user submits twice to the same campaign.
	ErrAlreadyApplied = errors.New("center: already applied")
	// ErrClosedForSubmission is returned when a campaign does not accept submissions from the caller.
	ErrClosedForSubmission = errors.New("center: closed for submission")
)

// Operation categories and their user-facing failure messages.
const (
	msgLoginFailed      = "로그인에 실패했습니다. 이메일과 비밀번호를 확인해주세요."
	msgRegisterFailed   = "회원가입에 실패했습니다. 다시 시도해주세요."
	msgFetchCampaigns   = "캠페인을 가져오는데 실패했습니다."
	msgCreateCampaign   = "캠페인 생성에 실패했습니다."
	msgUpdateCampaign   = "캠페인 업데이트에 실패했습니다."
	msgDeleteCampaign   = "캠페인 삭제에 실패했습니다."
	msgFetchApplication = "신청서를 가져오는데 실패했습니다."
	msgSubmit           = "신청서 제출에 실패했습니다."
	msgSetStatus        = "신청서 상태 업데이트에 실패했습니다."
	msgUnauthenticated  = "로그인이 필요합니다."
	msgPermissionDenied = "관리자 권한이 필요합니다."
	msgCampaignNotFound = "캠페인을 찾을 수 없습니다."
	msgAppNotFound      = "신청서를 찾을 수 없습니다."
	msgValidation       = "입력 내용을 확인해주세요."
)

// UpstreamError hides a collaborator failure behind a fixed category message.
// The underlying cause is logged, never returned.
type UpstreamError struct {
	Category string
	Message  string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Is lets errors.Is(err, ErrUpstreamFailure) match.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamFailure
}

func upstream(category, message string) error {
	return &UpstreamError{Category: category, Message: message}
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// UserMessage maps an operation error to the text a screen should display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var up *UpstreamError
	if errors.As(err, &up) {
		return up.Message
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return msgValidation
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return msgUnauthenticated
	case errors.Is(err, ErrPermissionDenied):
		return msgPermissionDenied
	case errors.Is(err, ErrAlreadyApplied):
		return EligibilityAlreadyApplied.Notice()
	case errors.Is(err, ErrClosedForSubmission):
		return EligibilityClosed.Notice()
	case errors.Is(err, ErrNotFound):
		return "요청한 항목을 찾을 수 없습니다."
	}
	return err.Error()
}
