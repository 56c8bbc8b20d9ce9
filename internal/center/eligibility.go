package center

// Eligibility is the outcome of the submission gate for one campaign.
type Eligibility int

const (
	// EligibilityMustLogin means no session is held.
	EligibilityMustLogin Eligibility = iota
	// EligibilityClosed means the campaign is not active or the caller is an admin.
	EligibilityClosed
	// EligibilityAlreadyApplied means the caller already has an application for the campaign.
	EligibilityAlreadyApplied
	// EligibilityEligible means the submission form should be shown.
	EligibilityEligible
)

// Decide evaluates whether the submission form is shown for campaign.
//
// Checks run in a fixed order: authentication, then campaign status and role,
// then the duplicate check. Reordering changes which notice is surfaced.
func Decide(session Session, campaign Campaign, mine []Application) Eligibility {
	if !session.IsAuthenticated() {
		return EligibilityMustLogin
	}
	if campaign.Status != CampaignActive || session.User.IsAdmin() {
		return EligibilityClosed
	}
	if hasApplied(mine, campaign.ID) {
		return EligibilityAlreadyApplied
	}
	return EligibilityEligible
}

func hasApplied(mine []Application, campaignID string) bool {
	for _, app := range mine {
		if app.CampaignID == campaignID {
			return true
		}
	}
	return false
}

// String returns a stable label for logs.
func (e Eligibility) String() string {
	switch e {
	case EligibilityMustLogin:
		return "must_login"
	case EligibilityClosed:
		return "closed_for_submission"
	case EligibilityAlreadyApplied:
		return "already_applied"
	case EligibilityEligible:
		return "eligible"
	}
	return "unknown"
}

// Notice returns the text shown in place of the submission form.
func (e Eligibility) Notice() string {
	switch e {
	case EligibilityMustLogin:
		return "신청하려면 로그인이 필요합니다."
	case EligibilityClosed:
		return "현재 신청을 받지 않는 캠페인입니다."
	case EligibilityAlreadyApplied:
		return "이미 신청한 캠페인입니다."
	}
	return ""
}

// Err maps a non-eligible outcome to the error a submission returns.
func (e Eligibility) Err() error {
	switch e {
	case EligibilityMustLogin:
		return ErrUnauthenticated
	case EligibilityClosed:
		return ErrClosedForSubmission
	case EligibilityAlreadyApplied:
		return ErrAlreadyApplied
	}
	return nil
}
