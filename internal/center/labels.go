package center

// Label returns the display text of a campaign status.
func (s CampaignStatus) Label() string {
	switch s {
	case CampaignActive:
		return "진행 중"
	case CampaignDraft:
		return "준비 중"
	case CampaignClosed:
		return "마감됨"
	case CampaignCancelled:
		return "취소됨"
	}
	return string(s)
}

// Label returns the display text of an application status.
func (s ApplicationStatus) Label() string {
	switch s {
	case ApplicationPending:
		return "대기 중"
	case ApplicationApproved:
		return "승인됨"
	case ApplicationRejected:
		return "거절됨"
	}
	return string(s)
}

// Label returns the display text of a role.
func (r Role) Label() string {
	if r == RoleAdmin {
		return "관리자"
	}
	return "일반 회원"
}
