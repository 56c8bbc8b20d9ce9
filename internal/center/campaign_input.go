package center

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func campaignValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return fld.Tag.Get("field")
		})
		if err := v.RegisterValidation("campaign_status", func(fl validator.FieldLevel) bool {
			return CampaignStatus(fl.Field().String()).Valid()
		}); err != nil {
			panic(fmt.Sprintf("register campaign_status validation: %v", err))
		}
		validate = v
	})
	return validate
}

// ParseRequiredFields splits a comma separated list of field names, trimming
// each entry and dropping blanks.
func ParseRequiredFields(raw string) []string {
	parts := strings.Split(raw, ",")
	fields := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			fields = append(fields, name)
		}
	}
	return fields
}

func normalizeCampaignInput(input CampaignInput) CampaignInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.TargetAudience = strings.TrimSpace(input.TargetAudience)
	input.Status = CampaignStatus(strings.TrimSpace(string(input.Status)))
	if input.RequiredFields != nil {
		fields := make([]string, len(input.RequiredFields))
		for i, name := range input.RequiredFields {
			fields[i] = strings.TrimSpace(name)
		}
		input.RequiredFields = fields
	}
	return input
}

// validateCampaignInput returns a *ValidationError describing every invalid field.
func validateCampaignInput(input CampaignInput) error {
	err := campaignValidator().Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	vErr := &ValidationError{}
	for _, fe := range fieldErrs {
		field, _, _ := strings.Cut(fe.Field(), "[")
		vErr.add(field, campaignFieldMessage(field, fe.Tag()))
	}
	return vErr
}

func campaignFieldMessage(field, tag string) string {
	switch field {
	case "title":
		return "캠페인 제목을 입력해주세요."
	case "description":
		return "캠페인 설명을 입력해주세요."
	case "target_audience":
		return "대상을 입력해주세요."
	case "max_participants":
		return "최대 참가자 수는 1 이상이어야 합니다."
	case "start_date":
		return "시작일을 입력해주세요."
	case "end_date":
		if tag == "gtefield" {
			return "종료일은 시작일 이후여야 합니다."
		}
		return "종료일을 입력해주세요."
	case "required_fields":
		switch tag {
		case "unique":
			return "필수 입력 항목이 중복되었습니다."
		case "required":
			return "필수 입력 항목 이름은 비워둘 수 없습니다."
		}
		return "필수 입력 항목을 하나 이상 입력해주세요."
	case "status":
		return "올바르지 않은 캠페인 상태입니다."
	}
	return msgValidation
}

var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:     {CampaignDraft, CampaignActive, CampaignCancelled},
	CampaignActive:    {CampaignActive, CampaignClosed, CampaignCancelled},
	CampaignClosed:    {CampaignClosed, CampaignCancelled},
	CampaignCancelled: {CampaignCancelled},
}

// CanTransition reports whether a campaign may move from one status to another.
func CanTransition(from, to CampaignStatus) bool {
	for _, next := range campaignTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func campaignInputOf(c Campaign) CampaignInput {
	return CampaignInput{
		Title:           c.Title,
		Description:     c.Description,
		TargetAudience:  c.TargetAudience,
		MaxParticipants: c.MaxParticipants,
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
		RequiredFields:  c.RequiredFields,
		Status:          c.Status,
	}
}

// applyPatch shallow-merges patch into c. Unset patch fields keep their prior value.
func applyPatch(c Campaign, patch CampaignPatch) Campaign {
	out := cloneCampaign(c)
	if patch.Title != nil {
		out.Title = *patch.Title
	}
	if patch.Description != nil {
		out.Description = *patch.Description
	}
	if patch.TargetAudience != nil {
		out.TargetAudience = *patch.TargetAudience
	}
	if patch.MaxParticipants != nil {
		out.MaxParticipants = *patch.MaxParticipants
	}
	if patch.StartDate != nil {
		out.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		out.EndDate = *patch.EndDate
	}
	if patch.RequiredFields != nil {
		out.RequiredFields = append([]string(nil), patch.RequiredFields...)
	}
	if patch.Status != nil {
		out.Status = *patch.Status
	}
	return out
}

func (c *Campaign) applyInput(input CampaignInput) {
	c.Title = input.Title
	c.Description = input.Description
	c.TargetAudience = input.TargetAudience
	c.MaxParticipants = input.MaxParticipants
	c.StartDate = input.StartDate
	c.EndDate = input.EndDate
	c.RequiredFields = input.RequiredFields
	c.Status = input.Status
}
