package center

import (
	"fmt"
	"strings"
)

// FieldSpec describes one generated input of an application form.
type FieldSpec struct {
	Name     string
	Value    string
	Position int
}

// FormFields returns one input per required field, in declared order, carrying
// the value currently entered for it.
func FormFields(requiredFields []string, values map[string]string) []FieldSpec {
	specs := make([]FieldSpec, 0, len(requiredFields))
	for i, name := range requiredFields {
		specs = append(specs, FieldSpec{
			Name:     name,
			Value:    values[name],
			Position: i,
		})
	}
	return specs
}

// ValidateForm reports an error for every required field whose value is empty
// after trimming. Keys outside requiredFields are not validated.
func ValidateForm(requiredFields []string, values map[string]string) map[string]string {
	errs := make(map[string]string)
	for _, name := range requiredFields {
		if strings.TrimSpace(values[name]) == "" {
			errs[name] = requiredFieldMessage(name)
		}
	}
	return errs
}

// Form returns the generated inputs of the campaign's application form.
func (c Campaign) Form(values map[string]string) []FieldSpec {
	return FormFields(c.RequiredFields, values)
}

// submissionFields keeps exactly the campaign's required keys.
func submissionFields(requiredFields []string, values map[string]string) map[string]string {
	out := make(map[string]string, len(requiredFields))
	for _, name := range requiredFields {
		out[name] = values[name]
	}
	return out
}

func requiredFieldMessage(field string) string {
	return fmt.Sprintf("%s을(를) 입력해주세요.", field)
}
