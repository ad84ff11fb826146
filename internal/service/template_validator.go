package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/seasonal-upkeep-api/internal/dto"
	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	"github.com/noah-isme/seasonal-upkeep-api/internal/scheduling"
)

var shortNamePattern = regexp.MustCompile(`^[A-Z0-9_]+$`)

const shortNameTag = "shortname"

// TemplateValidator checks template drafts. It never mutates the draft and never fails hard:
// every problem is collected and returned together.
type TemplateValidator struct {
	validate *validator.Validate
}

// NewTemplateValidator registers the template rules on validate (or a fresh validator when nil).
func NewTemplateValidator(validate *validator.Validate) *TemplateValidator {
	if validate == nil {
		validate = validator.New()
	}
	if err := validate.RegisterValidation(shortNameTag, func(fl validator.FieldLevel) bool {
		return shortNamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", shortNameTag, err))
	}
	return &TemplateValidator{validate: validate}
}

// Validate runs the checks in order: required fields, season requirement, non-negative numbers,
// short name pattern, then date formats.
func (v *TemplateValidator) Validate(draft dto.TemplateDraft) dto.ValidationResult {
	var errs, warnings []string

	required := []struct {
		name  string
		value string
	}{
		{"classType", draft.ClassType},
		{"taskKind", draft.TaskKind},
		{"shortName", draft.ShortName},
		{"title", draft.Title},
		{"frequency", draft.Frequency},
	}
	for _, field := range required {
		if v.validate.Var(strings.TrimSpace(field.value), "required") != nil {
			errs = append(errs, fmt.Sprintf("%s is required", field.name))
		}
	}
	if kind := strings.TrimSpace(draft.TaskKind); kind != "" && !models.TaskKind(strings.ToLower(kind)).Valid() {
		errs = append(errs, fmt.Sprintf("taskKind %q must be one of repair, maintenance, inspection", kind))
	}

	frequency, known := scheduling.ParseFrequency(draft.Frequency)
	if strings.TrimSpace(draft.Frequency) != "" && !known {
		warnings = append(warnings, fmt.Sprintf("frequency %q is not recognised and will be scheduled as annual", draft.Frequency))
	}

	season := ""
	if draft.Season != nil {
		season = strings.TrimSpace(*draft.Season)
	}
	if frequency.RequiresSeason() {
		if v.validate.Var(season, "required") != nil {
			errs = append(errs, fmt.Sprintf("season is required when frequency is %s", frequency))
		} else if v.validate.Var(season, "oneof=Halloween Christmas Shared") != nil {
			errs = append(errs, fmt.Sprintf("season %q must be one of Halloween, Christmas, Shared", season))
		}
	} else if season != "" {
		warnings = append(warnings, "season is only used by seasonal and pre_season templates and will be cleared")
	}

	if draft.EstimatedCost != nil && draft.EstimatedCost.IsNegative() {
		errs = append(errs, "estimatedCost must be zero or greater")
	}
	if draft.EstimatedDurationMinutes != nil && v.validate.Var(*draft.EstimatedDurationMinutes, "gte=0") != nil {
		errs = append(errs, "estimatedDurationMinutes must be zero or greater")
	}
	if draft.DaysBeforeReminder != nil && v.validate.Var(*draft.DaysBeforeReminder, "gte=0") != nil {
		errs = append(errs, "daysBeforeReminder must be zero or greater")
	}

	// an empty short name is already reported as missing
	if name := draft.ShortName; name != "" && v.validate.Var(name, shortNameTag) != nil {
		errs = append(errs, "shortName may only contain uppercase letters, digits and underscores")
	}

	if draft.StartDate != nil && *draft.StartDate != "" && v.validate.Var(*draft.StartDate, "datetime=2006-01-02") != nil {
		errs = append(errs, "startDate must be formatted as YYYY-MM-DD")
	}

	if strings.EqualFold(strings.TrimSpace(draft.Category), models.CategoryUncategorized) {
		warnings = append(warnings, "category is the legacy Uncategorized placeholder; pick a specific category")
	}

	return dto.ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   nonNil(errs),
		Warnings: warnings,
	}
}

// DraftFromTemplate renders a stored template back into draft form for re-validation.
func DraftFromTemplate(t *models.ScheduleTemplate) dto.TemplateDraft {
	draft := dto.TemplateDraft{
		ClassType:                string(t.ClassType),
		TaskKind:                 string(t.TaskKind),
		Category:                 t.Category,
		ShortName:                t.ShortName,
		Title:                    t.Title,
		Description:              t.Description,
		Frequency:                string(t.Frequency),
		IsDefault:                t.IsDefault,
		Enabled:                  &t.Enabled,
		EstimatedDurationMinutes: t.EstimatedDurationMinutes,
		DaysBeforeReminder:       &t.DaysBeforeReminder,
	}
	if t.Season != nil {
		season := string(*t.Season)
		draft.Season = &season
	}
	if t.StartDate != nil {
		start := t.StartDate.Format(dto.DateLayout)
		draft.StartDate = &start
	}
	if t.EstimatedCost.Valid {
		cost := t.EstimatedCost.Decimal
		draft.EstimatedCost = &cost
	}
	return draft
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
