// Package validation checks a project submission before anything is written.
// Every check is pure; the first failure is reported with the offending field.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
)

// ErrValidation is the kind every ValidationError unwraps to
var ErrValidation = errors.New("validation failed")

// ValidationError names the field that failed and why
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var validate = validator.New()

// Email reports whether s is a syntactically valid email address
func Email(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// AbsoluteURL reports whether s is a well-formed URL with a scheme and host
func AbsoluteURL(s string) bool {
	return validate.Var(s, "required,url") == nil
}

// Submission runs every creation-time check in order and returns the first failure
func Submission(s *models.ProjectSubmission) error {
	if s == nil {
		return Invalid("body", "is required")
	}

	required := []struct {
		field string
		value string
	}{
		{"title", s.Title},
		{"vision", s.Vision},
		{"category", s.Category},
		{"description", s.Description},
		{"logo", s.Logo},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Invalid(r.field, "is required")
		}
	}

	if !s.FundingAmount.IsPositive() {
		return Invalid("fundingAmount", "must be a positive amount")
	}

	if err := milestones(s.Milestones); err != nil {
		return err
	}
	if err := team(s.Team); err != nil {
		return err
	}
	if err := socialLinks(s.SocialLinks); err != nil {
		return err
	}

	for i, link := range s.RepositoryLinks {
		if !AbsoluteURL(link) {
			return Invalid(fmt.Sprintf("repositoryLinks[%d]", i), "must be an absolute URL")
		}
	}
	if s.Website != "" && !AbsoluteURL(s.Website) {
		return Invalid("website", "must be an absolute URL")
	}
	if s.DemoVideo != "" && !AbsoluteURL(s.DemoVideo) {
		return Invalid("demoVideo", "must be an absolute URL")
	}
	return nil
}

func milestones(list []models.MilestoneSubmission) error {
	if len(list) == 0 {
		return Invalid("milestones", "at least one milestone is required")
	}
	for i, m := range list {
		field := fmt.Sprintf("milestones[%d]", i)
		if strings.TrimSpace(m.Title) == "" {
			return Invalid(field+".title", "is required")
		}
		if strings.TrimSpace(m.Description) == "" {
			return Invalid(field+".description", "is required")
		}
		if m.StartDate.IsZero() || m.EndDate.IsZero() {
			return Invalid(field, "startDate and endDate are required")
		}
		if !m.StartDate.Before(m.EndDate) {
			return Invalid(field, "startDate must be before endDate")
		}
	}
	return nil
}

func team(members []models.TeamMember) error {
	if len(members) == 0 {
		return Invalid("team", "at least one team member is required")
	}
	for i, member := range members {
		if !Email(member.Email) {
			return Invalid(fmt.Sprintf("team[%d].email", i), "must be a valid email address")
		}
	}
	return nil
}

func socialLinks(links []models.SocialLink) error {
	if len(links) == 0 {
		return Invalid("socialLinks", "at least one social link is required")
	}
	for i, link := range links {
		field := fmt.Sprintf("socialLinks[%d]", i)
		if strings.TrimSpace(link.Platform) == "" {
			return Invalid(field+".platform", "is required")
		}
		if !AbsoluteURL(link.URL) {
			return Invalid(field+".url", "must be an absolute URL")
		}
	}
	return nil
}
