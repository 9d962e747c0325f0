package outreach

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/consultaflow/practice-scheduling/internal/scheduling"
)

// Service covers the caller-facing automation operations: settings and
// message templates.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetSettings(ctx context.Context, professionalID uuid.UUID) (*scheduling.AutomationSettings, error) {
	return s.repo.GetOrCreateSettings(ctx, professionalID)
}

func (s *Service) UpdateSettings(ctx context.Context, settings scheduling.AutomationSettings) (*scheduling.AutomationSettings, error) {
	if err := validateSettings(settings); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSettings(ctx, &settings); err != nil {
		return nil, err
	}
	return s.repo.GetOrCreateSettings(ctx, settings.ProfessionalID)
}

func validateSettings(s scheduling.AutomationSettings) error {
	switch s.Mode {
	case scheduling.ModeConfirmFirst, scheduling.ModeOfferFirst, scheduling.ModeReminderOnly:
	default:
		return fmt.Errorf("%w: mode must be A, B or C", ErrSettingsInvalid)
	}
	if s.WeeklyInviteDay < 0 || s.WeeklyInviteDay > 6 {
		return fmt.Errorf("%w: weekly invite weekday must be 0-6", ErrSettingsInvalid)
	}
	if s.WeeklyInviteHour < 0 || s.WeeklyInviteHour > 23 {
		return fmt.Errorf("%w: weekly invite hour must be 0-23", ErrSettingsInvalid)
	}
	if s.CancelWindowHours < 1 || s.CancelWindowHours > 48 {
		return fmt.Errorf("%w: cancel window must be 1-48 hours", ErrSettingsInvalid)
	}
	return nil
}

// ListTemplates returns all template kinds, installing defaults for any the
// professional has not customized yet.
func (s *Service) ListTemplates(ctx context.Context, professionalID uuid.UUID) ([]Template, error) {
	kinds := []TemplateKind{
		TemplateConsent, TemplateInvite, TemplateOffer,
		TemplateConfirm, TemplateReminder, TemplateNoShow,
	}
	for _, kind := range kinds {
		if _, err := s.repo.GetOrCreateTemplate(ctx, professionalID, kind); err != nil {
			return nil, err
		}
	}
	return s.repo.ListTemplates(ctx, professionalID)
}

func (s *Service) UpdateTemplate(ctx context.Context, professionalID uuid.UUID, kind TemplateKind, content string, buttons []string) (*Template, error) {
	if !ValidTemplateKind(kind) {
		return nil, fmt.Errorf("%w: unknown template kind %q", ErrSettingsInvalid, kind)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrSettingsInvalid)
	}
	return s.repo.UpdateTemplate(ctx, professionalID, kind, content, buttons)
}
