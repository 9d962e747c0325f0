package outreach

import (
	"context"
	"errors"
	"testing"

	"github.com/consultaflow/practice-scheduling/internal/scheduling"
)

func TestGetSettingsInstallsDefaults(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	svc := NewService(repo)

	settings, err := svc.GetSettings(context.Background(), profID)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.Mode != scheduling.ModeConfirmFirst {
		t.Fatalf("expected default mode A, got %s", settings.Mode)
	}
	if !settings.EnableD1 || !settings.EnableH3 {
		t.Fatal("reminders should default to enabled")
	}
	if settings.CancelWindowHours != 12 {
		t.Fatalf("expected default 12h cancel window, got %d", settings.CancelWindowHours)
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.GetSettings(ctx, profID); err != nil {
		t.Fatalf("get settings: %v", err)
	}

	valid := scheduling.DefaultAutomationSettings(profID)
	valid.Mode = scheduling.ModeOfferFirst
	valid.WeeklyInviteDay = 2
	valid.WeeklyInviteHour = 9

	updated, err := svc.UpdateSettings(ctx, valid)
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.Mode != scheduling.ModeOfferFirst || updated.WeeklyInviteDay != 2 {
		t.Fatalf("update not applied: %+v", updated)
	}

	cases := []func(s *scheduling.AutomationSettings){
		func(s *scheduling.AutomationSettings) { s.Mode = "D" },
		func(s *scheduling.AutomationSettings) { s.WeeklyInviteDay = 7 },
		func(s *scheduling.AutomationSettings) { s.WeeklyInviteHour = 24 },
		func(s *scheduling.AutomationSettings) { s.CancelWindowHours = 0 },
		func(s *scheduling.AutomationSettings) { s.CancelWindowHours = 72 },
	}
	for i, mutate := range cases {
		bad := valid
		mutate(&bad)
		if _, err := svc.UpdateSettings(ctx, bad); !errors.Is(err, ErrSettingsInvalid) {
			t.Fatalf("case %d: expected ErrSettingsInvalid, got %v", i, err)
		}
	}
}

func TestListTemplatesInstallsAllKinds(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	svc := NewService(repo)

	templates, err := svc.ListTemplates(context.Background(), profID)
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if len(templates) != 6 {
		t.Fatalf("expected 6 templates, got %d", len(templates))
	}
	seen := make(map[TemplateKind]bool)
	for _, tpl := range templates {
		seen[tpl.Kind] = true
	}
	for _, kind := range []TemplateKind{TemplateConsent, TemplateInvite, TemplateOffer, TemplateConfirm, TemplateReminder, TemplateNoShow} {
		if !seen[kind] {
			t.Fatalf("missing template kind %s", kind)
		}
	}
}

func TestUpdateTemplate(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	svc := NewService(repo)
	ctx := context.Background()

	tpl, err := svc.UpdateTemplate(ctx, profID, TemplateReminder, "See you {when}!", []string{"OK"})
	if err != nil {
		t.Fatalf("update template: %v", err)
	}
	if tpl.Content != "See you {when}!" {
		t.Fatalf("content not updated: %q", tpl.Content)
	}

	if _, err := svc.UpdateTemplate(ctx, profID, "greeting", "hi", nil); !errors.Is(err, ErrSettingsInvalid) {
		t.Fatalf("expected ErrSettingsInvalid for unknown kind, got %v", err)
	}
	if _, err := svc.UpdateTemplate(ctx, profID, TemplateInvite, "", nil); !errors.Is(err, ErrSettingsInvalid) {
		t.Fatalf("expected ErrSettingsInvalid for empty content, got %v", err)
	}
}
