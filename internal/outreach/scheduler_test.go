package outreach

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/consultaflow/practice-scheduling/internal/scheduling"
	"github.com/consultaflow/practice-scheduling/internal/timezone"
)

type memRepo struct {
	mu            sync.Mutex
	professionals []scheduling.Professional
	patients      map[uuid.UUID]*scheduling.Patient
	appointments  []scheduling.Appointment
	settings      map[uuid.UUID]*scheduling.AutomationSettings
	templates     map[string]*Template
	markers       map[string]bool
	logs          []MessageLog
}

func newOutreachMemRepo() *memRepo {
	return &memRepo{
		patients:  make(map[uuid.UUID]*scheduling.Patient),
		settings:  make(map[uuid.UUID]*scheduling.AutomationSettings),
		templates: make(map[string]*Template),
		markers:   make(map[string]bool),
	}
}

func (r *memRepo) ListProfessionals(_ context.Context) ([]scheduling.Professional, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]scheduling.Professional, len(r.professionals))
	copy(out, r.professionals)
	return out, nil
}

func (r *memRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*scheduling.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, scheduling.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) ListActivePatients(_ context.Context, professionalID uuid.UUID) ([]scheduling.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []scheduling.Patient
	for _, p := range r.patients {
		if p.ProfessionalID == professionalID && p.Status == scheduling.PatientActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memRepo) ListConfirmedBetween(_ context.Context, professionalID uuid.UUID, from, to time.Time) ([]scheduling.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []scheduling.Appointment
	for _, a := range r.appointments {
		if a.ProfessionalID != professionalID || a.Status != scheduling.StatusConfirmed {
			continue
		}
		if a.Start.Before(from) || a.Start.After(to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *memRepo) GetOrCreateSettings(_ context.Context, professionalID uuid.UUID) (*scheduling.AutomationSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.settings[professionalID]; ok {
		cp := *s
		return &cp, nil
	}
	defaults := scheduling.DefaultAutomationSettings(professionalID)
	r.settings[professionalID] = &defaults
	cp := defaults
	return &cp, nil
}

func (r *memRepo) UpdateSettings(_ context.Context, settings *scheduling.AutomationSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.settings[settings.ProfessionalID]
	if !ok {
		return scheduling.ErrProfessionalNotFound
	}
	settings.ID = existing.ID
	cp := *settings
	r.settings[settings.ProfessionalID] = &cp
	return nil
}

func (r *memRepo) GetOrCreateTemplate(_ context.Context, professionalID uuid.UUID, kind TemplateKind) (*Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := professionalID.String() + "|" + string(kind)
	if t, ok := r.templates[key]; ok {
		cp := *t
		return &cp, nil
	}
	defaults := DefaultTemplate(professionalID, kind)
	r.templates[key] = &defaults
	cp := defaults
	return &cp, nil
}

func (r *memRepo) ListTemplates(_ context.Context, professionalID uuid.UUID) ([]Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Template
	for _, t := range r.templates {
		if t.ProfessionalID == professionalID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateTemplate(_ context.Context, professionalID uuid.UUID, kind TemplateKind, content string, buttons []string) (*Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if buttons == nil {
		buttons = []string{}
	}
	t := Template{
		ID:             uuid.New(),
		ProfessionalID: professionalID,
		Kind:           kind,
		Content:        content,
		Buttons:        buttons,
	}
	r.templates[professionalID.String()+"|"+string(kind)] = &t
	cp := t
	return &cp, nil
}

func (r *memRepo) MarkSent(_ context.Context, professionalID uuid.UUID, kind EventKind, periodKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s|%s|%s", professionalID, kind, periodKey)
	if r.markers[key] {
		return false, nil
	}
	r.markers[key] = true
	return true, nil
}

func (r *memRepo) InsertMessageLog(_ context.Context, entry MessageLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.logs = append(r.logs, entry)
	return nil
}

func (r *memRepo) addProfessional(zone string) uuid.UUID {
	id := uuid.New()
	r.professionals = append(r.professionals, scheduling.Professional{
		ID:       id,
		Name:     "Dr. Silva",
		Email:    "silva@example.com",
		Timezone: zone,
	})
	return id
}

func (r *memRepo) addPatient(professionalID uuid.UUID, status scheduling.PatientStatus) uuid.UUID {
	id := uuid.New()
	r.patients[id] = &scheduling.Patient{
		ID:             id,
		ProfessionalID: professionalID,
		Name:           "Ana",
		Phone:          "+5511999990000",
		Status:         status,
	}
	return id
}

func (r *memRepo) addConfirmed(professionalID, patientID uuid.UUID, start time.Time) uuid.UUID {
	id := uuid.New()
	r.appointments = append(r.appointments, scheduling.Appointment{
		ID:             id,
		ProfessionalID: professionalID,
		PatientID:      patientID,
		Start:          start,
		End:            start.Add(50 * time.Minute),
		Status:         scheduling.StatusConfirmed,
	})
	return id
}

// 2026-09-07 10:30 UTC is a Monday inside the default invite hour (10).
var tickNow = time.Date(2026, time.September, 7, 10, 30, 0, 0, time.UTC)

func countKind(intents []SendIntent, kind EventKind) int {
	n := 0
	for _, in := range intents {
		if in.Kind == kind {
			n++
		}
	}
	return n
}

func TestRunTickWeeklyInviteAtDueHour(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	repo.addPatient(profID, scheduling.PatientActive)
	repo.addPatient(profID, scheduling.PatientActive)
	repo.addPatient(profID, scheduling.PatientPaused)

	s := NewScheduler(repo, timezone.NewAdapter())
	result, err := s.RunTick(context.Background(), tickNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if result.Failures != 0 {
		t.Fatalf("unexpected failures: %d", result.Failures)
	}
	if got := countKind(result.Intents, KindWeeklyInvite); got != 2 {
		t.Fatalf("expected 2 invite intents (active patients only), got %d", got)
	}
	for _, in := range result.Intents {
		if in.Content == "" || in.Phone == "" {
			t.Fatalf("intent missing content or phone: %+v", in)
		}
	}
}

func TestRunTickWeeklyInviteIsIdempotentPerWeek(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	repo.addPatient(profID, scheduling.PatientActive)

	s := NewScheduler(repo, timezone.NewAdapter())
	ctx := context.Background()

	first, err := s.RunTick(ctx, tickNow)
	if err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if countKind(first.Intents, KindWeeklyInvite) != 1 {
		t.Fatalf("expected 1 invite on first tick, got %d", len(first.Intents))
	}

	// Still inside the due hour five minutes later.
	second, err := s.RunTick(ctx, tickNow.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if countKind(second.Intents, KindWeeklyInvite) != 0 {
		t.Fatalf("second tick re-emitted the weekly invite")
	}
}

func TestRunTickSkipsInvitesOffSchedule(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	repo.addPatient(profID, scheduling.PatientActive)

	s := NewScheduler(repo, timezone.NewAdapter())

	// Wrong hour.
	result, err := s.RunTick(context.Background(), tickNow.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if countKind(result.Intents, KindWeeklyInvite) != 0 {
		t.Fatal("invite emitted outside the configured hour")
	}

	// Wrong weekday.
	result, err = s.RunTick(context.Background(), tickNow.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if countKind(result.Intents, KindWeeklyInvite) != 0 {
		t.Fatal("invite emitted on the wrong weekday")
	}
}

func TestRunTickReminderOnlyModeSkipsInvites(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	patientID := repo.addPatient(profID, scheduling.PatientActive)

	settings := scheduling.DefaultAutomationSettings(profID)
	settings.Mode = scheduling.ModeReminderOnly
	repo.settings[profID] = &settings

	repo.addConfirmed(profID, patientID, tickNow.Add(24*time.Hour))

	s := NewScheduler(repo, timezone.NewAdapter())
	result, err := s.RunTick(context.Background(), tickNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if countKind(result.Intents, KindWeeklyInvite) != 0 {
		t.Fatal("mode C professional received a weekly invite")
	}
	if countKind(result.Intents, KindReminderD1) != 1 {
		t.Fatal("mode C professional should still get reminders")
	}
}

func TestRunTickD1Window(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	patientID := repo.addPatient(profID, scheduling.PatientActive)

	repo.addConfirmed(profID, patientID, tickNow.Add(24*time.Hour))  // inside
	repo.addConfirmed(profID, patientID, tickNow.Add(30*time.Hour))  // outside
	repo.addConfirmed(profID, patientID, tickNow.Add(-24*time.Hour)) // past

	s := NewScheduler(repo, timezone.NewAdapter())
	result, err := s.RunTick(context.Background(), tickNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}

	if got := countKind(result.Intents, KindReminderD1); got != 1 {
		t.Fatalf("expected 1 d1 reminder, got %d", got)
	}
	for _, in := range result.Intents {
		if in.Kind != KindReminderD1 {
			continue
		}
		if want := "tomorrow at 10:30"; !strings.Contains(in.Content, want) {
			t.Fatalf("d1 content %q does not mention %q", in.Content, want)
		}
	}
}

func TestRunTickH3Window(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	patientID := repo.addPatient(profID, scheduling.PatientActive)

	repo.addConfirmed(profID, patientID, tickNow.Add(3*time.Hour))

	s := NewScheduler(repo, timezone.NewAdapter())
	result, err := s.RunTick(context.Background(), tickNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}

	if got := countKind(result.Intents, KindReminderH3); got != 1 {
		t.Fatalf("expected 1 h3 reminder, got %d", got)
	}
	for _, in := range result.Intents {
		if in.Kind == KindReminderH3 && !strings.Contains(in.Content, "today at 13:30") {
			t.Fatalf("h3 content %q does not mention the local time", in.Content)
		}
	}
}

func TestRunTickRemindersAreIdempotentPerAppointment(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	patientID := repo.addPatient(profID, scheduling.PatientActive)
	repo.addConfirmed(profID, patientID, tickNow.Add(24*time.Hour))

	s := NewScheduler(repo, timezone.NewAdapter())
	ctx := context.Background()

	if _, err := s.RunTick(ctx, tickNow); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	second, err := s.RunTick(ctx, tickNow.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if got := countKind(second.Intents, KindReminderD1); got != 0 {
		t.Fatalf("second tick re-emitted %d d1 reminders", got)
	}
}

func TestRunTickSkipsOptedOutPatients(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	optout := repo.addPatient(profID, scheduling.PatientOptOut)
	repo.addConfirmed(profID, optout, tickNow.Add(24*time.Hour))

	s := NewScheduler(repo, timezone.NewAdapter())
	result, err := s.RunTick(context.Background(), tickNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := countKind(result.Intents, KindReminderD1); got != 0 {
		t.Fatalf("opted-out patient received %d reminders", got)
	}
}

func TestRunTickDisabledRemindersSkipped(t *testing.T) {
	repo := newOutreachMemRepo()
	profID := repo.addProfessional("UTC")
	patientID := repo.addPatient(profID, scheduling.PatientActive)
	repo.addConfirmed(profID, patientID, tickNow.Add(24*time.Hour))
	repo.addConfirmed(profID, patientID, tickNow.Add(3*time.Hour))

	settings := scheduling.DefaultAutomationSettings(profID)
	settings.EnableD1 = false
	settings.EnableH3 = false
	repo.settings[profID] = &settings

	s := NewScheduler(repo, timezone.NewAdapter())
	result, err := s.RunTick(context.Background(), tickNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if countKind(result.Intents, KindReminderD1)+countKind(result.Intents, KindReminderH3) != 0 {
		t.Fatalf("disabled reminders were emitted: %+v", result.Intents)
	}
}

func TestRunTickIsolatesPerProfessionalFailures(t *testing.T) {
	repo := newOutreachMemRepo()
	repo.addProfessional("Not/AZone")
	healthy := repo.addProfessional("UTC")
	patientID := repo.addPatient(healthy, scheduling.PatientActive)
	repo.addConfirmed(healthy, patientID, tickNow.Add(24*time.Hour))

	s := NewScheduler(repo, timezone.NewAdapter())
	result, err := s.RunTick(context.Background(), tickNow)
	if err != nil {
		t.Fatalf("tick must not fail outright: %v", err)
	}
	if result.Failures == 0 {
		t.Fatal("broken zone should be counted as a failure")
	}
	if got := countKind(result.Intents, KindReminderD1); got != 1 {
		t.Fatalf("healthy professional starved by a broken one, got %d reminders", got)
	}
}
