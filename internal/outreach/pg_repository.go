package outreach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consultaflow/practice-scheduling/internal/scheduling"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) ListProfessionals(ctx context.Context) ([]scheduling.Professional, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, timezone, created_at
		FROM professionals
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []scheduling.Professional
	for rows.Next() {
		var p scheduling.Professional
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Timezone, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*scheduling.Patient, error) {
	var p scheduling.Patient
	var status string

	err := r.pool.QueryRow(ctx, `
		SELECT id, professional_id, name, phone, status, created_at
		FROM patients
		WHERE id = $1
	`, id).Scan(&p.ID, &p.ProfessionalID, &p.Name, &p.Phone, &status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scheduling.ErrPatientNotFound
		}
		return nil, err
	}

	p.Status = scheduling.PatientStatus(status)
	return &p, nil
}

func (r *PgRepository) ListActivePatients(ctx context.Context, professionalID uuid.UUID) ([]scheduling.Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, name, phone, status, created_at
		FROM patients
		WHERE professional_id = $1 AND status = 'active'
		ORDER BY name
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []scheduling.Patient
	for rows.Next() {
		var p scheduling.Patient
		var status string
		if err := rows.Scan(&p.ID, &p.ProfessionalID, &p.Name, &p.Phone, &status, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Status = scheduling.PatientStatus(status)
		result = append(result, p)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListConfirmedBetween(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]scheduling.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, patient_id, start_at, end_at, mode, status, source, created_at, updated_at
		FROM appointments
		WHERE professional_id = $1
		  AND status = 'confirmed'
		  AND start_at >= $2
		  AND start_at <= $3
		ORDER BY start_at
	`, professionalID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []scheduling.Appointment
	for rows.Next() {
		var a scheduling.Appointment
		var mode, status, source string
		err := rows.Scan(&a.ID, &a.ProfessionalID, &a.PatientID, &a.Start, &a.End,
			&mode, &status, &source, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		a.Mode = scheduling.AppointmentMode(mode)
		a.Status = scheduling.AppointmentStatus(status)
		a.Source = scheduling.AppointmentSource(source)
		result = append(result, a)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetOrCreateSettings(ctx context.Context, professionalID uuid.UUID) (*scheduling.AutomationSettings, error) {
	defaults := scheduling.DefaultAutomationSettings(professionalID)

	// Insert defaults only when no row exists yet, then read back whichever
	// row won.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO automation_settings (id, professional_id, mode, weekly_invite_weekday, weekly_invite_hour, cancel_window_hours, enable_d1, enable_h3)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (professional_id) DO NOTHING
	`, defaults.ID, defaults.ProfessionalID, string(defaults.Mode), defaults.WeeklyInviteDay,
		defaults.WeeklyInviteHour, defaults.CancelWindowHours, defaults.EnableD1, defaults.EnableH3)
	if err != nil {
		return nil, fmt.Errorf("insert default automation settings: %w", err)
	}

	var s scheduling.AutomationSettings
	var mode string
	err = r.pool.QueryRow(ctx, `
		SELECT id, professional_id, mode, weekly_invite_weekday, weekly_invite_hour, cancel_window_hours, enable_d1, enable_h3
		FROM automation_settings
		WHERE professional_id = $1
	`, professionalID).Scan(&s.ID, &s.ProfessionalID, &mode, &s.WeeklyInviteDay,
		&s.WeeklyInviteHour, &s.CancelWindowHours, &s.EnableD1, &s.EnableH3)
	if err != nil {
		return nil, err
	}

	s.Mode = scheduling.AutomationMode(mode)
	return &s, nil
}

func (r *PgRepository) UpdateSettings(ctx context.Context, settings *scheduling.AutomationSettings) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE automation_settings
		SET mode = $2,
		    weekly_invite_weekday = $3,
		    weekly_invite_hour = $4,
		    cancel_window_hours = $5,
		    enable_d1 = $6,
		    enable_h3 = $7
		WHERE professional_id = $1
	`, settings.ProfessionalID, string(settings.Mode), settings.WeeklyInviteDay,
		settings.WeeklyInviteHour, settings.CancelWindowHours, settings.EnableD1, settings.EnableH3)
	if err != nil {
		return fmt.Errorf("update automation settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scheduling.ErrProfessionalNotFound
	}

	return nil
}

func (r *PgRepository) GetOrCreateTemplate(ctx context.Context, professionalID uuid.UUID, kind TemplateKind) (*Template, error) {
	defaults := DefaultTemplate(professionalID, kind)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO message_templates (id, professional_id, kind, content, buttons)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (professional_id, kind) DO NOTHING
	`, defaults.ID, defaults.ProfessionalID, string(defaults.Kind), defaults.Content, defaults.Buttons)
	if err != nil {
		return nil, fmt.Errorf("insert default template: %w", err)
	}

	return r.getTemplate(ctx, professionalID, kind)
}

func (r *PgRepository) getTemplate(ctx context.Context, professionalID uuid.UUID, kind TemplateKind) (*Template, error) {
	var t Template
	var kindStr string

	err := r.pool.QueryRow(ctx, `
		SELECT id, professional_id, kind, content, buttons
		FROM message_templates
		WHERE professional_id = $1 AND kind = $2
	`, professionalID, string(kind)).Scan(&t.ID, &t.ProfessionalID, &kindStr, &t.Content, &t.Buttons)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	t.Kind = TemplateKind(kindStr)
	return &t, nil
}

func (r *PgRepository) ListTemplates(ctx context.Context, professionalID uuid.UUID) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, kind, content, buttons
		FROM message_templates
		WHERE professional_id = $1
		ORDER BY kind
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Template
	for rows.Next() {
		var t Template
		var kindStr string
		if err := rows.Scan(&t.ID, &t.ProfessionalID, &kindStr, &t.Content, &t.Buttons); err != nil {
			return nil, err
		}
		t.Kind = TemplateKind(kindStr)
		result = append(result, t)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateTemplate(ctx context.Context, professionalID uuid.UUID, kind TemplateKind, content string, buttons []string) (*Template, error) {
	if buttons == nil {
		buttons = []string{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO message_templates (id, professional_id, kind, content, buttons)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (professional_id, kind) DO UPDATE SET
			content = EXCLUDED.content,
			buttons = EXCLUDED.buttons
	`, uuid.New(), professionalID, string(kind), content, buttons)
	if err != nil {
		return nil, fmt.Errorf("upsert template: %w", err)
	}

	return r.getTemplate(ctx, professionalID, kind)
}

// MarkSent relies on the primary key of outreach_events: the insert either
// lands (first caller wins) or hits the conflict and affects zero rows.
func (r *PgRepository) MarkSent(ctx context.Context, professionalID uuid.UUID, kind EventKind, periodKey string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO outreach_events (professional_id, kind, period_key, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (professional_id, kind, period_key) DO NOTHING
	`, professionalID, string(kind), periodKey)
	if err != nil {
		return false, fmt.Errorf("mark outreach event: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) InsertMessageLog(ctx context.Context, entry MessageLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO message_logs (id, professional_id, patient_id, kind, content, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, entry.ID, entry.ProfessionalID, entry.PatientID, string(entry.Kind), entry.Content, entry.Status)
	if err != nil {
		return fmt.Errorf("insert message log: %w", err)
	}

	return nil
}
