package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Timezone,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var status string

	err := row.Scan(
		&p.ID,
		&p.ProfessionalID,
		&p.Name,
		&p.Phone,
		&status,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Status = PatientStatus(status)
	return &p, nil
}

func scanRule(row pgx.Row) (*AvailabilityRule, error) {
	var r AvailabilityRule
	var startMin, endMin int

	err := row.Scan(
		&r.ID,
		&r.ProfessionalID,
		&r.Weekday,
		&startMin,
		&endMin,
		&r.SessionMin,
		&r.BreakMin,
		&r.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	r.StartTime = TimeOfDay(startMin)
	r.EndTime = TimeOfDay(endMin)
	return &r, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var mode, status, source string

	err := row.Scan(
		&a.ID,
		&a.ProfessionalID,
		&a.PatientID,
		&a.Start,
		&a.End,
		&mode,
		&status,
		&source,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Mode = AppointmentMode(mode)
	a.Status = AppointmentStatus(status)
	a.Source = AppointmentSource(source)
	return &a, nil
}

const appointmentColumns = `id, professional_id, patient_id, start_at, end_at, mode, status, source, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, timezone, created_at
		FROM professionals
		WHERE id = $1
	`, id)
	return scanProfessional(row)
}

func (r *PgRepository) ListProfessionals(ctx context.Context) ([]Professional, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, timezone, created_at
		FROM professionals
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, professional_id, name, phone, status, created_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) ListPatientsByStatus(ctx context.Context, professionalID uuid.UUID, status PatientStatus) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, name, phone, status, created_at
		FROM patients
		WHERE professional_id = $1 AND status = $2
		ORDER BY name
	`, professionalID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListRules(ctx context.Context, professionalID uuid.UUID) ([]AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, weekday, start_min, end_min, session_min, break_min, active
		FROM availability_rules
		WHERE professional_id = $1
		ORDER BY weekday, start_min
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilityRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpsertRule(ctx context.Context, rule *AvailabilityRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_rules (id, professional_id, weekday, start_min, end_min, session_min, break_min, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			weekday = EXCLUDED.weekday,
			start_min = EXCLUDED.start_min,
			end_min = EXCLUDED.end_min,
			session_min = EXCLUDED.session_min,
			break_min = EXCLUDED.break_min,
			active = EXCLUDED.active
		WHERE availability_rules.professional_id = EXCLUDED.professional_id
	`, rule.ID, rule.ProfessionalID, rule.Weekday, int(rule.StartTime), int(rule.EndTime),
		rule.SessionMin, rule.BreakMin, rule.Active)
	if err != nil {
		return fmt.Errorf("upsert availability rule: %w", err)
	}

	return nil
}

func (r *PgRepository) DeleteRule(ctx context.Context, professionalID, ruleID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_rules
		WHERE id = $1 AND professional_id = $2
	`, ruleID, professionalID)
	if err != nil {
		return fmt.Errorf("delete availability rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}

	return nil
}

func (r *PgRepository) ListBlackouts(ctx context.Context, professionalID uuid.UUID) ([]BlackoutDate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, date, reason
		FROM blackout_dates
		WHERE professional_id = $1
		ORDER BY date
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BlackoutDate
	for rows.Next() {
		var b BlackoutDate
		if err := rows.Scan(&b.ID, &b.ProfessionalID, &b.Date, &b.Reason); err != nil {
			return nil, err
		}
		result = append(result, b)
	}

	return result, rows.Err()
}

func (r *PgRepository) AddBlackout(ctx context.Context, blackout *BlackoutDate) error {
	if blackout.ID == uuid.Nil {
		blackout.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO blackout_dates (id, professional_id, date, reason)
		VALUES ($1, $2, $3, $4)
	`, blackout.ID, blackout.ProfessionalID, blackout.Date, blackout.Reason)
	if err != nil {
		return fmt.Errorf("insert blackout date: %w", err)
	}

	return nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE professional_id = $1
		  AND start_at >= $2
		  AND start_at < $3
		ORDER BY start_at
	`, professionalID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateAppointmentIfFree(ctx context.Context, appt *Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var conflicts int
	err = tx.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE professional_id = $1
		  AND status IN ('scheduled', 'confirmed')
		  AND start_at < $3
		  AND end_at > $2
	`, appt.ProfessionalID, appt.Start, appt.End).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("check booking conflicts: %w", err)
	}
	if conflicts > 0 {
		return ErrSlotConflict
	}

	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, professional_id, patient_id, start_at, end_at, mode, status, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.ProfessionalID, appt.PatientID, appt.Start, appt.End,
		string(appt.Mode), string(appt.Status), string(appt.Source))

	created, err := scanAppointment(row)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}

	*appt = *created
	return nil
}

func (r *PgRepository) RescheduleAppointmentIfFree(ctx context.Context, id uuid.UUID, newStart, newEnd time.Time) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reschedule tx: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return nil, err
	}

	var conflicts int
	err = tx.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE professional_id = $1
		  AND id <> $2
		  AND status IN ('scheduled', 'confirmed')
		  AND start_at < $4
		  AND end_at > $3
	`, current.ProfessionalID, id, newStart, newEnd).Scan(&conflicts)
	if err != nil {
		return nil, fmt.Errorf("check reschedule conflicts: %w", err)
	}
	if conflicts > 0 {
		return nil, ErrSlotConflict
	}

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET start_at = $2,
		    end_at = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, newStart, newEnd)

	updated, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("update appointment times: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reschedule tx: %w", err)
	}

	return updated, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, string(to), string(from))

	return scanAppointment(row)
}
