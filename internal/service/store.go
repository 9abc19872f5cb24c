package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vehiclemodels/internal/core"
)

// Store persists technicians, service appointments and the inventory VINs
// used to flag VIP appointments.
type Store interface {
	ListTechnicians(ctx context.Context) ([]Technician, error)
	CreateTechnician(ctx context.Context, in TechnicianInput) (Technician, error)
	DeleteTechnician(ctx context.Context, id int64) (Technician, error)

	ListAppointments(ctx context.Context) ([]Appointment, error)
	ListHistory(ctx context.Context, vin string) ([]Appointment, error)
	CreateAppointment(ctx context.Context, in AppointmentInput) (Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, patch AppointmentPatch) (Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) (Appointment, error)

	ListAutomobiles(ctx context.Context) ([]AutomobileVO, error)
	AddAutomobile(ctx context.Context, vin string) (AutomobileVO, error)

	Close() error
}

// SQLStore implements Store on SQLite or PostgreSQL.
type SQLStore struct {
	db     *sql.DB
	dbType DBType
	logger core.Logger
}

var _ Store = (*SQLStore)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	id := idColumn(s.dbType)
	// Timestamps are RFC 3339 UTC text, which sorts correctly and works on
	// both dialects.
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS technicians (
		%s,
		name TEXT NOT NULL,
		employee_number BIGINT NOT NULL
	)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS automobiles (
		%s,
		vin TEXT NOT NULL UNIQUE
	)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS appointments (
		%s,
		vin TEXT NOT NULL,
		owner TEXT NOT NULL,
		date_time TEXT NOT NULL,
		reason TEXT NOT NULL,
		finished BOOLEAN NOT NULL DEFAULT FALSE,
		technician_id BIGINT NOT NULL REFERENCES technicians(id) ON DELETE RESTRICT
	)`, id),
		`CREATE INDEX IF NOT EXISTS idx_appointments_vin ON appointments(vin)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_finished ON appointments(finished)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) q(query string) string {
	return rebind(s.dbType, query)
}

// withTx runs fn in a transaction and commits when it returns nil.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Technicians

func (s *SQLStore) ListTechnicians(ctx context.Context) ([]Technician, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, employee_number FROM technicians ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	defer func() { _ = rows.Close() }()

	technicians := []Technician{}
	for rows.Next() {
		var t Technician
		if err := rows.Scan(&t.ID, &t.Name, &t.EmployeeNumber); err != nil {
			return nil, fmt.Errorf("scan technician: %w", err)
		}
		technicians = append(technicians, t)
	}
	return technicians, rows.Err()
}

func (s *SQLStore) CreateTechnician(ctx context.Context, in TechnicianInput) (Technician, error) {
	if err := in.Validate(); err != nil {
		return Technician{}, err
	}

	t := Technician{Name: in.Name, EmployeeNumber: int64(in.EmployeeNumber)}
	err := s.db.QueryRowContext(ctx,
		s.q(`INSERT INTO technicians (name, employee_number) VALUES (?, ?) RETURNING id`),
		t.Name, t.EmployeeNumber,
	).Scan(&t.ID)
	if err != nil {
		return Technician{}, fmt.Errorf("insert technician: %w", err)
	}
	s.logger.Debug("Created technician %d (%s)", t.ID, t.Name)
	return t, nil
}

// DeleteTechnician removes a technician without appointments and returns it.
func (s *SQLStore) DeleteTechnician(ctx context.Context, id int64) (Technician, error) {
	var t Technician
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if t, err = s.getTechnician(ctx, tx, id); err != nil {
			return err
		}

		var booked int
		if err := tx.QueryRowContext(ctx,
			s.q(`SELECT COUNT(*) FROM appointments WHERE technician_id = ?`), id,
		).Scan(&booked); err != nil {
			return fmt.Errorf("count technician appointments: %w", err)
		}
		if booked > 0 {
			return fmt.Errorf("%w: %d appointments reference technician %d", ErrTechnicianInUse, booked, id)
		}

		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM technicians WHERE id = ?`), id); err != nil {
			return fmt.Errorf("delete technician: %w", err)
		}
		return nil
	})
	if err != nil {
		return Technician{}, err
	}
	s.logger.Debug("Deleted technician %d", id)
	return t, nil
}

func (s *SQLStore) getTechnician(ctx context.Context, q queryer, id int64) (Technician, error) {
	var t Technician
	err := q.QueryRowContext(ctx,
		s.q(`SELECT id, name, employee_number FROM technicians WHERE id = ?`), id,
	).Scan(&t.ID, &t.Name, &t.EmployeeNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return Technician{}, ErrTechnicianNotFound
	}
	if err != nil {
		return Technician{}, fmt.Errorf("get technician: %w", err)
	}
	return t, nil
}

// Appointments

const selectAppointments = `
	SELECT a.id, a.vin, a.owner, a.date_time, a.reason, a.finished,
		t.id, t.name, t.employee_number,
		EXISTS (SELECT 1 FROM automobiles v WHERE v.vin = a.vin)
	FROM appointments a
	JOIN technicians t ON t.id = a.technician_id`

const orderAppointments = ` ORDER BY a.date_time, a.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (Appointment, error) {
	var a Appointment
	var dateTime string
	if err := row.Scan(
		&a.ID, &a.VIN, &a.Owner, &dateTime, &a.Reason, &a.Finished,
		&a.Technician.ID, &a.Technician.Name, &a.Technician.EmployeeNumber,
		&a.VIP,
	); err != nil {
		return Appointment{}, err
	}
	parsed, err := time.Parse(time.RFC3339, dateTime)
	if err != nil {
		return Appointment{}, fmt.Errorf("appointment %d has unreadable date_time %q: %w", a.ID, dateTime, err)
	}
	a.DateTime = parsed
	return a, nil
}

func (s *SQLStore) queryAppointments(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	appointments := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

func (s *SQLStore) ListAppointments(ctx context.Context) ([]Appointment, error) {
	return s.queryAppointments(ctx, selectAppointments+orderAppointments)
}

// ListHistory returns finished appointments, optionally for one VIN.
func (s *SQLStore) ListHistory(ctx context.Context, vin string) ([]Appointment, error) {
	vin = strings.TrimSpace(vin)
	if vin == "" {
		return s.queryAppointments(ctx, selectAppointments+` WHERE a.finished = ?`+orderAppointments, true)
	}
	return s.queryAppointments(ctx, selectAppointments+` WHERE a.finished = ? AND a.vin = ?`+orderAppointments, true, vin)
}

func (s *SQLStore) getAppointment(ctx context.Context, q queryer, id int64) (Appointment, error) {
	a, err := scanAppointment(q.QueryRowContext(ctx, s.q(selectAppointments+` WHERE a.id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Appointment{}, ErrAppointmentNotFound
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

// CreateAppointment books an appointment with an existing technician.
func (s *SQLStore) CreateAppointment(ctx context.Context, in AppointmentInput) (Appointment, error) {
	dateTime, err := in.Validate()
	if err != nil {
		return Appointment{}, err
	}

	var created Appointment
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getTechnician(ctx, tx, int64(in.Technician)); err != nil {
			return err
		}

		var id int64
		if err := tx.QueryRowContext(ctx,
			s.q(`INSERT INTO appointments (vin, owner, date_time, reason, finished, technician_id)
			VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
			in.VIN, in.Owner, dateTime.Format(time.RFC3339), in.Reason, false, int64(in.Technician),
		).Scan(&id); err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}

		created, err = s.getAppointment(ctx, tx, id)
		return err
	})
	if err != nil {
		return Appointment{}, err
	}
	s.logger.Debug("Created appointment %d for VIN %s", created.ID, created.VIN)
	return created, nil
}

// UpdateAppointment applies the set fields of patch and returns the result.
func (s *SQLStore) UpdateAppointment(ctx context.Context, id int64, patch AppointmentPatch) (Appointment, error) {
	sets, args, err := patchColumns(patch)
	if err != nil {
		return Appointment{}, err
	}

	var updated Appointment
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getAppointment(ctx, tx, id); err != nil {
			return err
		}
		if patch.Technician != nil {
			if _, err := s.getTechnician(ctx, tx, int64(*patch.Technician)); err != nil {
				return err
			}
		}

		if len(sets) > 0 {
			//nolint:gosec // G201: column names are fixed, values are bound
			query := `UPDATE appointments SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
			if _, err := tx.ExecContext(ctx, s.q(query), append(args, id)...); err != nil {
				return fmt.Errorf("update appointment: %w", err)
			}
		}

		updated, err = s.getAppointment(ctx, tx, id)
		return err
	})
	if err != nil {
		return Appointment{}, err
	}
	return updated, nil
}

// patchColumns validates patch and returns the SET clauses and their values.
func patchColumns(patch AppointmentPatch) ([]string, []any, error) {
	var sets []string
	var args []any

	if patch.VIN != nil {
		vin := strings.TrimSpace(*patch.VIN)
		if err := validateVIN(vin); err != nil {
			return nil, nil, err
		}
		sets, args = append(sets, "vin = ?"), append(args, vin)
	}
	if patch.Owner != nil {
		owner := strings.TrimSpace(*patch.Owner)
		if err := validateOwner(owner); err != nil {
			return nil, nil, err
		}
		sets, args = append(sets, "owner = ?"), append(args, owner)
	}
	if patch.DateTime != nil {
		dateTime, err := ParseDateTime(*patch.DateTime)
		if err != nil {
			return nil, nil, err
		}
		sets, args = append(sets, "date_time = ?"), append(args, dateTime.Format(time.RFC3339))
	}
	if patch.Reason != nil {
		reason := strings.TrimSpace(*patch.Reason)
		if reason == "" {
			return nil, nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
		}
		sets, args = append(sets, "reason = ?"), append(args, reason)
	}
	if patch.Technician != nil {
		if *patch.Technician <= 0 {
			return nil, nil, fmt.Errorf("%w: technician is required", ErrInvalidInput)
		}
		sets, args = append(sets, "technician_id = ?"), append(args, int64(*patch.Technician))
	}
	if patch.Finished != nil {
		sets, args = append(sets, "finished = ?"), append(args, *patch.Finished)
	}
	return sets, args, nil
}

// DeleteAppointment removes an appointment and returns it.
func (s *SQLStore) DeleteAppointment(ctx context.Context, id int64) (Appointment, error) {
	var deleted Appointment
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if deleted, err = s.getAppointment(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM appointments WHERE id = ?`), id); err != nil {
			return fmt.Errorf("delete appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	s.logger.Debug("Deleted appointment %d", id)
	return deleted, nil
}

// Automobiles

func (s *SQLStore) ListAutomobiles(ctx context.Context) ([]AutomobileVO, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, vin FROM automobiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list automobiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	autos := []AutomobileVO{}
	for rows.Next() {
		var a AutomobileVO
		if err := rows.Scan(&a.ID, &a.VIN); err != nil {
			return nil, fmt.Errorf("scan automobile: %w", err)
		}
		autos = append(autos, a)
	}
	return autos, rows.Err()
}

// AddAutomobile records an inventory VIN. Adding a known VIN returns the
// existing record.
func (s *SQLStore) AddAutomobile(ctx context.Context, vin string) (AutomobileVO, error) {
	vin = strings.TrimSpace(vin)
	if err := validateVIN(vin); err != nil {
		return AutomobileVO{}, err
	}

	if _, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO automobiles (vin) VALUES (?) ON CONFLICT (vin) DO NOTHING`), vin,
	); err != nil {
		return AutomobileVO{}, fmt.Errorf("insert automobile: %w", err)
	}

	a := AutomobileVO{}
	if err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, vin FROM automobiles WHERE vin = ?`), vin,
	).Scan(&a.ID, &a.VIN); err != nil {
		return AutomobileVO{}, fmt.Errorf("get automobile: %w", err)
	}
	return a, nil
}
