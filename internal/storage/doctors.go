package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/mkamenev/clinicbot/core/logger"
	"github.com/mkamenev/clinicbot/internal/domain"
)

// SpecialityTitles returns the full speciality catalog, ordered by title.
func (s *Store) SpecialityTitles(ctx context.Context) ([]string, error) {
	titles := make([]string, 0)
	if err := s.db.SelectContext(ctx, &titles,
		`SELECT title FROM specialities ORDER BY title`); err != nil {
		return nil, fmt.Errorf("storage: speciality titles: %w", err)
	}
	return titles, nil
}

// upsertSpeciality resolves a title to its id, creating the row on first use.
func upsertSpeciality(ctx context.Context, tx *sqlx.Tx, title string) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO specialities (title) VALUES ($1)
		ON CONFLICT (title) DO UPDATE SET title = EXCLUDED.title
		RETURNING id`, title)
	if err != nil {
		return 0, fmt.Errorf("upsert speciality %q: %w", title, err)
	}
	return id, nil
}

// pruneSpecialities removes catalog entries no doctor offers anymore.
func pruneSpecialities(ctx context.Context, tx *sqlx.Tx) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM specialities s
		WHERE NOT EXISTS (
			SELECT 1 FROM doctor_specialities ds WHERE ds.speciality_id = s.id
		)`)
	if err != nil {
		return fmt.Errorf("prune specialities: %w", err)
	}
	return nil
}

// CreateDoctor inserts the doctor and its priced specialities. Pairs keep
// their submitted order; titles are matched to prices by position.
func (s *Store) CreateDoctor(ctx context.Context, doctor domain.Doctor) (int64, error) {
	var doctorID int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &doctorID, `
			INSERT INTO doctors (name, photo, description, experience, science_degree, qual_category)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			doctor.Name, doctor.Photo, doctor.Description,
			doctor.Experience, doctor.ScienceDegree, doctor.QualCategory); err != nil {
			return fmt.Errorf("insert doctor: %w", err)
		}
		for _, sp := range doctor.Specialities {
			specID, err := upsertSpeciality(ctx, tx, sp.Title)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO doctor_specialities (doctor_id, speciality_id, price)
				VALUES ($1, $2, $3)
				ON CONFLICT (doctor_id, speciality_id) DO UPDATE SET price = EXCLUDED.price`,
				doctorID, specID, sp.Price); err != nil {
				return fmt.Errorf("link speciality %q: %w", sp.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("storage: create doctor: %w", err)
	}
	logger.SVCDoctors.LogAttrs(ctx, slog.LevelInfo, "doctor.created",
		slog.Int64("doctor_id", doctorID),
		slog.Int("specialities", len(doctor.Specialities)),
	)
	return doctorID, nil
}

// Doctors lists doctor references, optionally narrowed to one speciality.
func (s *Store) Doctors(ctx context.Context, speciality string) ([]domain.Doctor, error) {
	doctors := make([]domain.Doctor, 0)
	query := `SELECT id, name, photo, description, experience, science_degree, qual_category
		FROM doctors ORDER BY name`
	args := []any{}
	if speciality != "" {
		query = `SELECT d.id, d.name, d.photo, d.description, d.experience, d.science_degree, d.qual_category
			FROM doctors d
			JOIN doctor_specialities ds ON ds.doctor_id = d.id
			JOIN specialities sp ON sp.id = ds.speciality_id
			WHERE sp.title = $1
			ORDER BY d.name`
		args = append(args, speciality)
	}
	if err := s.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("storage: doctors: %w", err)
	}
	return doctors, nil
}

// DoctorByID fetches one doctor with its priced specialities.
func (s *Store) DoctorByID(ctx context.Context, id int64) (domain.Doctor, error) {
	var doctor domain.Doctor
	err := s.db.GetContext(ctx, &doctor, `
		SELECT id, name, photo, description, experience, science_degree, qual_category
		FROM doctors WHERE id = $1`, id)
	if err != nil {
		return domain.Doctor{}, fmt.Errorf("storage: doctor %d: %w", id, err)
	}
	specs, err := s.DoctorSpecialities(ctx, id)
	if err != nil {
		return domain.Doctor{}, err
	}
	doctor.Specialities = specs
	return doctor, nil
}

// DoctorSpecialities returns the priced specialities of one doctor.
func (s *Store) DoctorSpecialities(ctx context.Context, doctorID int64) ([]domain.SpecialityPrice, error) {
	rows := make([]struct {
		Title string `db:"title"`
		Price int    `db:"price"`
	}, 0)
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT sp.title, ds.price
		FROM doctor_specialities ds
		JOIN specialities sp ON sp.id = ds.speciality_id
		WHERE ds.doctor_id = $1
		ORDER BY sp.title`, doctorID); err != nil {
		return nil, fmt.Errorf("storage: doctor %d specialities: %w", doctorID, err)
	}
	out := make([]domain.SpecialityPrice, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.SpecialityPrice{Title: r.Title, Price: r.Price})
	}
	return out, nil
}

// AddDoctorSpecialities links additional priced specialities to a doctor.
func (s *Store) AddDoctorSpecialities(ctx context.Context, doctorID int64, pairs []domain.SpecialityPrice) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, sp := range pairs {
			specID, err := upsertSpeciality(ctx, tx, sp.Title)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO doctor_specialities (doctor_id, speciality_id, price)
				VALUES ($1, $2, $3)
				ON CONFLICT (doctor_id, speciality_id) DO UPDATE SET price = EXCLUDED.price`,
				doctorID, specID, sp.Price); err != nil {
				return fmt.Errorf("link speciality %q: %w", sp.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: add specialities: %w", err)
	}
	return nil
}

// RemoveDoctorSpecialities unlinks the named specialities from a doctor and
// prunes catalog entries that lost their last doctor. The caller enforces
// that at least one speciality remains.
func (s *Store) RemoveDoctorSpecialities(ctx context.Context, doctorID int64, titles []string) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, title := range titles {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM doctor_specialities ds
				USING specialities sp
				WHERE ds.doctor_id = $1 AND ds.speciality_id = sp.id AND sp.title = $2`,
				doctorID, title); err != nil {
				return fmt.Errorf("unlink speciality %q: %w", title, err)
			}
		}
		return pruneSpecialities(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("storage: remove specialities: %w", err)
	}
	return nil
}

// UpdateDoctorProfile updates the provided profile fields; nil fields stay
// unchanged.
func (s *Store) UpdateDoctorProfile(ctx context.Context, doctorID int64, name, photo, description *string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE doctors SET
			name = COALESCE($2, name),
			photo = COALESCE($3, photo),
			description = COALESCE($4, description)
		WHERE id = $1`, doctorID, name, photo, description)
	if err != nil {
		return fmt.Errorf("storage: update doctor %d: %w", doctorID, err)
	}
	return nil
}

// DeleteDoctor removes the doctor, its speciality links, and orphaned
// catalog entries.
func (s *Store) DeleteDoctor(ctx context.Context, doctorID int64) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM doctor_specialities WHERE doctor_id = $1`, doctorID); err != nil {
			return fmt.Errorf("unlink specialities: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, doctorID)
		if err != nil {
			return fmt.Errorf("delete doctor: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return pruneSpecialities(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("storage: delete doctor %d: %w", doctorID, err)
	}
	logger.SVCDoctors.LogAttrs(ctx, slog.LevelInfo, "doctor.deleted",
		slog.Int64("doctor_id", doctorID),
	)
	return nil
}
