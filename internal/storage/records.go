package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mkamenev/clinicbot/core/logger"
	"github.com/mkamenev/clinicbot/internal/domain"
)

// CreateAppointment persists a booking, creating the user on first contact.
func (s *Store) CreateAppointment(ctx context.Context, a domain.Appointment) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		userID, err := s.getOrCreateUser(ctx, tx, a.TgUID, a.Username, a.FullName, a.Phone)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointments
				(user_id, doctor_id, consultation_type, communication_type, user_request, preferable_dt, conference_link)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			userID, nullableID(a.DoctorID), a.ConsultationType, nullable(string(a.Communication)),
			a.UserRequest, nullable(a.PreferableDT), nullable(a.ConferenceLink))
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: create appointment: %w", err)
	}
	logger.SVCBooking.LogAttrs(ctx, slog.LevelInfo, "appointment.created",
		slog.Int64("tg_uid", a.TgUID),
		slog.Int64("doctor_id", a.DoctorID),
		slog.String("type", string(a.ConsultationType)),
	)
	return nil
}

// CreateCallback persists a callback request.
func (s *Store) CreateCallback(ctx context.Context, c domain.Callback) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		userID, err := s.getOrCreateUser(ctx, tx, c.TgUID, c.Username, c.FullName, c.Phone)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO callbacks (user_id) VALUES ($1)`, userID); err != nil {
			return fmt.Errorf("insert callback: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: create callback: %w", err)
	}
	return nil
}

// CreateFeedback persists a review.
func (s *Store) CreateFeedback(ctx context.Context, f domain.Feedback) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		userID, err := s.getOrCreateUser(ctx, tx, f.TgUID, f.Username, "", "")
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO feedbacks (user_id, message) VALUES ($1, $2)`, userID, f.Message); err != nil {
			return fmt.Errorf("insert feedback: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: create feedback: %w", err)
	}
	return nil
}

// CountRecords counts rows of the given table created inside [from, to).
// For appointments a consultation type filter may be supplied.
func (s *Store) CountRecords(ctx context.Context, table string, from, to time.Time, consultationType string) (int, error) {
	var (
		count int
		err   error
	)
	switch table {
	case "appointments":
		if consultationType != "" {
			err = s.db.GetContext(ctx, &count, `
				SELECT COUNT(*) FROM appointments
				WHERE created_at >= $1 AND created_at < $2 AND consultation_type = $3`,
				from, to, consultationType)
		} else {
			err = s.db.GetContext(ctx, &count, `
				SELECT COUNT(*) FROM appointments
				WHERE created_at >= $1 AND created_at < $2`, from, to)
		}
	case "callbacks", "feedbacks", "users":
		query := fmt.Sprintf(
			`SELECT COUNT(*) FROM %s WHERE created_at >= $1 AND created_at < $2`, table)
		err = s.db.GetContext(ctx, &count, query, from, to)
	default:
		return 0, fmt.Errorf("storage: uncountable table %q", table)
	}
	if err != nil {
		return 0, fmt.Errorf("storage: count %s: %w", table, err)
	}
	return count, nil
}
