package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkamenev/clinicbot/core/logger"
	"github.com/mkamenev/clinicbot/internal/domain"
)

// AdminIDs returns Telegram uids of admins, optionally filtered by
// privilege level. An empty privilege returns every admin.
func (s *Store) AdminIDs(ctx context.Context, privilege domain.PrivilegeLevel) ([]int64, error) {
	ids := make([]int64, 0)
	query := `SELECT tg_uid FROM admins ORDER BY tg_uid`
	args := []any{}
	if privilege != "" {
		query = `SELECT tg_uid FROM admins WHERE privilege = $1 ORDER BY tg_uid`
		args = append(args, privilege)
	}
	if err := s.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("storage: admin ids: %w", err)
	}
	return ids, nil
}

// Admins lists all admin accounts.
func (s *Store) Admins(ctx context.Context) ([]domain.Admin, error) {
	admins := make([]domain.Admin, 0)
	if err := s.db.SelectContext(ctx, &admins,
		`SELECT id, tg_uid, name, privilege, created_at FROM admins ORDER BY name`); err != nil {
		return nil, fmt.Errorf("storage: admins: %w", err)
	}
	return admins, nil
}

// CreateAdmin inserts a new admin account.
func (s *Store) CreateAdmin(ctx context.Context, admin domain.Admin) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (tg_uid, name, privilege) VALUES ($1, $2, $3)`,
		admin.TgUID, admin.Name, admin.Privilege)
	if err != nil {
		return fmt.Errorf("storage: create admin: %w", err)
	}
	logger.SVCAdmins.LogAttrs(ctx, slog.LevelInfo, "admin.created",
		slog.Int64("tg_uid", admin.TgUID),
		slog.String("privilege", string(admin.Privilege)),
	)
	return nil
}

// DeleteAdmin removes the admin with the given Telegram uid.
func (s *Store) DeleteAdmin(ctx context.Context, tgUID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM admins WHERE tg_uid = $1`, tgUID)
	if err != nil {
		return fmt.Errorf("storage: delete admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.SVCAdmins.LogAttrs(ctx, slog.LevelInfo, "admin.deleted",
		slog.Int64("tg_uid", tgUID),
	)
	return nil
}
