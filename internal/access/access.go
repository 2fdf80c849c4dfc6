// Package access answers privilege questions for gated flows. Checks read
// the reference-data cache on every call, so revoking an admin takes effect
// on that admin's very next action.
package access

import "context"

// AdminSets is the slice of the cache coordinator the checker needs.
type AdminSets interface {
	AdminIDs(ctx context.Context) ([]int64, error)
	PrivilegedAdminIDs(ctx context.Context) ([]int64, error)
}

// Checker decides whether a user may enter privileged flows. The configured
// super-admin passes every check unconditionally.
type Checker struct {
	admins     AdminSets
	superAdmin int64
}

// NewChecker builds a checker over cached admin sets.
func NewChecker(admins AdminSets, superAdmin int64) *Checker {
	return &Checker{admins: admins, superAdmin: superAdmin}
}

// SuperAdmin returns the hardcoded super-admin id.
func (c *Checker) SuperAdmin() int64 { return c.superAdmin }

// IsAdmin reports whether the user may enter doctor-management flows.
func (c *Checker) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if userID == c.superAdmin {
		return true, nil
	}
	ids, err := c.admins.AdminIDs(ctx)
	if err != nil {
		return false, err
	}
	return contains(ids, userID), nil
}

// IsPrivileged reports whether the user may manage admins and view
// statistics.
func (c *Checker) IsPrivileged(ctx context.Context, userID int64) (bool, error) {
	if userID == c.superAdmin {
		return true, nil
	}
	ids, err := c.admins.PrivilegedAdminIDs(ctx)
	if err != nil {
		return false, err
	}
	return contains(ids, userID), nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
