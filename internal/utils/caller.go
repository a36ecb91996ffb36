package utils

// Caller is the authenticated principal every service operation acts for.
type Caller struct {
	UserID   int64
	Username string
	IsStaff  bool
}

// CanAccess reports whether the caller may see or change a row owned by ownerID.
func (c Caller) CanAccess(ownerID int64) bool {
	return c.IsStaff || c.UserID == ownerID
}
