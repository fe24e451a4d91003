package model

// Tag is a user-scoped label attached to transactions. Names are unique per
// owner.
type Tag struct {
	Name   string
	ID     int64
	UserID int64
}
