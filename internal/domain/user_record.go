package domain

// UserRecord is the persisted form of a user: its name and the ordered
// names it follows.
type UserRecord struct {
	ID        int64    // Unique identifier
	Name      string   // User name
	Followees []string // Followed names in insertion order
	CreatedAt int64    // Unix timestamp of creation
}
