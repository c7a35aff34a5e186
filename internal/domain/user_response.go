package domain

// UserResponse represents a user and its followees.
type UserResponse struct {
	Name      string   `json:"name"`
	Followees []string `json:"followees"`
	Count     int      `json:"count"`
	Capacity  int      `json:"capacity"`
}

// NewUserResponse builds a UserResponse from u.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		Name:      u.Name(),
		Followees: u.Followees(),
		Count:     u.Count(),
		Capacity:  u.Capacity(),
	}
}

// MutualResponse represents the number of followees two users share.
type MutualResponse struct {
	User  string `json:"user"`
	Other string `json:"other"`
	Count int    `json:"count"`
}

// FriendsResponse represents whether two users follow each other.
type FriendsResponse struct {
	User    string `json:"user"`
	Other   string `json:"other"`
	Friends bool   `json:"friends"`
}
