package domain

import (
	"errors"
	"strings"
)

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an existing name.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyFollowing is returned when a user already follows the given name.
	ErrAlreadyFollowing = errors.New("already following")
	// ErrFolloweeListFull is returned when a user's followee list is at capacity.
	ErrFolloweeListFull = errors.New("followee list full")
	// ErrNotFollowing is returned when removing a name the user does not follow.
	ErrNotFollowing = errors.New("not following")
)

// DefaultMaxFollows is the followee capacity used by NewUser.
const DefaultMaxFollows = 10

// User is a participant in the social graph together with the ordered,
// bounded list of names it follows.
//
// A User is not safe for concurrent use. Owners sharing one between
// goroutines must synchronize access themselves.
type User struct {
	name     string
	follows  []string // len(follows) == capacity, first count entries occupied
	count    int
	capacity int
}

// NewUser creates a user with an empty followee list and DefaultMaxFollows capacity.
func NewUser(name string) *User {
	return NewUserWithCapacity(name, DefaultMaxFollows)
}

// NewUserWithCapacity creates a user with an empty followee list that can
// hold at most capacity names. A negative capacity is treated as zero.
func NewUserWithCapacity(name string, capacity int) *User {
	capacity = max(capacity, 0)

	return &User{
		name:     name,
		follows:  make([]string, capacity),
		count:    0,
		capacity: capacity,
	}
}

// RestoreUser rebuilds a user from a persisted followee list by replaying
// AddFollowee in order. Names that would be rejected (duplicates, or
// anything past capacity) are dropped.
func RestoreUser(name string, capacity int, followees []string) *User {
	u := NewUserWithCapacity(name, capacity)

	for _, followee := range followees {
		u.AddFollowee(followee)
	}

	return u
}

// Name returns the identifier of the user.
func (u *User) Name() string {
	return u.name
}

// Followees returns a copy of the occupied part of the followee list in
// insertion order.
func (u *User) Followees() []string {
	followees := make([]string, u.count)
	copy(followees, u.follows[:u.count])

	return followees
}

// Count returns the number of names the user follows.
func (u *User) Count() int {
	return u.count
}

// Capacity returns the maximum number of names the user can follow.
func (u *User) Capacity() int {
	return u.capacity
}

// IsFull reports whether the followee list is at capacity.
func (u *User) IsFull() bool {
	return u.count == u.capacity
}

// Follows reports whether the user follows name. Names are compared exactly.
func (u *User) Follows(name string) bool {
	return u.indexOf(name) >= 0
}

func (u *User) indexOf(name string) int {
	for i := range u.count {
		if u.follows[i] == name {
			return i
		}
	}

	return -1
}

// AddFollowee appends name to the followee list. It returns false and
// leaves the list untouched if the list is full or name is already followed.
func (u *User) AddFollowee(name string) bool {
	if u.IsFull() || u.Follows(name) {
		return false
	}

	u.follows[u.count] = name
	u.count++

	return true
}

// RemoveFollowee removes name from the followee list, keeping the order of
// the remaining names. It returns false if name is not followed.
func (u *User) RemoveFollowee(name string) bool {
	idx := u.indexOf(name)
	if idx < 0 {
		return false
	}

	copy(u.follows[idx:u.count-1], u.follows[idx+1:u.count])
	u.follows[u.count-1] = ""
	u.count--

	return true
}

// CountMutual returns the number of names followed by both u and other.
func (u *User) CountMutual(other *User) int {
	var mutual int

	for _, followee := range u.follows[:u.count] {
		if other.Follows(followee) {
			mutual++
		}
	}

	return mutual
}

// IsFriendOf reports whether u and other follow each other.
func (u *User) IsFriendOf(other *User) bool {
	return u.Follows(other.Name()) && other.Follows(u.name)
}

// String renders the user as "name -> f1 f2 ... fn ", every followee
// followed by a single space.
func (u *User) String() string {
	var sb strings.Builder

	sb.WriteString(u.name)
	sb.WriteString(" -> ")

	for _, followee := range u.follows[:u.count] {
		sb.WriteString(followee)
		sb.WriteByte(' ')
	}

	return sb.String()
}
