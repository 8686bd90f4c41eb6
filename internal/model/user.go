package model

import "time"

// Role distinguishes teachers (quiz authors) from students (quiz takers).
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// User represents a teacher or student account.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Bio          string    `json:"bio,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsTeacher reports whether the user authors quizzes.
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }

// Identity is the authenticated caller handed to every core operation.
// It is built from verified token claims by the HTTP layer and never read from ambient state.
type Identity struct {
	UserID int
	Role   Role
}

// IsTeacher reports whether the caller acts as a teacher.
func (i Identity) IsTeacher() bool { return i.Role == RoleTeacher }

// IsStudent reports whether the caller acts as a student.
func (i Identity) IsStudent() bool { return i.Role == RoleStudent }

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64,alphanum"`
	Email    string `json:"email" binding:"required,email,max=120"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Role     Role   `json:"role" binding:"required,oneof=teacher student"`
	Bio      string `json:"bio" binding:"omitempty,max=500"`
}

// UpdateProfileRequest edits the public profile of the caller.
type UpdateProfileRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64,alphanum"`
	Bio      string `json:"bio" binding:"omitempty,max=500"`
}

// LoginRequest is the payload for authentication by username or email.
type LoginRequest struct {
	Login    string `json:"login" binding:"required,min=3,max=120"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after a successful login or registration.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
