package domain

// Role decides which dashboards and actions a user can reach.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// User is an authenticated principal plus directory profile fields.
type User struct {
	ID         string `json:"userID" bson:"userID"`
	Name       string `json:"name" bson:"name"`
	Email      string `json:"email" bson:"email"`
	Role       Role   `json:"role" bson:"role"`
	Department string `json:"department,omitempty" bson:"department,omitempty"`
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty"`
}
