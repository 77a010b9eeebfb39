package domain

import "time"

type User struct {
	ID             string
	Email          string
	Username       string
	HashedPassword string
	RoleID         int
	RoleName       string
	IsActive       bool
	IsSuperuser    bool
	IsVerified     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Role struct {
	ID   int
	Name string
}
