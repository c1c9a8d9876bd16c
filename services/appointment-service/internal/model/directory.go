package model

import "time"

type Customer struct {
	ID         int
	Name       string
	Address    string
	PostalCode string
	Phone      string
	DivisionID int
	CreatedAt  time.Time
	CreatedBy  string
	UpdatedAt  time.Time
	UpdatedBy  string
}

type Contact struct {
	ID    int
	Name  string
	Email string
}

type User struct {
	ID           int
	Name         string
	PasswordHash string
}

type Country struct {
	ID   int
	Name string
}

// Division is a first-level administrative division (state, province, region).
type Division struct {
	ID        int
	Name      string
	CountryID int
}
