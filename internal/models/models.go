package models

import (
	"time"
)

// Sync states reported by Person.State.
const (
	StatePending = "pending"
	StateSynced  = "synced"
)

// Contact holds the identity and contact fields of a person. It is the only
// part of a record that leaves the device.
type Contact struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DocumentID  string `json:"documentID"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

// Person is a locally captured record.
type Person struct {
	ID int64 `json:"id"`
	Contact
	CreatedAt      time.Time `json:"createdAt"`
	IsSynchronized bool      `json:"isSynchronized"`
}

// FullName returns "First Last"
func (p Person) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// State returns "synced" or "pending"
func (p Person) State() string {
	if p.IsSynchronized {
		return StateSynced
	}
	return StatePending
}

// IDs returns the IDs of the given people in order.
func IDs(people []Person) []int64 {
	ids := make([]int64, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.ID)
	}
	return ids
}
