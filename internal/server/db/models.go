package db

import "time"

// Profile is the per-identity record gating access to the rest of the
// application. uid is the primary key and immutable.
type Profile struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Permitted bool      `json:"permitted"`
	Cases     []CaseRef `json:"cases"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CaseRef is an informational case entry inside a profile. Display ordering
// is computed at read time, never stored pre-sorted.
type CaseRef struct {
	CaseNumber string    `json:"caseNumber"`
	CreatedAt  time.Time `json:"createdAt"`
}
