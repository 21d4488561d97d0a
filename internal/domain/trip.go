// Package domain contains the core data types for the TripForge application.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (itinerary, repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripType categorizes who is travelling. Used verbatim in generation prompts.
type TripType string

const (
	TripTypeSolo    TripType = "Solo"
	TripTypeFamily  TripType = "Family"
	TripTypeFriends TripType = "Friends"
	TripTypeCouple  TripType = "Couple"
)

// Valid reports whether t is one of the known trip types.
func (t TripType) Valid() bool {
	switch t {
	case TripTypeSolo, TripTypeFamily, TripTypeFriends, TripTypeCouple:
		return true
	}
	return false
}

// TripStatus is the lifecycle state of a trip. New trips always start in
// StatusPlanning regardless of what the client sends.
type TripStatus string

const (
	StatusPlanning  TripStatus = "Planning"
	StatusOngoing   TripStatus = "Ongoing"
	StatusCompleted TripStatus = "Completed"
)

// Valid reports whether s is one of the known statuses.
func (s TripStatus) Valid() bool {
	switch s {
	case StatusPlanning, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

// Trip represents a single planned journey.
// A trip is the top-level aggregate; its Itinerary is embedded and always
// read and written as a whole document, never field by field.
//
// OwnerID is the opaque identifier of the authenticated user from the
// external identity provider. Every store operation is scoped to it.
type Trip struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Destination string     `json:"destination"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	Travellers  int        `json:"travellers"`
	Budget      float64    `json:"budget"`
	Type        TripType   `json:"type"`
	Status      TripStatus `json:"status"`
	Preferences []string   `json:"preferences"`
	Itinerary   Itinerary  `json:"itinerary"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
