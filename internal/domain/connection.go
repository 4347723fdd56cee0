package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RelationshipType classifies how a client relates to an instrument
type RelationshipType string

const (
	RelationshipInterested RelationshipType = "Interested"
	RelationshipBooked     RelationshipType = "Booked"
	RelationshipSold       RelationshipType = "Sold"
	RelationshipOwned      RelationshipType = "Owned"
)

// CanonicalRelationshipOrder is the display order for relationship summaries
var CanonicalRelationshipOrder = []RelationshipType{
	RelationshipInterested,
	RelationshipBooked,
	RelationshipSold,
	RelationshipOwned,
}

// Valid reports whether t is one of the known relationship types
func (t RelationshipType) Valid() bool {
	for _, known := range CanonicalRelationshipOrder {
		if t == known {
			return true
		}
	}
	return false
}

// Connection links a client to an instrument
type Connection struct {
	ID               uuid.UUID
	ClientID         uuid.UUID
	InstrumentID     uuid.UUID
	RelationshipType RelationshipType
	Notes            string
	CreatedAt        time.Time
}

// Validate ensures the connection adheres to domain rules
func (c *Connection) Validate() error {
	if c.ClientID == uuid.Nil {
		return errors.New("connection must reference a client")
	}
	if c.InstrumentID == uuid.Nil {
		return errors.New("connection must reference an instrument")
	}
	if !c.RelationshipType.Valid() {
		return errors.New("invalid relationship type: " + string(c.RelationshipType))
	}
	return nil
}
