package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstrumentStatus represents where an instrument is in the shop's inventory
type InstrumentStatus string

const (
	InstrumentStatusAvailable   InstrumentStatus = "Available"
	InstrumentStatusBooked      InstrumentStatus = "Booked"
	InstrumentStatusReserved    InstrumentStatus = "Reserved"
	InstrumentStatusSold        InstrumentStatus = "Sold"
	InstrumentStatusMaintenance InstrumentStatus = "Maintenance"
)

// Instrument represents an inventory item in the domain layer
type Instrument struct {
	ID           uuid.UUID
	SerialNumber string // e.g. VI001, optional
	Maker        string
	Type         string // Violin, Viola, Cello, Bow...
	Price        decimal.Decimal
	Status       InstrumentStatus
	CreatedAt    time.Time
}

// Validate ensures the instrument adheres to domain rules
func (i *Instrument) Validate() error {
	if strings.TrimSpace(i.Type) == "" {
		return errors.New("instrument type cannot be empty")
	}
	if i.Price.IsNegative() {
		return errors.New("instrument price cannot be negative")
	}

	if !i.Status.Valid() {
		return errors.New("invalid instrument status: " + string(i.Status))
	}

	return nil
}

// Valid reports whether s is a known inventory status
func (s InstrumentStatus) Valid() bool {
	switch s {
	case InstrumentStatusAvailable, InstrumentStatusBooked, InstrumentStatusReserved,
		InstrumentStatusSold, InstrumentStatusMaintenance:
		return true
	}
	return false
}
