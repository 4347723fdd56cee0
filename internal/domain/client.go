package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client represents a shop customer in the domain layer
type Client struct {
	ID           uuid.UUID
	ClientNumber string // e.g. CL001, optional
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Tags         []string
	CreatedAt    time.Time
}

// DisplayName is the name shown in lists: "First Last"
func (c *Client) DisplayName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Validate ensures the client adheres to domain rules
func (c *Client) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" && strings.TrimSpace(c.LastName) == "" {
		return errors.New("client must have a first or last name")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return errors.New("invalid client email")
	}
	return nil
}
