// Package connection manages client/instrument relationships: the edit form
// state machine and the per-client relationship summary.
package connection

import (
	"errors"

	"github.com/google/uuid"
	"github.com/simaogato/luthier-backend/internal/domain"
)

// FormState is the lifecycle state of the edit form
type FormState int

const (
	FormClosed FormState = iota
	FormCreating
	FormEditing
)

func (s FormState) String() string {
	switch s {
	case FormCreating:
		return "creating"
	case FormEditing:
		return "editing"
	default:
		return "closed"
	}
}

// DefaultRelationshipType is the type of a freshly opened form
const DefaultRelationshipType = domain.RelationshipInterested

var (
	ErrFormClosed = errors.New("connection form is not open")
	ErrFormOpen   = errors.New("connection form is already open")
)

// Fields are the editable values of the form
type Fields struct {
	ClientID         uuid.UUID
	InstrumentID     uuid.UUID
	RelationshipType domain.RelationshipType
	Notes            string
}

func defaultFields() Fields {
	return Fields{RelationshipType: DefaultRelationshipType}
}

// Form is the create/edit modal for a connection.
// Closed -> Creating -> Closed, or Closed -> Editing -> Closed.
type Form struct {
	state    FormState
	fields   Fields
	original *domain.Connection
}

// NewForm returns a closed form holding the default fields
func NewForm() *Form {
	return &Form{fields: defaultFields()}
}

func (f *Form) State() FormState { return f.state }

func (f *Form) Fields() Fields { return f.fields }

// Editing returns the connection being edited, or nil when creating or closed
func (f *Form) Editing() *domain.Connection {
	if f.state != FormEditing || f.original == nil {
		return nil
	}
	c := *f.original
	return &c
}

// OpenCreate opens an empty form, optionally preselecting ids.
// A zero id leaves the field blank.
func (f *Form) OpenCreate(clientID, instrumentID uuid.UUID) error {
	if f.state != FormClosed {
		return ErrFormOpen
	}
	f.fields = defaultFields()
	f.fields.ClientID = clientID
	f.fields.InstrumentID = instrumentID
	f.original = nil
	f.state = FormCreating
	return nil
}

// OpenEdit opens the form prefilled from an existing connection
func (f *Form) OpenEdit(c domain.Connection) error {
	if f.state != FormClosed {
		return ErrFormOpen
	}
	f.fields = Fields{
		ClientID:         c.ClientID,
		InstrumentID:     c.InstrumentID,
		RelationshipType: c.RelationshipType,
		Notes:            c.Notes,
	}
	f.original = &c
	f.state = FormEditing
	return nil
}

// SetFields replaces the editable values of an open form
func (f *Form) SetFields(fields Fields) error {
	if f.state == FormClosed {
		return ErrFormClosed
	}
	f.fields = fields
	return nil
}

// ResetForm returns every field to its default and closes the form
func (f *Form) ResetForm() {
	f.fields = defaultFields()
	f.original = nil
	f.state = FormClosed
}

// CloseModal is ResetForm
func (f *Form) CloseModal() {
	f.ResetForm()
}
