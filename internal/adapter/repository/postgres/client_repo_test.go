package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClientRepository(db)

	id := uuid.New()
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "client_number", "first_name", "last_name", "email", "phone", "tags", "created_at"}).
		AddRow(id.String(), "CL001", "Jane", "Doe", "jane@example.com", nil, []byte("{vip,cellist}"), created).
		AddRow(uuid.New().String(), nil, "Walk", nil, nil, nil, []byte("{}"), created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM clients")).WillReturnRows(rows)

	clients, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 2)

	assert.Equal(t, id, clients[0].ID)
	assert.Equal(t, "CL001", clients[0].ClientNumber)
	assert.Equal(t, "Jane Doe", clients[0].DisplayName())
	assert.Equal(t, []string{"vip", "cellist"}, clients[0].Tags)
	assert.Empty(t, clients[0].Phone)

	assert.Empty(t, clients[1].ClientNumber)
	assert.Empty(t, clients[1].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClientRepository(db)

	client := &domain.Client{
		ID:           uuid.New(),
		ClientNumber: "CL002",
		FirstName:    "John",
		LastName:     "Kim",
		Tags:         []string{"orchestra"},
		CreatedAt:    time.Now().UTC(),
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO clients")).
		WithArgs(client.ID.String(), "CL002", "John", "Kim", nil, nil, "{\"orchestra\"}", client.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), client))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepository_Create_DuplicateNumber(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClientRepository(db)

	mock.ExpectExec("INSERT INTO clients").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.Create(context.Background(), &domain.Client{ID: uuid.New(), ClientNumber: "CL001", FirstName: "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `client number "CL001" already exists`)
}

func TestClientRepository_ListClientNumbers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClientRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT client_number")).
		WillReturnRows(sqlmock.NewRows([]string{"client_number"}).AddRow("CL001").AddRow("CL007"))

	numbers, err := repo.ListClientNumbers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CL001", "CL007"}, numbers)
	assert.NoError(t, mock.ExpectationsWereMet())
}
