//go:build integration

package integration

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	grpcadapter "github.com/simaogato/luthier-backend/internal/adapter/grpc"
	httpadapter "github.com/simaogato/luthier-backend/internal/adapter/http"
	"github.com/simaogato/luthier-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/simaogato/luthier-backend/internal/infrastructure/metrics"
	"github.com/simaogato/luthier-backend/internal/usecase/catalog"
	"github.com/simaogato/luthier-backend/internal/usecase/connection"
	"github.com/simaogato/luthier-backend/internal/usecase/dashboard"
	"github.com/simaogato/luthier-backend/internal/usecase/filter"
	"github.com/simaogato/luthier-backend/internal/usecase/sale"
	"github.com/simaogato/luthier-backend/internal/usecase/seeder"
)

const apiToken = "integration-token"

//go:embed testdata/schema.sql
var schema string

var (
	db               *postgres.DB
	dashboardService *dashboard.DashboardService
	instrumentRepo   domain.InstrumentRepository
	catalogService   *catalog.CatalogService
	saleService      *sale.SaleService
	apiServer        *httptest.Server
	grpcClient       *grpcadapter.Client
)

// TestMain starts Postgres in a container and the full service stack in process
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	// 1. Start Postgres
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("luthier_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to start postgres container: %v", err))
	}
	defer func() { _ = container.Terminate(ctx) }()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(fmt.Sprintf("Failed to get connection string: %v", err))
	}

	db, err = postgres.NewDB(ctx, dsn, postgres.PoolOptions{MaxOpenConns: 5})
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		panic(fmt.Sprintf("Failed to apply schema: %v", err))
	}

	// 2. Wire the services
	saleRepo := postgres.NewSaleRepository(db)
	clientRepo := postgres.NewClientRepository(db)
	instrumentRepo = postgres.NewInstrumentRepository(db)
	connectionRepo := postgres.NewConnectionRepository(db)

	m2 := metrics.New("luthier_it")
	dashboardService = dashboard.NewDashboardService(saleRepo, clientRepo, instrumentRepo, dashboard.Options{
		CatalogTTL: time.Minute,
		ReportTTL:  time.Minute,
		Metrics:    m2,
	})
	saleService = sale.NewSaleService(saleRepo, instrumentRepo, db, dashboardService, nil)
	catalogService = catalog.NewCatalogService(clientRepo, instrumentRepo, dashboardService, nil)
	connectionService := connection.NewConnectionService(connectionRepo, nil)
	defaults := filter.Filters{SortColumn: domain.SaleDateColumn, SortDirection: domain.SortDescending}

	// 3. gRPC on a loopback port
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcadapter.LoggingInterceptor(zap.NewNop(), m2),
		grpcadapter.AuthInterceptor(apiToken),
	))
	grpcadapter.Register(grpcServer, grpcadapter.NewServer(dashboardService, catalogService, saleService, defaults))
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(fmt.Sprintf("Failed to listen: %v", err))
	}
	go func() { _ = grpcServer.Serve(lis) }()
	defer grpcServer.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to gRPC server: %v", err))
	}
	defer conn.Close()
	grpcClient = grpcadapter.NewClient(conn)

	// 4. HTTP
	gin.SetMode(gin.TestMode)
	handler := httpadapter.NewHandler(dashboardService, saleService, catalogService, connectionService, defaults)
	apiServer = httptest.NewServer(httpadapter.NewRouter(handler, httpadapter.RouterConfig{
		Metrics:        m2,
		MetricsHandler: m2.Handler(),
		Health:         db.PingContext,
	}))
	defer apiServer.Close()

	return m.Run()
}

// reset empties every table and drops cached reports
func reset(t *testing.T) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`TRUNCATE client_instruments, sales_history, instruments, clients`)
	require.NoError(t, err)
	dashboardService.Invalidate()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total int    `json:"total"`
		Query string `json:"query"`
	} `json:"meta"`
}

func call(t *testing.T, method, path string, body any, out any) (int, envelope) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, apiServer.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := apiServer.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && env.Success {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode, env
}

func authed() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+apiToken)
}

func TestHealthz(t *testing.T) {
	resp, err := apiServer.Client().Get(apiServer.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRecordSale_EnrichesAndMarksInstrumentSold(t *testing.T) {
	reset(t)

	var instrument httpadapter.InstrumentRef
	code, _ := call(t, http.MethodPost, "/api/v1/instruments",
		map[string]any{"type": "Violin", "maker": "Vuillaume", "price": "9000"}, &instrument)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "VI001", instrument.SerialNumber)

	var client httpadapter.ClientRef
	code, _ = call(t, http.MethodPost, "/api/v1/clients",
		map[string]any{"first_name": "Clara", "last_name": "Haskil", "email": "clara@example.com", "tags": []string{"orchestra"}}, &client)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "CL001", client.ClientNumber)

	code, env := call(t, http.MethodPost, "/api/v1/sales", map[string]any{
		"amount":        "9000",
		"client_id":     client.ID,
		"instrument_id": instrument.ID,
		"sale_date":     "2024-03-05",
		"notes":         "with case",
	}, nil)
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, _ = call(t, http.MethodPost, "/api/v1/sales", map[string]any{
		"amount":    "35.50",
		"sale_date": "2024-03-06",
		"notes":     "strings",
	}, nil)
	require.Equal(t, http.StatusCreated, code)

	stored, err := instrumentRepo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.InstrumentStatusSold, stored[0].Status)

	var sales []httpadapter.SaleResponse
	code, env = call(t, http.MethodGet, "/api/v1/sales?search=vuill", nil, &sales)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, sales, 1)
	assert.Equal(t, "2024-03-05", sales[0].SaleDate)
	require.NotNil(t, sales[0].Client)
	assert.Equal(t, "Clara Haskil", sales[0].Client.Name)
	require.NotNil(t, sales[0].Instrument)
	assert.Equal(t, "VI001", sales[0].Instrument.SerialNumber)
	assert.Equal(t, "search=vuill", env.Meta.Query)

	code, _ = call(t, http.MethodGet, "/api/v1/sales?hasClient=false", nil, &sales)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, sales, 1)
	assert.Nil(t, sales[0].Client)
	assert.Equal(t, "strings", sales[0].Notes)

	code, _ = call(t, http.MethodGet, "/api/v1/sales?sortColumn=sale_price&sortDirection=asc", nil, &sales)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, sales, 2)
	assert.True(t, sales[0].SalePrice.Equal(decimal.RequireFromString("35.50")))
}

func TestRegister_DuplicateSerialIsRejected(t *testing.T) {
	reset(t)

	code, _ := call(t, http.MethodPost, "/api/v1/instruments",
		map[string]any{"type": "Cello", "serial_number": "vc007"}, nil)
	require.Equal(t, http.StatusCreated, code)

	code, env := call(t, http.MethodPost, "/api/v1/instruments",
		map[string]any{"type": "Cello", "serial_number": "VC007"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, httpadapter.ErrCodeValidation, env.Error.Code)
}

func TestConnections_CreateEditAndCount(t *testing.T) {
	reset(t)

	var client httpadapter.ClientRef
	code, _ := call(t, http.MethodPost, "/api/v1/clients", map[string]any{"first_name": "Yo-Yo", "last_name": "Ma"}, &client)
	require.Equal(t, http.StatusCreated, code)
	var instrument httpadapter.InstrumentRef
	code, _ = call(t, http.MethodPost, "/api/v1/instruments", map[string]any{"type": "Cello"}, &instrument)
	require.Equal(t, http.StatusCreated, code)

	base := "/api/v1/clients/" + client.ID.String() + "/connections"

	var created httpadapter.ConnectionResponse
	code, _ = call(t, http.MethodPost, base, map[string]any{"instrument_id": instrument.ID}, &created)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, string(domain.RelationshipInterested), created.RelationshipType)

	var updated httpadapter.ConnectionResponse
	code, _ = call(t, http.MethodPut, base+"/"+created.ID.String(), map[string]any{
		"instrument_id":     instrument.ID,
		"relationship_type": "Booked",
		"notes":             "  deposit paid ",
	}, &updated)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "deposit paid", updated.Notes)

	var summary httpadapter.ClientConnectionsResponse
	code, _ = call(t, http.MethodGet, base, nil, &summary)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, summary.Connections, 1)
	counts := map[string]int{}
	for _, c := range summary.Counts {
		counts[c.Type] = c.Count
	}
	assert.Equal(t, 1, counts["Booked"])
	assert.Zero(t, counts["Interested"])

	code, _ = call(t, http.MethodPut, base+"/"+uuid.NewString(), map[string]any{"instrument_id": instrument.ID}, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGRPC_RequiresToken(t *testing.T) {
	req, err := structpb.NewStruct(map[string]any{"kind": "client"})
	require.NoError(t, err)

	_, err = grpcClient.NextIdentifier(context.Background(), req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGRPC_SalesAndDashboard(t *testing.T) {
	reset(t)
	ctx := authed()

	record := func(fields map[string]any) {
		t.Helper()
		req, err := structpb.NewStruct(fields)
		require.NoError(t, err)
		_, err = grpcClient.RecordSale(ctx, req)
		require.NoError(t, err)
	}
	record(map[string]any{"amount": "400", "sale_date": "2024-05-01"})
	record(map[string]any{"amount": 600, "sale_date": "2024-05-03"})
	record(map[string]any{"amount": "100", "sale_date": "2024-05-03", "refund": true})
	record(map[string]any{"amount": "999", "sale_date": "2024-07-01"})

	req, err := structpb.NewStruct(map[string]any{"from": "2024-05-01", "to": "2024-05-31"})
	require.NoError(t, err)
	resp, err := grpcClient.GetDashboard(ctx, req)
	require.NoError(t, err)

	raw, err := resp.MarshalJSON()
	require.NoError(t, err)
	var body struct {
		Query  string `json:"query"`
		Report struct {
			HasData bool `json:"has_data"`
			Summary struct {
				NetRevenue   decimal.Decimal `json:"net_revenue"`
				GrossRevenue decimal.Decimal `json:"gross_revenue"`
				SaleCount    int             `json:"sale_count"`
				RefundCount  int             `json:"refund_count"`
			} `json:"summary"`
			RefundRate *decimal.Decimal `json:"refund_rate"`
			Daily      []json.RawMessage `json:"daily"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.Equal(t, "from=2024-05-01&to=2024-05-31", body.Query)
	assert.True(t, body.Report.HasData)
	assert.True(t, body.Report.Summary.NetRevenue.Equal(decimal.NewFromInt(900)))
	assert.True(t, body.Report.Summary.GrossRevenue.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 2, body.Report.Summary.SaleCount)
	assert.Equal(t, 1, body.Report.Summary.RefundCount)
	require.NotNil(t, body.Report.RefundRate)
	assert.True(t, body.Report.RefundRate.Equal(decimal.RequireFromString("0.1")))
	assert.Len(t, body.Report.Daily, 31, "bounded range yields one point per day")

	bad, err := structpb.NewStruct(map[string]any{"from": "2024-13-01"})
	require.NoError(t, err)
	_, err = grpcClient.GetDashboard(ctx, bad)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestDemoSeeder_SeedsOnce(t *testing.T) {
	reset(t)
	s := seeder.NewDemoSeeder(instrumentRepo, catalogService, saleService)

	seeded, err := s.Seed(context.Background())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = s.Seed(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)

	var sales []httpadapter.SaleResponse
	code, _ := call(t, http.MethodGet, "/api/v1/sales", nil, &sales)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, sales)
}
