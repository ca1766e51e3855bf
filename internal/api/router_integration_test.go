//go:build integration
// +build integration

package api_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/stockpulse/config"
	"github.com/guttosm/stockpulse/internal/app"
)

func startPG(t *testing.T) (dsn string, terminate func()) {
	t.Helper()
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "stockpulse",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(h string, p nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=stockpulse sslmode=disable", h, p.Port())
		}).WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	h, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/stockpulse?sslmode=disable", h, mp.Port())
	terminate = func() { _ = c.Terminate(context.Background()) }
	return dsn, terminate
}

func upload(t *testing.T, router http.Handler, name, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	_, _ = fw.Write([]byte(body))
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/stock/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAPI_E2E_UploadAndAggregate(t *testing.T) {
	dsn, term := startPG(t)
	defer term()

	// Point application config to containerized DB; migrations run at startup
	old := config.AppConfig
	t.Cleanup(func() { config.AppConfig = old })
	config.AppConfig = config.Config{
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
			UploadTimeout:  time.Minute,
			RateLimitRPS:   100,
			RateLimitBurst: 100,
		},
		Ingestion: config.IngestionConfig{Workers: 4, MaxMultipartMemory: 1 << 20},
		Storage:   config.StorageConfig{Driver: app.DriverPostgres},
		Postgres:  config.PostgresConfig{URL: dsn, AutoMigrate: true},
	}

	router, cleanup, err := app.InitializeApp()
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	defer cleanup()

	csv := "Date,Symbol,Series,Prev Close,Open,High,Low,Last,Close,VWAP,Volume,Turnover,Trades,Deliverable,%Deliverable\n" +
		"2024-01-01,X,EQ,1,1,1,1,1,10,11,100,1,1,1,0.5\n" +
		"2024-01-02,X,EQ,1,1,1,1,1,20,21,500,1,1,1,0.5\n" +
		"2024-01-01,Y,EQ,1,1,1,1,1,30,31,900,1,1,1,0.5\n" +
		"01/03/2024,Y,EQ,1,1,1,1,1,30,31,900,1,1,1,0.5\n"

	w := upload(t, router, "batch.csv", csv)
	if w.Code != http.StatusOK {
		t.Fatalf("upload status=%d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"total_records":4,"successful_records":3,"failed_records":1`) {
		t.Fatalf("unexpected summary: %s", w.Body.String())
	}

	cases := []struct {
		path   string
		status int
		body   string
	}{
		{"/stock/highest-volume?start_date=2024-01-01&end_date=2024-01-02&symbol=X", http.StatusOK, `{"highest_volume":{"date":"2024-01-02","symbol":"X","volume":500}}`},
		{"/stock/highest-volume?start_date=2024-01-01&end_date=2024-01-02", http.StatusOK, `{"highest_volume":{"date":"2024-01-01","symbol":"Y","volume":900}}`},
		{"/stock/average-close?start_date=2024-01-01&end_date=2024-01-02&symbol=X", http.StatusOK, `{"average_close":15}`},
		{"/stock/average-vwap?start_date=2024-01-01&end_date=2024-01-01", http.StatusOK, `{"average_vwap":21}`},
		{"/stock/average-close?start_date=2025-01-01&end_date=2025-01-31", http.StatusNotFound, ""},
		{"/stock/average-close?end_date=2025-01-31", http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if w.Code != tc.status {
			t.Fatalf("%s: status=%d body=%s", tc.path, w.Code, w.Body.String())
		}
		if tc.body != "" && w.Body.String() != tc.body {
			t.Fatalf("%s: body=%s, want %s", tc.path, w.Body.String(), tc.body)
		}
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz=%d", w.Code)
	}
}
