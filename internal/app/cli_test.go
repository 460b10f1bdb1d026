package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestNewCLI_Commands(t *testing.T) {
	a := NewCLI(&bytes.Buffer{})

	for _, name := range []string{CommandServe, CommandMigrate, CommandHealthcheck} {
		if a.Command(name) == nil {
			t.Errorf("command %q is not registered", name)
		}
	}
	if a.Action == nil {
		t.Error("default action should run serve")
	}
}

func serverPort(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}
	return u.Port()
}

func TestRun_Healthcheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"正常", http.StatusOK, false},
		{"DB切断", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := Run(&bytes.Buffer{}, []string{CommandHealthcheck, "--port", serverPort(t, srv)})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if gotPath != "/api/health" {
				t.Errorf("path = %q, want /api/health", gotPath)
			}
		})
	}
}

func TestRun_HealthcheckUsesPortEnv(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	t.Setenv("PORT", serverPort(t, srv))

	if err := Run(&bytes.Buffer{}, []string{CommandHealthcheck}); err != nil {
		t.Errorf("healthcheck failed: %v", err)
	}
}

func TestRun_HealthcheckServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	port := serverPort(t, srv)
	srv.Close()

	if err := Run(&bytes.Buffer{}, []string{CommandHealthcheck, "--port", port}); err == nil {
		t.Error("expected error when server is down, got nil")
	}
}

func TestRun_MigrateWithInvalidConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "mysql://localhost/guildcal")

	if err := Run(&bytes.Buffer{}, []string{CommandMigrate}); err == nil {
		t.Error("expected config error, got nil")
	}
}
