package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/wonny/momentum/pkg/config"
)

func TestNew(t *testing.T) {
	// Skip if DATABASE_URL is not set
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxConns:        2,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: time.Minute,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if !status.Healthy {
		t.Error("Expected healthy status")
	}
}

func TestNewInvalidURL(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: "://not-a-url"},
	}

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("Expected error for invalid database URL")
	}
}
