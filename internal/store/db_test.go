package store

import (
	"context"
	"testing"
)

func TestNewDBRejectsMalformedDSN(t *testing.T) {
	if _, err := NewDB("://not-a-dsn", 10); err == nil {
		t.Fatal("expected an error for a malformed connection string")
	}
}

func TestDBCloseNilSafe(t *testing.T) {
	var d *DB
	if err := d.Close(); err != nil {
		t.Fatalf("nil close returned %v", err)
	}
}

func TestRedisHealthyNilSafe(t *testing.T) {
	var r *Redis
	if r.Healthy(context.Background()) {
		t.Fatal("nil client must not report healthy")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("nil close returned %v", err)
	}
}
