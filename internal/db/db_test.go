package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMaxConnsFor(t *testing.T) {
	cases := []struct {
		workers int
		want    int32
	}{
		{0, 1 + apiConns},
		{-3, 1 + apiConns},
		{4, 4 + apiConns},
		{16, 16 + apiConns},
	}
	for _, tc := range cases {
		if got := maxConnsFor(tc.workers); got != tc.want {
			t.Fatalf("workers=%d: expected %d, got %d", tc.workers, tc.want, got)
		}
	}
}

func TestIsUndefinedObject(t *testing.T) {
	missing := fmt.Errorf("register: %w", &pgconn.PgError{Code: "42704", Message: `type "vector" does not exist`})
	if !isUndefinedObject(missing) {
		t.Fatalf("expected wrapped 42704 to be recognised")
	}
	if isUndefinedObject(&pgconn.PgError{Code: "28P01"}) {
		t.Fatalf("expected auth failure to be reported")
	}
	if isUndefinedObject(errors.New("boom")) {
		t.Fatalf("expected plain error to be reported")
	}
}
