// Package repository implements domain repository interfaces using SQLite.
package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// timestamps are stored as RFC 3339 text in UTC so they sort lexically.
const timeLayout = time.RFC3339Nano

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}
