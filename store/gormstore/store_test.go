package gormstore

import (
	"testing"

	"github.com/olympos-dev/authcore"
)

// Interface compliance is checked at compile time; live-database behavior is
// covered by deployment integration suites.
var _ authcore.UserStore = (*Store)(nil)

func TestToRecordCopiesEveryColumn(t *testing.T) {
	row := userModel{
		ID:            "6a0f2f44-9893-4f4e-a52a-0a1e9f4f2b6e",
		Email:         "a@x.com",
		FirstName:     "Ada",
		LastName:      "Lovelace",
		PasswordHash:  "$argon2id$...",
		Role:          "admin",
		EmailVerified: true,
		MFAEnabled:    true,
		MFASecret:     "JBSWY3DPEHPK3PXP",
	}

	got := toRecord(row)
	want := authcore.UserRecord{
		ID:            row.ID,
		Email:         row.Email,
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		PasswordHash:  row.PasswordHash,
		Role:          row.Role,
		EmailVerified: row.EmailVerified,
		MFAEnabled:    row.MFAEnabled,
		MFASecret:     row.MFASecret,
	}
	if got != want {
		t.Fatalf("toRecord = %+v, want %+v", got, want)
	}
}

func TestTableName(t *testing.T) {
	if got := (userModel{}).TableName(); got != "users" {
		t.Fatalf("table name = %q, want %q", got, "users")
	}
}
