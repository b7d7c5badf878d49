package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOOK_ALERT_THRESHOLD", "")
	t.Setenv("NAME_REPORT_THRESHOLD", "")
	t.Setenv("RENAME_GRACE_PERIOD", "")
	t.Setenv("STORE_DRIVER", "")

	cfg := Load()

	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 5, cfg.BookAlertThreshold)
	assert.Equal(t, 3, cfg.NameReportThreshold)
	assert.Equal(t, 7*24*time.Hour, cfg.RenameGracePeriod)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("BOOK_ALERT_THRESHOLD", "8")
	t.Setenv("LOCK_TTL", "3s")
	t.Setenv("LOG_RETENTION_DAYS", "not-a-number")

	cfg := Load()

	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 8, cfg.BookAlertThreshold)
	assert.Equal(t, 3*time.Second, cfg.LockTTL)
	assert.Equal(t, 30, cfg.LogRetentionDays)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "lib", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=lib port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
