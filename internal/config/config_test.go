package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "SQLite")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.StoreDriver)
	require.Equal(t, "log", cfg.MailDriver)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, []string{"http://localhost:5173", "http://localhost:5174"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "postgres")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load()
	require.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	cfg := Config{DBUser: "app", DBPassword: "pw", DBHost: "db", DBPort: "3306", DBName: "sharenet"}
	require.Equal(t, "app:pw@tcp(db:3306)/sharenet?parseTime=true&clientFoundRows=true", cfg.MySQLDSN())
}
