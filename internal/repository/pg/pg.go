package pg

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func New(host string, port uint, user string, password string, dbname string) (*gorm.DB, error) {
	return open(fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbname))
}

// NewFromURL opens a database given a postgres:// connection URL.
func NewFromURL(url string) (*gorm.DB, error) {
	dsn, err := pq.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("malformed database URL: %w", err)
	}
	return open(dsn)
}

// IsURL reports whether host is a full connection URL rather than a host name.
func IsURL(host string) bool {
	return strings.HasPrefix(host, "postgres://") || strings.HasPrefix(host, "postgresql://")
}

func open(dsn string) (*gorm.DB, error) {
	dbCon, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // disables implicit prepared statement usage. By default pgx automatically uses the extended protocol
	}), &gorm.Config{})

	if err != nil {
		return nil, err
	}

	return dbCon, nil
}
