package sqlite

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var nameReplacer = strings.NewReplacer("/", "_", " ", "_", "?", "_", "#", "_")

// New opens an SQLite database file.
func New(dbname string) (*gorm.DB, error) {
	dbCon, err := gorm.Open(sqlite.Open(dbname), &gorm.Config{})

	if err != nil {
		return nil, err
	}

	return dbCon, nil
}

// NewInMemory opens a named in-memory database. Connections opened with the same
// name share the data until the last one is closed.
func NewInMemory(name string) (*gorm.DB, error) {
	return New(fmt.Sprintf("file:%s?mode=memory&cache=shared", nameReplacer.Replace(name)))
}
