package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		file    string
		version string
		name    string
		ok      bool
	}{
		{file: "0001_init.sql", version: "0001", name: "init", ok: true},
		{file: "0002_add_inventory_index.sql", version: "0002", name: "add_inventory_index", ok: true},
		{file: "init.sql"},
		{file: "_init.sql"},
		{file: "0003_notes.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			version, name, ok := ParseMigrationName(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.name, name)
		})
	}
}
