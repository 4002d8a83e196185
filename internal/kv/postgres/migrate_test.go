package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "postgres://u:p@localhost:5432/todo", want: "pgx5://u:p@localhost:5432/todo"},
		{in: "postgresql://u:p@db/todo?sslmode=disable", want: "pgx5://u:p@db/todo?sslmode=disable"},
		{in: "pgx5://u:p@db/todo", want: "pgx5://u:p@db/todo"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, migrateURL(tt.in))
		})
	}
}
