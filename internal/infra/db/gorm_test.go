package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSNWithTLS(t *testing.T) {
	tests := []struct {
		name      string
		dsn       string
		enableTLS bool
		want      string
	}{
		{name: "tls disabled keeps dsn", dsn: "host=db sslmode=disable", enableTLS: false, want: "host=db sslmode=disable"},
		{name: "replaces existing sslmode", dsn: "host=db sslmode=disable port=5432", enableTLS: true, want: "host=db sslmode=require port=5432"},
		{name: "replaces sslmode case insensitive", dsn: "host=db SSLMODE = prefer", enableTLS: true, want: "host=db sslmode=require"},
		{name: "appends when missing", dsn: "host=db", enableTLS: true, want: "host=db sslmode=require"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dsnWithTLS(tt.dsn, tt.enableTLS))
		})
	}
}
