package database

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT 1", "SELECT 1"},
		{"\n\t\tSELECT id\n\t\tFROM products\n\t", "SELECT id FROM products"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, compact(tt.input))
	}
}

func TestSlowQueryTracer(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		elapsed  time.Duration
		err      error
		contains string
	}{
		{name: "Fast query is silent", elapsed: 10 * time.Millisecond},
		{name: "Slow query warns", elapsed: 300 * time.Millisecond, contains: `"message":"slow query"`},
		{name: "Failed query logs", elapsed: time.Millisecond, err: errors.New("relation missing"), contains: `"message":"query failed"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tracer := newSlowQueryTracer(250*time.Millisecond, zerolog.New(&buf).Level(zerolog.DebugLevel))

			tracer.now = func() time.Time { return base }
			ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT *\n  FROM orders"})

			tracer.now = func() time.Time { return base.Add(tt.elapsed) }
			tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: tt.err})

			if tt.contains == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.contains)
			assert.Contains(t, buf.String(), `"sql":"SELECT * FROM orders"`)
		})
	}
}

func TestSlowQueryTracer_MissingStart(t *testing.T) {
	var buf bytes.Buffer
	tracer := newSlowQueryTracer(time.Millisecond, zerolog.New(&buf))

	tracer.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})
	assert.Empty(t, buf.String())
}
