package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_HealthCheckAll(t *testing.T) {
	reg := NewRegistry()
	down := errors.New("connection refused")

	reg.Register("postgres", CheckerFunc(func(ctx context.Context) error { return nil }))
	reg.Register("redis", CheckerFunc(func(ctx context.Context) error { return down }))
	reg.Register("submissions", CheckerFunc(func(ctx context.Context) error { return nil }))

	assert.Equal(t, []string{"postgres", "redis", "submissions"}, reg.List())

	results := reg.HealthCheckAll(context.Background())
	assert.Len(t, results, 3)
	assert.NoError(t, results["postgres"])
	assert.ErrorIs(t, results["redis"], down)

	// re-registering a name replaces the checker
	reg.Register("redis", CheckerFunc(func(ctx context.Context) error { return nil }))
	assert.Equal(t, []string{"postgres", "redis", "submissions"}, reg.List())
	assert.NoError(t, reg.HealthCheckAll(context.Background())["redis"])
}
