package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadyAllUp(t *testing.T) {
	c := NewChecker(time.Second).
		Register("database", PingFunc(func(context.Context) error { return nil })).
		Register("redis", PingFunc(func(context.Context) error { return nil })).
		Register("ignored", nil)

	report := c.Ready(context.Background())
	assert.True(t, report.Ready)
	assert.Equal(t, map[string]string{"database": StatusUp, "redis": StatusUp}, report.Checks)
	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{"database", "redis"}, c.Names())
}

func TestReadyReportsEveryFailure(t *testing.T) {
	c := NewChecker(50*time.Millisecond).
		Register("database", PingFunc(func(context.Context) error { return errors.New("connection refused") })).
		Register("redis", PingFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})).
		Register("cache", PingFunc(func(context.Context) error { panic("boom") })).
		Register("queue", PingFunc(func(context.Context) error { return nil }))

	report := c.Ready(context.Background())
	assert.False(t, report.Ready)
	assert.Equal(t, StatusDown, report.Checks["database"])
	assert.Equal(t, StatusDown, report.Checks["redis"])
	assert.Equal(t, StatusDown, report.Checks["cache"])
	assert.Equal(t, StatusUp, report.Checks["queue"])
	assert.Contains(t, report.Errors["database"], "connection refused")
	assert.Contains(t, report.Errors["cache"], "panicked")
}
