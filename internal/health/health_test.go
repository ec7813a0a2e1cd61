package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAllHealthy(t *testing.T) {
	c := NewChecker("instance-x")
	c.Register(Probe{Name: "pool-a", Check: func(ctx context.Context) error { return nil }})
	c.Register(Probe{Name: "pool-b", Check: func(ctx context.Context) error { return nil }})

	report := c.Check(context.Background())
	require.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, "instance-x", report.InstanceID)
	require.Len(t, report.Components, 2)
	for _, comp := range report.Components {
		assert.Equal(t, StatusHealthy, comp.Status)
	}
}

func TestCheckOneFailingProbeMarksOverallUnhealthy(t *testing.T) {
	c := NewChecker("instance-x")
	c.Register(Probe{Name: "pool-a", Check: func(ctx context.Context) error { return nil }})
	c.Register(Probe{Name: "pool-b", Check: func(ctx context.Context) error { return errors.New("exhausted") }})

	report := c.Check(context.Background())
	require.Equal(t, StatusUnhealthy, report.Status)

	var failing ComponentHealth
	for _, comp := range report.Components {
		if comp.Name == "pool-b" {
			failing = comp
		}
	}
	assert.Equal(t, StatusUnhealthy, failing.Status)
	assert.Equal(t, "exhausted", failing.Message)
}

func TestCheckWithNoProbesIsHealthy(t *testing.T) {
	c := NewChecker("instance-x")
	report := c.Check(context.Background())
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Empty(t, report.Components)
}
