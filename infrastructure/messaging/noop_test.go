package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"labeltree/domain/core/valueobjects"
	"labeltree/domain/events"
)

func TestNoopPublisher_DropsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	publisher := NewNoopPublisher(zap.New(core))

	err := publisher.Publish(context.Background(),
		events.NewNodeCreated(valueobjects.NodeIDFrom("a"), "a", nil, time.Now()),
	)

	assert.NoError(t, err)
	entries := logs.FilterMessage("Event bus disabled, dropping event").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "a", entries[0].ContextMap()["aggregateID"])
	}
}
