package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-autopilot/internal/pipeline"
)

func TestHub_PublishSubscribe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	events, cancel := hub.Subscribe("run-1")
	defer cancel()

	hub.Publish(pipeline.ProgressEvent{RunID: "run-1", Stage: "searching"})
	hub.Publish(pipeline.ProgressEvent{RunID: "run-2", Stage: "scoring"})

	got := <-events
	assert.Equal(t, "searching", got.Stage)

	// Nothing from the other run was delivered.
	select {
	case ev := <-events:
		t.Fatalf("unexpected event: %+v", ev)
	default:
	}
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	events, cancel := hub.Subscribe("run-1")
	cancel()

	// Publishing after cancel must not panic; the channel is closed.
	hub.Publish(pipeline.ProgressEvent{RunID: "run-1", Stage: "searching"})

	_, open := <-events
	assert.False(t, open)
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	events, cancel := hub.Subscribe("run-1")
	defer cancel()

	// Fill past the buffer; Publish must never block.
	for i := 0; i < 64; i++ {
		hub.Publish(pipeline.ProgressEvent{RunID: "run-1", Stage: "applying"})
	}

	drained := 0
	for {
		select {
		case <-events:
			drained++
			continue
		default:
		}
		break
	}
	require.Greater(t, drained, 0)
	assert.LessOrEqual(t, drained, 16)
}

func TestHub_CloseClosesSubscribers(t *testing.T) {
	hub := NewHub()
	events, _ := hub.Subscribe("run-1")

	hub.Close()

	_, open := <-events
	assert.False(t, open)

	// Subscribe after close returns a closed channel.
	late, cancel := hub.Subscribe("run-2")
	defer cancel()
	_, open = <-late
	assert.False(t, open)
}
