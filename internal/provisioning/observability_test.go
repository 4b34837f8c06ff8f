package provisioning

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger() (logr.Logger, *[]string) {
	var lines []string
	log := funcr.New(func(prefix, args string) {
		lines = append(lines, strings.TrimSpace(prefix+" "+args))
	}, funcr.Options{})
	return log, &lines
}

func TestLogObserver_Printf(t *testing.T) {
	t.Parallel()
	log, lines := captureLogger()

	NewLogObserver(log).Printf("launching %d workers", 3)

	require.Len(t, *lines, 1)
	assert.Contains(t, (*lines)[0], `"msg"="launching 3 workers"`)
}

func TestLogObserver_Event(t *testing.T) {
	t.Parallel()
	log, lines := captureLogger()

	NewLogObserver(log).Event(Event{
		Type:     EventResourceCreated,
		Phase:    "workers",
		Resource: "i-1",
		Message:  "instance created",
		Fields:   map[string]string{"id": "i-1"},
	})

	require.Len(t, *lines, 1)
	line := (*lines)[0]
	assert.Contains(t, line, `"msg"="instance created"`)
	assert.Contains(t, line, `"event"="resource.created"`)
	assert.Contains(t, line, `"phase"="workers"`)
	assert.Contains(t, line, `"resource"="i-1"`)
	assert.Contains(t, line, `"id"="i-1"`)
}

func TestLogObserver_PhaseFailedIsError(t *testing.T) {
	t.Parallel()
	log, lines := captureLogger()

	LogPhaseFailed(NewLogObserver(log), "coordinator", errors.New("boom"))

	require.Len(t, *lines, 1)
	assert.Contains(t, (*lines)[0], `"error"=null`)
	assert.Contains(t, (*lines)[0], "failed: boom")
}

func TestLogObserver_Progress(t *testing.T) {
	t.Parallel()
	log, lines := captureLogger()
	observer := NewLogObserver(log)

	observer.Progress("service", 1, 4)
	observer.Progress("service", 0, 0)

	require.Len(t, *lines, 2)
	assert.Contains(t, (*lines)[0], `"percent"=25`)
	assert.NotContains(t, (*lines)[1], "percent")
}

func TestLogObserver_WithFields(t *testing.T) {
	t.Parallel()
	log, lines := captureLogger()
	base := NewLogObserver(log)

	child := base.WithFields(map[string]string{"cluster": "prod"})
	child.WithFields(map[string]string{"role": "worker"}).Printf("attached")
	base.Printf("plain")

	require.Len(t, *lines, 2)
	assert.Contains(t, (*lines)[0], `"cluster"="prod"`)
	assert.Contains(t, (*lines)[0], `"role"="worker"`)
	assert.NotContains(t, (*lines)[1], "cluster")
}

func TestLogPhaseComplete(t *testing.T) {
	t.Parallel()
	observer := &recordingObserver{}

	LogPhaseComplete(observer, "storage", 1500*time.Microsecond)

	require.Len(t, observer.events, 1)
	assert.Equal(t, EventPhaseCompleted, observer.events[0].Type)
	assert.Equal(t, "completed in 2ms", observer.events[0].Message)
}
