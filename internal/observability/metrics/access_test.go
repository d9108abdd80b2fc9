package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMetric struct {
	kind string
	name string
	tags map[string]string
}

type recordingSink struct {
	mu      sync.Mutex
	metrics []recordedMetric
}

func (s *recordingSink) add(kind, name string, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, recordedMetric{kind: kind, name: name, tags: tags})
}

func (s *recordingSink) Count(name string, _ int64, tags map[string]string) { s.add("count", name, tags) }
func (s *recordingSink) Gauge(name string, _ float64, tags map[string]string) {
	s.add("gauge", name, tags)
}
func (s *recordingSink) Timing(name string, _ time.Duration, tags map[string]string) {
	s.add("timing", name, tags)
}

func TestEmitAccessDecision(t *testing.T) {
	sink := &recordingSink{}
	EmitAccessDecision(sink, AccessMetric{Action: "redirect_to_login", Area: "admin", Duration: time.Millisecond})

	require.Len(t, sink.metrics, 2)
	assert.Equal(t, "access.decision", sink.metrics[0].name)
	assert.Equal(t, map[string]string{"action": "redirect_to_login", "area": "admin", "logged_in": "false"},
		sink.metrics[0].tags)
	assert.Equal(t, "timing", sink.metrics[1].kind)
}

func TestEmitRoleStoreFailure(t *testing.T) {
	sink := &recordingSink{}
	EmitRoleStoreFailure(sink, nil)
	assert.Empty(t, sink.metrics)

	EmitRoleStoreFailure(sink, errors.New("boom"))
	require.Len(t, sink.metrics, 1)
	assert.Equal(t, ResultError, sink.metrics[0].tags["result"])
	assert.NotEmpty(t, sink.metrics[0].tags["error_class"])
}

func TestEmitHelpersTolerateNilSink(t *testing.T) {
	EmitAccessDecision(nil, AccessMetric{})
	EmitRoleStoreFailure(nil, errors.New("x"))
	EmitCacheLookup(nil, "roles", true)
	EmitLogin(nil, "password", nil)
	EmitSessionRevokeFailure(nil, errors.New("x"))
}

func TestEmitSessionRevokeFailure(t *testing.T) {
	sink := &recordingSink{}
	EmitSessionRevokeFailure(sink, nil)
	assert.Empty(t, sink.metrics)

	EmitSessionRevokeFailure(sink, errors.New("redis down"))
	require.Len(t, sink.metrics, 1)
	assert.Equal(t, "auth.session_revoke", sink.metrics[0].name)
	assert.Equal(t, ResultError, sink.metrics[0].tags["result"])
}

func TestEmitCacheLookupAndLogin(t *testing.T) {
	sink := &recordingSink{}
	EmitCacheLookup(sink, "public", false)
	EmitLogin(sink, "oidc", errors.New("denied"))

	require.Len(t, sink.metrics, 2)
	assert.Equal(t, ResultMiss, sink.metrics[0].tags["result"])
	assert.Equal(t, "auth.login", sink.metrics[1].name)
	assert.Equal(t, ResultError, sink.metrics[1].tags["result"])
}
