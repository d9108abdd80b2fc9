// Package metrics emits the portal's standard StatsD metrics.
package metrics

import (
	"time"

	obserrors "github.com/target/lab-portal/internal/observability/errors"
	"github.com/target/lab-portal/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultMiss    = "miss"
	ResultHit     = "hit"
)

// AccessMetric describes one access router decision.
type AccessMetric struct {
	Action   string
	Area     string
	LoggedIn bool
	Duration time.Duration
}

// EmitAccessDecision counts a router decision and records how long it took.
func EmitAccessDecision(sink statsd.Sink, in AccessMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"action":    in.Action,
		"area":      in.Area,
		"logged_in": boolTag(in.LoggedIn),
	}
	sink.Count("access.decision", 1, tags)
	if in.Duration > 0 {
		sink.Timing("access.duration", in.Duration, CloneTags(tags))
	}
}

// EmitRoleStoreFailure counts a Role Store lookup that failed during routing.
func EmitRoleStoreFailure(sink statsd.Sink, err error) {
	if sink == nil || err == nil {
		return
	}
	tags := map[string]string{"result": ResultError}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
	sink.Count("access.role_store", 1, tags)
}

// EmitSessionRevokeFailure counts a role change whose sessions could not be
// revoked. Those sessions keep their old role list until they expire.
func EmitSessionRevokeFailure(sink statsd.Sink, err error) {
	if sink == nil || err == nil {
		return
	}
	tags := map[string]string{"result": ResultError}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
	sink.Count("auth.session_revoke", 1, tags)
}

// EmitCacheLookup counts a cache hit or miss for the named cache.
func EmitCacheLookup(sink statsd.Sink, cache string, hit bool) {
	if sink == nil {
		return
	}
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	sink.Count("cache.lookup", 1, map[string]string{"cache": cache, "result": result})
}

// EmitLogin counts a login attempt by method and outcome.
func EmitLogin(sink statsd.Sink, method string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"method": method, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("auth.login", 1, tags)
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
