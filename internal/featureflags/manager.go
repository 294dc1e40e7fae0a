// Package featureflags evaluates rollout flags configured through FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Flag names a feature flag.
type Flag string

const (
	// FeedAuthorCache serves the feed author set from Redis instead of the follows table.
	FeedAuthorCache Flag = "feed_author_cache"
	// DomainEvents publishes follow/like/post events to the event bus.
	DomainEvents Flag = "domain_events"
)

type rule struct {
	raw     string
	enabled bool
	percent int // -1 when the rule is a plain on/off switch
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "feed_author_cache=on,domain_events=25%"
type Manager struct {
	rules map[Flag]rule
}

// NewManager parses a comma-separated config string. Malformed entries are skipped.
func NewManager(raw string) *Manager {
	rules := make(map[Flag]rule)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		if r, ok := parseRule(value); ok {
			rules[Flag(key)] = r
		}
	}

	return &Manager{rules: rules}
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, enabled: true, percent: -1}, true
	case "off", "false", "0":
		return rule{raw: value, percent: -1}, true
	}
	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return rule{}, false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil {
		return rule{}, false
	}
	return rule{raw: value, percent: min(max(pct, 0), 100)}, true
}

// Enabled reports whether flag is on for userID. Percentage rollouts are
// deterministic per (flag, user) and never apply to the anonymous user 0.
func (m *Manager) Enabled(flag Flag, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[Flag(normalize(string(flag)))]
	if !ok {
		return false
	}
	switch {
	case r.percent < 0:
		return r.enabled
	case r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == 0:
		return false
	default:
		return rolloutBucket(flag, userID) < r.percent
	}
}

// Raw returns the configured value of every recognised flag.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for k, r := range m.rules {
		out[string(k)] = r.raw
	}
	return out
}

// Configured reports whether FEATURE_FLAGS names flag at all.
func (m *Manager) Configured(flag Flag) bool {
	if m == nil {
		return false
	}
	_, ok := m.rules[Flag(normalize(string(flag)))]
	return ok
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[string(name)] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(flag Flag, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(string(flag)), userID)
	return int(h.Sum32() % 100)
}
