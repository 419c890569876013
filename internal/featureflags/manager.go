// Package featureflags evaluates the console's feature switches.
package featureflags

import (
	"hash/fnv"
	"slices"
	"strconv"
	"strings"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"
)

// ProductVariants gates the variant and type editors of the product form.
const ProductVariants = "product_variants"

// known flags are reported by Snapshot even when unconfigured.
var known = []string{ProductVariants}

type mode int

const (
	modeOff mode = iota
	modeOn
	modeRollout
	modeAllowlist
)

type flag struct {
	raw     string
	mode    mode
	percent int
	admins  []string
}

// Manager evaluates flags parsed from FEATURE_FLAGS, a comma separated list such as
//
//	product_variants=on,new_feed=25%,bulk_ban=admins:ops@ziogram.com|lead@ziogram.com
//
// Values are on/off (true/false, 1/0), a percentage rollout keyed by admin email, or an
// allowlist of admin emails.
type Manager struct {
	flags map[string]flag
}

// NewManager parses raw. Malformed entries are logged and treated as off.
func NewManager(raw string) *Manager {
	m := &Manager{flags: make(map[string]flag)}
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			if strings.TrimSpace(pair) != "" {
				observability.Logger.Warn("ignoring feature flag without a value", "entry", strings.TrimSpace(pair))
			}
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		f, ok := parseFlag(value)
		if !ok {
			observability.Logger.Warn("unrecognised feature flag value, flag is off", "flag", key, "value", value)
		}
		m.flags[key] = f
	}
	return m
}

func parseFlag(value string) (flag, bool) {
	f := flag{raw: value}
	switch value {
	case "on", "true", "1":
		f.mode = modeOn
		return f, true
	case "off", "false", "0":
		return f, true
	}

	if list, ok := strings.CutPrefix(value, "admins:"); ok {
		for _, admin := range strings.Split(list, "|") {
			if admin = normalize(admin); admin != "" {
				f.admins = append(f.admins, admin)
			}
		}
		f.mode = modeAllowlist
		return f, len(f.admins) > 0
	}

	if pct, ok := strings.CutSuffix(value, "%"); ok {
		n, err := strconv.Atoi(pct)
		if err != nil || n < 0 {
			return f, false
		}
		f.mode = modeRollout
		f.percent = min(n, 100)
		return f, true
	}
	return f, false
}

// Enabled reports whether flag name is on for admin.
func (m *Manager) Enabled(name, admin string) bool {
	if m == nil {
		return false
	}
	f, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}
	admin = normalize(admin)

	switch f.mode {
	case modeOn:
		return true
	case modeAllowlist:
		return slices.Contains(f.admins, admin)
	case modeRollout:
		switch {
		case f.percent == 0:
			return false
		case f.percent == 100:
			return true
		case admin == "":
			return false
		}
		return rolloutBucket(normalize(name), admin) < f.percent
	default:
		return false
	}
}

// Raw returns the configured value of every flag.
func (m *Manager) Raw() map[string]string {
	out := map[string]string{}
	if m == nil {
		return out
	}
	for name, f := range m.flags {
		out[name] = f.raw
	}
	return out
}

// Snapshot evaluates every configured and known flag for admin.
func (m *Manager) Snapshot(admin string) map[string]bool {
	out := make(map[string]bool)
	if m == nil {
		return out
	}
	for _, name := range known {
		out[name] = m.Enabled(name, admin)
	}
	for name := range m.flags {
		out[name] = m.Enabled(name, admin)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name, admin string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name + ":" + admin))
	return int(h.Sum32() % 100)
}
