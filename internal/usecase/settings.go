package usecase

import (
	"strconv"
	"strings"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
)

// Keys of the settings table. A "<kind>." prefix scopes a key to one kind.
const (
	SettingMinScore          = "min_score"
	SettingRetentionMinScore = "retention_min_score"
	SettingCleanupDays       = "cleanup_days"
)

// ResolveSettings picks per-kind tunables from the raw table, falling back to
// configured defaults for missing or invalid values. min_score doubles as the
// retention floor unless retention_min_score is set.
func ResolveSettings(raw map[string]string, kind domain.Kind, defaults config.CurationConfig) domain.Settings {
	s := domain.Settings{
		PublishThreshold:  defaults.MinScore,
		RetentionMinScore: defaults.RetentionMinScore,
		CleanupDays:       defaults.CleanupDays,
	}

	minScore, hasMin := lookupInt(raw, kind, SettingMinScore, 0, domain.MaxScore)
	if hasMin {
		s.PublishThreshold = minScore
		s.RetentionMinScore = minScore
	}
	if v, ok := lookupInt(raw, kind, SettingRetentionMinScore, 0, domain.MaxScore); ok {
		s.RetentionMinScore = v
	}
	if v, ok := lookupInt(raw, kind, SettingCleanupDays, 1, 3650); ok {
		s.CleanupDays = v
	}
	if s.CleanupDays <= 0 {
		s.CleanupDays = 30
	}
	return s
}

func lookupInt(raw map[string]string, kind domain.Kind, key string, lo, hi int) (int, bool) {
	for _, k := range []string{string(kind) + "." + key, key} {
		value, ok := raw[k]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < lo || n > hi {
			continue
		}
		return n, true
	}
	return 0, false
}
