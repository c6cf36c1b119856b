package domain

import (
	"strings"
)

// Defaults returned when a key is unknown to the registry. A lead may
// reference a stage that was deleted or is mid-edit; lookups degrade to these
// rather than failing.
const (
	DefaultColor = "#9CA3AF"
	DefaultScore = 10
)

// DefaultCategory is the category substituted for unknown stage keys.
const DefaultCategory = CategoryNew

// noResponseFallbackKey identifies the terminal "No Response" stage when no
// configured stage name resolves to it.
const noResponseFallbackKey = "no_response"

// Registry is the in-memory lookup structure derived from the flat stage list.
// It is immutable once built; a settings mutation triggers a full re-fetch and
// rebuild rather than an incremental patch.
type Registry struct {
	nameToKey   map[string]string
	keyToRecord map[string]Stage
	active      []Stage
	noResponse  string
	skipped     []Stage
}

// FallbackKey derives the deterministic key for a stage that has no stage_key:
// the lower-cased name with all non-alphanumeric characters stripped. This is
// never persisted, so every rebuild must recompute it identically.
func FallbackKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolvedKey returns the stage's stable key: stage_key verbatim when present,
// otherwise the deterministic name fallback.
func ResolvedKey(s Stage) string {
	if strings.TrimSpace(s.StageKey) != "" {
		return strings.TrimSpace(s.StageKey)
	}
	return FallbackKey(s.Name)
}

// BuildRegistry derives the lookup maps and the active ordered stage list from
// the fetched stage records. Records with neither a stage_key nor a usable
// name are excluded from the maps and reported via Skipped for the caller to
// log; building never fails.
func BuildRegistry(stages []Stage) *Registry {
	r := &Registry{
		nameToKey:   make(map[string]string, len(stages)),
		keyToRecord: make(map[string]Stage, len(stages)),
	}

	for _, s := range stages {
		key := ResolvedKey(s)
		if key == "" {
			r.skipped = append(r.skipped, s)
			continue
		}

		r.nameToKey[s.Name] = key
		r.keyToRecord[key] = s

		if s.IsActive {
			r.active = append(r.active, s)
		}

		if r.noResponse == "" && isNoResponse(s.Name, key) {
			r.noResponse = key
		}
	}

	// Active stages come pre-sorted from the repository, but callers outside
	// the repository may hand in unsorted slices.
	sortStagesBySortOrder(r.active)

	if r.noResponse == "" {
		r.noResponse = noResponseFallbackKey
	}

	return r
}

func isNoResponse(name, key string) bool {
	return key == noResponseFallbackKey || FallbackKey(name) == "noresponse"
}

func sortStagesBySortOrder(stages []Stage) {
	for i := 1; i < len(stages); i++ {
		for j := i; j > 0 && stages[j].SortOrder < stages[j-1].SortOrder; j-- {
			stages[j], stages[j-1] = stages[j-1], stages[j]
		}
	}
}

// KeyFromName returns the key mapped to a stage display name. The second
// return is false when the name is not a known stage name; callers fall back
// to treating the input as already a key.
func (r *Registry) KeyFromName(name string) (string, bool) {
	key, ok := r.nameToKey[name]
	return key, ok
}

// NameFromKey returns the stage's display name, or the key itself when the
// key is unknown. Display strings must never be empty.
func (r *Registry) NameFromKey(key string) string {
	if s, ok := r.keyToRecord[key]; ok {
		return s.Name
	}
	return key
}

// Record returns the full stage record for a resolved key.
func (r *Registry) Record(key string) (Stage, bool) {
	s, ok := r.keyToRecord[key]
	return s, ok
}

// ColorOf returns the stage's display color, or a neutral default.
func (r *Registry) ColorOf(key string) string {
	if s, ok := r.keyToRecord[key]; ok && s.Color != "" {
		return s.Color
	}
	return DefaultColor
}

// ScoreOf returns the stage's heat score, or the documented default.
func (r *Registry) ScoreOf(key string) int {
	if s, ok := r.keyToRecord[key]; ok {
		return s.Score
	}
	return DefaultScore
}

// CategoryOf returns the stage's category, or the documented default.
func (r *Registry) CategoryOf(key string) Category {
	if s, ok := r.keyToRecord[key]; ok && KnownCategory(string(s.Category)) {
		return s.Category
	}
	return DefaultCategory
}

// Resolve canonicalizes a persisted stage value that may be either a key or a
// legacy display name: try-as-key, then name-to-key, then pass the raw value
// through so unresolvable data degrades to an opaque label instead of
// disappearing.
func (r *Registry) Resolve(value string) string {
	if _, ok := r.keyToRecord[value]; ok {
		return value
	}
	if key, ok := r.nameToKey[value]; ok {
		return key
	}
	return value
}

// ActiveStages returns the active stages in sort_order ascending.
func (r *Registry) ActiveStages() []Stage {
	out := make([]Stage, len(r.active))
	copy(out, r.active)
	return out
}

// FirstActiveKey returns the key of the first active stage in pipeline order.
// New leads always start here. The second return is false when no stage is
// active (settings mid-edit); callers should reject creation in that case.
func (r *Registry) FirstActiveKey() (string, bool) {
	if len(r.active) == 0 {
		return "", false
	}
	return ResolvedKey(r.active[0]), true
}

// NoResponseKey returns the key of the terminal "No Response" stage.
func (r *Registry) NoResponseKey() string {
	return r.noResponse
}

// Skipped returns stage records excluded from the maps for lacking both a
// stage_key and a usable name. The service logs these for operator attention.
func (r *Registry) Skipped() []Stage {
	return r.skipped
}
