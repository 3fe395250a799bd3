package sync

// ConflictPolicy is the rule applied when a synced record already exists
// at the target
type ConflictPolicy string

const (
	// PolicySourceWins overwrites the target record with the incoming one
	PolicySourceWins ConflictPolicy = "source_wins"
	// PolicyTargetWins discards the incoming change
	PolicyTargetWins ConflictPolicy = "target_wins"
	// PolicyMerge unions fields from both records, source winning ties
	PolicyMerge ConflictPolicy = "merge"
)

// IsValid returns true if the policy is valid
func (p ConflictPolicy) IsValid() bool {
	switch p {
	case PolicySourceWins, PolicyTargetWins, PolicyMerge:
		return true
	default:
		return false
	}
}

// String returns the string representation of ConflictPolicy
func (p ConflictPolicy) String() string {
	return string(p)
}

// Resolve applies the policy to an incoming record and the record already
// present at the target. Inputs are never mutated; the returned map is a
// fresh copy.
func (p ConflictPolicy) Resolve(incoming, existing map[string]any) map[string]any {
	switch p {
	case PolicyTargetWins:
		return copyRecord(existing)
	case PolicyMerge:
		merged := copyRecord(existing)
		// Field-by-field union; identical keys resolve to the source value.
		for k, v := range incoming {
			merged[k] = v
		}
		return merged
	default: // PolicySourceWins
		return copyRecord(incoming)
	}
}

func copyRecord(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}
