package models

// Action is what the duplicate resolver wants done with a candidate.
type Action int

const (
	// ActionInsert adds the candidate as a new catalog row.
	ActionInsert Action = iota
	// ActionReplace overwrites an existing row's content in place,
	// preserving its id and created_at.
	ActionReplace
	// ActionSkip drops the candidate.
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionReplace:
		return "replace"
	case ActionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Match reasons produced by the duplicate resolver.
const (
	MatchExactURL    = "exact-url"
	MatchCrossSource = "same-author-cross-source"
	MatchTitleCombo  = "title-similarity-combo"
)

// DuplicateMatch records why a candidate was considered a duplicate of an
// existing clip. Transient; surfaces in logs and decisions only.
type DuplicateMatch struct {
	CandidateID string  `json:"candidate_id"`
	ClipID      int64   `json:"clip_id"`
	Score       float64 `json:"score"`
	Reason      string  `json:"reason"`
}

// Decision is the resolver's verdict for one candidate.
type Decision struct {
	Action     Action          `json:"action"`
	ExistingID int64           `json:"existing_id,omitempty"` // set for replace/skip
	Match      *DuplicateMatch `json:"match,omitempty"`
}

func Insert() Decision { return Decision{Action: ActionInsert} }

func Replace(id int64, m *DuplicateMatch) Decision {
	return Decision{Action: ActionReplace, ExistingID: id, Match: m}
}

func Skip(id int64, m *DuplicateMatch) Decision {
	return Decision{Action: ActionSkip, ExistingID: id, Match: m}
}
