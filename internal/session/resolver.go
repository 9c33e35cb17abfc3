package session

import (
	"strings"

	"github.com/realitypatch/realitypatch/internal/models"
)

// DefaultMaxPendingConsidered bounds how many pending assignments the resolver
// looks at, keeping prompt context small.
const DefaultMaxPendingConsidered = 5

// MatchKind classifies the resolver outcome.
type MatchKind string

const (
	// MatchNone means the message makes no completion claim, or there is
	// nothing pending to match it against.
	MatchNone MatchKind = "none"
	// MatchAssignment means the claim resolved to a specific assignment.
	MatchAssignment MatchKind = "assignment"
	// MatchUnclear means a single-completion claim could not be matched to
	// any one of several pending assignments.
	MatchUnclear MatchKind = "unclear"
	// MatchMassUnclear means a vague mass-completion claim was made with two
	// or more assignments outstanding. The caller must challenge for
	// specifics rather than mark anything complete.
	MatchMassUnclear MatchKind = "mass_unclear"
)

// Match is the resolver result. AssignmentID is set only for MatchAssignment.
type Match struct {
	Kind         MatchKind
	AssignmentID int64
}

// AssignmentResolver decides which pending assignment, if any, a follow-up
// message is reporting on. Pure function over the message and a history
// snapshot.
type AssignmentResolver interface {
	Resolve(message string, history []models.Interaction) Match
}

// massCompletionPhrases claim everything at once. With multiple assignments
// outstanding these are never silently accepted.
var massCompletionPhrases = []string{
	"finished all",
	"did all",
	"done all",
	"completed all",
	"finished both",
	"did both",
	"done both",
	"completed both",
	"all done",
	"all of them",
	"both of them",
	"did everything",
	"finished everything",
	"done everything",
	"completed everything",
}

// completionPhrases indicate the user claims to have done something specific.
var completionPhrases = []string{
	"i did it",
	"did it",
	"i did the",
	"i did my",
	"i did what",
	"i finished",
	"finished it",
	"finished the",
	"finished my",
	"i completed",
	"completed it",
	"completed the",
	"completed my",
	"it's done",
	"its done",
	"it is done",
	"i wrote",
	"wrote them",
	"wrote it",
	"i made",
	"i sent",
	"i called",
	"i talked",
	"i asked",
	"i deleted",
	"i applied",
	"like you asked",
	"as you asked",
	"just did",
}

// contentCategories group action keywords so a completion claim can be matched
// against the assignment that asked for that kind of action. A category counts
// for an assignment when any of its keywords appears in the assignment text,
// and for a message likewise.
var contentCategories = map[string][]string{
	"writing":      {"write", "wrote", "written", "writing", "list", "journal", "note"},
	"calling":      {"call", "called", "calling", "phone", "dial"},
	"messaging":    {"email", "emailed", "message", "messaged", "text", "texted", "sent", "send", "dm"},
	"conversation": {"talk", "talked", "tell", "told", "ask", "asked", "conversation", "speak", "spoke"},
	"exercise":     {"gym", "run", "ran", "workout", "exercise", "walk", "walked"},
	"business":     {"business", "idea", "ideas", "startup", "pitch", "customer"},
	"applying":     {"apply", "applied", "application", "resume", "cv", "interview"},
	"removal":      {"delete", "deleted", "remove", "removed", "uninstall", "uninstalled", "block", "blocked"},
	"scheduling":   {"schedule", "scheduled", "calendar", "book", "booked", "appointment"},
}

// KeywordResolver is the phrase-list assignment resolver.
type KeywordResolver struct {
	maxPending int
}

// NewKeywordResolver creates a resolver that considers at most maxPending
// pending assignments (most recent first); zero or negative means the default.
func NewKeywordResolver(maxPending int) *KeywordResolver {
	if maxPending <= 0 {
		maxPending = DefaultMaxPendingConsidered
	}
	return &KeywordResolver{maxPending: maxPending}
}

// Resolve implements AssignmentResolver.
func (r *KeywordResolver) Resolve(message string, history []models.Interaction) Match {
	lower := strings.ToLower(message)

	massClaim := containsAny(lower, massCompletionPhrases)
	singleClaim := containsAny(lower, completionPhrases)
	if !massClaim && !singleClaim {
		return Match{Kind: MatchNone}
	}

	pending := models.PendingAssignments(history, r.maxPending)

	if massClaim {
		switch len(pending) {
		case 0:
			return Match{Kind: MatchNone}
		case 1:
			// Benefit of the doubt: "did everything" with one thing
			// outstanding can only mean that one.
			return Match{Kind: MatchAssignment, AssignmentID: pending[0].ID}
		default:
			return Match{Kind: MatchMassUnclear}
		}
	}

	switch len(pending) {
	case 0:
		return Match{Kind: MatchNone}
	case 1:
		return Match{Kind: MatchAssignment, AssignmentID: pending[0].ID}
	}

	// Several assignments outstanding: try to match the claim's content
	// categories against each pending assignment's response text, most
	// recent first.
	msgCategories := categoriesIn(lower)
	if len(msgCategories) > 0 {
		for i := len(pending) - 1; i >= 0; i-- {
			text := strings.ToLower(pending[i].Response)
			for _, cat := range msgCategories {
				if anyKeywordIn(text, contentCategories[cat]) {
					return Match{Kind: MatchAssignment, AssignmentID: pending[i].ID}
				}
			}
		}
	}

	return Match{Kind: MatchUnclear}
}

// IsMassClaim reports whether the message uses mass-completion phrasing.
// Exposed so the context builder can instruct the generator to challenge
// vagueness.
func IsMassClaim(message string) bool {
	return containsAny(strings.ToLower(message), massCompletionPhrases)
}

// IsCompletionClaim reports whether the message makes any completion claim,
// single or mass.
func IsCompletionClaim(message string) bool {
	lower := strings.ToLower(message)
	return containsAny(lower, massCompletionPhrases) || containsAny(lower, completionPhrases)
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func anyKeywordIn(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if containsWord(lower, kw) {
			return true
		}
	}
	return false
}

// categoriesIn returns the content categories whose keywords appear in the
// message, in stable order.
func categoriesIn(lower string) []string {
	var cats []string
	for _, name := range categoryOrder {
		if anyKeywordIn(lower, contentCategories[name]) {
			cats = append(cats, name)
		}
	}
	return cats
}

// categoryOrder keeps category matching deterministic; map iteration order is
// not.
var categoryOrder = []string{
	"writing",
	"calling",
	"messaging",
	"conversation",
	"exercise",
	"business",
	"applying",
	"removal",
	"scheduling",
}
