package session

import (
	"strings"
	"time"

	"github.com/realitypatch/realitypatch/internal/models"
)

// DefaultFollowUpThreshold is how long after an assignment-bearing response a
// new message is treated as a follow-up even without follow-up wording.
const DefaultFollowUpThreshold = 12 * time.Hour

// FollowUpClassifier decides whether a new message continues a prior exchange.
// Implementations must be pure functions of their inputs; the caller persists
// the result onto the new interaction.
type FollowUpClassifier interface {
	Classify(message string, last *models.Interaction, now time.Time) bool
}

// strongFollowUpPhrases override all other signals: the user is explicitly
// reporting back, claiming completion, or making an excuse.
var strongFollowUpPhrases = []string{
	"i did it",
	"did it",
	"i didn't",
	"didn't do",
	"i did what",
	"like you asked",
	"as you asked",
	"you told me",
	"you asked me",
	"i'm back",
	"im back",
	"came back",
	"reporting back",
	"i failed",
	"i completed",
	"i finished",
	"finished it",
	"haven't done",
	"havent done",
	"my excuse",
	"no excuse",
	"excuse",
}

// weakFollowUpKeywords only count when the prior response actually issued an
// assignment; on their own they are too generic.
var weakFollowUpKeywords = []string{
	"did",
	"done",
	"task",
	"assignment",
	"finished",
	"yesterday",
	"progress",
}

// KeywordClassifier is the phrase-list follow-up classifier.
type KeywordClassifier struct {
	threshold time.Duration
}

// NewKeywordClassifier creates a classifier with the given time threshold.
// A zero or negative threshold falls back to DefaultFollowUpThreshold.
func NewKeywordClassifier(threshold time.Duration) *KeywordClassifier {
	if threshold <= 0 {
		threshold = DefaultFollowUpThreshold
	}
	return &KeywordClassifier{threshold: threshold}
}

// Classify implements FollowUpClassifier.
func (c *KeywordClassifier) Classify(message string, last *models.Interaction, now time.Time) bool {
	if last == nil {
		return false
	}

	lower := strings.ToLower(message)

	for _, phrase := range strongFollowUpPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	if !last.HasAssignment() {
		return false
	}

	for _, kw := range weakFollowUpKeywords {
		if containsWord(lower, kw) {
			return true
		}
	}

	return now.Sub(last.Timestamp) > c.threshold
}

// containsWord reports whether lower contains kw as a whole word, so "did"
// does not match "candidate".
func containsWord(lower, kw string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		beforeOK := start == 0 || !isWordChar(lower[start-1])
		afterOK := end == len(lower) || !isWordChar(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
		if idx >= len(lower) {
			return false
		}
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '\''
}
