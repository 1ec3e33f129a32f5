// Package comments filters bot review comments down to a recognized reviewer
// identity and derives a coarse review status from their text.
package comments

import (
	"strings"

	"github.com/prgate/prgate/internal/models"
)

// DefaultIdentity is the reviewer-identity substring matched against comment
// authors and bodies when none is configured.
const DefaultIdentity = "greptile"

var (
	changesPhrases = []string{"changes requested", "request changes", "request-changes"}
	approvePhrases = []string{"approved", "lgtm"}
)

// Classifier recognizes comments from one reviewer identity.
type Classifier struct {
	identity string
}

// NewClassifier returns a classifier for the given identity substring. An
// empty identity falls back to DefaultIdentity.
func NewClassifier(identity string) *Classifier {
	if identity == "" {
		identity = DefaultIdentity
	}
	return &Classifier{identity: strings.ToLower(identity)}
}

// Classify retains comments whose author or body contains the reviewer
// identity (case-insensitive, order preserved) and derives a status:
// explicit change-request phrasing wins, then approval phrasing, then
// pending for an empty set. Any other non-empty set is conservatively
// treated as requesting changes.
func (c *Classifier) Classify(all []models.Comment) ([]models.Comment, models.CommentStatus) {
	filtered := []models.Comment{}
	for _, cm := range all {
		if strings.Contains(strings.ToLower(cm.Author), c.identity) ||
			strings.Contains(strings.ToLower(cm.Body), c.identity) {
			filtered = append(filtered, cm)
		}
	}

	for _, cm := range filtered {
		if containsAny(cm.Body, changesPhrases) {
			return filtered, models.CommentStatusChangesRequested
		}
	}
	for _, cm := range filtered {
		if containsAny(cm.Body, approvePhrases) {
			return filtered, models.CommentStatusApproved
		}
	}
	if len(filtered) == 0 {
		return filtered, models.CommentStatusPending
	}
	return filtered, models.CommentStatusChangesRequested
}

func containsAny(body string, phrases []string) bool {
	lower := strings.ToLower(body)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
