// Package normalize composes response extraction and comment classification
// into one normalized review record for a pipeline iteration.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prgate/prgate/internal/comments"
	"github.com/prgate/prgate/internal/extract"
	"github.com/prgate/prgate/internal/models"
)

// InputError marks a structurally invalid top-level input. Malformed fields
// inside individual comments are tolerated with defaults and never produce
// this error.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// GreptileReview is the classified second-bot portion of a normalized review.
type GreptileReview struct {
	Comments []models.Comment     `json:"comments"`
	Status   models.CommentStatus `json:"status"`
}

// Review is one iteration's normalized review record.
type Review struct {
	Iteration int            `json:"iteration"`
	Opus      models.Outcome `json:"opus"`
	Greptile  GreptileReview `json:"greptile"`
}

// Normalizer pairs an extractor with a comment classifier.
type Normalizer struct {
	extractor  *extract.Extractor
	classifier *comments.Classifier
}

// New returns a normalizer using the given reviewer identity for comment
// filtering.
func New(identity string) *Normalizer {
	return &Normalizer{
		extractor:  extract.New(),
		classifier: comments.NewClassifier(identity),
	}
}

// Normalize extracts the model outcome from responseText, classifies the raw
// comment payload, and returns the combined record. It fails only when the
// comment payload is not a JSON array or object.
func (n *Normalizer) Normalize(iteration int, responseText string, rawComments []byte) (*Review, error) {
	parsed, err := ParseComments(rawComments)
	if err != nil {
		return nil, err
	}

	filtered, status := n.classifier.Classify(parsed)
	return &Review{
		Iteration: iteration,
		Opus:      n.extractor.Extract(responseText),
		Greptile:  GreptileReview{Comments: filtered, Status: status},
	}, nil
}

// rawComment mirrors the GitHub issue-comment shape; every field is optional.
type rawComment struct {
	ID   int64 `json:"id"`
	User struct {
		Login string `json:"login"`
	} `json:"user"`
	CreatedAt string `json:"created_at"`
	HTMLURL   string `json:"html_url"`
	Body      string `json:"body"`
}

// ParseComments decodes a raw comment payload. A single object is normalized
// to a one-element list; an empty payload yields an empty list. Missing
// fields default (author "unknown", body "") rather than failing.
func ParseComments(raw []byte) ([]models.Comment, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []models.Comment{}, nil
	}

	var rawList []rawComment
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal([]byte(trimmed), &rawList); err != nil {
			return nil, &InputError{Reason: fmt.Sprintf("comment array: %v", err)}
		}
	case '{':
		var single rawComment
		if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
			return nil, &InputError{Reason: fmt.Sprintf("comment object: %v", err)}
		}
		rawList = []rawComment{single}
	default:
		return nil, &InputError{Reason: "comment payload is not a JSON array or object"}
	}

	out := make([]models.Comment, 0, len(rawList))
	for _, rc := range rawList {
		author := rc.User.Login
		if author == "" {
			author = "unknown"
		}
		out = append(out, models.Comment{
			ID:        rc.ID,
			Author:    author,
			CreatedAt: rc.CreatedAt,
			URL:       rc.HTMLURL,
			Body:      rc.Body,
		})
	}
	return out, nil
}
