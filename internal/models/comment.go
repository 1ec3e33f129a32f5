package models

// Comment is one bot review comment sourced from the GitHub API. Only Author
// and Body participate in classification; the rest is carried through for
// display.
type Comment struct {
	ID        int64  `json:"id,omitempty"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at,omitempty"`
	URL       string `json:"url,omitempty"`
	Body      string `json:"body"`
}

// CommentStatus is the coarse review status derived from a comment set.
type CommentStatus string

const (
	CommentStatusApproved         CommentStatus = "approved"
	CommentStatusChangesRequested CommentStatus = "changes_requested"
	CommentStatusPending          CommentStatus = "pending"
)
