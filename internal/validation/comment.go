package validation

import (
	"strings"

	"github.com/steveyegge/redline/internal/idgen"
	"github.com/steveyegge/redline/internal/types"
)

// MaxCommentLength bounds comment content, in characters.
const MaxCommentLength = 10000

// CommentForm is the user-editable part of a comment.
type CommentForm struct {
	Content string
}

// ValidateCommentForm checks a comment form. Whitespace-only content
// counts as empty.
func ValidateCommentForm(form CommentForm) FieldErrors {
	errs := FieldErrors{}
	switch {
	case strings.TrimSpace(form.Content) == "":
		errs["content"] = "Comment cannot be empty"
	case runeLen(form.Content) > MaxCommentLength:
		errs["content"] = "Comment must be less than 10000 characters"
	}
	return errs
}

// NewCommentFromForm builds a comment on issueID by authorID.
func NewCommentFromForm(form CommentForm, issueID, authorID string, ids idgen.Generator, clock types.Clock) types.Comment {
	now := clock.Now()
	return types.Comment{
		ID:        ids.NewID(),
		IssueID:   issueID,
		AuthorID:  authorID,
		Content:   strings.TrimSpace(form.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateCommentFromForm replaces a comment's content.
func UpdateCommentFromForm(existing types.Comment, form CommentForm, clock types.Clock) types.Comment {
	existing.Content = strings.TrimSpace(form.Content)
	existing.UpdatedAt = clock.Now()
	return existing
}
