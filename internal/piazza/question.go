package piazza

import (
	"context"
	"strings"

	"github.com/davidleitw/piazza/internal/htmltext"
	"github.com/davidleitw/piazza/internal/record"
)

const (
	typeQuestion         = "question"
	typeStudentAnswer    = "s_answer"
	typeInstructorAnswer = "i_answer"
	typeFollowup         = "followup"
	typeFeedback         = "feedback"

	statusDeleted = "deleted"
)

// Classify reports why content cannot become a question document, or "" if it can.
// A missing status counts as deleted.
func Classify(content RawContent) string {
	switch {
	case len(content) == 0:
		return record.ErrorOutOfRange
	case content.String("type") != typeQuestion:
		return record.ErrorNotQuestion
	case !content.Has("status") || content.String("status") == statusDeleted:
		return record.ErrorDeleted
	}
	return ""
}

// Normalize flattens a content.get result into a question document. When
// several children share an answer type, the last one in source order wins.
func Normalize(content RawContent) *record.Question {
	if reason := Classify(content); reason != "" {
		return record.ErrorQuestion(reason)
	}

	first := content.FirstRevision()
	q := &record.Question{
		Question:        first.String("content"),
		QuestionUpvotes: content.Len("tag_good_arr"),
		Subject:         first.String("subject"),
		Cid:             content.String("id"),
		Tags:            strings.Join(content.Strings("tags"), " "),
		Followups:       make([]*record.Followup, 0),
	}

	for _, child := range content.Children() {
		switch child.String("type") {
		case typeStudentAnswer:
			if answer := normalizeAnswer(child); answer != nil {
				q.StudentAnswer = answer
			}
		case typeInstructorAnswer:
			if answer := normalizeAnswer(child); answer != nil {
				q.InstructorAnswer = answer
			}
		case typeFollowup:
			q.Followups = append(q.Followups, normalizeFollowup(child))
		}
	}
	return q
}

func normalizeAnswer(child RawContent) *record.Answer {
	if child.Len("history") == 0 {
		return nil
	}
	return &record.Answer{
		Content: child.FirstRevision().String("content"),
		Upvotes: child.Len("tag_endorse"),
	}
}

func normalizeFollowup(child RawContent) *record.Followup {
	followup := &record.Followup{
		Uid:      uidOf(child),
		Content:  child.String("subject"),
		Comments: make([]*record.Comment, 0),
	}
	for _, comment := range child.Children() {
		followup.Comments = append(followup.Comments, &record.Comment{
			Uid:     uidOf(comment),
			Content: comment.String("subject"),
		})
	}
	return followup
}

func uidOf(content RawContent) string {
	if content["uid"] == nil {
		return record.AnonymousUID
	}
	return content.String("uid")
}

// GetQuestionData fetches one content id and normalizes it. Unusable content
// is reported through the document's Error field, never as an error value.
func (c *Client) GetQuestionData(ctx context.Context, contentID, courseID string) (*record.Question, error) {
	content, err := c.GetRawContent(ctx, contentID, courseID)
	if err != nil {
		return nil, err
	}

	q := Normalize(content)
	if c.plainText {
		q.MapText(htmltext.ToText)
	}
	return q, nil
}
