package record

import (
	"encoding/json"
)

// AnonymousUID stands in for authors piazza does not reveal.
const AnonymousUID = "ANON"

const (
	ErrorOutOfRange  = "Content_id out of range."
	ErrorNotQuestion = "Not a question."
	ErrorDeleted     = "Content was deleted."
)

type Comment struct {
	Uid     string `json:"uid"`
	Content string `json:"content"`
}

type Followup struct {
	Uid      string     `json:"uid"`
	Content  string     `json:"content"`
	Comments []*Comment `json:"comments"`
}

func (f Followup) MarshalJSON() ([]byte, error) {
	type plain Followup
	if f.Comments == nil {
		f.Comments = make([]*Comment, 0)
	}
	return json.Marshal(plain(f))
}

type Answer struct {
	Content string
	Upvotes int
}

// Question is the flattened form of a piazza question. A question that could
// not be produced only carries Error; everything else is left zero.
type Question struct {
	Error string

	Question        string
	QuestionUpvotes int
	Subject         string
	Cid             string
	Tags            string

	StudentAnswer    *Answer
	InstructorAnswer *Answer

	Followups []*Followup
}

func ErrorQuestion(reason string) *Question {
	return &Question{Error: reason}
}

func (q *Question) Valid() bool {
	return q.Error == ""
}

type questionDocument struct {
	Question        string `json:"question"`
	QuestionUpvotes int    `json:"question_upvotes"`
	Subject         string `json:"subject"`
	Cid             string `json:"cid"`
	Tags            string `json:"tags"`

	SAnswer        *string `json:"s_answer,omitempty"`
	SAnswerUpvotes *int    `json:"s_answer_upvotes,omitempty"`
	IAnswer        *string `json:"i_answer,omitempty"`
	IAnswerUpvotes *int    `json:"i_answer_upvotes,omitempty"`

	Followups []*Followup `json:"followups"`
}

type errorDocument struct {
	Error string `json:"error"`
}

func (q *Question) MarshalJSON() ([]byte, error) {
	if !q.Valid() {
		return json.Marshal(errorDocument{Error: q.Error})
	}

	doc := questionDocument{
		Question:        q.Question,
		QuestionUpvotes: q.QuestionUpvotes,
		Subject:         q.Subject,
		Cid:             q.Cid,
		Tags:            q.Tags,
		Followups:       q.Followups,
	}
	if doc.Followups == nil {
		doc.Followups = make([]*Followup, 0)
	}
	if a := q.StudentAnswer; a != nil {
		doc.SAnswer, doc.SAnswerUpvotes = &a.Content, &a.Upvotes
	}
	if a := q.InstructorAnswer; a != nil {
		doc.IAnswer, doc.IAnswerUpvotes = &a.Content, &a.Upvotes
	}
	return json.Marshal(doc)
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Error != nil {
		*q = Question{Error: *probe.Error}
		return nil
	}

	var doc questionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*q = Question{
		Question:        doc.Question,
		QuestionUpvotes: doc.QuestionUpvotes,
		Subject:         doc.Subject,
		Cid:             doc.Cid,
		Tags:            doc.Tags,
		Followups:       doc.Followups,
	}
	if doc.SAnswer != nil {
		q.StudentAnswer = &Answer{Content: *doc.SAnswer, Upvotes: derefInt(doc.SAnswerUpvotes)}
	}
	if doc.IAnswer != nil {
		q.InstructorAnswer = &Answer{Content: *doc.IAnswer, Upvotes: derefInt(doc.IAnswerUpvotes)}
	}
	return nil
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// MapText rewrites every free-text body of the question in place.
func (q *Question) MapText(fn func(string) string) {
	if !q.Valid() {
		return
	}
	q.Question = fn(q.Question)
	if q.StudentAnswer != nil {
		q.StudentAnswer.Content = fn(q.StudentAnswer.Content)
	}
	if q.InstructorAnswer != nil {
		q.InstructorAnswer.Content = fn(q.InstructorAnswer.Content)
	}
	for _, f := range q.Followups {
		f.Content = fn(f.Content)
		for _, c := range f.Comments {
			c.Content = fn(c.Content)
		}
	}
}
