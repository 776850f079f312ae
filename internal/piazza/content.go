package piazza

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
)

// RawContent is one piazza item (question, answer, followup, feedback) as
// decoded from the wire. Piazza publishes no schema for it, so fields are
// read through the accessors below, which fall back to zero values.
type RawContent map[string]interface{}

// Envelope is a decoded content.get response together with the exact bytes
// piazza sent.
type Envelope struct {
	Result RawContent
	Error  interface{}

	body []byte
}

// Raw returns the response body as received.
func (e *Envelope) Raw() json.RawMessage {
	return json.RawMessage(e.body)
}

type contentParams struct {
	Cid string `json:"cid"`
	Nid string `json:"nid"`
}

func (c *Client) GetRawResponse(ctx context.Context, contentID, courseID string) (*Envelope, error) {
	res, err := c.call(ctx, methodContentGet, contentParams{Cid: contentID, Nid: courseID}, "")
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"content_id": contentID,
			"course_id":  courseID,
		}).Error("content.get failed")
		return nil, err
	}

	return &Envelope{
		Result: decodeRawContent(res.Result),
		Error:  res.Error,
		body:   res.body,
	}, nil
}

// GetRawContent returns the result of content.get. A nil RawContent means
// piazza has nothing under that id.
func (c *Client) GetRawContent(ctx context.Context, contentID, courseID string) (RawContent, error) {
	envelope, err := c.GetRawResponse(ctx, contentID, courseID)
	if err != nil {
		return nil, err
	}
	return envelope.Result, nil
}

// decodeRawContent yields nil for null, non-object, and empty results alike.
func decodeRawContent(raw json.RawMessage) RawContent {
	if len(raw) == 0 {
		return nil
	}
	var content RawContent
	if err := json.Unmarshal(raw, &content); err != nil || len(content) == 0 {
		return nil
	}
	return content
}

func (rc RawContent) Has(key string) bool {
	_, ok := rc[key]
	return ok
}

// String renders a scalar field as text. Missing and null fields give "".
func (rc RawContent) String(key string) string {
	return stringify(rc[key])
}

// Len counts the entries of a list field.
func (rc RawContent) Len(key string) int {
	list, _ := rc[key].([]interface{})
	return len(list)
}

func (rc RawContent) Strings(key string) []string {
	list, _ := rc[key].([]interface{})
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, stringify(v))
	}
	return out
}

// Items returns the object entries of a list field, skipping anything else.
func (rc RawContent) Items(key string) []RawContent {
	list, _ := rc[key].([]interface{})
	out := make([]RawContent, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]interface{}); ok {
			out = append(out, RawContent(m))
		}
	}
	return out
}

func (rc RawContent) Children() []RawContent {
	return rc.Items("children")
}

// FirstRevision is the first entry of the history list, or nil.
func (rc RawContent) FirstRevision() RawContent {
	history := rc.Items("history")
	if len(history) == 0 {
		return nil
	}
	return history[0]
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}
