package piazza

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Target names the post a write goes to. Cid wins when both are set;
// otherwise ContentID is looked up to find the cid.
type Target struct {
	Cid       string
	ContentID string
}

func (c *Client) resolveCid(ctx context.Context, courseID string, target Target) (string, error) {
	if target.Cid != "" {
		return target.Cid, nil
	}
	if target.ContentID == "" {
		return "", errors.New("target needs a cid or a content id")
	}

	content, err := c.GetRawContent(ctx, target.ContentID, courseID)
	if err != nil {
		return "", err
	}
	if content == nil || content.String("id") == "" {
		return "", fmt.Errorf("content %s in course %s: %w", target.ContentID, courseID, ErrContentNotFound)
	}
	return content.String("id"), nil
}

type answerParams struct {
	Content   string `json:"content"`
	Type      string `json:"type"`
	Cid       string `json:"cid"`
	Revision  int    `json:"revision"`
	Anonymous string `json:"anonymous"`
}

type createParams struct {
	Content   string `json:"content"`
	Type      string `json:"type"`
	Revision  int    `json:"revision"`
	Anonymous string `json:"anonymous"`
	Nid       string `json:"nid"`
	Subject   string `json:"subject"`
	Cid       string `json:"cid"`
}

type markResolvedParams struct {
	Cid      string `json:"cid"`
	Resolved bool   `json:"resolved"`
}

// PostAnswer posts an answer of answerType (s_answer or i_answer). The
// response is not inspected.
func (c *Client) PostAnswer(ctx context.Context, courseID, answerText, answerType string, target Target) error {
	cid, err := c.resolveCid(ctx, courseID, target)
	if err != nil {
		logrus.WithError(err).Error("resolveCid failed")
		return err
	}

	_, err = c.call(ctx, methodAnswer, answerParams{
		Content:   answerText,
		Type:      answerType,
		Cid:       cid,
		Revision:  0,
		Anonymous: "no",
	}, c.newAid())
	return err
}

// PostFollowup opens a followup under the target and, if resolved is set,
// marks it resolved. It returns the new followup's id, or "" when piazza
// returned no result, in which case nothing further is sent.
func (c *Client) PostFollowup(ctx context.Context, courseID, followupText string, target Target, resolved bool) (string, error) {
	cid, err := c.resolveCid(ctx, courseID, target)
	if err != nil {
		logrus.WithError(err).Error("resolveCid failed")
		return "", err
	}

	res, err := c.call(ctx, methodCreate, createParams{
		Type:      typeFollowup,
		Anonymous: "no",
		Nid:       courseID,
		Subject:   followupText,
		Cid:       cid,
	}, c.newAid())
	if err != nil {
		return "", err
	}
	if !truthy(res.Result) {
		logrus.WithField("cid", cid).Warn("followup create returned no result")
		return "", nil
	}

	created := decodeRawContent(res.Result)
	followupCid := created.String("id")
	if followupCid == "" {
		return "", fmt.Errorf("%s: result carries no id", methodCreate)
	}

	if resolved {
		_, err = c.call(ctx, methodMarkResolved, markResolvedParams{Cid: followupCid, Resolved: true}, c.newAid())
		if err != nil {
			return followupCid, err
		}
	}
	return followupCid, nil
}

// PostFollowupComment replies to an existing followup. The response is not
// inspected.
func (c *Client) PostFollowupComment(ctx context.Context, courseID, commentText, cid string) error {
	_, err := c.call(ctx, methodCreate, createParams{
		Type:      typeFeedback,
		Anonymous: "no",
		Nid:       courseID,
		Subject:   commentText,
		Cid:       cid,
	}, c.newAid())
	return err
}

// truthy mirrors the falsiness piazza clients apply to a result: null, false,
// zero, and empty strings, lists and objects are all "no result".
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	}
	return true
}
