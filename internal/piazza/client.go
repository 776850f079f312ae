package piazza

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/cookiejar"

	"github.com/davidleitw/piazza/internal/aid"
	"github.com/davidleitw/piazza/internal/record"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	// ApiPath is the single JSON-RPC style endpoint every call goes through.
	// Example: https://piazza.com/logic/api?method=content.get
	ApiPath = "/logic/api"

	methodLogin        = "user.login"
	methodContentGet   = "content.get"
	methodAnswer       = "content.answer"
	methodCreate       = "content.create"
	methodMarkResolved = "content.mark_resolved"

	loginOK = "OK"
)

// queryMethods holds the methods whose query parameter differs from the one in the body.
var queryMethods = map[string]string{
	methodContentGet: "get.content",
}

// Forum is everything a logged in piazza session can do.
type Forum interface {
	GetRawResponse(ctx context.Context, contentID, courseID string) (*Envelope, error)
	GetRawContent(ctx context.Context, contentID, courseID string) (RawContent, error)
	GetQuestionData(ctx context.Context, contentID, courseID string) (*record.Question, error)

	WriteCourseQuestions(ctx context.Context, courseID string, w QuestionWriter, startID, endID int) error
	WriteCourseQuestionData(ctx context.Context, courseID, outputPath string, startID, endID int) error
	IndexCourseData(ctx context.Context, indexer Indexer, index, docType, courseID string, startID, endID int) error
	WriteCourseDataElasticsearch(ctx context.Context, hosts []string, index, docType, courseID string, startID, endID int) error

	PostAnswer(ctx context.Context, courseID, answerText, answerType string, target Target) error
	PostFollowup(ctx context.Context, courseID, followupText string, target Target, resolved bool) (string, error)
	PostFollowupComment(ctx context.Context, courseID, commentText, cid string) error
}

// Client holds one authenticated piazza session. It is not safe for
// concurrent use.
type Client struct {
	http *resty.Client

	plainText bool
	progress  io.Writer
	newAid    func() string
}

var _ Forum = (*Client)(nil)

// NewClient logs in and returns a client bound to the resulting session.
// A rejected login yields an *AuthenticationError and no client.
func NewClient(ctx context.Context, user, password string, opts ...ClientOption) (*Client, error) {
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(o)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		logrus.WithError(err).Error("cookiejar.New failed")
		return nil, err
	}

	http := resty.New()
	http.SetBaseURL(o.BaseURL)
	http.SetCookieJar(jar)
	http.SetHeader("User-Agent", o.UserAgent)
	if o.Timeout > 0 {
		http.SetTimeout(o.Timeout)
	}

	c := &Client{
		http:      http,
		plainText: o.PlainText,
		progress:  o.Progress,
		newAid:    o.NewAid,
	}
	if c.newAid == nil {
		c.newAid = aid.New
	}

	if err := c.authenticate(ctx, user, password); err != nil {
		return nil, err
	}
	return c, nil
}

type rpcRequest struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  interface{}     `json:"error"`

	body []byte
}

// call sends one request and decodes the envelope. actionId is only set for
// write calls.
func (c *Client) call(ctx context.Context, method string, params interface{}, actionId string) (*rpcResponse, error) {
	queryMethod, ok := queryMethods[method]
	if !ok {
		queryMethod = method
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("method", queryMethod).
		SetBody(rpcRequest{Method: method, Params: params})
	if actionId != "" {
		req.SetQueryParam("aid", actionId)
	}

	logrus.WithFields(logrus.Fields{"method": method, "aid": actionId}).Debug("piazza call")
	res, err := req.Post(ApiPath)
	if err != nil {
		logrus.WithError(err).Errorf("POST %s failed", method)
		return nil, &TransportError{Method: method, Err: err}
	}
	if res.IsError() {
		err := fmt.Errorf("%s", bytes.TrimSpace(res.Body()))
		logrus.WithError(err).WithField("status", res.StatusCode()).Errorf("POST %s failed", method)
		return nil, &TransportError{Method: method, StatusCode: res.StatusCode(), Err: err}
	}

	out := &rpcResponse{body: res.Body()}
	if err := json.Unmarshal(out.body, out); err != nil {
		logrus.WithError(err).Errorf("decode %s response failed", method)
		return nil, &TransportError{Method: method, Err: err}
	}
	return out, nil
}

type loginParams struct {
	Email string `json:"email"`
	Pass  string `json:"pass"`
}

func (c *Client) authenticate(ctx context.Context, user, password string) error {
	res, err := c.call(ctx, methodLogin, loginParams{Email: user, Pass: password}, "")
	if err != nil {
		logrus.WithError(err).Error("login request failed")
		return err
	}

	var result string
	if err := json.Unmarshal(res.Result, &result); err == nil && result == loginOK {
		logrus.WithField("user", user).Info("Login success")
		return nil
	}

	reason := string(res.Result)
	if msg, ok := res.Error.(string); ok && msg != "" {
		reason = msg
	}
	logrus.WithField("reason", reason).Error("piazza rejected login")
	return &AuthenticationError{Reason: reason}
}
