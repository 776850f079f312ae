package piazza

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testUser     = "student@example.com"
	testPassword = "hunter2"
	testCourse   = "course123"
	sessionName  = "session_id"
	sessionValue = "logged-in"
)

type recordedCall struct {
	QueryMethod string
	Aid         string
	Method      string
	Params      map[string]interface{}
	RawBody     string
	Cookie      string
}

// fakePiazza speaks enough of the piazza api for the client: login sets a
// session cookie, content.get serves from contents, and write calls answer
// through the responses map.
type fakePiazza struct {
	t *testing.T

	mu        sync.Mutex
	calls     []recordedCall
	contents  map[string]string
	responses map[string]string
	status    int
}

func newFakePiazza(t *testing.T) (*fakePiazza, *httptest.Server) {
	f := &fakePiazza{
		t:         t,
		contents:  map[string]string{},
		responses: map[string]string{},
	}
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakePiazza) serve(w http.ResponseWriter, r *http.Request) {
	require.Equal(f.t, http.MethodPost, r.Method)
	require.Equal(f.t, ApiPath, r.URL.Path)

	raw, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)

	var body struct {
		Method string                 `json:"method"`
		Params map[string]interface{} `json:"params"`
	}
	require.NoError(f.t, json.Unmarshal(raw, &body))

	call := recordedCall{
		QueryMethod: r.URL.Query().Get("method"),
		Aid:         r.URL.Query().Get("aid"),
		Method:      body.Method,
		Params:      body.Params,
		RawBody:     string(raw),
	}
	if c, err := r.Cookie(sessionName); err == nil {
		call.Cookie = c.Value
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	status := f.status
	f.mu.Unlock()

	if status != 0 && body.Method != methodLogin {
		w.WriteHeader(status)
		io.WriteString(w, "boom")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch body.Method {
	case methodLogin:
		if body.Params["email"] == testUser && body.Params["pass"] == testPassword {
			http.SetCookie(w, &http.Cookie{Name: sessionName, Value: sessionValue, Path: "/"})
			io.WriteString(w, `{"result":"OK","error":null}`)
			return
		}
		io.WriteString(w, `{"result":null,"error":"Email or password incorrect"}`)
	case methodContentGet:
		key := body.Params["nid"].(string) + "/" + body.Params["cid"].(string)
		result, ok := f.contents[key]
		if !ok {
			result = "null"
		}
		io.WriteString(w, `{"result":`+result+`,"error":null,"aid":"srv"}`)
	default:
		response, ok := f.responses[body.Method]
		if !ok {
			response = `{"result":{},"error":null}`
		}
		io.WriteString(w, response)
	}
}

func (f *fakePiazza) setContent(courseID, contentID, result string) {
	f.contents[courseID+"/"+contentID] = result
}

// callsFor returns the recorded calls of method, login excluded.
func (f *fakePiazza) callsFor(method string) []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedCall, 0)
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func newTestClient(t *testing.T, server *httptest.Server, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{WithBaseURL(server.URL), WithProgressOutput(io.Discard)}, opts...)
	client, err := NewClient(context.Background(), testUser, testPassword, opts...)
	require.NoError(t, err)
	return client
}
