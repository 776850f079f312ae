package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/davidleitw/piazza/internal/config"
	"github.com/davidleitw/piazza/internal/db"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

type apiCall struct {
	Method string
	Params map[string]interface{}
}

type fakeServer struct {
	mu    sync.Mutex
	calls []apiCall
}

const questionTwo = `{"id":"k2","type":"question","status":"active",
	"history":[{"content":"<p>second</p>","subject":"two"}],
	"tags":["hw"],"tag_good_arr":["u"],"children":[]}`

func newFakeServer(t *testing.T) (*fakeServer, string) {
	f := &fakeServer{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Method string                 `json:"method"`
			Params map[string]interface{} `json:"params"`
		}
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)

		f.mu.Lock()
		f.calls = append(f.calls, apiCall{Method: body.Method, Params: body.Params})
		f.mu.Unlock()

		switch body.Method {
		case "user.login":
			io.WriteString(w, `{"result":"OK"}`)
		case "content.get":
			if body.Params["cid"] == "2" {
				io.WriteString(w, `{"result":`+questionTwo+`}`)
				return
			}
			io.WriteString(w, `{"result":null}`)
		case "content.create":
			io.WriteString(w, `{"result":{"id":"fu9"}}`)
		default:
			io.WriteString(w, `{"result":{}}`)
		}
	}))
	t.Cleanup(server.Close)
	return f, server.URL
}

func (f *fakeServer) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Method)
	}
	return out
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, baseURL string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvAccount, "")
	t.Setenv(config.EnvPassword, "")
	t.Setenv(config.EnvBaseURL, "")

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{
		"--config", filepath.Join(t.TempDir(), "piazza.json5"),
		"--username", "me@example.com",
		"--password", "pw",
		"--base_url", baseURL,
	}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScrapeSingleContent(t *testing.T) {
	_, url := newFakeServer(t)

	out, err := execute(t, url, "--course_ids", "c1", "--content_id", "2", "--plain")
	require.NoError(t, err)

	doc := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Equal(t, "second", doc["question"])
	require.Equal(t, "k2", doc["cid"])
}

func TestScrapeSingleContentRaw(t *testing.T) {
	_, url := newFakeServer(t)

	out, err := execute(t, url, "--url", "https://piazza.com/class/c1/post/2", "--raw")
	require.NoError(t, err)

	doc := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Contains(t, doc, "result")
}

func TestScrapeDataFile(t *testing.T) {
	fake, url := newFakeServer(t)
	path := filepath.Join(t.TempDir(), "data.jsonl")

	out, err := execute(t, url, "--course_ids", "c1,c2", "--start_id", "1", "--end_id", "3", "--data_file", path)
	require.NoError(t, err)
	require.Equal(t, "1\n2\n3\n1\n2\n3\n", out)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	gets := 0
	for _, m := range fake.methods() {
		if m == "content.get" {
			gets++
		}
	}
	require.Equal(t, 6, gets)
}

func TestScrapeDatabase(t *testing.T) {
	_, url := newFakeServer(t)
	path := filepath.Join(t.TempDir(), "archive.db")

	_, err := execute(t, url, "--course_ids", "c1", "--start_id", "1", "--end_id", "2", "--db", path)
	require.NoError(t, err)

	store, err := db.Open(path)
	require.NoError(t, err)
	defer store.Close()
	q, err := store.Get("c1", "k2")
	require.NoError(t, err)
	require.Equal(t, "<p>second</p>", q.Question)
}

func TestScrapeArguments(t *testing.T) {
	_, url := newFakeServer(t)

	_, err := execute(t, url, "--data_file", filepath.Join(t.TempDir(), "x.jsonl"))
	require.ErrorContains(t, err, "course id")

	_, err = execute(t, url, "--course_ids", "c1")
	require.ErrorContains(t, err, "nothing to do")

	_, err = execute(t, url, "--course_ids", "c1", "--start_id", "5", "--end_id", "1", "--data_file", "x")
	require.ErrorContains(t, err, "start_id")
}

func TestAnswerCommand(t *testing.T) {
	fake, url := newFakeServer(t)

	_, err := execute(t, url, "answer", "--course_ids", "c1", "--content_id", "2", "--type", "i_answer", "use a loop")
	require.NoError(t, err)
	require.Equal(t, []string{"user.login", "content.get", "content.answer"}, fake.methods())

	last := fake.calls[len(fake.calls)-1]
	require.Equal(t, "k2", last.Params["cid"])
	require.Equal(t, "i_answer", last.Params["type"])
	require.Equal(t, "use a loop", last.Params["content"])
}

func TestFollowupCommand(t *testing.T) {
	fake, url := newFakeServer(t)

	out, err := execute(t, url, "followup", "--course_ids", "c1", "--cid", "k2", "why?")
	require.NoError(t, err)
	require.Equal(t, "fu9\n", out)
	require.Equal(t, []string{"user.login", "content.create", "content.mark_resolved"}, fake.methods())
}

func TestCommentCommand(t *testing.T) {
	fake, url := newFakeServer(t)

	_, err := execute(t, url, "comment", "--course_ids", "c1", "--cid", "fu9", "thanks")
	require.NoError(t, err)
	require.Equal(t, []string{"user.login", "content.create"}, fake.methods())
	require.Equal(t, "feedback", fake.calls[1].Params["type"])
}
