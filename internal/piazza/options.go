package piazza

import (
	"io"
	"os"
	"time"
)

const (
	DefaultBaseURL   = "https://piazza.com"
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0"

	DefaultStartID = 1
	DefaultEndID   = 4000
)

type ClientOption func(*clientOptions)

type clientOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	PlainText bool
	Progress  io.Writer
	NewAid    func() string
}

func defaultClientOptions() *clientOptions {
	return &clientOptions{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Progress:  os.Stdout,
	}
}

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) {
		o.BaseURL = url
	}
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.Timeout = timeout
	}
}

func WithUserAgent(userAgent string) ClientOption {
	return func(o *clientOptions) {
		o.UserAgent = userAgent
	}
}

// WithPlainText strips HTML markup from every text body of a normalized question.
func WithPlainText(plain bool) ClientOption {
	return func(o *clientOptions) {
		o.PlainText = plain
	}
}

// WithProgressOutput sets where range scans report each content id they visit.
func WithProgressOutput(w io.Writer) ClientOption {
	return func(o *clientOptions) {
		if w == nil {
			w = io.Discard
		}
		o.Progress = w
	}
}

func withAidGenerator(fn func() string) ClientOption {
	return func(o *clientOptions) {
		o.NewAid = fn
	}
}
