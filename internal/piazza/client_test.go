package piazza

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewClientLogin(t *testing.T) {
	fake, server := newFakePiazza(t)
	newTestClient(t, server)

	logins := fake.callsFor(methodLogin)
	require.Len(t, logins, 1)
	require.Equal(t, methodLogin, logins[0].QueryMethod)
	require.Empty(t, logins[0].Aid)
	require.Equal(t, map[string]interface{}{"email": testUser, "pass": testPassword}, logins[0].Params)
}

func TestNewClientRejectedLogin(t *testing.T) {
	_, server := newFakePiazza(t)

	client, err := NewClient(context.Background(), testUser, "wrong", WithBaseURL(server.URL))
	require.Nil(t, client)

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "Email or password incorrect", authErr.Reason)
}

func TestNewClientRejectedLoginWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"NOPE"}`))
	}))
	defer server.Close()

	_, err := NewClient(context.Background(), testUser, testPassword, WithBaseURL(server.URL))
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, `"NOPE"`, authErr.Reason)
}

func TestSessionCookieIsReused(t *testing.T) {
	fake, server := newFakePiazza(t)
	client := newTestClient(t, server)

	_, err := client.GetRawContent(context.Background(), "1", testCourse)
	require.NoError(t, err)

	gets := fake.callsFor(methodContentGet)
	require.Len(t, gets, 1)
	require.Equal(t, sessionValue, gets[0].Cookie)
}

func TestTransportErrorOnBadStatus(t *testing.T) {
	fake, server := newFakePiazza(t)
	client := newTestClient(t, server)
	fake.status = http.StatusBadGateway

	_, err := client.GetRawContent(context.Background(), "1", testCourse)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, methodContentGet, transportErr.Method)
	require.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	require.Len(t, fake.callsFor(methodContentGet), 1, "failed calls are not retried")
}

func TestTransportErrorOnGarbageBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	_, err := NewClient(context.Background(), testUser, testPassword, WithBaseURL(server.URL))
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, methodLogin, transportErr.Method)
}

func TestTransportErrorOnTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	_, err := NewClient(context.Background(), testUser, testPassword,
		WithBaseURL(server.URL),
		WithTimeout(50*time.Millisecond),
	)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestTransportErrorOnUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(context.Background(), testUser, testPassword, WithBaseURL(url))
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.False(t, errors.Is(err, context.Canceled))
}
