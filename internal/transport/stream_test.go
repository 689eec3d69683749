package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines_SkipsMalformedAndEmptyLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\"message\":{\"content\":\"Hel\"}}\n" +
			"\n" +
			"not json at all\n" +
			"{\"message\":{\"content\":\"lo\"},\"done\":false}\n" +
			"{\"done\":true}\n"))
	}))
	defer srv.Close()

	resp, err := newTestClient(1).PostWithRetry(context.Background(), srv.URL, struct{}{}, true, time.Second)
	require.NoError(t, err)

	lines := resp.Lines()
	defer lines.Close()

	var text string
	var sawDone bool
	for lines.Next() {
		v := lines.Value()
		text += v.Get("message.content").String()
		if v.Get("done").Bool() {
			sawDone = true
		}
	}

	require.NoError(t, lines.Err())
	assert.Equal(t, "Hello", text)
	assert.True(t, sawDone)
	assert.Equal(t, 1, lines.Skipped())
}

func TestLines_StreamOutlivesHeaderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("{\"response\":\"a\"}\n"))
		flusher.Flush()
		time.Sleep(150 * time.Millisecond)
		_, _ = w.Write([]byte("{\"response\":\"b\"}\n"))
	}))
	defer srv.Close()

	resp, err := newTestClient(1).GetWithRetry(context.Background(), srv.URL, true, 50*time.Millisecond)
	require.NoError(t, err)

	lines := resp.Lines()
	defer lines.Close()
	var got []string
	for lines.Next() {
		got = append(got, lines.Value().Get("response").String())
	}

	require.NoError(t, lines.Err())
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestLines_BufferedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\"status\":\"pulling\"}\n{\"status\":\"success\"}"))
	}))
	defer srv.Close()

	resp, err := newTestClient(1).GetWithRetry(context.Background(), srv.URL, false, time.Second)
	require.NoError(t, err)

	lines := resp.Lines()
	var statuses []string
	for lines.Next() {
		statuses = append(statuses, lines.Value().Get("status").String())
	}
	assert.Equal(t, []string{"pulling", "success"}, statuses)
	assert.NoError(t, lines.Close())
}

func TestDecode_InvalidJSONIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	resp, err := newTestClient(1).GetWithRetry(context.Background(), srv.URL, false, time.Second)
	require.NoError(t, err)

	var v map[string]any
	err = resp.Decode(&v)
	assert.Equal(t, KindDecode, KindOf(err))
}

func TestBytes_ReadsStreamingBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	resp, err := newTestClient(1).GetWithRetry(context.Background(), srv.URL, true, time.Second)
	require.NoError(t, err)

	data, err := resp.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.NoError(t, resp.Close())
}
