package youtube_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tg_auction/internal/config"
	"tg_auction/internal/infrastructure/youtube"
)

func testConfig() config.YouTube {
	return config.YouTube{
		APIKey:       "test-key",
		LiveChatID:   "chat-1",
		PollInterval: 5 * time.Second,
	}
}

func TestFetchMessages(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rq.Equal("/liveChat/messages", r.URL.Path)
		rq.Equal("chat-1", r.URL.Query().Get("liveChatId"))
		rq.Equal("test-key", r.URL.Query().Get("key"))
		rq.Equal("snippet,authorDetails", r.URL.Query().Get("part"))
		rq.Empty(r.URL.Query().Get("pageToken"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"nextPageToken": "page-2",
			"items": [
				{"id": "m1", "snippet": {"displayMessage": "!bid"}, "authorDetails": {"displayName": "alice"}},
				{"id": "m2", "snippet": {"displayMessage": "hello"}, "authorDetails": {"displayName": "bob"}}
			]
		}`))
	}))
	defer srv.Close()

	client := youtube.NewClient(testConfig()).WithBaseURL(srv.URL)

	messages, next, err := client.FetchMessages(context.Background(), "")
	rq.NoError(err)
	rq.Equal("page-2", next)
	rq.Len(messages, 2)
	rq.Equal(youtube.Message{ID: "m1", Author: "alice", Text: "!bid"}, messages[0])
	rq.Equal(youtube.Message{ID: "m2", Author: "bob", Text: "hello"}, messages[1])
}

func TestFetchMessagesPassesCursor(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rq.Equal("page-2", r.URL.Query().Get("pageToken"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"nextPageToken": "page-3", "items": []}`))
	}))
	defer srv.Close()

	client := youtube.NewClient(testConfig()).WithBaseURL(srv.URL)

	messages, next, err := client.FetchMessages(context.Background(), "page-2")
	rq.NoError(err)
	rq.Empty(messages)
	rq.Equal("page-3", next)
}

func TestFetchMessagesHTTPError(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := youtube.NewClient(testConfig()).WithBaseURL(srv.URL)

	_, _, err := client.FetchMessages(context.Background(), "")
	rq.ErrorContains(err, "403")
}
