package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"

	"tg_auction/internal/config"
	"tg_auction/pkg/httpx"
	"tg_auction/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

const (
	apiBaseURL     = "https://www.googleapis.com/youtube/v3"
	requestTimeout = 10 * time.Second
)

// Message is one live-chat entry as the poll worker sees it.
type Message struct {
	ID     string
	Author string
	Text   string
}

// Client reads the YouTube live chat through the liveChatMessages endpoint
// with an API key. The page token acts as an opaque continuation cursor.
type Client struct {
	baseURL    string
	apiKey     string
	liveChatID string
	httpClient *http.Client
}

func NewClient(cfg config.YouTube) *Client {
	return &Client{
		baseURL:    apiBaseURL,
		apiKey:     cfg.APIKey,
		liveChatID: cfg.LiveChatID,
		httpClient: &http.Client{
			Transport: httpx.NewLoggingRoundTripper(
				http.DefaultTransport,
				httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
				httpx.WithLogFieldMaxLen(2048),
			),
			Timeout: requestTimeout,
		},
	}
}

// WithBaseURL overrides the API endpoint, used against API-compatible proxies
// and in tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// FetchMessages returns the next batch of chat messages and the continuation
// cursor to pass on the following call. An empty pageToken starts from the
// live position YouTube decides on.
func (c *Client) FetchMessages(ctx context.Context, pageToken string) ([]Message, string, error) {
	query := url.Values{
		"liveChatId": {c.liveChatID},
		"part":       {"snippet,authorDetails"},
		"key":        {c.apiKey},
	}
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/liveChat/messages?"+query.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("live chat request failed: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}

	var payload listResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}

	messages := make([]Message, 0, len(payload.Items))
	for _, item := range payload.Items {
		messages = append(messages, Message{
			ID:     item.ID,
			Author: item.AuthorDetails.DisplayName,
			Text:   item.Snippet.DisplayMessage,
		})
	}

	return messages, payload.NextPageToken, nil
}

type listResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID      string `json:"id"`
		Snippet struct {
			DisplayMessage string `json:"displayMessage"`
		} `json:"snippet"`
		AuthorDetails struct {
			DisplayName string `json:"displayName"`
		} `json:"authorDetails"`
	} `json:"items"`
}
