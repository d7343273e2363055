package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxBatchSize is the videos.list identifier limit per request.
	MaxBatchSize = 50
	// VideosListCost is the quota unit cost of one videos.list call.
	VideosListCost = 1
)

// Client talks to the YouTube Data API v3 over plain HTTP. It is
// constructed once at startup with the API key; there is no lazy
// initialization.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://www.googleapis.com/youtube/v3",
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// NewWithBaseURL points the client at an alternate endpoint, used by tests.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// BroadcastRecord is one item from videos.list with the fields this
// service consumes. Pointer fields are nil when the provider omitted them;
// absent is never collapsed to zero.
type BroadcastRecord struct {
	VideoID      string
	Title        string
	Description  string
	ChannelID    string
	ChannelTitle string
	ThumbnailURL string

	IsLive             bool
	ScheduledStartTime *time.Time
	ActualStartTime    *time.Time
	ActualEndTime      *time.Time
	ConcurrentViewers  *int64

	LikeCount *int64
	ViewCount *int64
}

// BatchResult is the outcome of one videos.list call.
type BatchResult struct {
	Records []BroadcastRecord
	// ETag is the validator token for the requested id set; send it back
	// on the next fetch of the same set for a cheap "unchanged" answer.
	ETag string
	// NotModified is true when the provider answered 304 for the supplied
	// validator token. Records is empty in that case.
	NotModified bool
}

// FetchBroadcasts retrieves live-streaming metadata and statistics for up
// to MaxBatchSize video ids in one call. etag, when non-empty, is attached
// as If-None-Match for a conditional fetch.
func (c *Client) FetchBroadcasts(ctx context.Context, videoIDs []string, etag string) (*BatchResult, error) {
	if len(videoIDs) == 0 {
		return &BatchResult{}, nil
	}
	if len(videoIDs) > MaxBatchSize {
		return nil, fmt.Errorf("videos.list accepts at most %d ids, got %d", MaxBatchSize, len(videoIDs))
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("missing YOUTUBE_API_KEY")
	}

	u, _ := url.Parse(c.baseURL + "/videos")
	q := u.Query()
	q.Set("part", "snippet,liveStreamingDetails,statistics")
	q.Set("id", strings.Join(videoIDs, ","))
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))

	if res.StatusCode == http.StatusNotModified {
		return &BatchResult{ETag: etag, NotModified: true}, nil
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, parseAPIError(res.StatusCode, body)
	}

	var resp videosListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	out := &BatchResult{
		ETag:    resp.ETag,
		Records: make([]BroadcastRecord, 0, len(resp.Items)),
	}
	for _, it := range resp.Items {
		if it.ID == "" {
			continue
		}
		rec := BroadcastRecord{
			VideoID:      it.ID,
			Title:        it.Snippet.Title,
			Description:  it.Snippet.Description,
			ChannelID:    it.Snippet.ChannelID,
			ChannelTitle: it.Snippet.ChannelTitle,
			ThumbnailURL: pickThumb(it.Snippet.Thumbnails),
			IsLive:       it.Snippet.LiveBroadcastContent == "live",
		}
		rec.ScheduledStartTime = parseTimePtr(it.LiveStreamingDetails.ScheduledStartTime)
		rec.ActualStartTime = parseTimePtr(it.LiveStreamingDetails.ActualStartTime)
		rec.ActualEndTime = parseTimePtr(it.LiveStreamingDetails.ActualEndTime)
		rec.ConcurrentViewers = parseInt64Ptr(it.LiveStreamingDetails.ConcurrentViewers)
		rec.LikeCount = parseInt64Ptr(it.Statistics.LikeCount)
		rec.ViewCount = parseInt64Ptr(it.Statistics.ViewCount)
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

type thumbnailSet struct {
	Maxres   struct{ URL string `json:"url"` } `json:"maxres"`
	Standard struct{ URL string `json:"url"` } `json:"standard"`
	High     struct{ URL string `json:"url"` } `json:"high"`
	Medium   struct{ URL string `json:"url"` } `json:"medium"`
	Default  struct{ URL string `json:"url"` } `json:"default"`
}

type videosListResponse struct {
	ETag  string `json:"etag"`
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title                string       `json:"title"`
			Description          string       `json:"description"`
			ChannelID            string       `json:"channelId"`
			ChannelTitle         string       `json:"channelTitle"`
			LiveBroadcastContent string       `json:"liveBroadcastContent"`
			Thumbnails           thumbnailSet `json:"thumbnails"`
		} `json:"snippet"`
		LiveStreamingDetails struct {
			ScheduledStartTime string  `json:"scheduledStartTime"`
			ActualStartTime    string  `json:"actualStartTime"`
			ActualEndTime      string  `json:"actualEndTime"`
			ConcurrentViewers  *string `json:"concurrentViewers"`
		} `json:"liveStreamingDetails"`
		Statistics struct {
			ViewCount *string `json:"viewCount"`
			LikeCount *string `json:"likeCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// pickThumb selects the highest-resolution thumbnail the provider offers.
func pickThumb(t thumbnailSet) string {
	switch {
	case t.Maxres.URL != "":
		return t.Maxres.URL
	case t.Standard.URL != "":
		return t.Standard.URL
	case t.High.URL != "":
		return t.High.URL
	case t.Medium.URL != "":
		return t.Medium.URL
	default:
		return t.Default.URL
	}
}

func parseAPIError(status int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Errors  []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"error"`
	}
	reason := ""
	message := string(body)
	if err := json.Unmarshal(body, &errResp); err == nil {
		if len(errResp.Error.Errors) > 0 {
			reason = errResp.Error.Errors[0].Reason
		}
		if errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
	}
	return &APIError{
		Kind:       classify(status, reason),
		StatusCode: status,
		Reason:     reason,
		Message:    message,
	}
}

func parseTimePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func parseInt64Ptr(s *string) *int64 {
	if s == nil || *s == "" {
		return nil
	}
	n, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
