package instagram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igfeedsync/pkg/errors"
	"igfeedsync/pkg/logger"
)

func newTestClient(serverURL string) *Client {
	client := NewClient(5*time.Second, logger.NewTestLogger())
	client.SetBaseURL(serverURL)
	return client
}

func TestFetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/web_profile_info/", r.URL.Path)
		assert.Equal(t, "mikostudios.co", r.URL.Query().Get("username"))
		assert.Equal(t, "936619743392459", r.Header.Get("X-IG-App-ID"))

		response := ProfileResponse{
			Status: "ok",
			Data: Data{
				User: User{
					ID: "123456",
					EdgeOwnerToTimelineMedia: EdgeOwnerToTimelineMedia{
						Count: 2,
						Edges: []Edge{
							{Node: Node{ID: "m1", Shortcode: "ABC", DisplayURL: "https://cdn.example.com/abc.jpg"}},
							{Node: Node{ID: "m2", Shortcode: "DEF", DisplayURL: "https://cdn.example.com/def.jpg"}},
						},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	profile, err := client.FetchProfile("mikostudios.co")
	require.NoError(t, err)
	assert.Equal(t, "123456", profile.Data.User.ID)
	assert.Len(t, profile.Data.User.EdgeOwnerToTimelineMedia.Edges, 2)
}

func TestFetchProfileRequiresLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ProfileResponse{RequiresToLogin: true, Status: "fail"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchProfile("privateuser")
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeAuth, apiErr.Type)
}

func TestFetchProfileNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchProfile("ghost")
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeNotFound, apiErr.Type)
	assert.Equal(t, 404, apiErr.Code)
}

func TestFetchProfileRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchProfile("someuser")
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeRateLimit, apiErr.Type)
	assert.True(t, errs.IsRetryable(apiErr.Type))
}

func TestFetchProfileMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>login page</html>"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchProfile("someuser")
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}

func TestFetchFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/feed/user/123456/", r.URL.Path)
		assert.Equal(t, "9", r.URL.Query().Get("count"))

		response := FeedResponse{
			Status: "ok",
			Items: []FeedItem{
				{
					Code: "ABC",
					ImageVersions2: ImageVersions2{
						Candidates: []ImageCandidate{{URL: "https://cdn.example.com/abc.jpg", Width: 1080}},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	feed, err := client.FetchFeed("123456", 9)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "ABC", feed.Items[0].Code)
	assert.Equal(t, "https://cdn.example.com/abc.jpg", feed.Items[0].BestImageURL())
}

func TestDownloadMedia(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("fake image data"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	data, err := client.DownloadMedia(server.URL + "/media/abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("fake image data"), data)
}

func TestDownloadMediaServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.DownloadMedia(server.URL + "/media/abc.jpg")
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeServerError, apiErr.Type)
}

func TestDownloadMediaNetworkError(t *testing.T) {
	client := NewClient(100*time.Millisecond, logger.NewTestLogger())

	_, err := client.DownloadMedia("http://127.0.0.1:1/unreachable.jpg")
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeNetwork, apiErr.Type)
}

func TestSetSessionCookie(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		json.NewEncoder(w).Encode(ProfileResponse{Status: "ok"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.SetSessionCookie("secret-session")

	_, err := client.FetchProfile("someuser")
	require.NoError(t, err)
	assert.Equal(t, "sessionid=secret-session", gotCookie)

	// Clearing the cookie switches back to anonymous mode
	client.SetSessionCookie("")
	_, err = client.FetchProfile("someuser")
	require.NoError(t, err)
	assert.Empty(t, gotCookie)
}

func TestVerifySession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/accounts/current_user/", r.URL.Path)
		if r.Header.Get("Cookie") == "sessionid=valid" {
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	client.SetSessionCookie("valid")
	require.NoError(t, client.VerifySession())

	client.SetSessionCookie("expired")
	err := client.VerifySession()
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeAuth, apiErr.Type)
}
