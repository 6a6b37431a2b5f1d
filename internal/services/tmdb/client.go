package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dcamenisch/tvbuddy/internal/config"
	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Client handles communication with the TMDB API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new TMDB API client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB API key is required")
	}
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     cfg.TMDBAPIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// doRequest performs a GET request against the TMDB API and decodes the
// JSON response into result
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, result interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	fullURL := c.baseURL + path + "?" + query.Encode()

	c.logger.WithFields(logrus.Fields{
		"path": path,
	}).Debug("Making TMDB API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Movie fetches a movie title by id
func (c *Client) Movie(ctx context.Context, id int) (*Title, error) {
	var title Title
	if err := c.doRequest(ctx, fmt.Sprintf("/movie/%d", id), nil, &title); err != nil {
		return nil, err
	}
	return &title, nil
}

// Series fetches a series title by id
func (c *Client) Series(ctx context.Context, id int) (*Title, error) {
	var title Title
	if err := c.doRequest(ctx, fmt.Sprintf("/tv/%d", id), nil, &title); err != nil {
		return nil, err
	}
	return &title, nil
}

// Season fetches a full season with its episode list
func (c *Client) Season(ctx context.Context, seriesID, seasonNumber int) (*Season, error) {
	var season Season
	path := fmt.Sprintf("/tv/%d/season/%d", seriesID, seasonNumber)
	if err := c.doRequest(ctx, path, nil, &season); err != nil {
		return nil, err
	}
	return &season, nil
}

// Episode fetches a single episode
func (c *Client) Episode(ctx context.Context, seriesID, seasonNumber, episodeNumber int) (*Episode, error) {
	var episode Episode
	path := fmt.Sprintf("/tv/%d/season/%d/episode/%d", seriesID, seasonNumber, episodeNumber)
	if err := c.doRequest(ctx, path, nil, &episode); err != nil {
		return nil, err
	}
	return &episode, nil
}

// Images fetches the artwork set for a title
func (c *Client) Images(ctx context.Context, kind Kind, id int) (*Images, error) {
	var images Images
	if err := c.doRequest(ctx, fmt.Sprintf("/%s/%d/images", kind, id), nil, &images); err != nil {
		return nil, err
	}
	return &images, nil
}

// Credits fetches cast and crew for a title
func (c *Client) Credits(ctx context.Context, kind Kind, id int) (*Credits, error) {
	var credits Credits
	if err := c.doRequest(ctx, fmt.Sprintf("/%s/%d/credits", kind, id), nil, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

// Recommendations fetches recommended titles for a title
func (c *Client) Recommendations(ctx context.Context, kind Kind, id int) ([]Title, error) {
	var page Page
	if err := c.doRequest(ctx, fmt.Sprintf("/%s/%d/recommendations", kind, id), nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Discover fetches one page of the discover list
func (c *Client) Discover(ctx context.Context, kind Kind, pageNumber int) (*Page, error) {
	query := url.Values{}
	query.Set("page", fmt.Sprintf("%d", pageNumber))
	query.Set("sort_by", "popularity.desc")
	var page Page
	if err := c.doRequest(ctx, fmt.Sprintf("/discover/%s", kind), query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Trending fetches one page of the weekly trending list
func (c *Client) Trending(ctx context.Context, kind Kind, pageNumber int) (*Page, error) {
	query := url.Values{}
	query.Set("page", fmt.Sprintf("%d", pageNumber))
	var page Page
	if err := c.doRequest(ctx, fmt.Sprintf("/trending/%s/week", kind), query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Search fetches one page of multi search results
func (c *Client) Search(ctx context.Context, searchQuery string, pageNumber int) (*Page, error) {
	query := url.Values{}
	query.Set("query", searchQuery)
	query.Set("page", fmt.Sprintf("%d", pageNumber))
	var page Page
	if err := c.doRequest(ctx, "/search/multi", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Person fetches a person by id
func (c *Client) Person(ctx context.Context, id int) (*Person, error) {
	var person Person
	if err := c.doRequest(ctx, fmt.Sprintf("/person/%d", id), nil, &person); err != nil {
		return nil, err
	}
	return &person, nil
}
