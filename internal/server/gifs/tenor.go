package gifs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dropnote/dropnote/internal/common"
	"github.com/dropnote/dropnote/internal/logging"
	"github.com/dropnote/dropnote/internal/server/models"
)

const tenorServiceLetter = "t"

// tenorDefaultParams rides along on every listing request.
const tenorDefaultParams = "contentfilter=off&random=true"

// TenorProvider talks to the Tenor v2 API.
type TenorProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  logging.Logger
}

func NewTenorProvider(baseURL, apiKey string, logger logging.Logger) *TenorProvider {
	return &TenorProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger.With("module", "gif_tenor"),
	}
}

func (p *TenorProvider) ServiceLetter() string { return tenorServiceLetter }

type tenorMedia struct {
	URL  string `json:"url"`
	Dims []int  `json:"dims"`
}

type tenorGif struct {
	ID                 string                `json:"id"`
	ContentDescription string                `json:"content_description"`
	URL                string                `json:"url"`
	ItemURL            string                `json:"itemurl"`
	MediaFormats       map[string]tenorMedia `json:"media_formats"`
}

type tenorListing struct {
	Results []tenorGif `json:"results"`
}

func (p *TenorProvider) Search(ctx context.Context, query string, limit int) ([]models.GifRecord, error) {
	if p.apiKey == "" {
		p.logger.Warn(ctx, "tenor api key not configured")
		return nil, nil
	}

	u := fmt.Sprintf("%s/search?key=%s&q=%s&limit=%d&%s&media_filter=tinygif",
		p.baseURL, p.apiKey, url.QueryEscape(query), limit, tenorDefaultParams)

	listing, err := p.fetchListing(ctx, u)
	if err != nil {
		return nil, err
	}

	records := make([]models.GifRecord, 0, len(listing.Results))
	for _, gif := range listing.Results {
		records = append(records, models.GifRecord{
			ID:         makeGifID(tenorServiceLetter, gif.ID),
			Title:      gif.ContentDescription,
			URL:        gif.URL,
			PreviewURL: gif.MediaFormats["tinygif"].URL,
		})
	}
	return records, nil
}

func (p *TenorProvider) Trending(ctx context.Context, limit int) ([]models.GifRecord, error) {
	if p.apiKey == "" {
		p.logger.Warn(ctx, "tenor api key not configured")
		return nil, nil
	}

	u := fmt.Sprintf("%s/featured?key=%s&limit=%d&%s&media_filter=tinygif",
		p.baseURL, p.apiKey, limit, tenorDefaultParams)

	listing, err := p.fetchListing(ctx, u)
	if err != nil {
		return nil, err
	}

	records := make([]models.GifRecord, 0, len(listing.Results))
	for _, gif := range listing.Results {
		records = append(records, models.GifRecord{
			ID:         makeGifID(tenorServiceLetter, gif.ID),
			Title:      gif.ContentDescription,
			URL:        gif.ItemURL,
			PreviewURL: gif.MediaFormats["tinygif"].URL,
		})
	}
	return records, nil
}

func (p *TenorProvider) Find(ctx context.Context, gifID string) (*models.GifRecord, error) {
	if p.apiKey == "" {
		p.logger.Warn(ctx, "tenor api key not configured")
		return nil, common.ErrorNotFound
	}

	nativeID := stripGifID(tenorServiceLetter, gifID)
	u := fmt.Sprintf("%s/posts?key=%s&ids=%s&media_filter=gif",
		p.baseURL, p.apiKey, url.QueryEscape(nativeID))

	listing, err := p.fetchListing(ctx, u)
	if err != nil {
		return nil, err
	}
	if len(listing.Results) == 0 {
		return nil, common.ErrorNotFound
	}

	gif := listing.Results[0]
	return &models.GifRecord{
		ID:         gifID,
		Title:      gif.ContentDescription,
		URL:        gif.ItemURL,
		PreviewURL: gif.MediaFormats["gif"].URL,
	}, nil
}

func (p *TenorProvider) Ping(ctx context.Context) bool {
	if p.apiKey == "" {
		return false
	}
	u := fmt.Sprintf("%s/featured?key=%s&limit=1", p.baseURL, p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (p *TenorProvider) fetchListing(ctx context.Context, url string) (*tenorListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tenor api status %d", resp.StatusCode)
	}

	listing := &tenorListing{}
	if err := json.NewDecoder(resp.Body).Decode(listing); err != nil {
		return nil, err
	}
	return listing, nil
}
