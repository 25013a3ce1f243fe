// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package visuals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const pexelsBaseURL = "https://api.pexels.com/videos"

// PexelsProvider searches the Pexels video API for portrait footage.
type PexelsProvider struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewPexelsProvider builds a provider with sane HTTP timeouts.
func NewPexelsProvider(apiKey string) *PexelsProvider {
	return &PexelsProvider{
		APIKey:  apiKey,
		BaseURL: pexelsBaseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Name implements Provider.
func (p *PexelsProvider) Name() string { return "pexels" }

type pexelsVideoFile struct {
	ID      int    `json:"id"`
	Quality string `json:"quality"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Link    string `json:"link"`
}

type pexelsVideo struct {
	ID         int               `json:"id"`
	VideoFiles []pexelsVideoFile `json:"video_files"`
}

type pexelsSearchResponse struct {
	Videos []pexelsVideo `json:"videos"`
}

// Search implements Provider against the Pexels search endpoint.
func (p *PexelsProvider) Search(ctx context.Context, keyword string, limit int) ([]Asset, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("pexels: no api key configured")
	}
	if limit <= 0 {
		limit = 5
	}

	base := p.BaseURL
	if base == "" {
		base = pexelsBaseURL
	}
	q := url.Values{}
	q.Set("query", keyword)
	q.Set("orientation", "portrait")
	q.Set("per_page", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.APIKey)

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels search %q: %w", keyword, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pexels search %q: unexpected status %d", keyword, resp.StatusCode)
	}

	var parsed pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("pexels search %q: decode: %w", keyword, err)
	}

	assets := make([]Asset, 0, len(parsed.Videos))
	for _, v := range parsed.Videos {
		link := bestPortraitFile(v.VideoFiles)
		if link == "" {
			continue
		}
		assets = append(assets, Asset{
			ID:       fmt.Sprintf("pexels_%d", v.ID),
			Provider: p.Name(),
			URL:      link,
			Keyword:  keyword,
		})
	}
	return assets, nil
}

// Fallbacks implements Provider with broad-appeal searches.
func (p *PexelsProvider) Fallbacks(ctx context.Context) ([]Asset, error) {
	var out []Asset
	for _, kw := range fallbackKeywords {
		assets, err := p.Search(ctx, kw, 2)
		if err != nil {
			return nil, err
		}
		out = append(out, assets...)
	}
	return out, nil
}

func (p *PexelsProvider) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

// bestPortraitFile prefers HD portrait renditions, then any portrait,
// then anything at all.
func bestPortraitFile(files []pexelsVideoFile) string {
	var portrait, any string
	for _, f := range files {
		if f.Link == "" {
			continue
		}
		if any == "" {
			any = f.Link
		}
		if f.Height > f.Width {
			if f.Quality == "hd" {
				return f.Link
			}
			if portrait == "" {
				portrait = f.Link
			}
		}
	}
	if portrait != "" {
		return portrait
	}
	return any
}
