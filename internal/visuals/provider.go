// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package visuals

import (
	"context"
	"fmt"
)

// Provider is a stock footage source.
type Provider interface {
	Name() string
	Search(ctx context.Context, keyword string, limit int) ([]Asset, error)
	// Fallbacks returns a generic broad-appeal asset list used when a
	// keyword search comes up empty.
	Fallbacks(ctx context.Context) ([]Asset, error)
}

// fallbackKeywords seed the generic layer for every provider.
var fallbackKeywords = []string{"abstract", "nature", "city", "technology", "ocean"}

// MockProvider serves deterministic placeholder assets. It backs tests
// and keyless deployments.
type MockProvider struct {
	// PerKeyword is how many assets each search yields.
	PerKeyword int
}

// Name implements Provider.
func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) perKeyword() int {
	if m.PerKeyword > 0 {
		return m.PerKeyword
	}
	return 4
}

// Search implements Provider with synthetic assets.
func (m *MockProvider) Search(_ context.Context, keyword string, limit int) ([]Asset, error) {
	n := m.perKeyword()
	if limit > 0 && limit < n {
		n = limit
	}
	assets := make([]Asset, 0, n)
	for i := 0; i < n; i++ {
		assets = append(assets, Asset{
			ID:       fmt.Sprintf("mock_%s_%d", keyword, i),
			Provider: m.Name(),
			Keyword:  keyword,
		})
	}
	return assets, nil
}

// Fallbacks implements Provider.
func (m *MockProvider) Fallbacks(ctx context.Context) ([]Asset, error) {
	var out []Asset
	for _, kw := range fallbackKeywords {
		assets, err := m.Search(ctx, kw, 2)
		if err != nil {
			return nil, err
		}
		out = append(out, assets...)
	}
	return out, nil
}
