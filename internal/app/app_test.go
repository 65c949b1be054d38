package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/yourorg/listings-api/internal/config"
	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/mockdata"
	"github.com/yourorg/listings-api/internal/upstream/partner"
	"github.com/yourorg/listings-api/internal/upstream/secondary"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewPrimary(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"mock", config.Config{Source: config.SourceConfig{Mode: config.SourceAuto}}, ""},
		{"partner", config.Config{Source: config.SourceConfig{Mode: config.SourceAuto}, Partner: config.PartnerConfig{APIKey: "a", PartnerKey: "b"}}, partner.Name},
		{"secondary", config.Config{Source: config.SourceConfig{Mode: config.SourceSecondary}, Secondary: config.SecondaryConfig{BaseURL: "http://localhost:1"}}, secondary.Name},
	}
	for _, tt := range tests {
		src := NewPrimary(&tt.cfg, nil, quiet)
		switch {
		case tt.want == "" && src != nil:
			t.Errorf("%s: expected no primary, got %s", tt.name, src.Name())
		case tt.want != "" && (src == nil || src.Name() != tt.want):
			t.Errorf("%s: got %v, want %s", tt.name, src, tt.want)
		}
	}
}

func TestNewServiceFallsBackToMemoryCache(t *testing.T) {
	cfg := config.Config{
		Source: config.SourceConfig{Mode: config.SourceMock},
		Cache:  config.CacheConfig{Backend: "redis", RedisAddr: "127.0.0.1:1"},
	}
	svc, closeFn := NewService(context.Background(), &cfg, quiet)
	defer closeFn()
	if svc.SourceName() != mockdata.Name {
		t.Fatalf("source = %s", svc.SourceName())
	}
	page, err := svc.Listings(context.Background(), listing.Filters{})
	if err != nil || page.Pagination.TotalItems != mockdata.DefaultCount {
		t.Fatalf("page = %+v err = %v", page.Pagination, err)
	}
	if st := svc.CacheStats(context.Background()); st.Entries["listings"] != 0 {
		t.Fatalf("mock answers are not cached, got %+v", st)
	}
}
