package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"

	"appreview/internal/bootstrap/logging"
	"appreview/internal/errs"
)

const suggestionKeyPrefix = "catalog:suggest:"

// Suggestions returns entry names containing the fragment. Fragments shorter
// than the configured minimum return nothing. Cache failures only cost a
// database round trip.
func (s *Service) Suggestions(ctx context.Context, fragment string) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	fragment = strings.TrimSpace(fragment)
	if utf8.RuneCountInString(fragment) < s.opts.MinSuggestionChars {
		return []string{}, nil
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.catalog.suggestions"))
	key := suggestionKeyPrefix + strings.ToLower(fragment)

	if names, ok := s.cachedSuggestions(logCtx, key); ok {
		s.metrics.SearchServed("suggestions", len(names))
		return names, nil
	}

	names, err := s.repo.SuggestNames(ctx, fragment, s.opts.SuggestionLimit)
	if err != nil {
		return nil, errs.Wrap(err, "suggest names")
	}
	if names == nil {
		names = []string{}
	}

	if s.cache != nil {
		raw, err := json.Marshal(names)
		if err == nil {
			err = s.cache.Set(ctx, key, string(raw), s.opts.SuggestionTTL)
		}
		if err != nil {
			logging.Warn(logCtx, "cache suggestions failed", slog.Any("err", errs.Loggable(err)))
		}
	}

	s.metrics.SearchServed("suggestions", len(names))
	return names, nil
}

func (s *Service) cachedSuggestions(ctx context.Context, key string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		logging.Warn(ctx, "read cached suggestions failed", slog.Any("err", errs.Loggable(err)))
		return nil, false
	}
	if !found {
		return nil, false
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		logging.Warn(ctx, "decode cached suggestions failed", slog.Any("err", errs.Loggable(err)))
		return nil, false
	}
	return names, true
}
