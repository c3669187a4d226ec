package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/summarizer"

	"go.opentelemetry.io/otel/attribute"
)

const (
	summaryWordTarget  = 50
	summaryWordLimit   = 60
	strictWordTarget   = 40
	strictContentRunes = 500
)

// Summary is the result of summarizing a post.
type Summary struct {
	Summary   string `json:"summary"`
	WordCount int    `json:"wordCount"`
	PostTitle string `json:"postTitle"`
}

type SummaryService struct {
	postRepo  repository.PostRepository
	generator summarizer.Generator
}

// NewSummaryService builds the service. A nil generator makes every call
// fail with a configuration error.
func NewSummaryService(postRepo repository.PostRepository, generator summarizer.Generator) *SummaryService {
	return &SummaryService{postRepo: postRepo, generator: generator}
}

func summaryPrompt(title, content string) string {
	return fmt.Sprintf(
		"Summarize the following blog post in no more than %d words. "+
			"Respond with the summary only, in plain prose.\n\nTitle: %s\n\n%s",
		summaryWordTarget, title, content)
}

func strictSummaryPrompt(title, content string) string {
	if runeLen(content) > strictContentRunes {
		content = string([]rune(content)[:strictContentRunes])
	}
	return fmt.Sprintf(
		"Write a single summary of at most %d words for this blog post. "+
			"Do not exceed %d words. Output only the summary.\n\nTitle: %s\n\n%s",
		strictWordTarget, strictWordTarget, title, content)
}

// Summarize returns a short summary of a published post, served from the
// cache while the post is unchanged.
func (s *SummaryService) Summarize(ctx context.Context, postID uint) (_ *Summary, err error) {
	ctx, finish := observability.StartSpan(ctx, "SummaryService.Summarize", attribute.Int64("post.id", int64(postID)))
	defer func() { finish(err) }()

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundMessage("Post not found")
		}
		return nil, err
	}
	if !post.IsPublished() {
		return nil, models.NewForbiddenError("Cannot summarize unpublished posts")
	}
	content := stripHTML(post.Content)
	if content == "" {
		return nil, models.NewValidationError("Post has no content to summarize")
	}

	key := cache.SummaryKey(post.ID, post.UpdatedAt)
	var cached Summary
	if found, cacheErr := cache.GetJSON(ctx, key, &cached); cacheErr == nil && found {
		observability.RecordCache("summary", "redis", true)
		return &cached, nil
	}
	observability.RecordCache("summary", "redis", false)

	if s.generator == nil {
		return nil, mapSummaryError(summarizer.ErrConfiguration)
	}

	text, err := s.generator.Generate(ctx, summaryPrompt(post.Title, content))
	if err != nil {
		return nil, mapSummaryError(err)
	}
	if wordCount(text) > summaryWordLimit {
		text, err = s.generator.Generate(ctx, strictSummaryPrompt(post.Title, content))
		if err != nil {
			return nil, mapSummaryError(err)
		}
	}

	result := &Summary{Summary: text, WordCount: wordCount(text), PostTitle: post.Title}
	if err := cache.SetJSON(ctx, key, result, cache.SummaryTTL); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to cache summary",
			slog.Uint64("post_id", uint64(post.ID)), slog.String("error", err.Error()))
	}
	return result, nil
}

func mapSummaryError(err error) error {
	err = summarizer.Classify(err)
	switch {
	case errors.Is(err, summarizer.ErrConfiguration):
		return &models.AppError{Code: models.CodeInternal, Message: "AI service configuration error", Err: err}
	case errors.Is(err, summarizer.ErrQuota):
		return &models.AppError{Code: models.CodeRateLimited, Message: "AI service quota exceeded, try again later", Err: err}
	default:
		return &models.AppError{Code: models.CodeInternal, Message: "Failed to generate summary", Err: err}
	}
}
