package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
	"github.com/Belphemur/DoubanRecommend/internal/config"
	"github.com/Belphemur/DoubanRecommend/internal/models"
)

// Recommend fetches one page of subjects for the query.
func (c *client) Recommend(ctx context.Context, query models.Query) (*models.SubjectPage, error) {
	logger := config.GetLogger()

	sort := query.Sort
	if sort == "" {
		sort = models.DefaultSort
	}

	params := url.Values{}
	params.Set("type", string(query.Category))
	params.Set("tag", query.Tag)
	params.Set("sort", sort)
	params.Set("page_limit", strconv.Itoa(query.PageLimit))
	params.Set("page_start", strconv.Itoa(query.PageStart))
	endpoint := c.baseURL + "/j/search_subjects?" + params.Encode()

	logger.Debug().
		Str("category", string(query.Category)).
		Str("tag", query.Tag).
		Int("pageStart", query.PageStart).
		Msg("Fetching recommendations")

	payload, err := c.Fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var page models.SubjectPage
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, &apperrors.ErrInvalidPayload{Kind: "subjects", Err: err}
	}
	if page.Subjects == nil {
		page.Subjects = []models.Subject{}
	}

	logger.Info().
		Str("category", string(query.Category)).
		Str("tag", query.Tag).
		Int("subjects", len(page.Subjects)).
		Msg("Successfully fetched recommendations")

	return &page, nil
}

// SearchTags fetches the catalog's own tag suggestions for a category.
func (c *client) SearchTags(ctx context.Context, category models.Category) ([]string, error) {
	params := url.Values{}
	params.Set("type", string(category))
	endpoint := c.baseURL + "/j/search_tags?" + params.Encode()

	payload, err := c.Fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var list models.TagList
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, &apperrors.ErrInvalidPayload{Kind: "tags", Err: err}
	}
	if list.Tags == nil {
		return []string{}, nil
	}
	return list.Tags, nil
}
