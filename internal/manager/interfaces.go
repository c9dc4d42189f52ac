package manager

import (
	"context"

	"github.com/Convl/tomorrows-news/internal/domain"
)

// TopicAPI is the slice of the backend client the topic controller
// needs. *api.Client satisfies it.
type TopicAPI interface {
	CreateTopic(ctx context.Context, draft domain.TopicDraft) (domain.Topic, error)
	UpdateTopic(ctx context.Context, id int, draft domain.TopicDraft) (domain.Topic, error)
	DeleteTopic(ctx context.Context, id int) error
}

// SourceAPI is the slice of the backend client the source controller
// needs. *api.Client satisfies it.
type SourceAPI interface {
	CreateSource(ctx context.Context, draft domain.SourceDraft) (domain.ScrapingSource, error)
	UpdateSource(ctx context.Context, id int, draft domain.SourceDraft) (domain.ScrapingSource, error)
	DeleteSource(ctx context.Context, id int) error
	TriggerScrape(ctx context.Context, id int) error
}
