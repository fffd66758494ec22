package docblade

import (
	"context"

	"go.uber.org/zap"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "docblade"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) Close() error {
	log := mw.log.With(
		zap.String("action", "close"),
	)

	err := mw.next.Close()
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service closed")
	return nil
}

func (mw *loggingMiddleware) Ingest(ctx context.Context, filePath string, category CategoryID) (*IngestSummary, error) {
	log := mw.log.With(
		zap.String("action", "ingest"),
		zap.String("file_path", filePath),
	)

	if !category.Empty() {
		log = log.With(
			zap.String("category_id", category.String()),
		)
	}

	summary, err := mw.next.Ingest(ctx, filePath, category)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("document ingested", zap.Int("chunks", summary.Chunks))
	return summary, nil
}

func (mw *loggingMiddleware) Query(ctx context.Context, question string, limit int, category CategoryID) (*QueryResult, error) {
	log := mw.log.With(
		zap.String("action", "query"),
		zap.String("question", question),
	)

	if !category.Empty() {
		log = log.With(
			zap.String("category_id", category.String()),
		)
	}

	result, err := mw.next.Query(ctx, question, limit, category)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("question answered",
		zap.Int("results", result.TotalResults),
		zap.Int("context_used", result.ContextUsed),
	)

	return result, nil
}

func (mw *loggingMiddleware) ClearCollection(ctx context.Context, name string) (*ClearSummary, error) {
	log := mw.log.With(
		zap.String("action", "clear_collection"),
	)

	summary, err := mw.next.ClearCollection(ctx, name)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("collection cleared", zap.String("collection", summary.Collection))
	return summary, nil
}

func (mw *loggingMiddleware) ListFiles(ctx context.Context) ([]FileSummary, error) {
	log := mw.log.With(
		zap.String("action", "list_files"),
	)

	files, err := mw.next.ListFiles(ctx)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("files listed", zap.Int("count", len(files)))
	return files, nil
}

func (mw *loggingMiddleware) CreateCategory(ctx context.Context, name string) (Category, error) {
	log := mw.log.With(
		zap.String("action", "create_category"),
		zap.String("name", name),
	)

	category, err := mw.next.CreateCategory(ctx, name)
	if err != nil {
		log.Error(err.Error())
		return Category{}, err
	}

	log.Info("category created", zap.Uint64("id", category.ID))
	return category, nil
}

func (mw *loggingMiddleware) ListCategories(ctx context.Context) ([]Category, error) {
	log := mw.log.With(
		zap.String("action", "list_categories"),
	)

	categories, err := mw.next.ListCategories(ctx)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("categories listed", zap.Int("count", len(categories)))
	return categories, nil
}
