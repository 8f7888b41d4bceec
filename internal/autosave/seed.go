package autosave

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/schemas"
	"github.com/jonathan/resume-editor/internal/types"
)

// Seed loads the initial document. An absent or invalid record yields the default
// document; a broken record is logged and never fatal.
func Seed(ctx context.Context, p Persister, logger *zap.Logger) types.Document {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := p.Load(ctx)
	if err != nil {
		logger.Error("failed to load saved document, starting empty", zap.Error(err))
		return types.NewDocument()
	}
	if data == nil {
		logger.Info("no saved document, starting empty")
		return types.NewDocument()
	}

	doc, err := schemas.DecodeDocument(data)
	if err != nil {
		logger.Warn("saved document is invalid, starting empty", zap.Error(err))
		return types.NewDocument()
	}
	logger.Info("loaded saved document", zap.Int("bytes", len(data)))
	return doc
}
