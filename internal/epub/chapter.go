package epub

import (
	"context"
	"fmt"
	"log/slog"
)

// Extractor turns resolved spine entries into chapters.
type Extractor struct {
	Parser ContentParser // nil selects GoqueryParser
	// RTL enables Arabic display mode: Arabic runs become hoverable spans.
	RTL    bool
	Logger *slog.Logger
}

// Extract decompresses and sanitizes each ref in order. A chapter that fails
// to read or parse is logged and skipped, as is one whose content is empty.
// If nothing survives, Extract returns ErrNoReadableContent.
func (e *Extractor) Extract(ctx context.Context, a *Archive, refs []ChapterRef) ([]Chapter, error) {
	parser := e.Parser
	if parser == nil {
		parser = GoqueryParser{}
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	chapters := make([]Chapter, 0, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ch, err := e.extractOne(a, parser, ref)
		if err != nil {
			logger.Warn("skipping chapter", "id", ref.ID, "path", ref.Path, "error", err)
			continue
		}
		if ch.Content == "" {
			logger.Debug("skipping empty chapter", "id", ref.ID, "path", ref.Path)
			continue
		}
		chapters = append(chapters, ch)
	}

	if len(chapters) == 0 {
		return nil, ErrNoReadableContent
	}
	return chapters, nil
}

func (e *Extractor) extractOne(a *Archive, parser ContentParser, ref ChapterRef) (Chapter, error) {
	text, err := a.ReadText(ref.Path)
	if err != nil {
		return Chapter{}, err
	}

	content, err := parser.ParseContent([]byte(text), ContentOptions{AnnotateArabic: e.RTL})
	if err != nil {
		return Chapter{}, err
	}

	title := content.Title
	if title == "" {
		title = fmt.Sprintf("Chapter %d", ref.Index+1)
	}

	return Chapter{
		ID:      ref.ID,
		Title:   collapseWhitespace(title),
		Content: collapseWhitespace(content.Body),
	}, nil
}
