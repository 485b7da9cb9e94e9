package export

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

// NotionExporter creates one page per business in a Notion database.
type NotionExporter struct {
	client notion.Client
	dbID   string
}

func NewNotionExporter(client notion.Client, dbID string) *NotionExporter {
	return &NotionExporter{client: client, dbID: dbID}
}

// Export creates pages for every business. Individual page failures are
// logged and counted so a single bad record does not abort the run.
func (e *NotionExporter) Export(ctx context.Context, businesses []model.Business) (created, failed int, err error) {
	for _, b := range businesses {
		if ctx.Err() != nil {
			return created, failed, eris.Wrap(ctx.Err(), "export: notion cancelled")
		}

		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(e.dbID),
			},
			Properties: pageProperties(b),
		}
		if _, createErr := e.client.CreatePage(ctx, req); createErr != nil {
			failed++
			zap.L().Warn("notion page failed",
				zap.String("business", b.Name),
				zap.Error(createErr))
			continue
		}
		created++
	}
	return created, failed, nil
}

func pageProperties(b model.Business) notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: richText(b.Name),
		},
		"Confidence": notionapi.NumberProperty{
			Number: b.ConfidenceScore,
		},
	}
	if b.Email != "" {
		props["Email"] = notionapi.EmailProperty{Email: b.Email}
	}
	if b.Phone != "" {
		props["Phone"] = notionapi.PhoneNumberProperty{PhoneNumber: b.Phone}
	}
	if b.Website != "" {
		props["Website"] = notionapi.URLProperty{URL: b.Website}
	}
	if b.Address != "" {
		props["Address"] = notionapi.RichTextProperty{RichText: richText(b.Address)}
	}
	if b.ContactName != "" {
		props["Contact"] = notionapi.RichTextProperty{RichText: richText(b.ContactName)}
	}
	if b.EnrichmentMethod != "" {
		props["Method"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: b.EnrichmentMethod},
		}
	}
	if b.Rating > 0 {
		props["Rating"] = notionapi.RichTextProperty{
			RichText: richText(fmt.Sprintf("%.1f (%d reviews)", b.Rating, b.ReviewsCount)),
		}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}
