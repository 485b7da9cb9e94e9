package export

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/salesforce"
)

// leadBatchSize matches the Salesforce collections API limit.
const leadBatchSize = 200

// SalesforceResult summarizes one Lead export run.
type SalesforceResult struct {
	Inserted int
	Failed   int
}

// SalesforceExporter pushes businesses as Salesforce Leads.
type SalesforceExporter struct {
	client salesforce.Client
}

func NewSalesforceExporter(client salesforce.Client) *SalesforceExporter {
	return &SalesforceExporter{client: client}
}

// Export inserts businesses as Lead records in batches. Records that fail
// are counted and logged, not retried.
func (e *SalesforceExporter) Export(ctx context.Context, businesses []model.Business) (*SalesforceResult, error) {
	result := &SalesforceResult{}

	for start := 0; start < len(businesses); start += leadBatchSize {
		end := min(start+leadBatchSize, len(businesses))

		records := make([]map[string]any, 0, end-start)
		for _, b := range businesses[start:end] {
			records = append(records, leadRecord(b))
		}

		results, err := e.client.InsertCollection(ctx, "Lead", records)
		if err != nil {
			return result, eris.Wrap(err, "export: insert leads")
		}
		for _, r := range results {
			if r.Success {
				result.Inserted++
			} else {
				result.Failed++
				zap.L().Warn("lead insert failed",
					zap.String("id", r.ID),
					zap.Strings("errors", r.Errors))
			}
		}
	}
	return result, nil
}

// leadRecord maps a business to Lead fields. Salesforce requires LastName
// and Company; businesses without a contact get the company name as the
// last name.
func leadRecord(b model.Business) map[string]any {
	firstName, lastName := splitContactName(b.ContactName)
	if lastName == "" {
		lastName = b.Name
	}

	record := map[string]any{
		"Company":    b.Name,
		"LastName":   lastName,
		"LeadSource": "Web Research",
	}
	if firstName != "" {
		record["FirstName"] = firstName
	}
	if b.Email != "" {
		record["Email"] = b.Email
	}
	if b.Phone != "" {
		record["Phone"] = b.Phone
	}
	if b.Website != "" {
		record["Website"] = b.Website
	}
	if b.Address != "" {
		record["Street"] = b.Address
	}
	if b.SourceSearch != "" {
		record["Description"] = "Found via search: " + b.SourceSearch
	}
	return record
}

func splitContactName(name string) (first, last string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return "", fields[0]
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
