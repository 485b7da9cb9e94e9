package export

import (
	"context"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/salesforce"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// stubSalesforce records inserted batches and fabricates per-record results.
type stubSalesforce struct {
	batches   [][]map[string]any
	failEvery int
	err       error
}

func (s *stubSalesforce) Query(_ context.Context, _ string, _ any) error { return nil }

func (s *stubSalesforce) InsertCollection(_ context.Context, _ string, records []map[string]any) ([]salesforce.CollectionResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.batches = append(s.batches, records)

	results := make([]salesforce.CollectionResult, len(records))
	for i := range records {
		success := s.failEvery == 0 || (i+1)%s.failEvery != 0
		results[i] = salesforce.CollectionResult{
			ID:      fmt.Sprintf("00Q%06d", i),
			Success: success,
		}
		if !success {
			results[i].Errors = []string{"REQUIRED_FIELD_MISSING"}
		}
	}
	return results, nil
}

func (s *stubSalesforce) UpdateOne(_ context.Context, _ string, _ string, _ map[string]any) error {
	return nil
}

func TestSalesforceExporter_Export(t *testing.T) {
	t.Parallel()

	stub := &stubSalesforce{}
	exporter := NewSalesforceExporter(stub)

	result, err := exporter.Export(context.Background(), exportBusinesses())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Failed)

	require.Len(t, stub.batches, 1)
	lead := stub.batches[0][0]
	assert.Equal(t, "Acme Plumbing", lead["Company"])
	assert.Equal(t, "Jane", lead["FirstName"])
	assert.Equal(t, "Doe", lead["LastName"])
	assert.Equal(t, "info@acme-plumbing.com", lead["Email"])
	assert.Equal(t, "Web Research", lead["LeadSource"])
	assert.Equal(t, "Found via search: plumbers | Springfield, IL", lead["Description"])

	// No contact name falls back to the company as LastName.
	noContact := stub.batches[0][1]
	assert.Equal(t, "Springfield Drains", noContact["LastName"])
	_, hasFirst := noContact["FirstName"]
	assert.False(t, hasFirst)
	_, hasEmail := noContact["Email"]
	assert.False(t, hasEmail)
}

func TestSalesforceExporter_Batches(t *testing.T) {
	t.Parallel()

	businesses := make([]model.Business, 450)
	for i := range businesses {
		businesses[i] = model.Business{Name: fmt.Sprintf("Business %d", i)}
	}

	stub := &stubSalesforce{}
	exporter := NewSalesforceExporter(stub)

	result, err := exporter.Export(context.Background(), businesses)
	require.NoError(t, err)
	assert.Equal(t, 450, result.Inserted)

	require.Len(t, stub.batches, 3)
	assert.Len(t, stub.batches[0], 200)
	assert.Len(t, stub.batches[1], 200)
	assert.Len(t, stub.batches[2], 50)
}

func TestSalesforceExporter_CountsFailures(t *testing.T) {
	t.Parallel()

	stub := &stubSalesforce{failEvery: 2}
	exporter := NewSalesforceExporter(stub)

	result, err := exporter.Export(context.Background(), exportBusinesses())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Failed)
}

func TestSalesforceExporter_APIError(t *testing.T) {
	t.Parallel()

	stub := &stubSalesforce{err: eris.New("session expired")}
	exporter := NewSalesforceExporter(stub)

	_, err := exporter.Export(context.Background(), exportBusinesses())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert leads")
}

func TestSplitContactName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		first string
		last  string
	}{
		{in: "", first: "", last: ""},
		{in: "Cher", first: "", last: "Cher"},
		{in: "Jane Doe", first: "Jane", last: "Doe"},
		{in: "Mary Anne van der Berg", first: "Mary", last: "Anne van der Berg"},
	}
	for _, tt := range tests {
		first, last := splitContactName(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}
