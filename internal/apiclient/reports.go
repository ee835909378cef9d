package apiclient

import (
	"context"

	"github.com/iliyamo/carshare-web/internal/model"
)

// ReportsService files abuse reports.
type ReportsService struct {
	client *Client
}

// Submit files a report.
func (s *ReportsService) Submit(ctx context.Context, r model.Report) (*model.Report, error) {
	var out model.Report
	if err := s.client.postJSON(ctx, "/reports/", r, "Could not submit the report.", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
