package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"gomarketplace_vendor/config"
	"gomarketplace_vendor/internal/vendorpanel/models"
	"gomarketplace_vendor/pkg/logger"
	"gomarketplace_vendor/pkg/middleware"
)

// ImportClient talks to the product import collection of the vendor API.
type ImportClient struct {
	BaseClient
	collection string
}

// NewImportClient serves collection, or config.DefaultImportCollection when it is empty.
func NewImportClient(cfg ClientConfig, collection string, log *logger.BaseLogger) *ImportClient {
	collection = strings.Trim(collection, "/")
	if collection == "" {
		collection = strings.Trim(config.DefaultImportCollection, "/")
	}
	return &ImportClient{
		BaseClient: *NewBaseClient(cfg, log, "[ImportClient]"),
		collection: "/" + collection,
	}
}

func (c *ImportClient) jobPath(transactionID, action string) string {
	return fmt.Sprintf("%s/%s/%s", c.collection, url.PathEscape(transactionID), action)
}

// Upload sends the file for preprocessing and returns the preview of the job.
func (c *ImportClient) Upload(ctx context.Context, filename string, content io.Reader) (*models.ImportPreview, error) {
	var preview models.ImportPreview
	err := c.do(middleware.WithRoute(ctx, "import.upload"), http.MethodPost, c.collection,
		&FileUpload{Field: "file", Filename: filename, Content: content}, &preview)
	if err != nil {
		return nil, err
	}
	if preview.TransactionID == "" {
		return nil, fmt.Errorf("upload of %s: response carries no transaction_id", filename)
	}
	return &preview, nil
}

// Confirm starts the previously previewed job.
func (c *ImportClient) Confirm(ctx context.Context, transactionID string) (*models.ConfirmResult, error) {
	var result models.ConfirmResult
	err := c.do(middleware.WithRoute(ctx, "import.confirm"), http.MethodPost, c.jobPath(transactionID, "confirm"), nil, &result)
	if err != nil {
		return nil, err
	}
	if result.TransactionID == "" {
		result.TransactionID = transactionID
	}
	return &result, nil
}

func (c *ImportClient) Status(ctx context.Context, transactionID string) (*models.JobStatus, error) {
	var status models.JobStatus
	err := c.do(middleware.WithRoute(ctx, "import.status"), http.MethodGet, c.jobPath(transactionID, "status"), nil, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}
