// Package export provides client functionality for interacting with the
// survey platform's response-export API.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"surveysync/internal/config"
	"surveysync/internal/logger"
	"surveysync/internal/models"

	"github.com/tidwall/gjson"
)

// Export API errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrNoProgressID         = errors.New("no progress id in start response")
	ErrEmptyDownload        = errors.New("empty export download")
)

// Client defines the interface for the response-export API.
type Client interface {
	StartExport(surveyID string) (string, error)
	GetProgress(surveyID, progressID string) (*models.ExportProgress, error)
	DownloadFile(surveyID, fileID string) ([]byte, error)
}

// Ensure QualtricsClient implements Client.
var _ Client = (*QualtricsClient)(nil)

// QualtricsClient talks to the platform's v3 response-export endpoints.
type QualtricsClient struct {
	httpClient    *http.Client
	baseURL       string
	apiToken      string
	useLabels     bool
	downloadLimit int64
	logger        *logger.Logger
}

// startExportRequest is the body that asks the platform to begin
// generating an export.
type startExportRequest struct {
	Format    string `json:"format"`
	UseLabels bool   `json:"useLabels"`
	Compress  bool   `json:"compress"`
}

// apiResponse mirrors the result envelope the platform wraps around
// both the start and the progress replies.
type apiResponse struct {
	Result struct {
		ProgressID      string  `json:"progressId"`
		PercentComplete float64 `json:"percentComplete"`
		Status          string  `json:"status"`
		FileID          string  `json:"fileId"`
	} `json:"result"`
}

// NewQualtricsClient creates a new export API client from the loaded
// configuration.
func NewQualtricsClient(cfg *config.Config, log *logger.Logger) *QualtricsClient {
	return &QualtricsClient{
		httpClient: &http.Client{
			Timeout: cfg.GetAPITimeout(),
		},
		baseURL:       cfg.BaseURL(),
		apiToken:      cfg.Exporter.API.Token,
		useLabels:     cfg.Features.LabelsEnabled(),
		downloadLimit: cfg.DownloadLimitBytes(),
		logger:        log,
	}
}

// StartExport asks the platform to begin generating a compressed CSV
// export and returns the progress id that tracks the job.
func (c *QualtricsClient) StartExport(surveyID string) (string, error) {
	if c.logger != nil {
		c.logger.Debug(fmt.Sprintf("Starting export for survey %s", surveyID))
	}

	reqBody := startExportRequest{
		Format:    "csv",
		UseLabels: c.useLabels,
		Compress:  true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/API/v3/surveys/%s/export-responses", c.baseURL, surveyID)

	body, err := c.doRequest(http.MethodPost, url, jsonBody)
	if err != nil {
		return "", err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse start response: %w", err)
	}

	if resp.Result.ProgressID == "" {
		return "", ErrNoProgressID
	}

	return resp.Result.ProgressID, nil
}

// GetProgress reports the state of a running export job.
func (c *QualtricsClient) GetProgress(surveyID, progressID string) (*models.ExportProgress, error) {
	url := fmt.Sprintf("%s/API/v3/surveys/%s/export-responses/%s", c.baseURL, surveyID, progressID)

	body, err := c.doRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse progress response: %w", err)
	}

	return &models.ExportProgress{
		Status:          normalizeStatus(resp.Result.Status),
		PercentComplete: resp.Result.PercentComplete,
		FileID:          resp.Result.FileID,
	}, nil
}

// DownloadFile fetches the finished export archive.
func (c *QualtricsClient) DownloadFile(surveyID, fileID string) ([]byte, error) {
	url := fmt.Sprintf("%s/API/v3/surveys/%s/export-responses/%s/file", c.baseURL, surveyID, fileID)

	body, err := c.doRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	if len(body) == 0 {
		return nil, ErrEmptyDownload
	}

	return body, nil
}

// doRequest performs one authenticated API call and returns the raw
// response body.
func (c *QualtricsClient) doRequest(method, url string, jsonBody []byte) ([]byte, error) {
	var reqBody io.Reader = http.NoBody
	if jsonBody != nil {
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-API-TOKEN", c.apiToken)

	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Limit response size; archives are the largest payload this reads
	reader := io.LimitReader(resp.Body, c.downloadLimit)

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := errorMessage(body)
		if c.logger != nil {
			c.logger.Error(fmt.Sprintf("Export request failed with status %d: %s", resp.StatusCode, msg))
		}

		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode, msg)
	}

	return body, nil
}

// normalizeStatus maps the platform's job status strings onto the three
// states the pipeline distinguishes. Unknown strings count as pending.
func normalizeStatus(status string) string {
	switch strings.ToLower(status) {
	case "complete":
		return models.ExportStatusComplete
	case "failed", "error":
		return models.ExportStatusFailed
	default:
		return models.ExportStatusPending
	}
}

// errorMessage pulls the platform's error description out of a failure
// body, falling back to the raw body when the field is missing.
func errorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "meta.error.errorMessage"); msg.Exists() {
		return msg.String()
	}

	return string(body)
}
