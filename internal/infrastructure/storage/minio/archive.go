package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

const (
	reportPrefix      = "reports/"
	reportContentType = "application/json"
)

// Report is the archived document for one calculation.
type Report struct {
	CalculationID string                   `json:"calculation_id"`
	ArchivedAt    time.Time                `json:"archived_at"`
	Input         costing.CalculationInput `json:"input"`
	Result        *costing.Result          `json:"result"`
}

// ReportKey is the object key of a calculation's report.
func ReportKey(calculationID string) string {
	return reportPrefix + calculationID + ".json"
}

// ReportArchive writes and reads calculation reports.
type ReportArchive struct {
	client *Client
	now    func() time.Time
}

func NewReportArchive(client *Client) *ReportArchive {
	return &ReportArchive{client: client, now: time.Now}
}

// Archive stores rec as JSON and returns the object key.
func (a *ReportArchive) Archive(ctx context.Context, rec *costing.CalculationRecord) (string, error) {
	if rec == nil || rec.ID == "" {
		return "", errors.New(errors.ErrCodeArchiveFailed, "calculation id is required")
	}
	body, err := json.Marshal(Report{
		CalculationID: rec.ID,
		ArchivedAt:    a.now().UTC(),
		Input:         rec.Input,
		Result:        rec.Result,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode report")
	}

	key := ReportKey(rec.ID)
	info, err := a.client.api.PutObject(ctx, a.client.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType:  reportContentType,
		UserMetadata: map[string]string{"calculation-id": rec.ID},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeArchiveFailed, "failed to upload report").WithDetail(key)
	}
	a.client.logger.Debug("report archived",
		logging.CalculationID(rec.ID), logging.String("key", key), logging.Int64("size", info.Size))
	return key, nil
}

// Fetch reads a report back.
func (a *ReportArchive) Fetch(ctx context.Context, calculationID string) (*Report, error) {
	key := ReportKey(calculationID)
	rc, err := a.client.api.GetObject(ctx, a.client.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, a.readError(err, key)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, a.readError(err, key)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode report").WithDetail(key)
	}
	return &report, nil
}

// PresignedURL returns a time-limited download link for a report.
func (a *ReportArchive) PresignedURL(ctx context.Context, calculationID string, expiry time.Duration) (string, error) {
	u, err := a.client.api.PresignedGetObject(ctx, a.client.bucket, ReportKey(calculationID), expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeArchiveFailed, "failed to presign report url")
	}
	return u.String(), nil
}

func (a *ReportArchive) Delete(ctx context.Context, calculationID string) error {
	key := ReportKey(calculationID)
	if err := a.client.api.RemoveObject(ctx, a.client.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeArchiveFailed, "failed to delete report").WithDetail(key)
	}
	return nil
}

func (a *ReportArchive) readError(err error, key string) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return errors.New(errors.ErrCodeCalculationNotFound, "report not found").WithDetail(key)
	}
	return errors.Wrap(err, errors.ErrCodeArchiveFailed, "failed to read report").WithDetail(key)
}

//Personal.AI order the ending
