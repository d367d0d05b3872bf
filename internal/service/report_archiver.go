package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"strconv"

	"creditscope/internal/domain"
	"creditscope/internal/port"
	"creditscope/internal/reportexport"
)

// ReportArchiver stores finished reports outside the request.
type ReportArchiver interface {
	Archive(ctx context.Context, report *domain.CreditReport) error
}

type noopArchiver struct{}

// NewNoopArchiver returns an archiver that discards reports.
func NewNoopArchiver() ReportArchiver {
	return noopArchiver{}
}

func (noopArchiver) Archive(context.Context, *domain.CreditReport) error {
	return nil
}

type storageArchiver struct {
	storage port.ObjectStorage
	bucket  string
	prefix  string
}

// NewStorageArchiver returns an archiver that writes report.json and
// report.xlsx under <prefix>/<batchID>/ in bucket.
func NewStorageArchiver(storage port.ObjectStorage, bucket, prefix string) ReportArchiver {
	if prefix == "" {
		prefix = "reports"
	}
	return &storageArchiver{storage: storage, bucket: bucket, prefix: prefix}
}

func (a *storageArchiver) Archive(ctx context.Context, report *domain.CreditReport) error {
	if report.Metadata.BatchID == "" {
		return fmt.Errorf("%w: report has no batch id", domain.ErrArchiveFailed)
	}
	dir := path.Join(a.prefix, report.Metadata.BatchID)
	meta := map[string]string{
		"score":  strconv.Itoa(report.Score),
		"rating": string(report.Rating),
		"source": string(report.Metadata.Source),
	}

	jsonBody, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshaling report: %v", domain.ErrArchiveFailed, err)
	}
	var xlsx bytes.Buffer
	if err := reportexport.WriteXLSX(&xlsx, report); err != nil {
		return fmt.Errorf("%w: rendering workbook: %v", domain.ErrArchiveFailed, err)
	}

	objects := []struct {
		key         string
		body        []byte
		contentType string
	}{
		{path.Join(dir, "report.json"), jsonBody, "application/json"},
		{path.Join(dir, "report.xlsx"), xlsx.Bytes(), reportexport.XLSXContentType},
	}
	var written []string
	for _, obj := range objects {
		out, err := a.storage.Upload(ctx, port.UploadInput{
			Bucket:      a.bucket,
			Key:         obj.key,
			Body:        bytes.NewReader(obj.body),
			ContentType: obj.contentType,
			Metadata:    meta,
		})
		if err != nil {
			a.rollback(ctx, written)
			return fmt.Errorf("%w: uploading %s: %v", domain.ErrArchiveFailed, obj.key, err)
		}
		written = append(written, obj.key)
		log.Printf("reportArchiver.Archive: stored %s at %s", obj.key, out.Location)
	}
	return nil
}

// rollback removes objects from a partially written archive.
func (a *storageArchiver) rollback(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := a.storage.Delete(ctx, a.bucket, key); err != nil {
			log.Printf("reportArchiver.Archive: removing partial object %s: %v", key, err)
		}
	}
}
