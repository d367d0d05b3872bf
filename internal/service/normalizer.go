package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"creditscope/internal/domain"
	"creditscope/internal/port"
)

// NormalizerConfig holds settings for document normalization.
type NormalizerConfig struct {
	WorkDir   string
	DPI       int
	Passwords []string
}

// Normalizer converts uploaded files into page images or a text descriptor.
type Normalizer struct {
	codec      port.PDFCodec
	rasterizer port.PageRasterizer
	cfg        NormalizerConfig
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(codec port.PDFCodec, rasterizer port.PageRasterizer, cfg NormalizerConfig) *Normalizer {
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	return &Normalizer{codec: codec, rasterizer: rasterizer, cfg: cfg}
}

// Normalize produces a ProcessedDocument for one uploaded file. Errors wrap
// domain.ErrDecryptionFailed or domain.ErrProcessingFailed and only concern
// this document. The caller owns the returned document's WorkDir.
func (n *Normalizer) Normalize(ctx context.Context, file domain.UploadedFile) (*domain.ProcessedDocument, error) {
	info, err := os.Stat(file.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProcessingFailed, file.OriginalName, err)
	}

	mimeType, err := resolveMimeType(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProcessingFailed, file.OriginalName, err)
	}
	if !domain.IsAcceptedMimeType(mimeType) {
		return nil, fmt.Errorf("%w: %s: %w (%s)", domain.ErrProcessingFailed, file.OriginalName, domain.ErrUnsupportedFileType, mimeType)
	}

	doc := &domain.ProcessedDocument{
		ID:   file.ID,
		Type: domain.ParseDocumentType(string(file.DocumentType)),
	}

	if mimeType != domain.MimeTypePDF {
		doc.ExtractedText = describeFile(file, info.Size(), mimeType)
		return doc, nil
	}

	if err := os.MkdirAll(n.cfg.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating work dir: %v", domain.ErrProcessingFailed, err)
	}
	workDir, err := os.MkdirTemp(n.cfg.WorkDir, "doc-"+safeID(file.ID)+"-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating document dir: %v", domain.ErrProcessingFailed, err)
	}
	doc.WorkDir = workDir

	pages, err := n.renderPDF(ctx, file, workDir)
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, err
	}
	doc.Pages = pages
	doc.PageCount = len(pages)
	return doc, nil
}

func (n *Normalizer) renderPDF(ctx context.Context, file domain.UploadedFile, workDir string) ([]string, error) {
	pdfPath := file.Path
	expected, err := n.codec.PageCount(pdfPath)
	if err != nil {
		if !n.codec.IsEncryptionError(err) {
			return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrProcessingFailed, file.OriginalName, err)
		}
		log.Printf("normalizer.Normalize: %s is encrypted, probing %d passwords", file.OriginalName, len(n.cfg.Passwords))
		pdfPath, err = n.decrypt(file, workDir)
		if err != nil {
			return nil, err
		}
		if expected, err = n.codec.PageCount(pdfPath); err != nil {
			return nil, fmt.Errorf("%w: opening decrypted %s: %v", domain.ErrProcessingFailed, file.OriginalName, err)
		}
	}

	pages, err := n.rasterizer.Render(ctx, pdfPath, workDir, n.cfg.DPI)
	if err != nil {
		return nil, fmt.Errorf("%w: rendering %s: %v", domain.ErrProcessingFailed, file.OriginalName, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s has no pages", domain.ErrProcessingFailed, file.OriginalName)
	}
	if len(pages) != expected {
		log.Printf("normalizer.Normalize: %s rendered %d pages, pdf reports %d", file.OriginalName, len(pages), expected)
	}
	return pages, nil
}

// decrypt probes the configured passwords in order and returns the path of a
// decrypted copy for the first one that works.
func (n *Normalizer) decrypt(file domain.UploadedFile, workDir string) (string, error) {
	out := filepath.Join(workDir, "decrypted.pdf")
	for i, pw := range n.cfg.Passwords {
		if err := n.codec.Decrypt(file.Path, out, pw); err != nil {
			continue
		}
		log.Printf("normalizer.Normalize: decrypted %s with password #%d", file.OriginalName, i+1)
		return out, nil
	}
	_ = os.Remove(out)
	return "", fmt.Errorf("%w: %s", domain.ErrDecryptionFailed, file.OriginalName)
}

// resolveMimeType trusts the declared type unless it is missing or generic.
func resolveMimeType(file domain.UploadedFile) (string, error) {
	declared := strings.TrimSpace(strings.SplitN(file.MimeType, ";", 2)[0])
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}
	detected, err := mimetype.DetectFile(file.Path)
	if err != nil {
		return "", fmt.Errorf("detecting content type: %w", err)
	}
	return strings.SplitN(detected.String(), ";", 2)[0], nil
}

// describeFile is the text stand-in for formats whose content is not parsed.
func describeFile(file domain.UploadedFile, size int64, mimeType string) string {
	return fmt.Sprintf("Document: %s (%d bytes, %s). Content extraction is not available for this format; only file metadata was analyzed.",
		file.OriginalName, size, mimeType)
}

func safeID(id string) string {
	id = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, id)
	if id == "" {
		return "x"
	}
	return id
}

