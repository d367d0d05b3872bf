package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"creditscope/internal/domain"
	"creditscope/internal/port"
	"creditscope/internal/progress"
)

// AnalysisService runs one analysis request end to end.
type AnalysisService interface {
	// Run processes files and reports through emitter. It always finishes the
	// emitter with exactly one terminal event before returning.
	Run(ctx context.Context, files []domain.UploadedFile, emitter *progress.Emitter)
}

type analysisService struct {
	gateway    port.ModelGateway
	normalizer *Normalizer
	analyzer   *Analyzer
	aggregator *Aggregator
	archiver   ReportArchiver
	cleaner    *Cleaner
	uploadDir  string
}

// NewAnalysisService creates a new AnalysisService implementation. Files
// outside uploadDir are treated as missing.
func NewAnalysisService(
	gateway port.ModelGateway,
	normalizer *Normalizer,
	archiver ReportArchiver,
	cleaner *Cleaner,
	uploadDir string,
) AnalysisService {
	if archiver == nil {
		archiver = NewNoopArchiver()
	}
	return &analysisService{
		gateway:    gateway,
		normalizer: normalizer,
		analyzer:   NewAnalyzer(gateway),
		aggregator: NewAggregator(gateway),
		archiver:   archiver,
		cleaner:    cleaner,
		uploadDir:  uploadDir,
	}
}

type processedFile struct {
	file domain.UploadedFile
	doc  *domain.ProcessedDocument
}

func (s *analysisService) Run(ctx context.Context, files []domain.UploadedFile, emitter *progress.Emitter) {
	batchID := uuid.New().String()
	var transient []string

	defer func() {
		if r := recover(); r != nil {
			log.Printf("analysisService.Run[%s]: panic: %v", batchID, r)
			emitter.Fail("an internal error occurred during analysis")
		}
		if !emitter.Finished() {
			emitter.Fail("analysis ended unexpectedly")
		}
		if s.cleaner != nil {
			s.cleaner.Schedule(transient...)
		}
	}()

	log.Printf("analysisService.Run[%s]: starting analysis of %d files", batchID, len(files))
	emitter.Emit(progress.StepInitializing, progress.InitStart, fmt.Sprintf("Starting analysis of %d document(s)", len(files)))

	if err := s.gateway.CheckConnectivity(ctx); err != nil {
		log.Printf("analysisService.Run[%s]: connectivity check failed: %v", batchID, err)
		emitter.Fail(fmt.Sprintf("Cannot connect to the inference service: %v", err))
		return
	}
	emitter.Emit(progress.StepInitializing, progress.InitStart+5, "Connected to inference service")

	// Processing: 10-70
	var processed []processedFile
	for i, f := range files {
		emitter.Emit(progress.StepProcessing, progress.Span(progress.ProcessingStart, progress.AnalysisStart, i, len(files)),
			fmt.Sprintf("Processing %s (%d/%d)", f.OriginalName, i+1, len(files)))

		resolved, err := s.resolve(f)
		if err != nil {
			log.Printf("analysisService.Run[%s]: skipping %s: %v", batchID, f.OriginalName, err)
			emitter.Emit(progress.StepProcessing, 0, fmt.Sprintf("Skipping %s: file not found", f.OriginalName))
			continue
		}
		transient = append(transient, resolved.Path)

		doc, err := s.normalizer.Normalize(ctx, resolved)
		if err != nil {
			log.Printf("analysisService.Run[%s]: skipping %s: %v", batchID, f.OriginalName, err)
			emitter.Emit(progress.StepProcessing, 0, fmt.Sprintf("Skipping %s: %s", f.OriginalName, failureReason(err)))
			continue
		}
		if doc.WorkDir != "" {
			transient = append(transient, doc.WorkDir)
		}
		processed = append(processed, processedFile{file: resolved, doc: doc})
	}

	if len(processed) == 0 {
		log.Printf("analysisService.Run[%s]: no documents processed", batchID)
		emitter.Fail(domain.ErrNoDocumentsProcessed.Error())
		return
	}
	if err := ctx.Err(); err != nil {
		emitter.Fail(fmt.Sprintf("analysis cancelled: %v", err))
		return
	}

	// Analysis: 70-95
	results := make([]domain.DocumentAnalysisResult, 0, len(processed))
	for i, p := range processed {
		emitter.Emit(progress.StepAnalyzing, progress.Span(progress.AnalysisStart, progress.FinalizeStart, i, len(processed)),
			fmt.Sprintf("Analyzing %s (%d/%d)", p.file.OriginalName, i+1, len(processed)))
		results = append(results, s.analyzer.Analyze(ctx, p.file, p.doc))
	}
	if err := ctx.Err(); err != nil {
		emitter.Fail(fmt.Sprintf("analysis cancelled: %v", err))
		return
	}

	// Finalization: 95-100
	emitter.Emit(progress.StepFinalizing, progress.FinalizeStart, "Generating credit report")
	report, err := s.aggregator.Aggregate(ctx, batchID, results, documentTypes(processed), func(status string) {
		emitter.Emit(progress.StepFinalizing, progress.FinalizeStart, "Installing model: "+status)
	})
	if err != nil {
		log.Printf("analysisService.Run[%s]: aggregation failed: %v", batchID, err)
		emitter.Fail(fmt.Sprintf("Failed to prepare the analysis model: %v", err))
		return
	}

	if err := s.archiver.Archive(ctx, report); err != nil {
		log.Printf("analysisService.Run[%s]: archiving report failed: %v", batchID, err)
	}

	log.Printf("analysisService.Run[%s]: completed with score %d (%s, source %s)",
		batchID, report.Score, report.Rating, report.Metadata.Source)
	emitter.Result(report)
}

// resolve checks that the file exists inside the upload directory and returns
// it with a cleaned absolute path.
func (s *analysisService) resolve(f domain.UploadedFile) (domain.UploadedFile, error) {
	if strings.TrimSpace(f.Path) == "" {
		return f, domain.ErrFileNotFound
	}
	abs, err := filepath.Abs(f.Path)
	if err != nil {
		return f, fmt.Errorf("%w: %v", domain.ErrFileNotFound, err)
	}
	if s.uploadDir != "" {
		root, err := filepath.Abs(s.uploadDir)
		if err != nil {
			return f, fmt.Errorf("%w: %v", domain.ErrFileNotFound, err)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return f, fmt.Errorf("%w: %s is outside the upload directory", domain.ErrFileNotFound, f.Path)
		}
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return f, domain.ErrFileNotFound
	}
	f.Path = abs
	if f.OriginalName == "" {
		f.OriginalName = filepath.Base(abs)
	}
	return f, nil
}

// documentTypes lists the distinct types of the processed documents in order
// of first appearance.
func documentTypes(processed []processedFile) []domain.DocumentType {
	seen := make(map[domain.DocumentType]bool, len(processed))
	types := make([]domain.DocumentType, 0, len(processed))
	for _, p := range processed {
		if !seen[p.doc.Type] {
			seen[p.doc.Type] = true
			types = append(types, p.doc.Type)
		}
	}
	return types
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrDecryptionFailed):
		return "the PDF is password protected"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return "unsupported file type"
	default:
		return "could not be processed"
	}
}
