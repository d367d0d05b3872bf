package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"creditscope/internal/config"
	"creditscope/internal/domain"
	"creditscope/internal/inference"
	"creditscope/internal/port"
)

const (
	defaultModel          = "qwen2.5vl:7b"
	connectivityTimeout   = 10 * time.Second
	maxPullStatusLineSize = 1 << 20
)

// Gateway implements port.ModelGateway against an Ollama-compatible HTTP API.
type Gateway struct {
	baseURL         string
	model           string
	maxRetries      int
	retryDelay      time.Duration
	temperature     float64
	pageMaxTokens   int
	reportMaxTokens int
	pageConcurrency int
	client          *http.Client
	pullClient      *http.Client
}

// NewGateway creates a Gateway from an inference config.
func NewGateway(cfg *config.InferenceConfig) *Gateway {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 300 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	pageMaxTokens := cfg.PageMaxTokens
	if pageMaxTokens <= 0 {
		pageMaxTokens = 2048
	}
	reportMaxTokens := cfg.ReportMaxTokens
	if reportMaxTokens <= 0 {
		reportMaxTokens = 4096
	}
	concurrency := cfg.PageConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Gateway{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		model:           model,
		maxRetries:      maxRetries,
		retryDelay:      cfg.RetryDelay,
		temperature:     cfg.Temperature,
		pageMaxTokens:   pageMaxTokens,
		reportMaxTokens: reportMaxTokens,
		pageConcurrency: concurrency,
		client:          &http.Client{Timeout: timeout},
		// Model pulls stream for minutes; they are bounded by the caller's context instead.
		pullClient: &http.Client{},
	}
}

var _ port.ModelGateway = (*Gateway)(nil)

// ModelName returns the configured model identifier.
func (g *Gateway) ModelName() string {
	return g.model
}

// CheckConnectivity pings the version endpoint.
func (g *Gateway) CheckConnectivity(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectivityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/version", nil)
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", domain.ErrConnectivity, err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnectivity, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: version endpoint returned status %d", domain.ErrConnectivity, resp.StatusCode)
	}
	return nil
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// IsModelAvailable reports whether the configured model is installed. Errors are
// treated as unavailable.
func (g *Gateway) IsModelAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		log.Printf("ollama.Gateway.IsModelAvailable: listing models failed: %v", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		log.Printf("ollama.Gateway.IsModelAvailable: tags endpoint returned status %d", resp.StatusCode)
		return false
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		log.Printf("ollama.Gateway.IsModelAvailable: decoding tags: %v", err)
		return false
	}
	for _, m := range tags.Models {
		if sameModel(m.Name, g.model) || sameModel(m.Model, g.model) {
			return true
		}
	}
	return false
}

// sameModel compares model names, treating a missing tag as ":latest".
func sameModel(installed, wanted string) bool {
	if installed == "" {
		return false
	}
	return withTag(installed) == withTag(wanted)
}

func withTag(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return name + ":latest"
}

type pullStatus struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// InstallModel pulls the configured model, forwarding each new status line to
// onStatus, and verifies the model is listed afterwards.
func (g *Gateway) InstallModel(ctx context.Context, onStatus func(status string)) error {
	body, err := json.Marshal(map[string]interface{}{
		"model":  g.model,
		"stream": true,
	})
	if err != nil {
		return fmt.Errorf("%w: marshaling request: %v", domain.ErrModelInstall, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", domain.ErrModelInstall, err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("ollama.Gateway.InstallModel: pulling model %s", g.model)
	resp, err := g.pullClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrModelInstall, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: pull returned status %d: %s", domain.ErrModelInstall, resp.StatusCode, string(respBody))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxPullStatusLineSize)
	lastStatus := ""
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var st pullStatus
		if err := json.Unmarshal(line, &st); err != nil {
			log.Printf("ollama.Gateway.InstallModel: skipping unreadable status line: %s", inference.Truncate(string(line), 200))
			continue
		}
		if st.Error != "" {
			return fmt.Errorf("%w: %s", domain.ErrModelInstall, st.Error)
		}
		if st.Status != "" && st.Status != lastStatus {
			lastStatus = st.Status
			if onStatus != nil {
				onStatus(st.Status)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: reading pull stream: %v", domain.ErrModelInstall, err)
	}

	if !g.IsModelAvailable(ctx) {
		return fmt.Errorf("%w: model %s still unavailable after pull (last status %q)", domain.ErrModelInstall, g.model, lastStatus)
	}
	log.Printf("ollama.Gateway.InstallModel: model %s installed", g.model)
	return nil
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Images  []string               `json:"images,omitempty"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// InferImage runs one vision request for an image, retrying failed attempts
// with a fixed delay. At most maxRetries+1 requests are sent.
func (g *Gateway) InferImage(ctx context.Context, imagePath, prompt string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("%w: reading image %s: %v", domain.ErrInferenceFailed, imagePath, err)
	}
	req := generateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Images:  []string{base64.StdEncoding.EncodeToString(data)},
		Stream:  false,
		Options: g.options(g.pageMaxTokens),
	}

	maxAttempts := g.maxRetries + 1
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		text, err := g.generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		log.Printf("ollama.Gateway.InferImage: attempt %d/%d for %s failed: %v", attempt, maxAttempts, imagePath, err)

		if attempt == maxAttempts {
			break
		}
		if err := sleepCtx(ctx, g.retryDelay); err != nil {
			lastErr = err
			break
		}
	}
	return "", inference.NewInferenceError(attempts, lastErr)
}

// InferBatch runs InferImage for each page and records every page's outcome
// independently. Results are always in page order.
func (g *Gateway) InferBatch(ctx context.Context, imagePaths []string, prompt string) []domain.PageAnalysisResult {
	results := make([]domain.PageAnalysisResult, len(imagePaths))
	total := len(imagePaths)

	inferPage := func(i int) {
		page := i + 1
		text, err := g.InferImage(ctx, imagePaths[i], inference.PagePrompt(prompt, page, total))
		res := domain.PageAnalysisResult{Page: page, ImagePath: imagePaths[i]}
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Analysis = text
		}
		results[i] = res
	}

	if g.pageConcurrency <= 1 {
		for i := range imagePaths {
			inferPage(i)
		}
		return results
	}

	var eg errgroup.Group
	eg.SetLimit(g.pageConcurrency)
	for i := range imagePaths {
		i := i
		eg.Go(func() error {
			inferPage(i)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// InferReport asks the model for the final structured report. The response is
// only accepted when it parses and carries a score, rating and summary.
func (g *Gateway) InferReport(ctx context.Context, docs []domain.DocumentAnalysisResult, documentTypes []domain.DocumentType) (*port.ReportDraft, error) {
	prompt, err := inference.BuildReportPrompt(docs, documentTypes)
	if err != nil {
		return nil, err
	}
	text, err := g.generate(ctx, generateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  false,
		Options: g.options(g.reportMaxTokens),
	})
	if err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}
	return inference.ParseReport(text)
}

func (g *Gateway) options(maxTokens int) map[string]interface{} {
	return map[string]interface{}{
		"temperature": g.temperature,
		"top_p":       0.9,
		"num_predict": maxTokens,
	}
}

func (g *Gateway) generate(ctx context.Context, body generateRequest) (string, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling inference API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference API error (status %d): %s", resp.StatusCode, inference.Truncate(string(respBody), 500))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	text := strings.TrimSpace(parsed.Response)
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
