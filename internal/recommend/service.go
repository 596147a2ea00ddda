// Package recommend runs the scenario pipeline: validate, ground, prompt,
// generate, then clamp.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/traitdial/internal/docextract"
	"github.com/yungbote/traitdial/internal/llm"
	"github.com/yungbote/traitdial/internal/observability"
	"github.com/yungbote/traitdial/internal/platform/apierr"
	"github.com/yungbote/traitdial/internal/platform/ctxutil"
	"github.com/yungbote/traitdial/internal/platform/logger"
	"github.com/yungbote/traitdial/internal/prompt"
	"github.com/yungbote/traitdial/internal/sourceurl"
	"github.com/yungbote/traitdial/internal/traits"
)

type Generator interface {
	Configured() bool
	// Generate returns model content as JSON text (string) or structured data.
	Generate(ctx context.Context, system, user string) (any, error)
}

type DocumentExtractor interface {
	Extract(ctx context.Context, rawURL string) docextract.Result
}

type Diagnostics struct {
	PDFURL        string `json:"pdfUrl"`
	PDFTextLength int    `json:"pdfTextLength"`
	PDFText       string `json:"pdfText"`
	PDFStatus     string `json:"pdfStatus"`
	PDFError      string `json:"pdfError,omitempty"`
}

type Response struct {
	traits.Result
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

type Service struct {
	log     *logger.Logger
	docs    DocumentExtractor
	gen     Generator
	metrics *observability.Metrics
	tracer  trace.Tracer
}

func NewService(log *logger.Logger, docs DocumentExtractor, gen Generator, metrics *observability.Metrics) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		log:     log.With("component", "recommend"),
		docs:    docs,
		gen:     gen,
		metrics: metrics,
		tracer:  observability.Tracer(),
	}
}

// Ready fails with missing_configuration when no credential is set.
func (s *Service) Ready() error {
	if s.gen == nil || !s.gen.Configured() {
		return apierr.New(http.StatusInternalServerError, apierr.CodeMissingConfiguration,
			errors.New("server misconfigured: missing OPENAI_API_KEY"))
	}
	return nil
}

// Handle serves a raw request body: credential check, then validation, then
// the pipeline.
func (s *Service) Handle(ctx context.Context, body []byte) (resp Response, err error) {
	defer func() { s.observeOutcome(err) }()

	if err := s.Ready(); err != nil {
		return Response{}, err
	}
	req, err := ParseRequest(body)
	if err != nil {
		return Response{}, err
	}
	return s.run(ctx, req)
}

// Recommend runs the pipeline for an already-built request.
func (s *Service) Recommend(ctx context.Context, req ScenarioRequest) (resp Response, err error) {
	defer func() { s.observeOutcome(err) }()

	if err := s.Ready(); err != nil {
		return Response{}, err
	}
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	return s.run(ctx, req)
}

func (s *Service) run(ctx context.Context, req ScenarioRequest) (Response, error) {
	ctx, span := s.tracer.Start(ctx, "recommend")
	defer span.End()
	span.SetAttributes(
		attribute.Bool("recommend.debug", req.Debug),
		attribute.Bool("recommend.has_source", req.PDFURL != ""),
	)

	log := s.log
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		log = log.With("request_id", td.RequestID)
	}

	sourceURL := sourceurl.Normalize(req.PDFURL)
	doc := s.extract(ctx, sourceURL)
	if sourceURL != "" && !doc.Available() {
		log.Warn("document grounding unavailable", "pdf_url", sourceURL, "reason", doc.Reason)
	}

	p := prompt.Build(req.Scenario, doc.Text(), traits.Keys())

	content, err := s.generate(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}

	result, err := s.finalize(ctx, log, content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}

	resp := Response{Result: result}
	if req.Debug {
		text := doc.Text()
		resp.Diagnostics = &Diagnostics{
			PDFURL:        sourceURL,
			PDFTextLength: utf8.RuneCountInString(text),
			PDFText:       text,
			PDFStatus:     string(doc.Status),
			PDFError:      doc.Reason,
		}
	}
	return resp, nil
}

func (s *Service) extract(ctx context.Context, sourceURL string) docextract.Result {
	if sourceURL == "" || s.docs == nil {
		return docextract.Unavailable("no source url")
	}
	ctx, span := s.tracer.Start(ctx, "recommend.extract")
	defer span.End()

	start := time.Now()
	res := s.docs.Extract(ctx, sourceURL)
	s.metrics.ObserveStage("extract", string(res.Status), time.Since(start))
	s.metrics.IncGrounding(string(res.Status))

	span.SetAttributes(
		attribute.String("document.status", string(res.Status)),
		attribute.Int("document.chars", utf8.RuneCountInString(res.Text())),
	)
	return res
}

func (s *Service) generate(ctx context.Context, p prompt.Prompt) (any, error) {
	ctx, span := s.tracer.Start(ctx, "recommend.generate")
	defer span.End()

	start := time.Now()
	content, err := s.gen.Generate(ctx, p.System, p.User)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
	}
	s.metrics.ObserveStage("generate", status, time.Since(start))
	if err != nil {
		return nil, mapGenerationError(err)
	}
	return content, nil
}

func (s *Service) finalize(ctx context.Context, log *logger.Logger, content any) (traits.Result, error) {
	_, span := s.tracer.Start(ctx, "recommend.finalize")
	defer span.End()

	start := time.Now()
	result, err := traits.Finalize(content)
	if err != nil {
		s.metrics.ObserveStage("finalize", "error", time.Since(start))
		var invalid *traits.InvalidOutputError
		if errors.As(err, &invalid) {
			return traits.Result{}, apierr.New(http.StatusInternalServerError, apierr.CodeModelOutputInvalid,
				errors.New("model returned invalid JSON")).WithSnippet(invalid.Snippet)
		}
		return traits.Result{}, err
	}
	s.metrics.ObserveStage("finalize", "ok", time.Since(start))
	if len(result.DroppedKeys) > 0 {
		log.Debug("dropped unknown level keys", "keys", result.DroppedKeys)
	}
	return result, nil
}

func (s *Service) observeOutcome(err error) {
	if err == nil {
		s.metrics.IncOutcome("ok")
		return
	}
	s.metrics.IncOutcome(apierr.From(err).Code)
}

// mapGenerationError converts client failures into response errors, one
// status per kind.
func mapGenerationError(err error) error {
	var ge *llm.Error
	if !errors.As(err, &ge) {
		return err
	}
	switch ge.Kind {
	case llm.KindConfiguration:
		return apierr.New(http.StatusInternalServerError, apierr.CodeMissingConfiguration, errors.New(ge.Message))
	case llm.KindUnavailable:
		return apierr.New(http.StatusInternalServerError, apierr.CodeUpstreamUnavailable,
			fmt.Errorf("generation service unreachable: %w", ge))
	case llm.KindMalformed:
		return apierr.New(http.StatusBadGateway, apierr.CodeUpstreamMalformed,
			errors.New("upstream returned non-JSON response")).WithSnippet(ge.Snippet)
	case llm.KindRejected:
		status := ge.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return apierr.New(status, apierr.CodeUpstreamRejected, errors.New(ge.Message))
	default:
		return apierr.New(http.StatusInternalServerError, apierr.CodeInternal, ge)
	}
}
