package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/incubatech/proposal-screener/constants"
	"github.com/incubatech/proposal-screener/internal/classify"
	"github.com/incubatech/proposal-screener/internal/common"
	"github.com/incubatech/proposal-screener/internal/entity"
	"github.com/incubatech/proposal-screener/internal/extract"
	"github.com/incubatech/proposal-screener/internal/repository"
	"github.com/incubatech/proposal-screener/internal/segment"
)

// ErrTenantNotFound is returned when a tenant is unknown or has no proposal
// document on file. Database failures are never mapped to it.
var ErrTenantNotFound = errors.New("tenant not found")

// ExtractionPath values reported in a Verdict.
const (
	// PathSections: the model saw the eight sections concatenated in
	// canonical order.
	PathSections = "sections"
	// PathFallbackFullText: segmentation was insufficient, the model saw the
	// full extracted text.
	PathFallbackFullText = "fallback_full_text"
	// PathRawInput: the caller supplied the text directly.
	PathRawInput = "raw_input"
)

// Pipeline states, one log line per transition.
const (
	stStart           = "START"
	stFetched         = "FETCHED"
	stExtracted       = "EXTRACTED"
	stSegmented       = "SEGMENTED"
	stSegmentFallback = "SEGMENT_FALLBACK"
	stClassified      = "CLASSIFIED"
	stDone            = "DONE"
	stError           = "ERROR"
)

// Fetcher downloads a proposal document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Segmenter slices extracted text into named sections.
type Segmenter interface {
	Segment(text string) segment.Result
}

// Classifier scores proposal text.
type Classifier interface {
	Classify(ctx context.Context, text string) (classify.Result, error)
}

// TenantSource resolves tenants for document lookup.
type TenantSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)
}

// JobRecorder persists per-invocation audit rows. Recording failures are
// logged and swallowed; they never fail the request itself.
type JobRecorder interface {
	Start(ctx context.Context, mode, source string, tenantID *uuid.UUID) (uuid.UUID, error)
	MarkExtracted(ctx context.Context, jobID uuid.UUID, method string, chars int) error
	Finish(ctx context.Context, jobID uuid.UUID, out repository.JobOutcome) error
}

// TenantMeta enriches a Verdict produced by tenant lookup.
type TenantMeta struct {
	ID           uuid.UUID `json:"tenant_id"`
	BusinessName string    `json:"business_name"`
	TeamLeadName string    `json:"team_lead_name"`
	ProposalURL  string    `json:"proposal_url"`
}

// Verdict is the final result of one pipeline invocation. A Verdict always
// means the pipeline ran to completion; failures return errors instead of
// low-confidence rejects.
type Verdict struct {
	classify.Result
	ProposalTextLength int            `json:"proposal_text_length"`
	ExtractionPath     string         `json:"extraction_path"`
	SectionChars       map[string]int `json:"section_chars,omitempty"`
	Warnings           []string       `json:"warnings,omitempty"`
	Tenant             *TenantMeta    `json:"tenant,omitempty"`
}

// Processor orchestrates fetch, extract, segment, and classify for the five
// entry modes. Tenants and Jobs are optional collaborators.
type Processor struct {
	Fetcher    Fetcher
	Extractor  extract.TextExtractor
	Segmenter  Segmenter
	Classifier Classifier
	Tenants    TenantSource
	Jobs       JobRecorder
	Logger     *slog.Logger
}

func NewProcessor(f Fetcher, x extract.TextExtractor, s Segmenter, c Classifier, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Fetcher: f, Extractor: x, Segmenter: s, Classifier: c, Logger: logger}
}

// ClassifyText scores caller-supplied text directly.
func (p *Processor) ClassifyText(ctx context.Context, text string) (*Verdict, error) {
	rid := requestID(ctx)
	p.state(ctx, rid, stStart, "mode", "text", "text_len", len(text))
	jobID := p.startJob(ctx, "text", "raw", nil)

	res, err := p.Classifier.Classify(ctx, text)
	if err != nil {
		p.fail(ctx, rid, jobID, err)
		return nil, err
	}
	p.state(ctx, rid, stClassified, "label", res.Label, "confidence", res.Confidence)

	v := &Verdict{
		Result:             res,
		ProposalTextLength: len(text),
		ExtractionPath:     PathRawInput,
	}
	p.done(ctx, rid, jobID, v)
	return v, nil
}

// ClassifySections scores pre-segmented sections: the non-empty values are
// concatenated in canonical document order, never in input order. All-blank
// input classifies exactly like an empty string.
func (p *Processor) ClassifySections(ctx context.Context, sections segment.SectionMap) (*Verdict, error) {
	rid := requestID(ctx)

	m := segment.NewSectionMap()
	for k, v := range sections {
		if constants.IsSectionKey(string(k)) {
			m[k] = v
		}
	}
	text := m.Concat()

	p.state(ctx, rid, stStart, "mode", "sections", "text_len", len(text))
	jobID := p.startJob(ctx, "sections", "raw", nil)

	res, err := p.Classifier.Classify(ctx, text)
	if err != nil {
		p.fail(ctx, rid, jobID, err)
		return nil, err
	}
	p.state(ctx, rid, stClassified, "label", res.Label, "confidence", res.Confidence)

	chars := make(map[string]int, constants.SectionCount)
	for k, v := range m {
		chars[string(k)] = len(v)
	}
	v := &Verdict{
		Result:             res,
		ProposalTextLength: len(text),
		ExtractionPath:     PathRawInput,
		SectionChars:       chars,
	}
	p.done(ctx, rid, jobID, v)
	return v, nil
}

// ClassifyURL downloads a proposal PDF and runs the full document path.
func (p *Processor) ClassifyURL(ctx context.Context, url string) (*Verdict, error) {
	rid := requestID(ctx)
	p.state(ctx, rid, stStart, "mode", "url", "url", url)
	jobID := p.startJob(ctx, "url", url, nil)

	v, err := p.runDocument(ctx, rid, jobID, url)
	if err != nil {
		p.fail(ctx, rid, jobID, err)
		return nil, err
	}
	p.done(ctx, rid, jobID, v)
	return v, nil
}

// ClassifyDocument runs the extract-segment-classify path over raw PDF bytes
// already in hand, for local files and uploads. No fetch step is involved.
func (p *Processor) ClassifyDocument(ctx context.Context, source string, data []byte) (*Verdict, error) {
	rid := requestID(ctx)
	p.state(ctx, rid, stStart, "mode", "file", "source", source, "bytes", len(data))
	jobID := p.startJob(ctx, "file", source, nil)

	v, err := p.runBytes(ctx, rid, jobID, data)
	if err != nil {
		p.fail(ctx, rid, jobID, err)
		return nil, err
	}
	p.done(ctx, rid, jobID, v)
	return v, nil
}

// ClassifyTenant resolves the tenant's stored proposal URL and runs the full
// document path, enriching the verdict with tenant metadata.
func (p *Processor) ClassifyTenant(ctx context.Context, tenantID uuid.UUID) (*Verdict, error) {
	rid := requestID(ctx)
	p.state(ctx, rid, stStart, "mode", "tenant", "tenant_id", tenantID.String())

	if p.Tenants == nil {
		return nil, fmt.Errorf("tenant source not configured")
	}
	tenant, err := p.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			err = fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
		}
		p.state(ctx, rid, stError, "error", err.Error())
		return nil, err
	}
	if tenant.ProposalURL == nil || *tenant.ProposalURL == "" {
		err := fmt.Errorf("%w: tenant %s has no proposal document", ErrTenantNotFound, tenantID)
		p.state(ctx, rid, stError, "error", err.Error())
		return nil, err
	}

	ctx = common.WithTenantID(ctx, tenant.ID.String())
	jobID := p.startJob(ctx, "tenant", *tenant.ProposalURL, &tenant.ID)
	v, err := p.runDocument(ctx, rid, jobID, *tenant.ProposalURL)
	if err != nil {
		p.fail(ctx, rid, jobID, err)
		return nil, err
	}
	v.Tenant = &TenantMeta{
		ID:           tenant.ID,
		BusinessName: tenant.BusinessName,
		TeamLeadName: tenant.TeamLeadName,
		ProposalURL:  *tenant.ProposalURL,
	}
	p.done(ctx, rid, jobID, v)
	return v, nil
}

// runDocument is the shared fetch-extract-segment-classify path.
func (p *Processor) runDocument(ctx context.Context, rid string, jobID *uuid.UUID, url string) (*Verdict, error) {
	data, err := p.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	p.state(ctx, rid, stFetched, "bytes", len(data))
	return p.runBytes(ctx, rid, jobID, data)
}

func (p *Processor) runBytes(ctx context.Context, rid string, jobID *uuid.UUID, data []byte) (*Verdict, error) {
	doc, err := p.Extractor.Extract(ctx, data)
	if err != nil {
		// Extraction failed; segmentation is never attempted.
		return nil, err
	}
	p.state(ctx, rid, stExtracted, "method", doc.Method, "pages", doc.PageCount, "chars", doc.CharCount())
	p.markExtracted(ctx, jobID, doc.Method, doc.CharCount())

	var warnings []string
	warnings = append(warnings, doc.Warnings...)

	seg := p.Segmenter.Segment(doc.Text)
	warnings = append(warnings, seg.Warnings...)

	var (
		text         string
		path         string
		sectionChars map[string]int
	)
	if seg.Fallback {
		p.state(ctx, rid, stSegmentFallback, "headings", seg.HeadingCount)
		text = doc.Text
		path = PathFallbackFullText
	} else {
		p.state(ctx, rid, stSegmented, "headings", seg.HeadingCount)
		text = seg.Sections.Concat()
		path = PathSections
		sectionChars = make(map[string]int, constants.SectionCount)
		for k, v := range seg.Sections {
			sectionChars[string(k)] = len(v)
		}
	}

	res, err := p.Classifier.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	p.state(ctx, rid, stClassified, "label", res.Label, "confidence", res.Confidence)

	return &Verdict{
		Result:             res,
		ProposalTextLength: len(text),
		ExtractionPath:     path,
		SectionChars:       sectionChars,
		Warnings:           warnings,
	}, nil
}

// requestID prefers the caller's request-scoped id so state logs line up with
// the HTTP middleware chain. Background callers get a fresh one.
func requestID(ctx context.Context) string {
	if rid := common.RequestIDFromContext(ctx); rid != "" {
		return rid
	}
	return uuid.New().String()
}

func (p *Processor) state(ctx context.Context, rid, st string, attrs ...any) {
	args := append([]any{"req_id", rid, "state", st}, attrs...)
	if tid := common.TenantIDFromContext(ctx); tid != "" {
		args = append(args, "tenant_id", tid)
	}
	if st == stError {
		p.Logger.Error("pipeline.state", args...)
		return
	}
	p.Logger.Info("pipeline.state", args...)
}

func (p *Processor) startJob(ctx context.Context, mode, source string, tenantID *uuid.UUID) *uuid.UUID {
	if p.Jobs == nil {
		return nil
	}
	id, err := p.Jobs.Start(ctx, mode, source, tenantID)
	if err != nil {
		p.Logger.Warn("pipeline.job.start_failed", "error", err)
		return nil
	}
	return &id
}

func (p *Processor) markExtracted(ctx context.Context, jobID *uuid.UUID, method string, chars int) {
	if p.Jobs == nil || jobID == nil {
		return
	}
	if err := p.Jobs.MarkExtracted(ctx, *jobID, method, chars); err != nil {
		p.Logger.Warn("pipeline.job.mark_failed", "error", err)
	}
}

func (p *Processor) fail(ctx context.Context, rid string, jobID *uuid.UUID, err error) {
	p.state(ctx, rid, stError, "error", err.Error())
	p.finishJob(ctx, jobID, repository.JobOutcome{
		Status:       constants.JobStatusFailed,
		ErrorMessage: err.Error(),
	})
}

func (p *Processor) done(ctx context.Context, rid string, jobID *uuid.UUID, v *Verdict) {
	p.state(ctx, rid, stDone, "extraction_path", v.ExtractionPath, "text_len", v.ProposalTextLength)
	label, conf, textLen := v.Label, v.Confidence, v.ProposalTextLength
	p.finishJob(ctx, jobID, repository.JobOutcome{
		Status:         constants.JobStatusClassified,
		ExtractionPath: v.ExtractionPath,
		Label:          &label,
		Confidence:     &conf,
		Message:        v.Message,
		TextLength:     &textLen,
	})
}

func (p *Processor) finishJob(ctx context.Context, jobID *uuid.UUID, out repository.JobOutcome) {
	if p.Jobs == nil || jobID == nil {
		return
	}
	if err := p.Jobs.Finish(ctx, *jobID, out); err != nil {
		p.Logger.Warn("pipeline.job.finish_failed", "error", err)
	}
}
