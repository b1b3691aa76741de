package stubs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"paystub/internal/domain/payroll"
	"paystub/internal/requestctx"
)

const inputDateLayout = "2006-01-02"

type Recorder interface {
	RecordBatch(ok bool, documents int, duration time.Duration)
}

type Service struct {
	pipeline *Pipeline
	policy   payroll.FormattingPolicy
	recorder Recorder
}

// NewService wires the pipeline with a formatting policy. A nil policy uses
// payroll.CellFormatting; a nil recorder disables batch metrics.
func NewService(pipeline *Pipeline, policy payroll.FormattingPolicy, recorder Recorder) *Service {
	if policy == nil {
		policy = payroll.CellFormatting{}
	}
	return &Service{pipeline: pipeline, policy: policy, recorder: recorder}
}

// Plan validates every input of a request and computes the figures and pay
// range. It never touches the filesystem.
func (s *Service) Plan(req Request) (Plan, error) {
	figures, err := payroll.Calculate(req.AnnualSalary, req.PeriodsPerYear)
	if err != nil {
		return Plan{}, err
	}
	start, err := parseDate("start date", req.StartDate)
	if err != nil {
		return Plan{}, err
	}
	end, err := parseDate("end date", req.EndDate)
	if err != nil {
		return Plan{}, err
	}
	rng, err := payroll.ResolveRange(start, end)
	if err != nil {
		return Plan{}, err
	}
	identity := Identity(req.Static)
	if identity == "" {
		return Plan{}, fmt.Errorf("%w: name or last name is required", payroll.ErrInvalidArgument)
	}
	if len(rng.Paydays) > 0 {
		if idx := payroll.PaymentIndex(rng.Paydays[0], req.PeriodsPerYear); idx < 0 {
			return Plan{}, fmt.Errorf("%w: payday %s precedes the payroll program start", payroll.ErrInvalidArgument, rng.Paydays[0].Format(inputDateLayout))
		}
	}
	resolver, err := payroll.NewResolver(req.Static, figures, s.policy)
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Figures:  figures,
		Range:    rng,
		Identity: identity,
		resolver: resolver,
		periods:  req.PeriodsPerYear,
	}, nil
}

// GenerateBatch renders one PDF per payday in the request range and returns
// them as a single zip archive.
func (s *Service) GenerateBatch(ctx context.Context, req Request) (Result, error) {
	plan, err := s.Plan(req)
	if err != nil {
		return Result{}, err
	}
	return s.Execute(ctx, plan)
}

// Execute runs the pipeline for an already validated plan.
func (s *Service) Execute(ctx context.Context, plan Plan) (Result, error) {
	started := time.Now()
	batch, err := s.pipeline.Run(ctx, Job{
		Identity: plan.Identity,
		Paydays:  plan.Range.Paydays,
		Resolve:  plan.Placeholders,
	})
	s.record(err == nil, len(batch.Documents), time.Since(started))
	if err != nil {
		requestctx.Logger(ctx).Error("batch generation failed",
			"periods", len(plan.Range.Paydays),
			"err", err,
		)
		return Result{}, err
	}

	result := Result{
		Filename:  ArchiveFilename,
		Archive:   batch.Archive,
		Documents: make([]string, len(batch.Documents)),
		Paydays:   make([]time.Time, len(batch.Documents)),
		Figures:   plan.Figures,
	}
	for i, d := range batch.Documents {
		result.Documents[i] = d.Name
		result.Paydays[i] = d.Payday
	}
	requestctx.Logger(ctx).Info("batch generated",
		"documents", len(result.Documents),
		"bytes", len(result.Archive),
		"durationMs", time.Since(started).Milliseconds(),
	)
	return result, nil
}

func (s *Service) record(ok bool, documents int, d time.Duration) {
	if s.recorder != nil {
		s.recorder.RecordBatch(ok, documents, d)
	}
}

// Identity is the filename stem shared by every document of a batch.
func Identity(static payroll.StaticFields) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return -1
		}
		return r
	}, strings.TrimSpace(static.Name)+strings.TrimSpace(static.LastName))
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", payroll.ErrInvalidArgument, field)
	}
	t, err := time.Parse(inputDateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not a YYYY-MM-DD date", payroll.ErrInvalidArgument, field, value)
	}
	return t, nil
}
