package stubs

import (
	"time"

	"paystub/internal/domain/payroll"
)

const ArchiveFilename = "payroll_pdfs.zip"

// Request carries the inputs of one batch generation.
type Request struct {
	AnnualSalary   int
	PeriodsPerYear int
	StartDate      string
	EndDate        string
	Static         payroll.StaticFields
}

// Plan is a fully validated request, computed before any document work.
type Plan struct {
	Figures  payroll.Figures
	Range    payroll.Range
	Identity string
	resolver *payroll.Resolver
	periods  int
}

// Placeholders resolves the token map for one payday of the plan.
func (p Plan) Placeholders(payday time.Time) (payroll.Placeholders, error) {
	return p.resolver.Resolve(payday, payroll.PaymentIndex(payday, p.periods))
}

// Document is one rendered stub.
type Document struct {
	Name    string
	Payday  time.Time
	Index   int
	Content []byte
}

// Batch is the output of one pipeline run, sorted by payday.
type Batch struct {
	Documents []Document
	Archive   []byte
}

type Result struct {
	Filename  string          `json:"filename"`
	Archive   []byte          `json:"-"`
	Documents []string        `json:"documents"`
	Paydays   []time.Time     `json:"paydays"`
	Figures   payroll.Figures `json:"figures"`
}
