// Package pipeline threads a context.Context, a compile job id, a scoped
// logger, a metrics recorder, and a tracer through four stages (verify,
// ir_build, codegen, resolve_emit); parsing runs before them without a stage
// wrapper, and the symbol table is built inside verify. This way no
// individual stage package needs to import all four cross-cutting concerns
// itself. It is adapted from the reference compiler's per-request context
// object, repurposed from per-HTTP-request to per-compile-job.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jakubdabek/gembiler/pkg/asm"
	"github.com/jakubdabek/gembiler/pkg/codegen"
	"github.com/jakubdabek/gembiler/pkg/compiler"
	"github.com/jakubdabek/gembiler/pkg/errors"
	"github.com/jakubdabek/gembiler/pkg/ir"
	"github.com/jakubdabek/gembiler/pkg/logging"
	"github.com/jakubdabek/gembiler/pkg/metrics"
	"github.com/jakubdabek/gembiler/pkg/parser"
	"github.com/jakubdabek/gembiler/pkg/tracing"
)

// CompileContext bundles the cross-cutting concerns one compile invocation
// needs: cancellation, a correlation id, logging, metrics, and tracing.
type CompileContext struct {
	Ctx     context.Context
	JobID   string
	Log     *logging.JobLogger
	Metrics *metrics.Metrics
	Tracer  trace.Tracer
}

// New builds a CompileContext for one compile invocation. metrics/tracer may
// be nil, in which case recording is skipped.
func New(ctx context.Context, log *logging.Logger, m *metrics.Metrics, tracer trace.Tracer) *CompileContext {
	jobID := logging.NewJobID()
	return &CompileContext{
		Ctx:     ctx,
		JobID:   jobID,
		Log:     log.WithJob(jobID),
		Metrics: m,
		Tracer:  tracer,
	}
}

// stage wraps one pipeline step with logging, metrics, and tracing,
// uniformly across all four stages.
func (cc *CompileContext) stage(name string, fn func() error) error {
	sl := cc.Log.Stage(name)
	sl.Entered()

	var span trace.Span
	if cc.Tracer != nil {
		_, span = tracing.StartStage(cc.Ctx, cc.Tracer, name)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if cc.Metrics != nil {
		cc.Metrics.ObserveStage(name, elapsed)
	}
	if span != nil {
		tracing.EndStage(span, err)
	}

	if err != nil {
		sl.ErrorWithFields("stage failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	sl.Exited(elapsed)
	return nil
}

// Result is the full output of one successful compile.
type Result struct {
	Instructions []asm.Instruction
	Assembly     string
}

// Compile runs source through parser -> verifier -> IR builder -> codegen ->
// resolver, recording stage timing/logs/traces along the way (spec §2).
func (cc *CompileContext) Compile(source string) (*Result, *errors.Diagnostics, error) {
	var (
		symbols *compiler.SymbolTable
		ops     []ir.Op
		instrs  []asm.Instruction
	)

	p := parser.NewParser(source)
	astProg := p.Parse()
	if len(p.Errors()) > 0 {
		diags := &errors.Diagnostics{}
		for _, e := range p.Errors() {
			diags.Add(e)
		}
		if cc.Metrics != nil {
			for _, e := range p.Errors() {
				cc.Metrics.RecordDiagnostic(string(e.Category))
			}
			cc.Metrics.RecordCompile("parse_error")
		}
		return nil, diags, fmt.Errorf("pipeline: %d parse error(s)", len(p.Errors()))
	}

	var diags *errors.Diagnostics
	if err := cc.stage("verify", func() error {
		symbols, diags = compiler.Verify(astProg)
		if diags.HasErrors() {
			return diags
		}
		return nil
	}); err != nil {
		if cc.Metrics != nil {
			for _, d := range diags.All() {
				cc.Metrics.RecordDiagnostic(string(d.Category))
			}
			cc.Metrics.RecordCompile("verify_error")
		}
		return nil, diags, err
	}

	if err := cc.stage("ir_build", func() error {
		ops = ir.Build(symbols, astProg.Commands)
		return nil
	}); err != nil {
		return nil, nil, err
	}

	var genErr *errors.InternalError
	if err := cc.stage("codegen", func() error {
		instrs, genErr = codegen.Generate(ops, symbols)
		if genErr != nil {
			return genErr
		}
		return nil
	}); err != nil {
		if cc.Metrics != nil {
			cc.Metrics.RecordCompile("internal_error")
		}
		return nil, nil, err
	}

	var out string
	if err := cc.stage("resolve_emit", func() error {
		out = asm.Emit(instrs)
		return nil
	}); err != nil {
		return nil, nil, err
	}

	if cc.Metrics != nil {
		cc.Metrics.RecordCompile("ok")
		cc.Metrics.ObserveInstructions(len(instrs))
	}

	return &Result{Instructions: instrs, Assembly: out}, nil, nil
}
