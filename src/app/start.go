package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/relgraph/relgraph/src"
	"github.com/relgraph/relgraph/src/graphstore"
	"github.com/relgraph/relgraph/src/migrate"
	"github.com/relgraph/relgraph/src/pkg/utils"
	"github.com/relgraph/relgraph/src/source"
)

// Overrides are CLI flag values taking precedence over the environment.
type Overrides struct {
	SourceDialect string
	SourceDSN     string
	SourceSchema  string
	KuzuPath      string
	Workers       int
	ReportPath    string
}

// Entrypoint owns the run's resources: the relational source, the graph
// store, the logger. It acquires them in Init and releases all of them in
// Close, on every exit path, so a failed run never leaks a connection.
type Entrypoint struct {
	ConfigOverrides Overrides

	// VerifyOnly skips the load phases and the relational source
	// entirely, running only the read-back verification.
	VerifyOnly bool

	Env envVars

	log   src.Logger
	src   *source.SQLSource
	graph *graphstore.Kuzu
	fs    afero.Fs
}

func (e *Entrypoint) Init(ctx context.Context) error {
	e.Env = mustLoadEnv()
	e.applyOverrides()

	if e.Env.Environment == EnvDev {
		e.log = utils.Must(zap.NewDevelopment()).Sugar()
	} else {
		e.log = utils.Must(zap.NewProduction()).Sugar()
	}

	e.fs = afero.NewOsFs()

	if !e.VerifyOnly {
		if e.Env.SourceDSN == "" {
			return fmt.Errorf("RELGRAPH_SOURCE_DSN is required")
		}

		s, err := source.Open(e.Env.SourceDialect, e.Env.SourceDSN)
		if err != nil {
			return err
		}

		e.src = s

		if err := s.Ping(ctx); err != nil {
			return fmt.Errorf("relational source unreachable: %w", err)
		}

		e.log.Infof("connected to %s source", e.Env.SourceDialect)
	}

	graph, err := graphstore.OpenKuzu(e.Env.KuzuPath)
	if err != nil {
		return err
	}

	e.graph = graph
	e.log.Infof("opened graph database at %s", e.Env.KuzuPath)

	return nil
}

func (e *Entrypoint) Run(ctx context.Context) error {
	m := migrate.New(e.src, e.graph, e.log, e.Env.Workers)

	if e.VerifyOnly {
		report := migrate.NewReport(e.Env.SourceSchema)
		if err := m.Verify(ctx, report); err != nil {
			return err
		}

		return e.writeReport(report)
	}

	report, err := m.Run(ctx, e.Env.SourceSchema)

	// the report describes what happened up to a failure, keep it either way
	if writeErr := e.writeReport(report); writeErr != nil {
		err = errors.Join(err, writeErr)
	}

	return err
}

func (e *Entrypoint) writeReport(report *migrate.Report) error {
	if e.Env.ReportPath == "" {
		return nil
	}

	if err := report.WriteJSON(e.fs, e.Env.ReportPath); err != nil {
		return err
	}

	e.log.Infof("wrote run report to %s", e.Env.ReportPath)

	return nil
}

func (e *Entrypoint) Close() (err error) {
	if e.src != nil {
		if closeErr := e.src.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close source: %w", closeErr)
		}
	}

	if e.graph != nil {
		if closeErr := e.graph.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close graph store: %w", closeErr))
		}
	}

	if e.log != nil {
		if err != nil {
			e.log.Error("failed to close cleanly", zap.Error(err))
		}

		if logErr := e.log.Sync(); logErr != nil && err == nil {
			err = logErr
		}
	}

	return
}

func (e *Entrypoint) applyOverrides() {
	o := e.ConfigOverrides

	if o.SourceDialect != "" {
		e.Env.SourceDialect = o.SourceDialect
	}

	if o.SourceDSN != "" {
		e.Env.SourceDSN = o.SourceDSN
	}

	if o.SourceSchema != "" {
		e.Env.SourceSchema = o.SourceSchema
	}

	if o.KuzuPath != "" {
		e.Env.KuzuPath = o.KuzuPath
	}

	if o.Workers > 0 {
		e.Env.Workers = o.Workers
	}

	if o.ReportPath != "" {
		e.Env.ReportPath = o.ReportPath
	}
}
