// Package dispatch drives one frontend/backend run: it resolves both plugins,
// parses the package, hands it to the backend and always cleans up whatever
// the package downloaded.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	uptlog "github.com/ralt/upt/internal/log"
	"github.com/ralt/upt/pkg/upt"
	"github.com/sirupsen/logrus"
)

// State is the progress of a run.
type State int

const (
	Idle State = iota
	FrontendResolved
	BackendResolved
	Parsed
	Packaged
	CleanedUp
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FrontendResolved:
		return "frontend resolved"
	case BackendResolved:
		return "backend resolved"
	case Parsed:
		return "parsed"
	case Packaged:
		return "packaged"
	case CleanedUp:
		return "cleaned up"
	default:
		return "unknown"
	}
}

// Request names the plugins and the package of a run.
type Request struct {
	Frontend string
	Backend  string
	Package  string
	// Output is passed to the backend untouched; empty means stdout.
	Output string
}

// Runner is a single dispatch. The zero value is not usable; use New.
type Runner struct {
	registry *upt.Registry
	logger   *logrus.Logger
	state    State
	pkg      *upt.Package
}

// New prepares a run against registry, logging through logger.
func New(registry *upt.Registry, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{registry: registry, logger: logger}
}

// State reports how far the run went.
func (r *Runner) State() State {
	return r.state
}

// Package returns the parsed package, nil before parsing succeeded.
func (r *Runner) Package() *upt.Package {
	return r.pkg
}

// Execute performs req. Once a package exists its downloads are removed on
// every exit path, including a panic in the backend. A cleanup failure is
// returned only if nothing else failed.
func (r *Runner) Execute(ctx context.Context, req Request) (err error) {
	if r.state != Idle {
		return errors.New("dispatch: run already executed")
	}

	frontend, err := r.registry.Frontend(req.Frontend)
	if err != nil {
		return err
	}
	r.state = FrontendResolved

	backend, err := r.registry.Backend(req.Backend)
	if err != nil {
		return err
	}
	r.state = BackendResolved

	uptlog.SetStage(r.logger, "Frontend")
	r.logger.Debugf("Parsing %s with the %s frontend", req.Package, req.Frontend)
	pkg, err := frontend.Parse(ctx, req.Package)
	if err != nil {
		return err
	}
	if pkg == nil {
		return fmt.Errorf("frontend %s returned no package for %s", req.Frontend, req.Package)
	}
	pkg.Frontend = req.Frontend
	r.pkg = pkg
	r.state = Parsed

	defer func() {
		cleanErr := pkg.Clean()
		r.state = CleanedUp
		if cleanErr == nil {
			return
		}
		if err != nil {
			r.logger.Errorf("Cleanup of %s failed: %v", pkg, cleanErr)
			return
		}
		err = fmt.Errorf("cleanup of %s failed: %w", pkg, cleanErr)
	}()

	uptlog.SetStage(r.logger, "Backend")
	r.logger.Debugf("Creating %s with the %s backend", pkg, req.Backend)
	if err = backend.CreatePackage(ctx, pkg, req.Output); err != nil {
		return err
	}
	r.state = Packaged
	return nil
}

// Run executes req once against registry.
func Run(ctx context.Context, registry *upt.Registry, logger *logrus.Logger, req Request) error {
	return New(registry, logger).Execute(ctx, req)
}

// IsReported tells whether err is a user-facing condition that is printed as
// a single line rather than treated as a crash.
func IsReported(err error) bool {
	for _, kind := range []upt.ErrorKind{
		upt.ErrKindUnknownFrontend,
		upt.ErrKindUnknownBackend,
		upt.ErrKindNoFrontends,
		upt.ErrKindNoBackends,
		upt.ErrKindInvalidPackageName,
		upt.ErrKindUnhandledFrontend,
	} {
		if upt.IsKind(err, kind) {
			return true
		}
	}
	return false
}
