// Package plugins builds the registry of bundled frontends and backends.
package plugins

import (
	"context"
	"fmt"
	"io"

	"github.com/ralt/upt/internal/config"
	"github.com/ralt/upt/internal/fetch"
	"github.com/ralt/upt/internal/plugins/backend"
	"github.com/ralt/upt/internal/plugins/frontend"
	"github.com/ralt/upt/internal/signer"
	"github.com/ralt/upt/pkg/upt"
	"github.com/sirupsen/logrus"

	// Registers every ecosystem supported by git-pkgs/registries
	_ "github.com/git-pkgs/registries/all"
)

// NewRegistry configures archive downloads from cfg and registers the bundled
// plugins. Backends writing to standard output use stdout.
func NewRegistry(cfg *config.Config, stdout io.Writer) (*upt.Registry, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	upt.SetDefaultFetcher(fetch.NewClient(
		fetch.WithUserAgent(cfg.Download.UserAgent),
		fetch.WithMaxRetries(cfg.Download.Retries),
		fetch.WithTimeout(cfg.Download.Timeout),
	))
	upt.SetDefaultDownloadDir(cfg.Download.Dir)

	out := &backend.Output{Stdout: stdout}
	if cfg.Sign.Key != "" {
		s, err := signer.NewGPGSigner(cfg.Sign.Key, cfg.Sign.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize signer: %w", err)
		}
		logrus.Debugf("Signing output with %s", cfg.Sign.Key)
		out.Signer = s
	}

	registry := upt.NewRegistry()

	for _, eco := range frontend.Ecosystems {
		eco := eco
		baseURL := cfg.Registries[eco.Frontend]
		if baseURL == "" {
			baseURL = cfg.Registries[eco.Registry]
		}
		registry.RegisterFrontend(eco.Frontend, func() upt.Frontend {
			f, err := frontend.NewRegistry(eco, baseURL)
			if err != nil {
				return unavailable{name: eco.Frontend, err: err}
			}
			return f
		})
	}
	registry.RegisterFrontend(frontend.ManifestName, func() upt.Frontend { return frontend.Manifest{} })

	registry.RegisterBackend("alpine", func() upt.Backend { return backend.NewAlpine(out) })
	registry.RegisterBackend("arch", func() upt.Backend { return backend.NewArch(out) })
	registry.RegisterBackend("debian", func() upt.Backend { return backend.NewDebian(out) })
	registry.RegisterBackend("homebrew", func() upt.Backend { return backend.NewHomebrew(out) })
	registry.RegisterBackend("rpm", func() upt.Backend { return backend.NewRPM(out) })
	for _, format := range []backend.Format{backend.JSON, backend.YAML, backend.TOML} {
		format := format
		registry.RegisterBackend(string(format), func() upt.Backend { return backend.NewDocument(out, format) })
	}

	return registry, nil
}

// unavailable is a frontend whose registry client could not be created
type unavailable struct {
	name string
	err  error
}

func (u unavailable) Parse(ctx context.Context, name string) (*upt.Package, error) {
	return nil, fmt.Errorf("the %s frontend is unavailable: %w", u.name, u.err)
}
