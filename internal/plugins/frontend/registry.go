// Package frontend contains the bundled frontends: one per upstream registry
// supported by git-pkgs/registries, and a local YAML manifest reader.
package frontend

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/git-pkgs/purl"
	"github.com/git-pkgs/registries"
	"github.com/git-pkgs/vers"
	"github.com/ralt/upt/pkg/licenses"
	"github.com/ralt/upt/pkg/upt"
	"github.com/sirupsen/logrus"
)

// Ecosystem describes how a frontend talks to one registry.
type Ecosystem struct {
	// Frontend is the identifier users pass to -f.
	Frontend string
	// Registry is the git-pkgs/registries ecosystem, also the purl type.
	Registry string
	// Archive is the type of the archives this registry serves.
	Archive upt.ArchiveType
}

// Ecosystems lists the registry frontends, by frontend identifier.
var Ecosystems = []Ecosystem{
	{Frontend: "cargo", Registry: "cargo", Archive: upt.Crate},
	{Frontend: "go", Registry: "golang", Archive: upt.Zip},
	{Frontend: "npm", Registry: "npm", Archive: upt.NpmTarball},
	{Frontend: "pypi", Registry: "pypi", Archive: upt.SourceTarball},
	{Frontend: "rubygems", Registry: "gem", Archive: upt.Gem},
}

// Registry is a frontend backed by a package registry API.
type Registry struct {
	eco Ecosystem
	reg registries.Registry
}

// NewRegistry creates a frontend for eco. baseURL overrides the default
// registry URL when non-empty.
func NewRegistry(eco Ecosystem, baseURL string) (*Registry, error) {
	reg, err := registries.New(eco.Registry, baseURL, registries.DefaultClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s registry client: %w", eco.Registry, err)
	}
	return NewRegistryWith(eco, reg), nil
}

// NewRegistryWith creates a frontend for eco that queries reg.
func NewRegistryWith(eco Ecosystem, reg registries.Registry) *Registry {
	return &Registry{eco: eco, reg: reg}
}

// Parse implements upt.Frontend. input is "name", "name@version" or a
// package URL of this registry's type.
func (r *Registry) Parse(ctx context.Context, input string) (*upt.Package, error) {
	name, version, err := r.splitInput(input)
	if err != nil {
		return nil, err
	}

	logrus.Infof("Fetching %s metadata for %s", r.eco.Registry, name)
	meta, err := r.reg.FetchPackage(ctx, name)
	if err != nil {
		return nil, r.wrap(name, err)
	}

	versions, err := r.reg.FetchVersions(ctx, name)
	if err != nil {
		return nil, r.wrap(name, err)
	}
	release, ok := selectVersion(versions, version)
	if !ok {
		return nil, upt.InvalidPackageNameError(r.eco.Frontend, input)
	}
	logrus.Debugf("Selected %s %s", name, release.Number)

	deps, err := r.reg.FetchDependencies(ctx, name, release.Number)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to fetch dependencies of %s %s: %w", name, release.Number, err)
	}

	license := release.Licenses
	if license == "" {
		license = meta.Licenses
	}

	homepage := meta.Homepage
	if homepage == "" {
		homepage = meta.Repository
	}

	pkgName := meta.Name
	if pkgName == "" {
		pkgName = name
	}

	return upt.NewPackage(pkgName, release.Number, upt.PackageOptions{
		Homepage:     homepage,
		Summary:      firstLine(meta.Description),
		Description:  meta.Description,
		Requirements: requirements(deps),
		Licenses:     licenses.Parse(license),
		Archives:     r.archives(name, release),
	})
}

func (r *Registry) wrap(name string, err error) error {
	if isNotFound(err) {
		return upt.InvalidPackageNameError(r.eco.Frontend, name)
	}
	return fmt.Errorf("failed to query the %s registry for %s: %w", r.eco.Registry, name, err)
}

func isNotFound(err error) bool {
	var notFound *registries.NotFoundError
	var httpErr *registries.HTTPError
	switch {
	case errors.Is(err, registries.ErrNotFound):
		return true
	case errors.As(err, &notFound):
		return true
	case errors.As(err, &httpErr):
		return httpErr.StatusCode == 404
	}
	return false
}

// splitInput extracts the name and optional version from the user input.
func (r *Registry) splitInput(input string) (name, version string, err error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "pkg:") {
		p, err := purl.Parse(input)
		if err != nil {
			return "", "", upt.InvalidPackageNameError(r.eco.Frontend, input)
		}
		if p.Type != r.eco.Registry {
			return "", "", upt.InvalidPackageNameError(r.eco.Frontend, input)
		}
		return p.FullName(), p.Version, nil
	}

	// npm scopes start with "@", so only a later "@" separates the version
	if i := strings.LastIndex(input, "@"); i > 0 {
		name, version = input[:i], input[i+1:]
	} else {
		name = input
	}
	if name == "" {
		return "", "", upt.InvalidPackageNameError(r.eco.Frontend, input)
	}
	return name, version, nil
}

// selectVersion returns the requested version, or the newest usable one.
func selectVersion(versions []registries.Version, want string) (registries.Version, bool) {
	if want != "" {
		for _, v := range versions {
			if v.Number == want {
				return v, true
			}
		}
		return registries.Version{}, false
	}

	var latest *registries.Version
	for i := range versions {
		v := &versions[i]
		if v.Status != registries.StatusNone {
			continue
		}
		if latest == nil || newer(v, latest) {
			latest = v
		}
	}
	if latest == nil {
		return registries.Version{}, false
	}
	return *latest, true
}

func newer(a, b *registries.Version) bool {
	if !a.PublishedAt.IsZero() && !b.PublishedAt.IsZero() && !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.After(b.PublishedAt)
	}
	return vers.Compare(a.Number, b.Number) > 0
}

func requirements(deps []registries.Dependency) map[upt.RequirementCategory][]upt.PackageRequirement {
	result := make(map[upt.RequirementCategory][]upt.PackageRequirement)
	for _, dep := range deps {
		if dep.Optional {
			continue
		}
		var category upt.RequirementCategory
		switch dep.Scope {
		case registries.Runtime:
			category = upt.RunRequirements
		case registries.Build:
			category = upt.BuildRequirements
		case registries.Test, registries.Development:
			category = upt.TestRequirements
		default:
			continue
		}
		specifier := strings.TrimSpace(dep.Requirements)
		if specifier == "*" {
			specifier = ""
		}
		result[category] = append(result[category], upt.NewRequirement(dep.Name, specifier))
	}
	return result
}

func (r *Registry) archives(name string, release registries.Version) []*upt.Archive {
	url := metaString(release.Metadata, "download_url")
	if url == "" {
		url = metaString(release.Metadata, "tarball")
	}
	if url == "" {
		url = r.reg.URLs().Download(name, release.Number)
	}
	if url == "" {
		return nil
	}

	archiveType := r.eco.Archive
	switch metaString(release.Metadata, "packagetype") {
	case "bdist_wheel":
		archiveType = upt.Wheel
	case "sdist":
		archiveType = upt.ArchiveTypeFromFilename(path.Base(url))
	}

	opts := []upt.ArchiveOption{upt.WithArchiveType(archiveType)}
	if size := metaInt(release.Metadata, "size"); size > 0 {
		opts = append(opts, upt.WithSize(size))
	}
	if algorithm, digest, ok := parseIntegrity(release.Integrity); ok {
		opts = append(opts, upt.WithChecksum(algorithm, digest))
		if algorithm == upt.SHA256 {
			if raw, err := hex.DecodeString(digest); err == nil {
				opts = append(opts, upt.WithSHA256Base64(base64.StdEncoding.EncodeToString(raw)))
			}
		}
	}
	archives := []*upt.Archive{upt.NewArchive(url, opts...)}

	// Registries that list a single file per release may pick a wheel; the
	// sdist is then only reachable through the download URL, when there is one.
	if archiveType == upt.Wheel {
		sdist := r.reg.URLs().Download(name, release.Number)
		if sdist != "" && sdist != url {
			archives = append([]*upt.Archive{upt.NewArchive(sdist, upt.WithArchiveType(upt.SourceTarball))}, archives...)
		} else {
			logrus.Warnf("%s %s only provides a wheel", name, release.Number)
		}
	}
	return archives
}

var integrityAlgorithms = map[string]struct {
	algorithm string
	size      int
}{
	"sha1":   {upt.SHA1, 20},
	"sha256": {upt.SHA256, 32},
	"sha512": {upt.SHA512, 64},
}

// parseIntegrity turns "sha256-<hex>" or an SRI string ("sha512-<base64>")
// into an algorithm and a lowercase hex digest.
func parseIntegrity(integrity string) (algorithm, digest string, ok bool) {
	prefix, value, found := strings.Cut(integrity, "-")
	if !found || value == "" {
		return "", "", false
	}
	alg, known := integrityAlgorithms[prefix]
	if !known {
		return "", "", false
	}
	if raw, err := hex.DecodeString(value); err == nil && len(raw) == alg.size {
		return alg.algorithm, strings.ToLower(value), true
	}
	if raw, err := base64.StdEncoding.DecodeString(value); err == nil && len(raw) == alg.size {
		return alg.algorithm, hex.EncodeToString(raw), true
	}
	return "", "", false
}

func metaString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

func metaInt(meta map[string]any, key string) int64 {
	switch v := meta[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
