// Package backend contains the bundled backends. Each renders a single
// package definition for one distribution, or a portable document of the
// package for the json, yaml and toml backends.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ralt/upt/internal/signer"
	"github.com/ralt/upt/internal/utils"
	"github.com/ralt/upt/pkg/upt"
	"github.com/sirupsen/logrus"
)

// Output writes what a backend rendered
type Output struct {
	// Stdout receives the definition when no output path is given
	Stdout io.Writer
	// Signer, when set, signs every file written to disk as <file>.asc
	Signer signer.Signer
}

// Write sends data to output. See utils.OutputPath for how output is resolved.
// It returns the path written to, "" for standard output.
func (o *Output) Write(output, defaultName string, data []byte) (string, error) {
	path := utils.OutputPath(output, defaultName)
	if path == "" {
		_, err := o.Stdout.Write(data)
		return "", err
	}

	if err := utils.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	logrus.Infof("Wrote %s", path)

	if o.Signer != nil {
		signature, err := o.Signer.SignDetached(data)
		if err != nil {
			return "", fmt.Errorf("failed to sign %s: %w", path, err)
		}
		if err := utils.WriteFile(path+".asc", signature, 0644); err != nil {
			return "", fmt.Errorf("failed to write signature: %w", err)
		}
		logrus.Infof("Signed %s", path)
	}
	return path, nil
}

// naming maps upstream names to distribution names, per frontend
type naming struct {
	backend  string
	prefixes map[string]string
}

// check vetoes frontends the backend has no naming convention for
func (n naming) check(pkg *upt.Package) error {
	if _, ok := n.prefixes[pkg.Frontend]; !ok {
		return upt.UnhandledFrontendError(n.backend, pkg.Frontend)
	}
	return nil
}

// name returns the distribution name of an upstream package
func (n naming) name(frontend, upstream string) string {
	name := strings.ToLower(upstream)
	name = strings.NewReplacer("_", "-", ".", "-", "/", "-", "@", "").Replace(name)
	prefix := n.prefixes[frontend]
	if strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}

// depends renders the requirements of a category, formatting each with dep
func (n naming) depends(pkg *upt.Package, category upt.RequirementCategory, dep func(name string, c constraint) string) []string {
	var result []string
	for _, req := range pkg.RequirementsFor(category) {
		result = append(result, dep(n.name(pkg.Frontend, req.Name), parseConstraint(req.Specifier)))
	}
	return result
}

// constraint is a single version comparison, the only kind every
// distribution can express
type constraint struct {
	op      string // ">=", "<=", ">", "<", "=" or "" for none
	version string
}

var constraintPattern = regexp.MustCompile(`^(>=|<=|==|=|>|<|~=|\^|~)\s*v?([0-9][A-Za-z0-9.+~-]*)$`)

// parseConstraint understands specifiers such as ">= 2.0", "==1.2" or "^1.4".
// Compound or unusual specifiers yield no constraint.
func parseConstraint(specifier string) constraint {
	m := constraintPattern.FindStringSubmatch(strings.TrimSpace(specifier))
	if m == nil {
		return constraint{}
	}
	op := m[1]
	switch op {
	case "==":
		op = "="
	case "~=", "^", "~":
		op = ">="
	}
	return constraint{op: op, version: m[2]}
}

// sourceArchive returns the archive a distribution builds from, nil when the
// package has no archive at all. Python packages are only built from an sdist,
// never from a wheel.
func sourceArchive(pkg *upt.Package) (*upt.Archive, error) {
	if archive, err := pkg.GetArchive(upt.SourceTarball); err == nil {
		return archive, nil
	}
	if len(pkg.Archives) == 0 {
		return nil, nil
	}
	if pkg.Frontend == "pypi" {
		return nil, &upt.Error{
			Kind:    upt.ErrKindArchiveUnavailable,
			Package: pkg.String(),
			Err:     errors.New("no source distribution to build from"),
		}
	}
	return pkg.Archives[0], nil
}

// checksum returns a digest of archive, downloading it if the frontend did
// not provide one
func checksum(ctx context.Context, archive *upt.Archive, algorithm string) (string, error) {
	digest, err := archive.Checksum(ctx, algorithm)
	if err != nil {
		return "", fmt.Errorf("failed to compute the %s of %s: %w", algorithm, archive.URL, err)
	}
	return digest, nil
}

func licenseNames(pkg *upt.Package) []string {
	var names []string
	for _, l := range pkg.Licenses {
		names = append(names, l.String())
	}
	return names
}

func summary(pkg *upt.Package) string {
	s := pkg.Summary
	if s == "" {
		s = pkg.Description
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "."))
}

// quote escapes s for a double-quoted shell or Ruby string
func quote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`").Replace(s)
}
