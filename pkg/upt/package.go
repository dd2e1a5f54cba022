// Package upt holds the data model shared by every frontend and backend:
// Package, PackageRequirement and Archive, plus the plugin interfaces and
// the registry that maps plugin names to implementations.
package upt

import (
	"errors"
	"fmt"

	"github.com/ralt/upt/pkg/licenses"
)

// Package is the envelope a frontend produces and a backend consumes.
type Package struct {
	// Core metadata
	Name        string
	Version     string
	Homepage    string
	Summary     string
	Description string

	// Requirements by category; a missing category means no requirements
	Requirements map[RequirementCategory][]PackageRequirement
	Licenses     []licenses.License
	// Archives are alternative downloads for this exact version
	Archives []*Archive

	// Frontend is the name the producing frontend is registered under.
	// It is set by dispatch right after parsing, never by the frontend.
	Frontend string
}

// PackageOptions holds the optional fields of a Package. Omitted fields
// default to empty values.
type PackageOptions struct {
	Homepage     string
	Summary      string
	Description  string
	Requirements map[RequirementCategory][]PackageRequirement
	Licenses     []licenses.License
	Archives     []*Archive
}

// NewPackage creates a Package, rejecting an empty name or version and
// requirement categories other than config, build, run and test.
func NewPackage(name, version string, opts PackageOptions) (*Package, error) {
	if name == "" {
		return nil, &Error{Kind: ErrKindInvalidPackage, Err: errors.New("package name is required")}
	}
	if version == "" {
		return nil, &Error{Kind: ErrKindInvalidPackage, Package: name, Err: errors.New("package version is required")}
	}

	requirements := make(map[RequirementCategory][]PackageRequirement, len(opts.Requirements))
	for category, reqs := range opts.Requirements {
		if !category.Valid() {
			return nil, &Error{
				Kind:    ErrKindInvalidPackage,
				Package: name,
				Err:     fmt.Errorf("unknown requirement category %q", category),
			}
		}
		requirements[category] = reqs
	}

	return &Package{
		Name:         name,
		Version:      version,
		Homepage:     opts.Homepage,
		Summary:      opts.Summary,
		Description:  opts.Description,
		Requirements: requirements,
		Licenses:     opts.Licenses,
		Archives:     opts.Archives,
	}, nil
}

// String returns "name@version".
func (p *Package) String() string {
	return fmt.Sprintf("%s@%s", p.Name, p.Version)
}

// RequirementsFor returns the requirements of a category, empty if there are none.
func (p *Package) RequirementsFor(category RequirementCategory) []PackageRequirement {
	if reqs, ok := p.Requirements[category]; ok {
		return reqs
	}
	return []PackageRequirement{}
}

// GetArchive returns the first archive of type t. It does not fall back to
// other archive types; ErrArchiveUnavailable is returned when none matches.
func (p *Package) GetArchive(t ArchiveType) (*Archive, error) {
	for _, archive := range p.Archives {
		if archive.Type == t {
			return archive, nil
		}
	}
	return nil, &Error{Kind: ErrKindArchiveUnavailable, Package: p.String()}
}

// Clean removes the files of every archive that was downloaded. Archives that
// were never downloaded are left alone. All removal errors are returned.
func (p *Package) Clean() error {
	var errs []error
	for _, archive := range p.Archives {
		if err := archive.remove(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
