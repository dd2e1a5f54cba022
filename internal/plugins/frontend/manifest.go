package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ralt/upt/pkg/licenses"
	"github.com/ralt/upt/pkg/upt"
	"gopkg.in/yaml.v3"
)

// ManifestName is the identifier of the manifest frontend.
const ManifestName = "manifest"

// manifest is the YAML description of a package
type manifest struct {
	Name         string                           `yaml:"name"`
	Version      string                           `yaml:"version"`
	Homepage     string                           `yaml:"homepage"`
	Summary      string                           `yaml:"summary"`
	Description  string                           `yaml:"description"`
	Licenses     []string                         `yaml:"licenses"`
	Requirements map[string][]manifestRequirement `yaml:"requirements"`
	Archives     []manifestArchive                `yaml:"archives"`
}

type manifestRequirement struct {
	Name      string `yaml:"name"`
	Specifier string `yaml:"specifier"`
}

type manifestArchive struct {
	URL          string `yaml:"url"`
	Type         string `yaml:"type"`
	Size         int64  `yaml:"size"`
	MD5          string `yaml:"md5"`
	SHA256       string `yaml:"sha256"`
	SHA256Base64 string `yaml:"sha256_base64"`
	RMD160       string `yaml:"rmd160"`
}

// DecodePackage reads a package description. Unknown fields are rejected.
func DecodePackage(r io.Reader) (*upt.Package, error) {
	var m manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, &upt.Error{Kind: upt.ErrKindInvalidPackage, Err: fmt.Errorf("failed to decode manifest: %w", err)}
	}

	requirements := make(map[upt.RequirementCategory][]upt.PackageRequirement, len(m.Requirements))
	for category, reqs := range m.Requirements {
		for _, req := range reqs {
			if req.Name == "" {
				return nil, &upt.Error{Kind: upt.ErrKindInvalidPackage, Package: m.Name, Err: errors.New("requirement without a name")}
			}
			requirements[upt.RequirementCategory(category)] = append(requirements[upt.RequirementCategory(category)],
				upt.NewRequirement(req.Name, req.Specifier))
		}
	}

	var lics []licenses.License
	for _, name := range m.Licenses {
		lics = append(lics, licenses.Lookup(name))
	}

	archives := make([]*upt.Archive, 0, len(m.Archives))
	for _, a := range m.Archives {
		if a.URL == "" {
			return nil, &upt.Error{Kind: upt.ErrKindInvalidPackage, Package: m.Name, Err: errors.New("archive without a url")}
		}
		archiveType := upt.SourceTarball
		if a.Type != "" {
			t, err := upt.ParseArchiveType(a.Type)
			if err != nil {
				return nil, &upt.Error{Kind: upt.ErrKindInvalidPackage, Package: m.Name, Err: err}
			}
			archiveType = t
		}
		opts := []upt.ArchiveOption{upt.WithArchiveType(archiveType), upt.WithSize(a.Size)}
		for algorithm, value := range map[string]string{
			upt.MD5:          a.MD5,
			upt.SHA256:       a.SHA256,
			upt.SHA256Base64: a.SHA256Base64,
			upt.RMD160:       a.RMD160,
		} {
			if value != "" {
				opts = append(opts, upt.WithChecksum(algorithm, value))
			}
		}
		archives = append(archives, upt.NewArchive(a.URL, opts...))
	}

	return upt.NewPackage(m.Name, m.Version, upt.PackageOptions{
		Homepage:     m.Homepage,
		Summary:      m.Summary,
		Description:  m.Description,
		Requirements: requirements,
		Licenses:     lics,
		Archives:     archives,
	})
}

// Manifest is a frontend that reads a local YAML package description.
type Manifest struct{}

// Parse implements upt.Frontend; name is the path of the manifest file.
func (Manifest) Parse(ctx context.Context, name string) (*upt.Package, error) {
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, upt.InvalidPackageNameError(ManifestName, name)
		}
		return nil, &upt.Error{Kind: upt.ErrKindFileAccess, Package: name, Err: err}
	}
	defer f.Close()

	return DecodePackage(f)
}
