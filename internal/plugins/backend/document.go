package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ralt/upt/internal/utils"
	"github.com/ralt/upt/pkg/upt"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a document backend
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// document mirrors upt.Package. Its YAML form is what the manifest frontend reads.
type document struct {
	Name         string                      `json:"name" yaml:"name" toml:"name"`
	Version      string                      `json:"version" yaml:"version" toml:"version"`
	Frontend     string                      `json:"frontend,omitempty" yaml:"-" toml:"frontend,omitempty"`
	Homepage     string                      `json:"homepage,omitempty" yaml:"homepage,omitempty" toml:"homepage,omitempty"`
	Summary      string                      `json:"summary,omitempty" yaml:"summary,omitempty" toml:"summary,omitempty"`
	Description  string                      `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Licenses     []string                    `json:"licenses,omitempty" yaml:"licenses,omitempty" toml:"licenses,omitempty"`
	Requirements map[string][]docRequirement `json:"requirements,omitempty" yaml:"requirements,omitempty" toml:"requirements,omitempty"`
	Archives     []docArchive                `json:"archives,omitempty" yaml:"archives,omitempty" toml:"archives,omitempty"`
}

type docRequirement struct {
	Name      string `json:"name" yaml:"name" toml:"name"`
	Specifier string `json:"specifier,omitempty" yaml:"specifier,omitempty" toml:"specifier,omitempty"`
}

type docArchive struct {
	URL          string `json:"url" yaml:"url" toml:"url"`
	Type         string `json:"type" yaml:"type" toml:"type"`
	Size         int64  `json:"size,omitempty" yaml:"size,omitempty" toml:"size,omitempty"`
	MD5          string `json:"md5,omitempty" yaml:"md5,omitempty" toml:"md5,omitempty"`
	SHA256       string `json:"sha256,omitempty" yaml:"sha256,omitempty" toml:"sha256,omitempty"`
	SHA256Base64 string `json:"sha256_base64,omitempty" yaml:"sha256_base64,omitempty" toml:"sha256_base64,omitempty"`
	RMD160       string `json:"rmd160,omitempty" yaml:"rmd160,omitempty" toml:"rmd160,omitempty"`
}

// Document writes the package itself as JSON, YAML or TOML. It accepts
// packages from every frontend. A .gz, .zst or .xz output is compressed.
type Document struct {
	out    *Output
	format Format
}

// NewDocument creates a document backend
func NewDocument(out *Output, format Format) *Document {
	return &Document{out: out, format: format}
}

// CreatePackage implements upt.Backend
func (d *Document) CreatePackage(ctx context.Context, pkg *upt.Package, output string) error {
	doc, err := newDocument(ctx, pkg)
	if err != nil {
		return err
	}

	data, err := d.encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s as %s: %w", pkg, d.format, err)
	}

	path := utils.OutputPath(output, fmt.Sprintf("%s-%s.%s", pkg.Name, pkg.Version, d.format))
	if compression := utils.CompressionFor(path); compression != utils.NoCompression {
		if data, err = utils.Compress(data, compression); err != nil {
			return fmt.Errorf("failed to compress %s: %w", path, err)
		}
	}

	_, err = d.out.Write(path, "", data)
	return err
}

func (d *Document) encode(doc *document) ([]byte, error) {
	switch d.format {
	case JSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case YAML:
		return yaml.Marshal(doc)
	case TOML:
		return toml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unknown format %q", d.format)
	}
}

// newDocument converts pkg. The sha256 of every archive is always included,
// downloading archives whose digest is not known yet.
func newDocument(ctx context.Context, pkg *upt.Package) (*document, error) {
	doc := &document{
		Name:        pkg.Name,
		Version:     pkg.Version,
		Frontend:    pkg.Frontend,
		Homepage:    pkg.Homepage,
		Summary:     pkg.Summary,
		Description: pkg.Description,
		Licenses:    licenseNames(pkg),
	}

	for _, category := range upt.RequirementCategories {
		for _, req := range pkg.RequirementsFor(category) {
			if doc.Requirements == nil {
				doc.Requirements = make(map[string][]docRequirement)
			}
			doc.Requirements[string(category)] = append(doc.Requirements[string(category)],
				docRequirement{Name: req.Name, Specifier: req.Specifier})
		}
	}

	for _, archive := range pkg.Archives {
		sha256, err := archive.SHA256(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to compute the sha256 of %s: %w", archive.URL, err)
		}
		known := func(algorithm string) string {
			v, _ := archive.KnownChecksum(algorithm)
			return v
		}
		size, err := archive.Size(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to compute the size of %s: %w", archive.URL, err)
		}
		doc.Archives = append(doc.Archives, docArchive{
			URL:          archive.URL,
			Type:         strings.ReplaceAll(archive.Type.String(), " ", "_"),
			Size:         size,
			MD5:          known(upt.MD5),
			SHA256:       sha256,
			SHA256Base64: known(upt.SHA256Base64),
			RMD160:       known(upt.RMD160),
		})
	}

	return doc, nil
}
