package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/ralt/upt/pkg/upt"
)

// Debian renders a debian/control file
type Debian struct {
	out    *Output
	naming naming
}

// NewDebian creates the debian backend
func NewDebian(out *Output) *Debian {
	return &Debian{
		out:    out,
		naming: naming{backend: "debian", prefixes: map[string]string{
			"pypi":     "python3-",
			"rubygems": "ruby-",
			"npm":      "node-",
			"cargo":    "rust-",
			"go":       "golang-",
			"manifest": "",
		}},
	}
}

// debianConvention holds the frontend-specific fields of a control file
type debianConvention struct {
	sourcePrefix string
	section      string
	architecture string
	buildDepends []string
	depends      []string
}

var debianConventions = map[string]debianConvention{
	"pypi": {
		sourcePrefix: "python-",
		section:      "python",
		architecture: "all",
		buildDepends: []string{"dh-sequence-python3", "python3-all", "pybuild-plugin-pyproject"},
		depends:      []string{"${python3:Depends}"},
	},
	"rubygems": {
		sourcePrefix: "ruby-",
		section:      "ruby",
		architecture: "all",
		buildDepends: []string{"gem2deb (>= 1)"},
		depends:      []string{"${ruby:Depends}"},
	},
	"npm": {
		sourcePrefix: "node-",
		section:      "javascript",
		architecture: "all",
		buildDepends: []string{"dh-sequence-nodejs"},
		depends:      []string{"nodejs"},
	},
	"cargo": {
		sourcePrefix: "rust-",
		section:      "rust",
		architecture: "any",
		buildDepends: []string{"dh-sequence-cargo", "cargo:native", "rustc:native"},
		depends:      []string{"${shlibs:Depends}"},
	},
	"go": {
		sourcePrefix: "golang-",
		section:      "golang",
		architecture: "any",
		buildDepends: []string{"dh-sequence-golang", "golang-any"},
		depends:      []string{"${shlibs:Depends}"},
	},
	"manifest": {
		section:      "misc",
		architecture: "any",
		depends:      []string{"${shlibs:Depends}"},
	},
}

// CreatePackage implements upt.Backend
func (d *Debian) CreatePackage(ctx context.Context, pkg *upt.Package, output string) error {
	if err := d.naming.check(pkg); err != nil {
		return err
	}

	_, err := d.out.Write(output, "control", []byte(d.render(pkg)))
	return err
}

func (d *Debian) render(pkg *upt.Package) string {
	convention := debianConventions[pkg.Frontend]
	var b strings.Builder

	dep := func(name string, c constraint) string {
		switch c.op {
		case "":
			return name
		case "<", ">":
			return fmt.Sprintf("%s (%s%s %s)", name, c.op, c.op, c.version)
		default:
			return fmt.Sprintf("%s (%s %s)", name, c.op, c.version)
		}
	}

	binary := d.naming.name(pkg.Frontend, pkg.Name)
	source := strings.TrimPrefix(binary, d.naming.prefixes[pkg.Frontend])
	if convention.sourcePrefix != "" {
		source = convention.sourcePrefix + source
	}

	buildDepends := append([]string{"debhelper-compat (= 13)"}, convention.buildDepends...)
	buildDepends = append(buildDepends, d.naming.depends(pkg, upt.BuildRequirements, dep)...)
	buildDepends = append(buildDepends, d.naming.depends(pkg, upt.TestRequirements, dep)...)

	// Source stanza
	fmt.Fprintf(&b, "Source: %s\n", source)
	fmt.Fprintf(&b, "Section: %s\n", convention.section)
	b.WriteString("Priority: optional\n")
	b.WriteString("Maintainer: your name <your@email>\n")
	fmt.Fprintf(&b, "Build-Depends: %s\n", strings.Join(buildDepends, ",\n "))
	b.WriteString("Standards-Version: 4.7.0\n")
	if pkg.Homepage != "" {
		fmt.Fprintf(&b, "Homepage: %s\n", pkg.Homepage)
	}
	b.WriteString("Rules-Requires-Root: no\n")

	// Binary stanza
	depends := append([]string{"${misc:Depends}"}, convention.depends...)
	depends = append(depends, d.naming.depends(pkg, upt.RunRequirements, dep)...)

	b.WriteString("\n")
	fmt.Fprintf(&b, "Package: %s\n", binary)
	fmt.Fprintf(&b, "Architecture: %s\n", convention.architecture)
	fmt.Fprintf(&b, "Depends: %s\n", strings.Join(depends, ",\n "))
	fmt.Fprintf(&b, "Description: %s\n", summary(pkg))
	b.WriteString(extendedDescription(pkg.Description))

	return b.String()
}

// extendedDescription formats a long description: every line is indented by
// one space and empty lines become " ."
func extendedDescription(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			b.WriteString(" .\n")
			continue
		}
		fmt.Fprintf(&b, " %s\n", line)
	}
	return b.String()
}
