package backend

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/ralt/upt/pkg/upt"
	"github.com/sirupsen/logrus"
)

// Homebrew renders a Ruby formula
type Homebrew struct {
	out    *Output
	naming naming
}

// NewHomebrew creates the homebrew backend. Python and Ruby libraries are
// vendored as formula resources rather than packaged on their own, so the
// pypi and rubygems frontends are refused.
func NewHomebrew(out *Output) *Homebrew {
	return &Homebrew{
		out:    out,
		naming: naming{backend: "homebrew", prefixes: map[string]string{
			"npm":      "",
			"cargo":    "",
			"go":       "",
			"manifest": "",
		}},
	}
}

type homebrewBuild struct {
	dependsOn []string
	install   string
	vendored  bool // the language toolchain fetches the requirements
}

var homebrewBuilds = map[string]homebrewBuild{
	"npm": {
		dependsOn: []string{`"node"`},
		install:   "    system \"npm\", \"install\", *std_npm_args\n    bin.install_symlink Dir[\"#{libexec}/bin/*\"]\n",
		vendored:  true,
	},
	"cargo": {
		dependsOn: []string{`"rust" => :build`},
		install:   "    system \"cargo\", \"install\", *std_cargo_args\n",
		vendored:  true,
	},
	"go": {
		dependsOn: []string{`"go" => :build`},
		install:   "    system \"go\", \"build\", *std_go_args(ldflags: \"-s -w\")\n",
		vendored:  true,
	},
	"manifest": {
		install: "    system \"./configure\", *std_configure_args\n    system \"make\", \"install\"\n",
	},
}

// CreatePackage implements upt.Backend
func (h *Homebrew) CreatePackage(ctx context.Context, pkg *upt.Package, output string) error {
	if err := h.naming.check(pkg); err != nil {
		return err
	}

	formula, err := h.render(ctx, pkg)
	if err != nil {
		return err
	}

	_, err = h.out.Write(output, h.naming.name(pkg.Frontend, pkg.Name)+".rb", []byte(formula))
	return err
}

func (h *Homebrew) render(ctx context.Context, pkg *upt.Package) (string, error) {
	build := homebrewBuilds[pkg.Frontend]
	var formula strings.Builder

	fmt.Fprintf(&formula, "class %s < Formula\n", toClassName(pkg.Name))
	fmt.Fprintf(&formula, "  desc \"%s\"\n", quote(summary(pkg)))
	fmt.Fprintf(&formula, "  homepage \"%s\"\n", quote(pkg.Homepage))

	archive, err := sourceArchive(pkg)
	if err != nil {
		return "", err
	}
	if archive != nil {
		sha256, err := checksum(ctx, archive, upt.SHA256)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&formula, "  url \"%s\"\n", quote(archive.URL))
		fmt.Fprintf(&formula, "  sha256 \"%s\"\n", sha256)
	}
	if names := licenseNames(pkg); len(names) == 1 {
		fmt.Fprintf(&formula, "  license \"%s\"\n", names[0])
	} else if len(names) > 1 {
		fmt.Fprintf(&formula, "  license any_of: [\"%s\"]\n", strings.Join(names, "\", \""))
	}

	dependsOn := append([]string{}, build.dependsOn...)
	if build.vendored {
		logrus.Debugf("Requirements of %s are fetched by the %s toolchain", pkg, pkg.Frontend)
	} else {
		for _, req := range pkg.RequirementsFor(upt.BuildRequirements) {
			dependsOn = append(dependsOn, fmt.Sprintf("%q => :build", h.naming.name(pkg.Frontend, req.Name)))
		}
		for _, req := range pkg.RequirementsFor(upt.RunRequirements) {
			dependsOn = append(dependsOn, fmt.Sprintf("%q", h.naming.name(pkg.Frontend, req.Name)))
		}
	}
	if len(dependsOn) > 0 {
		formula.WriteString("\n")
		for _, dep := range dependsOn {
			fmt.Fprintf(&formula, "  depends_on %s\n", dep)
		}
	}

	fmt.Fprintf(&formula, "\n  def install\n%s  end\n", build.install)
	formula.WriteString("\n  test do\n    system \"false\"\n  end\n")
	formula.WriteString("end\n")

	return formula.String(), nil
}

// toClassName converts a package name to a Ruby class name
func toClassName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, "")
}
