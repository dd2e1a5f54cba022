package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/ralt/upt/pkg/upt"
)

// Arch renders a PKGBUILD for Arch Linux
type Arch struct {
	out    *Output
	naming naming
}

// NewArch creates the arch backend
func NewArch(out *Output) *Arch {
	return &Arch{
		out:    out,
		naming: naming{backend: "arch", prefixes: map[string]string{
			"pypi":     "python-",
			"rubygems": "ruby-",
			"npm":      "nodejs-",
			"cargo":    "rust-",
			"go":       "go-",
			"manifest": "",
		}},
	}
}

// archBuild holds the frontend-specific parts of a PKGBUILD
type archBuild struct {
	arch        string
	makedepends []string
	build       string
	pkg         string
}

var archBuilds = map[string]archBuild{
	"pypi": {
		arch:        "any",
		makedepends: []string{"python-build", "python-installer", "python-wheel"},
		build:       "  cd \"$_name-$_pkgver\"\n  python -m build --wheel --no-isolation\n",
		pkg:         "  cd \"$_name-$_pkgver\"\n  python -m installer --destdir=\"$pkgdir\" dist/*.whl\n",
	},
	"rubygems": {
		arch:        "any",
		makedepends: []string{"rubygems"},
		pkg: "  local _gemdir=\"$(gem env gemdir)\"\n" +
			"  gem install --ignore-dependencies --no-user-install --no-document -i \"$pkgdir/$_gemdir\" -n \"$pkgdir/usr/bin\" \"$_name-$_pkgver.gem\"\n",
	},
	"npm": {
		arch:        "any",
		makedepends: []string{"npm"},
		pkg:         "  npm install -g --prefix \"$pkgdir/usr\" \"$srcdir/$_name-$_pkgver.tgz\"\n",
	},
	"cargo": {
		arch:        "x86_64",
		makedepends: []string{"cargo"},
		build:       "  cd \"$_name-$_pkgver\"\n  cargo build --frozen --release\n",
		pkg:         "  cd \"$_name-$_pkgver\"\n  install -Dm755 \"target/release/$_name\" \"$pkgdir/usr/bin/$_name\"\n",
	},
	"go": {
		arch:        "x86_64",
		makedepends: []string{"go"},
		build:       "  cd \"$_name-$_pkgver\"\n  go build -trimpath -buildmode=pie -o \"$_name\" .\n",
		pkg:         "  cd \"$_name-$_pkgver\"\n  install -Dm755 \"$_name\" \"$pkgdir/usr/bin/$_name\"\n",
	},
	"manifest": {
		arch:  "x86_64",
		build: "  cd \"$_name-$_pkgver\"\n  ./configure --prefix=/usr\n  make\n",
		pkg:   "  cd \"$_name-$_pkgver\"\n  make DESTDIR=\"$pkgdir\" install\n",
	},
}

// CreatePackage implements upt.Backend
func (a *Arch) CreatePackage(ctx context.Context, pkg *upt.Package, output string) error {
	if err := a.naming.check(pkg); err != nil {
		return err
	}

	pkgbuild, err := a.render(ctx, pkg)
	if err != nil {
		return err
	}

	_, err = a.out.Write(output, "PKGBUILD", []byte(pkgbuild))
	return err
}

func (a *Arch) render(ctx context.Context, pkg *upt.Package) (string, error) {
	build := archBuilds[pkg.Frontend]
	var b strings.Builder

	b.WriteString("# Maintainer: your name <your@email>\n")
	fmt.Fprintf(&b, "pkgname=%s\n", a.naming.name(pkg.Frontend, pkg.Name))
	fmt.Fprintf(&b, "_name=%s\n", pkg.Name)
	fmt.Fprintf(&b, "_pkgver=%s\n", pkg.Version)
	fmt.Fprintf(&b, "pkgver=%s\n", strings.ReplaceAll(pkg.Version, "-", "_"))
	b.WriteString("pkgrel=1\n")
	fmt.Fprintf(&b, "pkgdesc=\"%s\"\n", quote(summary(pkg)))
	fmt.Fprintf(&b, "arch=('%s')\n", build.arch)
	fmt.Fprintf(&b, "url=\"%s\"\n", quote(pkg.Homepage))
	fmt.Fprintf(&b, "license=(%s)\n", archArray(licenseNames(pkg)))

	dep := func(name string, c constraint) string {
		if c.op == "" {
			return name
		}
		return name + c.op + c.version
	}
	fmt.Fprintf(&b, "depends=(%s)\n", archArray(a.naming.depends(pkg, upt.RunRequirements, dep)))
	makedepends := append(append([]string{}, build.makedepends...), a.naming.depends(pkg, upt.BuildRequirements, dep)...)
	fmt.Fprintf(&b, "makedepends=(%s)\n", archArray(makedepends))
	fmt.Fprintf(&b, "checkdepends=(%s)\n", archArray(a.naming.depends(pkg, upt.TestRequirements, dep)))

	archive, err := sourceArchive(pkg)
	if err != nil {
		return "", err
	}
	if archive != nil {
		sha256, err := checksum(ctx, archive, upt.SHA256)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "source=(\"%s\")\n", quote(archive.URL))
		fmt.Fprintf(&b, "sha256sums=('%s')\n", sha256)
	} else {
		b.WriteString("source=()\n")
		b.WriteString("sha256sums=()\n")
	}

	if build.build != "" {
		fmt.Fprintf(&b, "\nbuild() {\n%s}\n", build.build)
	}
	fmt.Fprintf(&b, "\npackage() {\n%s}\n", build.pkg)

	return b.String(), nil
}

func archArray(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + strings.ReplaceAll(item, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}
