package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/ralt/upt/pkg/upt"
)

// Alpine renders an APKBUILD for Alpine Linux
type Alpine struct {
	out    *Output
	naming naming
}

// NewAlpine creates the alpine backend. Alpine has no convention for npm
// packages, so the npm frontend is refused.
func NewAlpine(out *Output) *Alpine {
	return &Alpine{
		out:    out,
		naming: naming{backend: "alpine", prefixes: map[string]string{
			"pypi":     "py3-",
			"rubygems": "ruby-",
			"cargo":    "",
			"go":       "",
			"manifest": "",
		}},
	}
}

type alpineBuild struct {
	arch        string
	makedepends []string
	builddir    string
	build       string
	pkg         string
	check       string
}

var alpineBuilds = map[string]alpineBuild{
	"pypi": {
		arch:        "noarch",
		makedepends: []string{"py3-gpep517", "py3-setuptools", "py3-wheel"},
		builddir:    "$srcdir/$_name-$pkgver",
		build:       "\tgpep517 build-wheel \\\n\t\t--wheel-dir .dist \\\n\t\t--output-fd 3 3>&1 >&2\n",
		pkg:         "\tpython3 -m installer -d \"$pkgdir\" \\\n\t\t.dist/*.whl\n",
		check:       "\tpython3 -m pytest\n",
	},
	"rubygems": {
		arch:        "noarch",
		makedepends: []string{"ruby-dev"},
		builddir:    "$srcdir/$_name-$pkgver",
		pkg:         "\tgem install --local --install-dir \"$pkgdir/$(ruby -e 'puts Gem.default_dir')\" \\\n\t\t--ignore-dependencies --no-document \"$srcdir/$_name-$pkgver.gem\"\n",
	},
	"cargo": {
		arch:        "all",
		makedepends: []string{"cargo", "cargo-auditable"},
		builddir:    "$srcdir/$_name-$pkgver",
		build:       "\tcargo auditable build --frozen --release\n",
		pkg:         "\tinstall -Dm755 target/release/$_name -t \"$pkgdir\"/usr/bin\n",
		check:       "\tcargo test --frozen\n",
	},
	"go": {
		arch:        "all",
		makedepends: []string{"go"},
		builddir:    "$srcdir/$_name-$pkgver",
		build:       "\tgo build -o $_name .\n",
		pkg:         "\tinstall -Dm755 $_name -t \"$pkgdir\"/usr/bin\n",
		check:       "\tgo test ./...\n",
	},
	"manifest": {
		arch:     "all",
		builddir: "$srcdir/$_name-$pkgver",
		build:    "\t./configure --prefix=/usr\n\tmake\n",
		pkg:      "\tmake DESTDIR=\"$pkgdir\" install\n",
		check:    "\tmake check\n",
	},
}

// CreatePackage implements upt.Backend
func (a *Alpine) CreatePackage(ctx context.Context, pkg *upt.Package, output string) error {
	if err := a.naming.check(pkg); err != nil {
		return err
	}

	apkbuild, err := a.render(ctx, pkg)
	if err != nil {
		return err
	}

	_, err = a.out.Write(output, "APKBUILD", []byte(apkbuild))
	return err
}

func (a *Alpine) render(ctx context.Context, pkg *upt.Package) (string, error) {
	build := alpineBuilds[pkg.Frontend]
	var b strings.Builder

	dep := func(name string, c constraint) string {
		if c.op == "" || c.op == "<" || c.op == ">" {
			return name
		}
		return name + c.op + c.version
	}

	b.WriteString("# Contributor:\n# Maintainer:\n")
	fmt.Fprintf(&b, "pkgname=%s\n", a.naming.name(pkg.Frontend, pkg.Name))
	fmt.Fprintf(&b, "_name=%s\n", pkg.Name)
	fmt.Fprintf(&b, "pkgver=%s\n", pkg.Version)
	b.WriteString("pkgrel=0\n")
	fmt.Fprintf(&b, "pkgdesc=\"%s\"\n", quote(summary(pkg)))
	fmt.Fprintf(&b, "url=\"%s\"\n", quote(pkg.Homepage))
	fmt.Fprintf(&b, "arch=\"%s\"\n", build.arch)
	fmt.Fprintf(&b, "license=\"%s\"\n", strings.Join(licenseNames(pkg), " AND "))
	fmt.Fprintf(&b, "depends=\"%s\"\n", strings.Join(a.naming.depends(pkg, upt.RunRequirements, dep), " "))
	makedepends := append(append([]string{}, build.makedepends...), a.naming.depends(pkg, upt.BuildRequirements, dep)...)
	fmt.Fprintf(&b, "makedepends=\"%s\"\n", strings.Join(makedepends, " "))
	fmt.Fprintf(&b, "checkdepends=\"%s\"\n", strings.Join(a.naming.depends(pkg, upt.TestRequirements, dep), " "))

	archive, err := sourceArchive(pkg)
	if err != nil {
		return "", err
	}
	if archive != nil {
		fmt.Fprintf(&b, "source=\"%s\"\n", quote(archive.URL))
	}
	fmt.Fprintf(&b, "builddir=\"%s\"\n", build.builddir)
	if build.check == "" {
		b.WriteString("options=\"!check\"\n")
	}

	if build.build != "" {
		fmt.Fprintf(&b, "\nbuild() {\n%s}\n", build.build)
	}
	if build.check != "" {
		fmt.Fprintf(&b, "\ncheck() {\n%s}\n", build.check)
	}
	fmt.Fprintf(&b, "\npackage() {\n%s}\n", build.pkg)

	if archive != nil {
		sha512, err := checksum(ctx, archive, upt.SHA512)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\nsha512sums=\"\n%s  %s\n\"\n", sha512, archive.Filename())
	}

	return b.String(), nil
}
