package backend

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ralt/upt/pkg/licenses"
	"github.com/ralt/upt/pkg/upt"
)

const (
	tarballSHA256 = "db4b4d0d1cb480bf9aeea253771c00febe627f236765fa37d6a5614f079a3aa0"
	tarballSHA512 = "58140cf5fb8b929067eb4705714f465273811328705716cea7295ed200ff69b2bf5b4d50b5c16d12c0c68f7459616ae93f65316ac1e3436a65084e85af32d876"
)

// requestsPackage builds a package whose archive digests are all known, so
// rendering never downloads anything
func requestsPackage(t *testing.T, frontend string) *upt.Package {
	t.Helper()
	archive := upt.NewArchive("https://files.example.com/requests-2.31.0.tar.gz",
		upt.WithSize(7),
		upt.WithSHA256(tarballSHA256),
		upt.WithChecksum(upt.SHA512, tarballSHA512))
	pkg, err := upt.NewPackage("requests", "2.31.0", upt.PackageOptions{
		Homepage:    "https://requests.readthedocs.io",
		Summary:     "Python HTTP for Humans.",
		Description: "Requests is a simple HTTP library.\n\nIt is \"elegant\".",
		Requirements: map[upt.RequirementCategory][]upt.PackageRequirement{
			upt.RunRequirements:   {upt.NewRequirement("idna", ">=2.5"), upt.NewRequirement("urllib3", ">=1.21.1,<3")},
			upt.BuildRequirements: {upt.NewRequirement("setuptools")},
			upt.TestRequirements:  {upt.NewRequirement("pytest", "==7.4")},
		},
		Licenses: []licenses.License{licenses.Lookup("Apache-2.0")},
		Archives: []*upt.Archive{archive},
	})
	if err != nil {
		t.Fatal(err)
	}
	pkg.Frontend = frontend
	return pkg
}

func render(t *testing.T, b upt.Backend, pkg *upt.Package) string {
	t.Helper()
	var stdout bytes.Buffer
	switch v := b.(type) {
	case *Arch:
		v.out.Stdout = &stdout
	case *Alpine:
		v.out.Stdout = &stdout
	case *RPM:
		v.out.Stdout = &stdout
	case *Debian:
		v.out.Stdout = &stdout
	case *Homebrew:
		v.out.Stdout = &stdout
	case *Document:
		v.out.Stdout = &stdout
	}
	if err := b.CreatePackage(context.Background(), pkg, ""); err != nil {
		t.Fatalf("CreatePackage failed: %v", err)
	}
	if pkg.Archives[0].Downloaded() {
		t.Error("Rendering must not download archives with known digests")
	}
	return stdout.String()
}

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
}

func TestArch(t *testing.T) {
	out := render(t, NewArch(&Output{}), requestsPackage(t, "pypi"))
	assertContains(t, out,
		"pkgname=python-requests\n",
		"_name=requests\n",
		"pkgver=2.31.0\n",
		`pkgdesc="Python HTTP for Humans"`,
		"arch=('any')\n",
		"license=('Apache-2.0')\n",
		"depends=('python-idna>=2.5' 'python-urllib3')\n",
		"makedepends=('python-build' 'python-installer' 'python-wheel' 'python-setuptools')\n",
		"checkdepends=('python-pytest=7.4')\n",
		`source=("https://files.example.com/requests-2.31.0.tar.gz")`,
		"sha256sums=('"+tarballSHA256+"')\n",
		"python -m installer",
	)
}

func TestArchPrereleaseVersion(t *testing.T) {
	pkg := requestsPackage(t, "manifest")
	pkg.Version = "1.0-rc1"
	out := render(t, NewArch(&Output{}), pkg)
	assertContains(t, out,
		"_pkgver=1.0-rc1\n",
		"pkgver=1.0_rc1\n",
		"  cd \"$_name-$_pkgver\"\n  ./configure",
	)
	if strings.Contains(out, "$_name-$pkgver") {
		t.Errorf("Build paths must use the upstream version:\n%s", out)
	}
}

func TestAlpine(t *testing.T) {
	out := render(t, NewAlpine(&Output{}), requestsPackage(t, "pypi"))
	assertContains(t, out,
		"pkgname=py3-requests\n",
		"arch=\"noarch\"\n",
		"license=\"Apache-2.0\"\n",
		"depends=\"py3-idna>=2.5 py3-urllib3\"\n",
		"checkdepends=\"py3-pytest=7.4\"\n",
		"sha512sums=\"\n"+tarballSHA512+"  requests-2.31.0.tar.gz\n\"\n",
	)
}

func TestRPM(t *testing.T) {
	out := render(t, NewRPM(&Output{}), requestsPackage(t, "pypi"))
	assertContains(t, out,
		"%global srcname requests\n",
		"Name:           python3-requests\n",
		"Version:        2.31.0\n",
		"License:        Apache-2.0\n",
		"Source0:        https://files.example.com/requests-2.31.0.tar.gz\n",
		"BuildArch:      noarch\n",
		"BuildRequires:  python3-setuptools\n",
		"BuildRequires:  python3-pytest = 7.4\n",
		"Requires:       python3-idna >= 2.5\n",
		"Requires:       python3-urllib3\n",
		"%pyproject_wheel",
	)
}

func TestDebian(t *testing.T) {
	out := render(t, NewDebian(&Output{}), requestsPackage(t, "pypi"))
	assertContains(t, out,
		"Source: python-requests\n",
		"Section: python\n",
		"Build-Depends: debhelper-compat (= 13),\n dh-sequence-python3,",
		"python3-setuptools,\n python3-pytest (= 7.4)\n",
		"Homepage: https://requests.readthedocs.io\n",
		"Package: python3-requests\n",
		"Architecture: all\n",
		"python3-idna (>= 2.5),\n python3-urllib3\n",
		"Description: Python HTTP for Humans\n Requests is a simple HTTP library.\n .\n It is \"elegant\".\n",
	)
}

func TestHomebrew(t *testing.T) {
	pkg := requestsPackage(t, "cargo")
	pkg.Name = "ripgrep"
	out := render(t, NewHomebrew(&Output{}), pkg)
	assertContains(t, out,
		"class Ripgrep < Formula\n",
		`desc "Python HTTP for Humans"`,
		`sha256 "`+tarballSHA256+`"`,
		`license "Apache-2.0"`,
		`depends_on "rust" => :build`,
		`system "cargo", "install", *std_cargo_args`,
	)
	if strings.Contains(out, "idna") {
		t.Errorf("Cargo requirements are vendored, got:\n%s", out)
	}
}

func TestHomebrewManifestDependencies(t *testing.T) {
	out := render(t, NewHomebrew(&Output{}), requestsPackage(t, "manifest"))
	assertContains(t, out,
		`depends_on "setuptools" => :build`,
		`depends_on "idna"`,
		`system "./configure", *std_configure_args`,
	)
}

func TestBackendsVetoFrontends(t *testing.T) {
	tests := []struct {
		name     string
		backend  upt.Backend
		frontend string
	}{
		{"arch", NewArch(&Output{}), "cpan"},
		{"alpine", NewAlpine(&Output{}), "npm"},
		{"rpm", NewRPM(&Output{}), "cpan"},
		{"debian", NewDebian(&Output{}), "cpan"},
		{"homebrew", NewHomebrew(&Output{}), "pypi"},
		{"homebrew", NewHomebrew(&Output{}), "rubygems"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.frontend, func(t *testing.T) {
			pkg := requestsPackage(t, tt.frontend)
			err := tt.backend.CreatePackage(context.Background(), pkg, "")
			if !upt.IsKind(err, upt.ErrKindUnhandledFrontend) {
				t.Fatalf("Expected UnhandledFrontend, got %v", err)
			}
			want := "The " + tt.name + " backend does not handle packages coming from the " + tt.frontend + " frontend"
			if err.Error() != want {
				t.Errorf("Unexpected message %q", err)
			}
		})
	}
}

func TestWheelOnlyPythonPackageIsRefused(t *testing.T) {
	wheel := upt.NewArchive("https://files.example.com/requests-2.31.0-py3-none-any.whl",
		upt.WithArchiveType(upt.Wheel), upt.WithSHA256(tarballSHA256))
	backends := map[string]upt.Backend{
		"arch":   NewArch(&Output{}),
		"alpine": NewAlpine(&Output{}),
		"rpm":    NewRPM(&Output{}),
	}

	for name, b := range backends {
		t.Run(name, func(t *testing.T) {
			pkg := requestsPackage(t, "pypi")
			pkg.Archives = []*upt.Archive{wheel}
			err := b.CreatePackage(context.Background(), pkg, "")
			if !upt.IsKind(err, upt.ErrKindArchiveUnavailable) {
				t.Errorf("Expected ArchiveUnavailable, got %v", err)
			}
		})
	}
}

// stubSigner signs everything with a fixed signature
type stubSigner struct {
	signed [][]byte
}

func (s *stubSigner) SignDetached(data []byte) ([]byte, error) {
	s.signed = append(s.signed, data)
	return []byte("SIGNATURE"), nil
}

func (s *stubSigner) PublicKey() ([]byte, error) {
	return nil, nil
}

func TestOutputToDirectoryIsSigned(t *testing.T) {
	dir := t.TempDir()
	s := &stubSigner{}
	b := NewArch(&Output{Signer: s})

	if err := b.CreatePackage(context.Background(), requestsPackage(t, "pypi"), dir); err != nil {
		t.Fatalf("CreatePackage failed: %v", err)
	}

	pkgbuild, err := os.ReadFile(filepath.Join(dir, "PKGBUILD"))
	if err != nil {
		t.Fatal(err)
	}
	sig, err := os.ReadFile(filepath.Join(dir, "PKGBUILD.asc"))
	if err != nil {
		t.Fatal(err)
	}
	if string(sig) != "SIGNATURE" {
		t.Errorf("Unexpected signature %q", sig)
	}
	if len(s.signed) != 1 || !bytes.Equal(s.signed[0], pkgbuild) {
		t.Error("Expected the written file to be signed")
	}
}

func TestOutputToStdoutIsNotSigned(t *testing.T) {
	var stdout bytes.Buffer
	s := &stubSigner{}
	out := &Output{Stdout: &stdout, Signer: s}

	path, err := out.Write("", "PKGBUILD", []byte("data"))
	if err != nil || path != "" {
		t.Fatalf("Write returned %q, %v", path, err)
	}
	if stdout.String() != "data" || len(s.signed) != 0 {
		t.Errorf("Expected unsigned stdout output, got %q and %d signatures", stdout.String(), len(s.signed))
	}
}

func TestRPMDefaultFileName(t *testing.T) {
	dir := t.TempDir()
	if err := NewRPM(&Output{}).CreatePackage(context.Background(), requestsPackage(t, "pypi"), dir); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "python3-requests.spec")); err != nil {
		t.Errorf("Expected the spec to be named after the package: %v", err)
	}
}

func TestParseConstraint(t *testing.T) {
	tests := map[string]constraint{
		">=2.5":       {">=", "2.5"},
		"== 1.0":      {"=", "1.0"},
		"^1.4":        {">=", "1.4"},
		"~> 2":        {},
		"<3":          {"<", "3"},
		">=1.21.1,<3": {},
		"":            {},
		"*":           {},
		"v1.2.3":      {},
		">= v1.2.3":   {">=", "1.2.3"},
	}
	for in, want := range tests {
		if got := parseConstraint(in); got != want {
			t.Errorf("parseConstraint(%q) = %+v, want %+v", in, got, want)
		}
	}
}

func TestNamingName(t *testing.T) {
	n := naming{backend: "rpm", prefixes: map[string]string{"pypi": "python3-", "npm": "nodejs-"}}
	tests := []struct {
		frontend, upstream, want string
	}{
		{"pypi", "Flask_SQLAlchemy", "python3-flask-sqlalchemy"},
		{"pypi", "zope.interface", "python3-zope-interface"},
		{"npm", "@types/node", "nodejs-types-node"},
		{"npm", "nodejs-foo", "nodejs-foo"},
	}
	for _, tt := range tests {
		if got := n.name(tt.frontend, tt.upstream); got != tt.want {
			t.Errorf("name(%q, %q) = %q, want %q", tt.frontend, tt.upstream, got, tt.want)
		}
	}
}

func TestToClassName(t *testing.T) {
	tests := map[string]string{
		"ripgrep":            "Ripgrep",
		"git-delta":          "GitDelta",
		"github.com/cli/cli": "Cli",
		"python_dateutil":    "PythonDateutil",
		"@angular/cli":       "Cli",
	}
	for in, want := range tests {
		if got := toClassName(in); got != want {
			t.Errorf("toClassName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtendedDescription(t *testing.T) {
	if got := extendedDescription(""); got != "" {
		t.Errorf("Expected nothing, got %q", got)
	}
	if got := extendedDescription("a\n\nb  "); got != " a\n .\n b\n" {
		t.Errorf("Unexpected description %q", got)
	}
}
