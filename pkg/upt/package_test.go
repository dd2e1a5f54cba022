package upt

import (
	"errors"
	"testing"

	"github.com/ralt/upt/pkg/licenses"
)

func mustPackage(t *testing.T, name, version string, opts PackageOptions) *Package {
	t.Helper()
	pkg, err := NewPackage(name, version, opts)
	if err != nil {
		t.Fatalf("NewPackage(%q, %q) failed: %v", name, version, err)
	}
	return pkg
}

func TestPackageString(t *testing.T) {
	pkg := mustPackage(t, "foo", "4.2", PackageOptions{})
	if pkg.String() != "foo@4.2" {
		t.Errorf("Expected foo@4.2, got %s", pkg)
	}
	if pkg.String() == "foo@42" {
		t.Error("Version separator must be kept")
	}
}

func TestNewPackageDefaults(t *testing.T) {
	pkg := mustPackage(t, "foo", "4.2", PackageOptions{})

	if pkg.Homepage != "" || pkg.Summary != "" || pkg.Description != "" {
		t.Errorf("Expected empty metadata, got %+v", pkg)
	}
	if len(pkg.Licenses) != 0 || len(pkg.Archives) != 0 {
		t.Errorf("Expected no licenses and no archives, got %+v", pkg)
	}
	if pkg.Frontend != "" {
		t.Errorf("Frontend must be unset until dispatch, got %q", pkg.Frontend)
	}
	for _, category := range RequirementCategories {
		reqs := pkg.RequirementsFor(category)
		if reqs == nil || len(reqs) != 0 {
			t.Errorf("Expected empty %s requirements, got %v", category, reqs)
		}
	}
}

func TestNewPackagePartialRequirements(t *testing.T) {
	pkg := mustPackage(t, "foo", "4.2", PackageOptions{
		Summary: "A foo",
		Requirements: map[RequirementCategory][]PackageRequirement{
			RunRequirements: {NewRequirement("bar", ">=1.0"), NewRequirement("baz")},
		},
		Licenses: []licenses.License{licenses.Lookup("MIT")},
	})

	run := pkg.RequirementsFor(RunRequirements)
	if len(run) != 2 || run[0] != NewRequirement("bar", ">=1.0") || run[1].Name != "baz" {
		t.Errorf("Unexpected run requirements: %v", run)
	}
	if len(pkg.RequirementsFor(BuildRequirements)) != 0 {
		t.Error("Expected no build requirements")
	}
	if pkg.Licenses[0].String() != "MIT" {
		t.Errorf("Unexpected license: %v", pkg.Licenses)
	}
}

func TestNewPackageValidation(t *testing.T) {
	tests := []struct {
		name    string
		pkgName string
		version string
		opts    PackageOptions
	}{
		{"missing name", "", "1.0", PackageOptions{}},
		{"missing version", "foo", "", PackageOptions{}},
		{"unknown category", "foo", "1.0", PackageOptions{
			Requirements: map[RequirementCategory][]PackageRequirement{
				"install": {NewRequirement("bar")},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPackage(tt.pkgName, tt.version, tt.opts)
			if !IsKind(err, ErrKindInvalidPackage) {
				t.Fatalf("Expected InvalidPackage error, got %v", err)
			}
		})
	}
}

func TestGetArchiveNoneAvailable(t *testing.T) {
	pkg := mustPackage(t, "foo", "4.2", PackageOptions{Archives: []*Archive{}})

	_, err := pkg.GetArchive(SourceTarball)
	if !errors.Is(err, ErrArchiveUnavailable) {
		t.Fatalf("Expected ErrArchiveUnavailable, got %v", err)
	}
	if err.Error() != "No such archive could be found" {
		t.Errorf("Unexpected message: %s", err)
	}
}

func TestGetArchive(t *testing.T) {
	wheel := NewArchive("https://example.com/foo-4.2-py3-none-any.whl", WithArchiveType(Wheel))
	first := NewArchive("https://example.com/foo-4.2.tar.gz")
	second := NewArchive("https://mirror.example.com/foo-4.2.tar.gz")
	pkg := mustPackage(t, "foo", "4.2", PackageOptions{Archives: []*Archive{wheel, first, second}})

	got, err := pkg.GetArchive(SourceTarball)
	if err != nil {
		t.Fatalf("GetArchive failed: %v", err)
	}
	if got != first {
		t.Errorf("Expected the first source tarball, got %s", got.URL)
	}

	got, err = pkg.GetArchive(Wheel)
	if err != nil || got != wheel {
		t.Errorf("Expected the wheel, got %v, %v", got, err)
	}

	// No fallback to another type
	if _, err := pkg.GetArchive(Gem); !errors.Is(err, ErrArchiveUnavailable) {
		t.Errorf("Expected ErrArchiveUnavailable for gem, got %v", err)
	}
}

func stubRemove(t *testing.T) *[]string {
	t.Helper()
	var removed []string
	orig := removeFile
	removeFile = func(path string) error {
		removed = append(removed, path)
		return nil
	}
	t.Cleanup(func() { removeFile = orig })
	return &removed
}

func TestCleanArchiveDownloaded(t *testing.T) {
	removed := stubRemove(t)

	archive := NewArchive("url")
	archive.filepath = "/fake/path"
	pkg := mustPackage(t, "foo", "4.2", PackageOptions{Archives: []*Archive{archive}})

	if err := pkg.Clean(); err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if len(*removed) != 1 || (*removed)[0] != "/fake/path" {
		t.Errorf("Expected /fake/path to be removed once, got %v", *removed)
	}

	// A second Clean does not remove again
	if err := pkg.Clean(); err != nil {
		t.Fatalf("Second Clean failed: %v", err)
	}
	if len(*removed) != 1 {
		t.Errorf("Expected a single removal, got %v", *removed)
	}
}

func TestCleanArchiveNotDownloaded(t *testing.T) {
	removed := stubRemove(t)

	pkg := mustPackage(t, "foo", "4.2", PackageOptions{Archives: []*Archive{NewArchive("url")}})
	if err := pkg.Clean(); err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if len(*removed) != 0 {
		t.Errorf("Expected no removal, got %v", *removed)
	}
}

func TestCleanReportsFailures(t *testing.T) {
	orig := removeFile
	removeFile = func(path string) error { return errors.New("permission denied") }
	t.Cleanup(func() { removeFile = orig })

	a := NewArchive("https://example.com/a.tar.gz")
	a.filepath = "/fake/a.tar.gz"
	b := NewArchive("https://example.com/b.tar.gz")
	b.filepath = "/fake/b.tar.gz"
	pkg := mustPackage(t, "foo", "4.2", PackageOptions{Archives: []*Archive{a, b}})

	err := pkg.Clean()
	if !IsKind(err, ErrKindFileAccess) {
		t.Fatalf("Expected a FileAccess error, got %v", err)
	}
}
