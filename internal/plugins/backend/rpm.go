package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/ralt/upt/pkg/upt"
)

// RPM renders a .spec file following the Fedora packaging guidelines
type RPM struct {
	out    *Output
	naming naming
}

// NewRPM creates the rpm backend
func NewRPM(out *Output) *RPM {
	return &RPM{
		out:    out,
		naming: naming{backend: "rpm", prefixes: map[string]string{
			"pypi":     "python3-",
			"rubygems": "rubygem-",
			"npm":      "nodejs-",
			"cargo":    "rust-",
			"go":       "golang-",
			"manifest": "",
		}},
	}
}

type rpmBuild struct {
	noarch        bool
	buildRequires []string
	setup         string
	build         string
	install       string
	files         string
}

var rpmBuilds = map[string]rpmBuild{
	"pypi": {
		noarch:        true,
		buildRequires: []string{"python3-devel"},
		setup:         "%autosetup -n %{srcname}-%{version}",
		build:         "%pyproject_wheel",
		install:       "%pyproject_install\n%pyproject_save_files -l '*'",
		files:         "%files -f %{pyproject_files}",
	},
	"rubygems": {
		noarch:        true,
		buildRequires: []string{"ruby(release)", "rubygems-devel", "ruby"},
		setup:         "%setup -q -n %{gem_name}-%{version}",
		build:         "gem build ../%{gem_name}-%{version}.gemspec\n%gem_install",
		install:       "mkdir -p %{buildroot}%{gem_dir}\ncp -a .%{gem_dir}/* %{buildroot}%{gem_dir}/",
		files:         "%files\n%{gem_instdir}\n%{gem_spec}\n%exclude %{gem_cache}",
	},
	"npm": {
		noarch:        true,
		buildRequires: []string{"nodejs-devel"},
		setup:         "%autosetup -n package",
		build:         "# nothing to build",
		install:       "mkdir -p %{buildroot}%{nodejs_sitelib}/%{srcname}\ncp -pr * %{buildroot}%{nodejs_sitelib}/%{srcname}",
		files:         "%files\n%{nodejs_sitelib}/%{srcname}",
	},
	"cargo": {
		buildRequires: []string{"cargo-rpm-macros >= 24"},
		setup:         "%autosetup -n %{srcname}-%{version}\n%cargo_prep",
		build:         "%cargo_build",
		install:       "%cargo_install",
		files:         "%files\n%{_bindir}/%{srcname}",
	},
	"go": {
		buildRequires: []string{"go-rpm-macros"},
		setup:         "%goprep",
		build:         "%gobuild -o %{gobuilddir}/bin/%{srcname} %{goipath}",
		install:       "install -m 0755 -vd %{buildroot}%{_bindir}\ninstall -m 0755 -vp %{gobuilddir}/bin/* %{buildroot}%{_bindir}/",
		files:         "%files\n%{_bindir}/*",
	},
	"manifest": {
		buildRequires: []string{"gcc", "make"},
		setup:         "%autosetup -n %{srcname}-%{version}",
		build:         "%configure\n%make_build",
		install:       "%make_install",
		files:         "%files\n%{_bindir}/*",
	},
}

// CreatePackage implements upt.Backend
func (r *RPM) CreatePackage(ctx context.Context, pkg *upt.Package, output string) error {
	if err := r.naming.check(pkg); err != nil {
		return err
	}

	spec, err := r.render(pkg)
	if err != nil {
		return err
	}

	name := r.naming.name(pkg.Frontend, pkg.Name)
	_, err = r.out.Write(output, name+".spec", []byte(spec))
	return err
}

func (r *RPM) render(pkg *upt.Package) (string, error) {
	build := rpmBuilds[pkg.Frontend]
	var b strings.Builder

	dep := func(name string, c constraint) string {
		if c.op == "" {
			return name
		}
		return fmt.Sprintf("%s %s %s", name, c.op, c.version)
	}

	fmt.Fprintf(&b, "%%global srcname %s\n", pkg.Name)
	if pkg.Frontend == "rubygems" {
		b.WriteString("%global gem_name %{srcname}\n")
	}
	if pkg.Frontend == "go" {
		fmt.Fprintf(&b, "%%global goipath %s\n", pkg.Name)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Name:           %s\n", r.naming.name(pkg.Frontend, pkg.Name))
	fmt.Fprintf(&b, "Version:        %s\n", strings.ReplaceAll(pkg.Version, "-", "~"))
	b.WriteString("Release:        1%{?dist}\n")
	fmt.Fprintf(&b, "Summary:        %s\n", summary(pkg))
	fmt.Fprintf(&b, "License:        %s\n", strings.Join(licenseNames(pkg), " AND "))
	if pkg.Homepage != "" {
		fmt.Fprintf(&b, "URL:            %s\n", pkg.Homepage)
	}
	archive, err := sourceArchive(pkg)
	if err != nil {
		return "", err
	}
	if archive != nil {
		fmt.Fprintf(&b, "Source0:        %s\n", archive.URL)
	}
	if build.noarch {
		b.WriteString("BuildArch:      noarch\n")
	}
	b.WriteString("\n")

	for _, req := range build.buildRequires {
		fmt.Fprintf(&b, "BuildRequires:  %s\n", req)
	}
	for _, req := range r.naming.depends(pkg, upt.BuildRequirements, dep) {
		fmt.Fprintf(&b, "BuildRequires:  %s\n", req)
	}
	for _, req := range r.naming.depends(pkg, upt.TestRequirements, dep) {
		fmt.Fprintf(&b, "BuildRequires:  %s\n", req)
	}
	for _, req := range r.naming.depends(pkg, upt.RunRequirements, dep) {
		fmt.Fprintf(&b, "Requires:       %s\n", req)
	}

	description := strings.TrimSpace(pkg.Description)
	if description == "" {
		description = summary(pkg)
	}
	fmt.Fprintf(&b, "\n%%description\n%s\n", description)
	fmt.Fprintf(&b, "\n%%prep\n%s\n", build.setup)
	fmt.Fprintf(&b, "\n%%build\n%s\n", build.build)
	fmt.Fprintf(&b, "\n%%install\n%s\n", build.install)
	fmt.Fprintf(&b, "\n%s\n", build.files)
	b.WriteString("\n%changelog\n%autochangelog\n")

	return b.String(), nil
}
