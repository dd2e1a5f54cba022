package upt

import "fmt"

// PackageRequirement is a dependency on another package.
//
// Specifier is a version constraint in the upstream ecosystem's own syntax
// (">=3.14", "~> 2.1", "^1.0.0", ...). The core treats it as opaque text;
// an empty Specifier means any version. Two requirements are equal when both
// fields are equal, so PackageRequirement values can be compared with ==.
type PackageRequirement struct {
	Name      string
	Specifier string
}

// NewRequirement creates a PackageRequirement. The specifier is optional.
func NewRequirement(name string, specifier ...string) PackageRequirement {
	req := PackageRequirement{Name: name}
	if len(specifier) > 0 {
		req.Specifier = specifier[0]
	}
	return req
}

// String renders "name (specifier)", or just "name" without a specifier.
func (r PackageRequirement) String() string {
	if r.Specifier != "" {
		return fmt.Sprintf("%s (%s)", r.Name, r.Specifier)
	}
	return r.Name
}

// RequirementCategory classifies when a dependency is needed.
type RequirementCategory string

const (
	ConfigRequirements RequirementCategory = "config"
	BuildRequirements  RequirementCategory = "build"
	RunRequirements    RequirementCategory = "run"
	TestRequirements   RequirementCategory = "test"
)

// RequirementCategories lists every category in a stable order.
var RequirementCategories = []RequirementCategory{
	ConfigRequirements,
	BuildRequirements,
	RunRequirements,
	TestRequirements,
}

// Valid reports whether c is one of the known categories.
func (c RequirementCategory) Valid() bool {
	for _, known := range RequirementCategories {
		if c == known {
			return true
		}
	}
	return false
}
