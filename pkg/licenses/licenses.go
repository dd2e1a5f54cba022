// Package licenses turns the free-form license strings published by upstream
// registries into License values that backends can render.
package licenses

import (
	"strings"

	"github.com/github/go-spdx/v2/spdxexp"
)

// License is one license a package is distributed under.
type License struct {
	// Name is the license as the upstream wrote it.
	Name string
	// SPDX is the SPDX identifier, empty when Name is not a known identifier.
	SPDX string
}

// String returns the SPDX identifier when known, the upstream name otherwise.
func (l License) String() string {
	if l.SPDX != "" {
		return l.SPDX
	}
	return l.Name
}

// Known reports whether the license maps to an SPDX identifier.
func (l License) Known() bool {
	return l.SPDX != ""
}

// Lookup returns the License for a single identifier or name.
func Lookup(name string) License {
	name = strings.TrimSpace(name)
	if valid, _ := spdxexp.ValidateLicenses([]string{name}); valid {
		return License{Name: name, SPDX: name}
	}
	if id, ok := aliases[strings.ToLower(name)]; ok {
		return License{Name: name, SPDX: id}
	}
	return License{Name: name}
}

// Parse splits a license field into License values. The field may be an SPDX
// expression ("MIT OR Apache-2.0"), a comma separated list, or a single name.
func Parse(field string) []License {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}

	if ids, err := spdxexp.ExtractLicenses(field); err == nil && len(ids) > 0 {
		result := make([]License, 0, len(ids))
		for _, id := range ids {
			result = append(result, License{Name: id, SPDX: id})
		}
		return result
	}

	var result []License
	for _, part := range strings.Split(field, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, Lookup(part))
		}
	}
	return result
}

// aliases maps common non-SPDX spellings found in registry metadata.
var aliases = map[string]string{
	"apache 2.0":                         "Apache-2.0",
	"apache license 2.0":                 "Apache-2.0",
	"apache license, version 2.0":        "Apache-2.0",
	"apache software license":            "Apache-2.0",
	"bsd":                                "BSD-3-Clause",
	"new bsd license":                    "BSD-3-Clause",
	"bsd license":                        "BSD-3-Clause",
	"gplv2":                              "GPL-2.0-only",
	"gplv3":                              "GPL-3.0-only",
	"lgplv3":                             "LGPL-3.0-only",
	"mit license":                        "MIT",
	"mozilla public license 2.0":         "MPL-2.0",
	"isc license":                        "ISC",
	"python software foundation license": "PSF-2.0",
}
