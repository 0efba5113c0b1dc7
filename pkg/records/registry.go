package records

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Registry holds the license and community vocabularies records are
// validated against. Entries come from YAML files; a small built-in set is
// used when no files are configured.
type Registry struct {
	licenses    map[string]License
	communities map[string]Community
}

type License struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	URL   string `yaml:"url,omitempty" json:"url,omitempty"`
}

type Community struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
}

type registryFile struct {
	Licenses    []License   `yaml:"licenses"`
	Communities []Community `yaml:"communities"`
}

var defaultLicenses = []License{
	{ID: "cc-zero", Title: "Creative Commons Zero (CC0)", URL: "https://creativecommons.org/publicdomain/zero/1.0/"},
	{ID: "cc-by", Title: "Creative Commons Attribution", URL: "https://creativecommons.org/licenses/by/4.0/"},
	{ID: "cc-by-sa", Title: "Creative Commons Attribution-ShareAlike", URL: "https://creativecommons.org/licenses/by-sa/4.0/"},
	{ID: "cc-by-nc", Title: "Creative Commons Attribution-NonCommercial", URL: "https://creativecommons.org/licenses/by-nc/4.0/"},
	{ID: "mit", Title: "MIT License", URL: "https://opensource.org/licenses/MIT"},
	{ID: "apache-2.0", Title: "Apache License 2.0", URL: "https://www.apache.org/licenses/LICENSE-2.0"},
	{ID: "gpl-3.0", Title: "GNU General Public License v3.0", URL: "https://www.gnu.org/licenses/gpl-3.0.html"},
	{ID: "other-open", Title: "Other (Open)"},
	{ID: "other-closed", Title: "Other (Not Open)"},
}

func NewRegistry(licenseFile, communityFile string) (*Registry, error) {
	reg := &Registry{
		licenses:    make(map[string]License),
		communities: make(map[string]Community),
	}
	for _, l := range defaultLicenses {
		reg.licenses[l.ID] = l
	}

	for _, file := range []string{licenseFile, communityFile} {
		if file == "" {
			continue
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		var parsed registryFile
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, err
		}
		for _, l := range parsed.Licenses {
			reg.licenses[l.ID] = l
		}
		for _, c := range parsed.Communities {
			reg.communities[c.ID] = c
		}
	}
	return reg, nil
}

func (r *Registry) KnownLicense(id string) bool {
	_, ok := r.licenses[id]
	return ok
}

// KnownCommunity accepts everything when no community registry is loaded.
func (r *Registry) KnownCommunity(id string) bool {
	if len(r.communities) == 0 {
		return true
	}
	_, ok := r.communities[id]
	return ok
}

func (r *Registry) License(id string) (License, bool) {
	l, ok := r.licenses[id]
	return l, ok
}
