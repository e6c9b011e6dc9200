// Package config loads named deployment presets. A preset names one
// deployment of the business application: its URL and the credentials to
// reach it. Presets are assembled into a flat configuration at process start
// and passed explicitly into the transport client; the reconciliation core
// never reads ambient configuration.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/stackmill/confsync/pkg/errors"
)

// DefaultEnvironmentsFile is where presets are looked up when no file is
// given explicitly.
const DefaultEnvironmentsFile = "environments.yaml"

// Environment is one named deployment preset.
type Environment struct {
	URL      string `yaml:"url"`
	APIKey   string `yaml:"apiKey"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// HasCredentials reports whether the preset carries any way to
// authenticate.
func (e Environment) HasCredentials() bool {
	return e.APIKey != "" || (e.Username != "" && e.Password != "")
}

// Environments maps preset name to deployment.
type Environments map[string]Environment

// Names returns the preset names in sorted order.
func (e Environments) Names() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named preset.
func (e Environments) Get(name string) (Environment, error) {
	env, ok := e[name]
	if !ok {
		return Environment{}, errors.NewConfigError("environments",
			fmt.Sprintf("unknown environment %q (have: %v)", name, e.Names()), nil)
	}
	return env, nil
}

// LoadEnvironments reads a preset file. A missing or unparseable file is a
// setup error.
func LoadEnvironments(path string) (Environments, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("environments",
			fmt.Sprintf("cannot read preset file %s", path), err)
	}

	var envs Environments
	if err := yaml.Unmarshal(data, &envs); err != nil {
		return nil, errors.NewConfigError("environments",
			fmt.Sprintf("cannot parse preset file %s", path), err)
	}
	return envs, nil
}

// LoadEnvironmentsIfPresent reads the default preset file when it exists and
// returns an empty set when it does not.
func LoadEnvironmentsIfPresent(path string) (Environments, error) {
	if path == "" {
		path = DefaultEnvironmentsFile
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Environments{}, nil
	}
	return LoadEnvironments(path)
}
