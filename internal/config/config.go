// Package config resolves murkdown's build configuration: environment
// variable overrides, an optional project file, and defaults derived from
// the host. Grounded on the teacher's cmd/devshell/config.go
// resolveConfigDir/resolveRegistryDirs precedence-chain shape (env var wins,
// then a project file, then a computed default).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shirou/gopsutil/v4/cpu"
	"gopkg.in/yaml.v3"
)

const (
	envOutput     = "MD_OUTPUT"
	envRuleset    = "MD_RULESET"
	envSubprocCap = "MD_SUBPROC_CAP"

	// ProjectFile is the optional per-project config file, checked in the
	// current working directory.
	ProjectFile = ".murkdown.yml"

	defaultOutput  = "."
	defaultRuleset = "simple website"
)

// projectFile is the shape of .murkdown.yml, grounded on the teacher's own
// use of gopkg.in/yaml.v3 for its node files (dslyaml.BuildMany).
type projectFile struct {
	Output     string `yaml:"output"`
	Ruleset    string `yaml:"ruleset"`
	SubprocCap int    `yaml:"subproc_cap"`
}

// Config is the resolved build configuration for one invocation.
type Config struct {
	Output     string
	Ruleset    string
	SubprocCap int
}

// Load resolves Config from (in ascending priority) computed defaults, an
// optional .murkdown.yml in dir, and environment variables, then flag
// overrides supplied by the caller (empty/zero values are ignored).
func Load(dir string, flagOutput, flagRuleset string, flagSubprocCap int) (*Config, error) {
	cfg := &Config{
		Output:     defaultOutput,
		Ruleset:    defaultRuleset,
		SubprocCap: defaultSubprocCap(),
	}

	pf, err := readProjectFile(filepath.Join(dir, ProjectFile))
	if err != nil {
		return nil, err
	}
	if pf != nil {
		if pf.Output != "" {
			cfg.Output = pf.Output
		}
		if pf.Ruleset != "" {
			cfg.Ruleset = pf.Ruleset
		}
		if pf.SubprocCap > 0 {
			cfg.SubprocCap = pf.SubprocCap
		}
	}

	if v := os.Getenv(envOutput); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv(envRuleset); v != "" {
		cfg.Ruleset = v
	}
	if v := os.Getenv(envSubprocCap); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: %s=%q is not an integer", envSubprocCap, v)
		}
		cfg.SubprocCap = n
	}

	if flagOutput != "" {
		cfg.Output = flagOutput
	}
	if flagRuleset != "" {
		cfg.Ruleset = flagRuleset
	}
	if flagSubprocCap > 0 {
		cfg.SubprocCap = flagSubprocCap
	}

	return cfg, nil
}

func readProjectFile(path string) (*projectFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &pf, nil
}

// defaultSubprocCap defaults the subprocess concurrency cap to the host's
// logical CPU count, falling back to 4 if gopsutil can't determine it (a
// container with a masked /proc, for instance).
func defaultSubprocCap() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return 4
	}
	return n
}
