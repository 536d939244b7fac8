package gitcore

import "strings"

// Config holds the subset of the repository config this package cares about.
type Config struct {
	Core CoreConfig
	Init InitConfig
}

type CoreConfig struct {
	RepositoryFormatVersion string
	Bare                    bool
}

type InitConfig struct {
	// DefaultBranch is the repository-declared default branch name, used
	// ahead of HEAD when choosing the default branch.
	DefaultBranch string
}

// loadConfig parses the repository config file. A missing or unparseable
// config is not an error; everything it provides is optional.
func (r *Repository) loadConfig() {
	data, err := r.store.ReadFile("config")
	if err != nil {
		return
	}

	var section string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section, _, _ = strings.Cut(strings.Trim(line, "[]"), " ")
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch section {
		case "core":
			switch key {
			case "repositoryformatversion":
				r.config.Core.RepositoryFormatVersion = value
			case "bare":
				r.config.Core.Bare = value == "true"
			}
		case "init":
			if key == "defaultbranch" {
				r.config.Init.DefaultBranch = value
			}
		}
	}

	if r.defaultBranch == "" {
		r.defaultBranch = r.config.Init.DefaultBranch
	}
}

// Config returns the parsed repository configuration.
func (r *Repository) Config() Config {
	return r.config
}
