// Package launchprofile reads launch settings of project resources: the
// launchSettings.json file next to a project, with its named profiles of
// application URLs and environment variables.
package launchprofile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileName is the conventional launch settings file name.
const FileName = "launchSettings.json"

// LaunchSettings is the parsed launch settings document of one project.
type LaunchSettings struct {
	// Profiles maps profile names to their settings.
	Profiles map[string]*Profile `json:"profiles"`
}

// Profile is one named launch profile.
type Profile struct {
	// CommandName selects how the project is launched.
	CommandName string `json:"commandName,omitempty"`

	// ApplicationURL holds semicolon-separated listen URLs.
	ApplicationURL string `json:"applicationUrl,omitempty"`

	// LaunchBrowser requests opening a browser after launch.
	LaunchBrowser bool `json:"launchBrowser,omitempty"`

	// EnvironmentVariables are extra env vars the profile sets.
	EnvironmentVariables map[string]string `json:"environmentVariables,omitempty"`
}

// ApplicationURLs splits the profile's application URL list.
func (p *Profile) ApplicationURLs() []string {
	if p.ApplicationURL == "" {
		return nil
	}
	parts := strings.Split(p.ApplicationURL, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Load reads the launch settings of the project at projectPath. It looks for
// Properties/launchSettings.json under the project directory, then for the
// file directly next to the project. A missing file is not an error; a
// present but unparseable one is.
func Load(resourceName, projectPath string) (*LaunchSettings, error) {
	dir := projectPath
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		dir = filepath.Dir(projectPath)
	}

	candidates := []string{
		filepath.Join(dir, "Properties", FileName),
		filepath.Join(dir, FileName),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resource %q: reading launch settings %s: %w", resourceName, path, err)
		}
		return Parse(resourceName, path, data)
	}
	return nil, nil
}

// Parse decodes launch settings, attributing failures to the resource and
// file path.
func Parse(resourceName, path string, data []byte) (*LaunchSettings, error) {
	var ls LaunchSettings
	if err := json.Unmarshal(data, &ls); err != nil {
		return nil, fmt.Errorf("resource %q: launch settings file %s is malformed: %w", resourceName, path, err)
	}
	return &ls, nil
}

// Profile returns the named profile, failing when the name does not exist.
func (ls *LaunchSettings) Profile(name string) (*Profile, error) {
	if ls == nil || ls.Profiles == nil {
		return nil, fmt.Errorf("launch profile %q not found", name)
	}
	p, ok := ls.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("launch profile %q not found", name)
	}
	return p, nil
}

// DefaultProfile picks a profile deterministically when none is requested:
// "https" first, then "http", then the alphabetically first profile.
func (ls *LaunchSettings) DefaultProfile() (string, *Profile, bool) {
	if ls == nil || len(ls.Profiles) == 0 {
		return "", nil, false
	}
	for _, preferred := range []string{"https", "http"} {
		if p, ok := ls.Profiles[preferred]; ok {
			return preferred, p, true
		}
	}
	names := make([]string, 0, len(ls.Profiles))
	for name := range ls.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[0], ls.Profiles[names[0]], true
}
