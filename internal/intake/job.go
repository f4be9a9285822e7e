package intake

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/profile-cli/internal/model"
)

// Job is a single-organization run description loaded from YAML.
type Job struct {
	Name      string     `yaml:"name"`
	URLs      []string   `yaml:"urls"`
	Documents []string   `yaml:"documents"`
	Text      string     `yaml:"text"`
	Options   JobOptions `yaml:"options"`
}

// JobOptions carries per-run overrides. UseAI is a pointer so an absent
// key falls back to the configured default.
type JobOptions struct {
	UseAI      *bool    `yaml:"use_ai"`
	FocusHints []string `yaml:"focus_hints"`
}

// LoadJob reads a job file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "intake: read job %s", path)
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, eris.Wrap(err, "intake: parse job")
	}
	if strings.TrimSpace(job.Name) == "" {
		return nil, eris.New("intake: job has no org name")
	}
	return &job, nil
}

// Sources builds the job's pipeline input.
func (j *Job) Sources() ([]model.Source, error) {
	return Sources(j.URLs, j.Documents, j.Text)
}

type yamlOrg struct {
	Name      string   `yaml:"name"`
	URLs      []string `yaml:"urls"`
	Documents []string `yaml:"documents"`
	Text      string   `yaml:"text"`
}

func loadYAMLOrgs(path string) ([]Org, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "intake: read %s", path)
	}

	var doc struct {
		Orgs []yamlOrg `yaml:"orgs"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "intake: parse org list")
	}
	if len(doc.Orgs) == 0 {
		return nil, eris.New("intake: org list is empty")
	}

	seen := make(map[string]bool)
	var orgs []Org
	for _, y := range doc.Orgs {
		name := strings.TrimSpace(y.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		sources, err := Sources(y.URLs, y.Documents, y.Text)
		if err != nil {
			return nil, eris.Wrapf(err, "intake: org %s", name)
		}
		if len(sources) == 0 {
			continue
		}
		orgs = append(orgs, Org{Name: name, Sources: sources})
	}
	return orgs, nil
}
