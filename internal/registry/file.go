package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/civicaudit/groundtruth/internal/model"
)

// LoadProjectsFile reads a YAML list of project records. Used to seed the
// in-memory registry for standalone runs without a database.
func LoadProjectsFile(path string) ([]*model.ProjectRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read projects file: %w", err)
	}

	var doc struct {
		Projects []*model.ProjectRef `yaml:"projects"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse projects file: %w", err)
	}
	if len(doc.Projects) == 0 {
		return nil, fmt.Errorf("projects file %s contains no projects", path)
	}

	for i, p := range doc.Projects {
		if p.ID == "" {
			return nil, fmt.Errorf("projects file %s: entry %d has no id", path, i)
		}
	}
	return doc.Projects, nil
}
