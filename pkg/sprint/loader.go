package sprint

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// scheduleFile is the on-disk YAML shape of a sprint schedule.
type scheduleFile struct {
	Sprints []Interval `yaml:"sprints"`
}

// Load reads a sprint schedule from a YAML file.
func Load(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sprint schedule: %w", err)
	}

	var file scheduleFile

	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("parse sprint schedule: %w", err)
	}

	return NewSchedule(file.Sprints), nil
}
