package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/repoharvest/pkg/vcs"
)

// repositoriesSchema validates the descriptor file shape before decoding.
const repositoriesSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["repositories"],
	"properties": {
		"repositories": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "url"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"url": {"type": "string", "minLength": 1},
					"options": {
						"type": "object",
						"additionalProperties": {"type": "string"}
					}
				},
				"additionalProperties": false
			}
		}
	},
	"additionalProperties": false
}`

// repositoriesFile is the on-disk shape of the descriptor file.
type repositoriesFile struct {
	Repositories []struct {
		Name    string            `json:"name"`
		URL     string            `json:"url"`
		Options map[string]string `json:"options"`
	} `json:"repositories"`
}

// LoadRepositories reads and validates the repositories descriptor file and
// returns one descriptor per configured repository.
func LoadRepositories(path string) ([]vcs.Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read repositories file: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(repositoriesSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validate repositories file: %w", err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))

		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return nil, fmt.Errorf("repositories file %s is invalid: %s", path, strings.Join(problems, "; "))
	}

	var file repositoriesFile

	err = json.Unmarshal(raw, &file)
	if err != nil {
		return nil, fmt.Errorf("decode repositories file: %w", err)
	}

	descriptors := make([]vcs.Descriptor, 0, len(file.Repositories))

	for _, repo := range file.Repositories {
		descriptors = append(descriptors, vcs.Descriptor{
			Name:    repo.Name,
			URL:     repo.URL,
			Options: repo.Options,
		})
	}

	return descriptors, nil
}
