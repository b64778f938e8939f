package conversation

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadMessagesFromFile reads a list of {role, content} messages from a JSON
// or YAML file. A JSON file holding a saved conversation record is accepted
// as well; its messages are returned.
func LoadMessagesFromFile(filename string) (Messages, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	var messages Messages
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		messages, err = loadFromJSON(f)
	case ".yaml", ".yml":
		messages, err = loadFromYAML(f)
	default:
		return nil, errors.Errorf("unsupported message file %s (expected .json, .yaml or .yml)", filename)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read messages from %s", filename)
	}

	for i, m := range messages {
		if !m.Role.IsValid() {
			return nil, errors.Errorf("message %d in %s has invalid role %q", i, filename, m.Role)
		}
	}
	if messages == nil {
		messages = Messages{}
	}
	return messages, nil
}

func loadFromYAML(r io.Reader) (Messages, error) {
	var messages Messages
	if err := yaml.NewDecoder(r).Decode(&messages); err != nil && err != io.EOF {
		return nil, err
	}
	return messages, nil
}

func loadFromJSON(r io.Reader) (Messages, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var messages Messages
	if err := json.Unmarshal(b, &messages); err == nil {
		return messages, nil
	}
	var record Conversation
	if err := json.Unmarshal(b, &record); err != nil {
		return nil, err
	}
	return record.Messages, nil
}
