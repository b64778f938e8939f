package history

import (
	"fmt"
	"io"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportYAML ExportFormat = "yaml"
)

// Export writes records to w in the given format. The JSON form is the same
// document the file store writes, so an export can be used as a history file.
func Export(w io.Writer, conversations []*conversation.Conversation, format ExportFormat) error {
	switch format {
	case ExportJSON, "":
		b, err := Encode(conversations)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case ExportYAML:
		if conversations == nil {
			conversations = []*conversation.Conversation{}
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(conversations); err != nil {
			return errors.Wrap(err, "could not encode history as yaml")
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
