package cmds

import (
	"fmt"
	"io"
	"strings"

	"github.com/tcnksm/go-input"
)

// AskForConfirmation asks a yes/no question and defaults to no.
func AskForConfirmation(r io.Reader, w io.Writer, query string) (bool, error) {
	ui := &input.UI{
		Writer: w,
		Reader: r,
	}

	answer, err := ui.Ask(query+" [y/n]", &input.Options{
		Default:  "n",
		Required: true,
		Loop:     true,
		ValidateFunc: func(answer string) error {
			switch strings.ToLower(answer) {
			case "y", "yes", "n", "no":
				return nil
			default:
				return fmt.Errorf("please enter 'y' or 'n'")
			}
		},
	})
	if err != nil {
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
