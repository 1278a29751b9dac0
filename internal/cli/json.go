package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/apinette/pkg/value"
)

func newJSONCmd(a *app) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "json [FILE]",
		Short: "Validate and reformat a JSON document, keeping key order",
		Long: `Json decodes a document from FILE, or from stdin when FILE is omitted
or "-", and writes it back indented (or compact with --compact). Object
keys keep their order and numbers are written in their shortest form.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}

			v, err := value.Decode(data)
			if err != nil {
				return err
			}
			a.log.Debug().Str("kind", v.Kind().String()).Int("bytes", len(data)).Msg("decoded document")

			var out []byte
			if compact {
				out, err = value.Encode(v)
			} else {
				out, err = value.EncodeIndent(v, "  ")
			}
			if err != nil {
				return err
			}
			if len(out) == 0 || out[len(out)-1] != '\n' {
				out = append(out, '\n')
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVarP(&compact, "compact", "c", false, "write without whitespace")
	return cmd
}
