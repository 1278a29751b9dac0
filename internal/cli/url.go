package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apihttp "github.com/wesleyorama2/apinette/http"
)

func newURLCmd(_ *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Percent-encode or decode URL components",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "encode STRING",
			Short:   "Percent-encode everything but unreserved characters",
			Example: `  apinette url encode "a b&c"   # a%20b%26c`,
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), apihttp.URLEncode(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "decode STRING",
			Short: "Decode percent escapes",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := apihttp.URLDecode(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
				return nil
			},
		},
	)
	return cmd
}
