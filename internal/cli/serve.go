package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/apinette/internal/logger"
	"github.com/wesleyorama2/apinette/internal/testserver"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local JSON test server",
		Long: `Serve answers every request with an example todo item, plus a few
helper routes: /echo reflects the request, /status/CODE answers with CODE,
/text returns plain text and /delay/MS waits before answering.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port < 0 || port > 65535 {
				return fmt.Errorf("invalid port %d", port)
			}
			addr := fmt.Sprintf("%s:%d", host, port)
			ready := make(chan string, 1)
			go func() {
				if bound, ok := <-ready; ok {
					fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s\n", bound)
				}
			}()
			err := testserver.Serve(cmd.Context(), addr, logger.WithComponent(a.log, "server"), ready)
			close(ready)
			return err
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "interface to listen on")
	cmd.Flags().IntVarP(&port, "port", "p", testserver.DefaultPort, "port to listen on")
	return cmd
}
