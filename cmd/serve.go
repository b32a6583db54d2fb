package cmd

import (
	"github.com/emrgen/linktrace/internal/config"
	"github.com/emrgen/linktrace/internal/server"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd())
}

func serveCmd() *cobra.Command {
	var port string

	command := &cobra.Command{
		Use:     "serve",
		Short:   "start the link tracking server",
		Example: "linktrace serve -p 3000",
		Run: func(cmd *cobra.Command, args []string) {
			if port == "" {
				port = config.LoadConfig().HTTPPort
			}
			server.NewServer(port).Start()
		},
	}

	command.Flags().StringVarP(&port, "port", "p", "", "http port to listen on")
	command.Flags().SortFlags = false

	return command
}
