package main

import (
	"fmt"
	"net/http"

	"github.com/cuemby/shipwright/pkg/httpapi"
	"github.com/cuemby/shipwright/pkg/log"
	"github.com/cuemby/shipwright/pkg/metrics"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "serve the REST control surface mapping onto the CLI verbs (spec §6)",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, orch, engine, err := setup(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		metrics.SetVersion(Version)
		addr, _ := cmd.Flags().GetString("listen")
		srv := httpapi.New(orch)
		log.Info(fmt.Sprintf("listening on %s", addr))
		fmt.Printf("✓ shipwright server listening on %s\n", addr)

		httpServer := &http.Server{Addr: addr, Handler: srv}
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.ListenAndServe() }()

		select {
		case <-cmd.Context().Done():
			_ = httpServer.Close()
			return cancelledError(cmd.Context().Err())
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return fatalError(err)
			}
			return nil
		}
	},
}

func init() {
	serverCmd.Flags().String("listen", ":8765", "address to listen on")
}
