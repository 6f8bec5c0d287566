// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/azure-ai-foundry/foundry-samples/go/internal/fakeagents"
)

func newEmulateCommand() *cobra.Command {
	var (
		addr  string
		token string
	)
	cmd := &cobra.Command{
		Use:   "emulate",
		Short: "Serve the agent service emulator until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := fakeagents.New(fakeagents.WithToken(token)).Echo()
			e.HideBanner = true
			e.HidePort = true

			errc := make(chan error, 1)
			go func() { errc <- e.Start(addr) }()
			fmt.Fprintf(cmd.OutOrStdout(), "PROJECT_ENDPOINT=http://%s%s\nINFERENCE_ENDPOINT=http://%s\n",
				addr, fakeagents.ProjectPath, addr)
			slog.Info("emulator listening", "addr", addr)

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return e.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8089", "address to listen on")
	cmd.Flags().StringVar(&token, "token", "", "bearer token or api-key the emulator accepts, empty accepts any")
	return cmd
}
