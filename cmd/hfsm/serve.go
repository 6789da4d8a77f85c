package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlekbai/hfsm/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve [definition]",
	Short: "Serve machine instances of a definition over HTTP",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, rest, err := loadEnv(cmd, args)
		if err != nil {
			return err
		}
		if len(rest) > 0 {
			return fmt.Errorf("unexpected argument %q", rest[0])
		}
		defer e.logger.Sync() //nolint:errcheck

		name := strings.TrimSuffix(filepath.Base(e.cfg.Definition), filepath.Ext(e.cfg.Definition))
		srv, err := server.New(e.def, name, e.logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e.logger.Info("serving definition", zap.String("definition", e.cfg.Definition), zap.String("name", name))
		return srv.ListenAndServe(ctx, e.cfg.Server.Addr, e.cfg.Server.ReadTimeout, e.cfg.Server.WriteTimeout)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address, overrides server.addr")
	_ = v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}
