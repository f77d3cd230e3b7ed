package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/pyramid/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for generated tiles",
	Long: `Start an HTTP server that serves generated tile sets.

Tiles are served from the output directory at
/tiles/{namespace}{variant}/{z}/{x}/{y}.{ext}; /api/v1/maps lists the
registry and /api/v1/health reports liveness.

Examples:
  # Start server on default port 8080
  pyramid serve

  # Start server with custom bind address
  pyramid serve --bind 0.0.0.0 --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")
	serveCmd.Flags().Int64("cache-size", 10000, "number of tiles kept in memory")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("server.cache-size", serveCmd.Flags().Lookup("cache-size"))
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")

	addr := fmt.Sprintf("%s:%d", bind, port)

	// The registry only feeds the map listing; serve tiles without it
	reg, err := loadRegistry()
	if err != nil {
		log.Warnf("%v, map listing disabled", err)
	}

	apiServer := server.NewServer(server.Options{
		Root:      viper.GetString("output"),
		Version:   versioninfo.Short(),
		CacheSize: viper.GetInt64("server.cache-size"),
		Timeout:   timeout,
	}, reg, log)
	defer apiServer.Close()

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer.Routes(),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Errorf("server shutdown error: %v", err)
		}
	}()

	log.Infof("starting tile server on %s", addr)
	log.Infof("health check: http://%s/api/v1/health", addr)
	log.Infof("tiles: http://%s/tiles/{set}/{z}/{x}/{y}.{ext}", addr)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
