// Package serve implements `cortex serve`: a long-running daemon that
// exposes the tool-protocol surface over stdio (internal/toolserver)
// alongside a gin-based management HTTP listener for health checks and
// Prometheus scraping (§C.2's daemon mode). Grounded on the teacher's
// internal/cmd/serve.go gin.Engine + signal-context wiring, generalized
// from the teacher's REST API surface to a stdio tool-protocol surface
// plus a bare management listener.
package serve

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/cortexmemory/cortex/internal/cmd/cmdutil"
	"github.com/cortexmemory/cortex/internal/metrics"
	"github.com/cortexmemory/cortex/internal/toolserver"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
)

// Command returns the `serve` command.
func Command() *cli.Command {
	var mgmtAddr string
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP tool server over stdio with a management HTTP listener for health/metrics",
		Flags: append(cmdutil.GlobalFlags(),
			&cli.StringFlag{Name: "mgmt-addr", Destination: &mgmtAddr, Value: "127.0.0.1:8780", Usage: "Address for the /healthz and /metrics listener"}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := cmdutil.Open(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			metrics.Init()

			srv := toolserver.New(c)

			mgmt := newManagementServer(mgmtAddr)
			go func() {
				if err := mgmt.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("management listener stopped", "err", err)
				}
			}()
			go func() {
				<-ctx.Done()
				log.Info("shutting down management listener")
				_ = mgmt.Close()
			}()

			log.Info("cortex daemon ready", "mgmtAddr", mgmtAddr, "store", cmdutil.StoreName(cmd, c))
			if err := srv.ServeStdio(ctx); err != nil {
				return cmdutil.Fail(err)
			}
			return nil
		},
	}
}

func newManagementServer(addr string) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return &http.Server{Addr: addr, Handler: r}
}
