package cmd

import (
	"github.com/gin-gonic/gin"
	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/server"
)

var serveAddr string

// serveCmd は、絵コンテとツールを HTTP API として公開するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTP API サーバーを起動するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()
		if !clibase.Flags.Verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		addr := app.Config.ServerAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		return server.Run(ctx, app, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "待ち受けアドレスなのだ（既定: $SERVER_ADDR または :8080）。")
}
