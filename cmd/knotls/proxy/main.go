package proxy

import (
	"context"
	"io"
	"net"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/knotls/pkg/debug"
)

// Handler bridges an editor's stdio to a server started with
// serve-lsp --socket, so the server can outlive editor restarts and be
// debugged on its own.
type Handler struct {
	socket string
	debug  bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func NewProxyCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "proxy <socket-path>",
		Short: "connect stdio to a language server listening on a unix socket",
	}

	cmd.Flags().BoolVar(&me.debug, "debug", false, "log connection events to stderr")
	cmd.Args = cobra.ExactArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.socket = args[0]
		me.stdin = os.Stdin
		me.stdout = os.Stdout
		me.stderr = os.Stderr
		return me.Run(cmd.Context())
	}

	return cmd
}

// Run copies in both directions and returns once either side closes.
func (me *Handler) Run(ctx context.Context) error {
	level := zerolog.WarnLevel
	if me.debug {
		level = zerolog.DebugLevel
	}
	logger := debug.NewLogger(me.stderr, level, true)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", me.socket)
	if err != nil {
		return errors.Errorf("connecting to %s: %w", me.socket, err)
	}
	defer conn.Close()

	logger.Debug().Str("socket", me.socket).Msg("connected")

	done := make(chan string, 2)

	go func() {
		_, err := io.Copy(conn, me.stdin)
		logger.Debug().AnErr("copy_error", err).Msg("editor closed stdin")
		done <- "stdin"
	}()

	go func() {
		_, err := io.Copy(me.stdout, conn)
		logger.Debug().AnErr("copy_error", err).Msg("server closed the socket")
		done <- "socket"
	}()

	select {
	case side := <-done:
		logger.Debug().Str("closed", side).Msg("proxy finished")
	case <-ctx.Done():
	}

	return nil
}
