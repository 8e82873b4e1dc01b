// Package lsp implements a language server for files of gsh command lines.
//
// Each line of a document is checked like the shell would check it before
// running it, and completion offers what the shell would offer at the
// cursor.
package lsp

import (
	"context"
	"io"
	"os"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/spf13/afero"

	"src.gsh.sh/pkg/logutil"
	"src.gsh.sh/pkg/prog"
	"src.gsh.sh/pkg/shell"
)

var logger = logutil.GetLogger("[lsp] ")

// Program is the LSP subprogram.
type Program struct{}

func (Program) Run(fds [3]*os.File, f *prog.Flags, _ []string) error {
	if !f.LSP {
		return prog.ErrNotSuitable
	}
	sh, err := shell.Setup(afero.NewOsFs(), f, fds[2])
	if err != nil {
		return err
	}
	defer sh.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn := serve(ctx, newServer(sh), transport{fds[0], fds[1]})
	<-conn.DisconnectNotify()
	logger.Debug().Msg("client disconnected")
	return nil
}

func serve(ctx context.Context, s *server, rwc io.ReadWriteCloser) *jsonrpc2.Conn {
	return jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}),
		handler(s))
}

type transport struct{ in, out *os.File }

func (c transport) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c transport) Write(p []byte) (int, error) { return c.out.Write(p) }

func (c transport) Close() error {
	if err := c.in.Close(); err != nil {
		c.out.Close()
		return err
	}
	return c.out.Close()
}
