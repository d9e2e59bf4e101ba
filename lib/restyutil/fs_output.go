package restyutil

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// FilesystemOutput dumps every request/response pair a client exchanges
// into a directory, one file per message. meant for debugging scrape
// failures locally, never enabled in production.
type FilesystemOutput struct {
	directory string
	idcounter uint64
}

func NewFilesystemOutput(dir string) *FilesystemOutput {
	os.RemoveAll(dir)
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		panic(err)
	}
	return &FilesystemOutput{directory: dir}
}

// Attach registers the dump hook on the client.
func (o *FilesystemOutput) Attach(client *resty.Client) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := strconv.FormatUint(atomic.AddUint64(&o.idcounter, 1), 10)
		o.write(id, formatHttpMessage(res))
		return nil
	})
}

func (o *FilesystemOutput) write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id+".txt"), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message dump file", "id", id, "err", err)
	}
}

func formatHeaders(out *strings.Builder, headers http.Header) {
	for k, vals := range headers {
		for _, v := range vals {
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
	}
}

func formatHttpMessage(res *resty.Response) string {
	var out strings.Builder

	fmt.Fprintf(&out, "---- REQUEST ----\n\n%s %s\n\n", res.Request.Method, res.Request.URL)
	if res.Request.RawRequest != nil {
		formatHeaders(&out, res.Request.RawRequest.Header)
	}

	fmt.Fprintf(&out, "\n---- RESPONSE ----\n\n%d %s\n\n", res.StatusCode(), res.Status())
	formatHeaders(&out, res.Header())
	out.WriteString("\n")
	out.WriteString(res.String())

	return out.String()
}
