package relay

import (
	"context"
	"io"
	"net/http"
)

const DefaultChunkSize = 32 << 10

// Copy forwards src to dst chunk by chunk, in the order read, flushing dst after
// every chunk when it is an http.Flusher. It stops when src is exhausted, when ctx
// is done, or on the first read or write error, and reports how many bytes reached dst.
// The error is nil only when src ended with io.EOF.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)
	flusher, _ := dst.(http.Flusher)

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			m, werr := dst.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
			if m != n {
				return written, io.ErrShortWrite
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}
