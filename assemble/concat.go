package assemble

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/hlsrip-cli/hlsrip/log"
)

// tsSyncByte opens every MPEG-TS packet.
const tsSyncByte = 0x47

// Concat joins MPEG-TS segments byte for byte.
// Transport streams carry ADTS audio as is, so no bitstream rewrite is needed.
type Concat struct{}

func (Concat) Name() string {
	return "concat"
}

func (c Concat) Remux(ctx context.Context, job Job) (err error) {
	fs := filesystem.API()

	out, err := fs.Create(job.Output)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssemblyFailed, err)
	}

	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("%w: %w", ErrAssemblyFailed, closeErr)
		}
		if err != nil {
			if rmErr := fs.Remove(job.Output); rmErr != nil {
				log.Warnf("remove partial output: %s", rmErr)
			}
		}
	}()

	buf := make([]byte, 256<<10)
	for _, f := range job.Segments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.append(out, f.Path, buf); err != nil {
			return err
		}
	}

	return nil
}

func (Concat) append(out io.Writer, path string, buf []byte) error {
	in, err := filesystem.API().Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssemblyFailed, err)
	}
	defer in.Close()

	head := make([]byte, 1)
	if _, err := io.ReadFull(in, head); err != nil || head[0] != tsSyncByte {
		return fmt.Errorf("%w: %s is not an MPEG-TS segment", ErrAssemblyFailed, filepath.Base(path))
	}

	if _, err := out.Write(head); err != nil {
		return fmt.Errorf("%w: %w", ErrAssemblyFailed, err)
	}
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		return fmt.Errorf("%w: %w", ErrAssemblyFailed, err)
	}
	return nil
}
