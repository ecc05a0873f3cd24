package wire

import (
	"io"

	"github.com/pior/torcontrol/internal"
)

// maxPooledBuffer keeps large one-off commands (big SETCONF) out of the pool.
const maxPooledBuffer = 64 * 1024

// Buffer pool for building command lines.
// Typical command is well under 128 bytes.
var bufferPool = internal.NewBytePool(256, maxPooledBuffer)

// WriteCommand serializes cmd and writes it to w with a single Write.
func WriteCommand(w io.Writer, cmd Command) error {
	bp := bufferPool.Get()
	buf := cmd.AppendCommand(*bp)

	_, err := w.Write(buf)

	*bp = buf
	bufferPool.Put(bp)
	return err
}

// EncodeCommand returns the wire form of cmd.
func EncodeCommand(cmd Command) []byte {
	return cmd.AppendCommand(nil)
}
