// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"io"
)

// MemFile is an in-memory io.ReadWriteSeeker for encoders that patch their
// header after writing the payload.
type MemFile struct {
	data []byte
	off  int64
}

func NewMemFile() *MemFile { return &MemFile{} }

func (f *MemFile) Write(p []byte) (int, error) {
	end := f.off + int64(len(p))
	if end > int64(len(f.data)) {
		f.data = append(f.data, make([]byte, end-int64(len(f.data)))...)
	}
	copy(f.data[f.off:end], p)
	f.off = end
	return len(p), nil
}

func (f *MemFile) Read(p []byte) (int, error) {
	if f.off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.off:])
	f.off += int64(n)
	return n, nil
}

func (f *MemFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.off + offset
	case io.SeekEnd:
		abs = int64(len(f.data)) + offset
	default:
		return 0, errors.New("memfile: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("memfile: negative position")
	}
	f.off = abs
	return abs, nil
}

// Bytes returns the written content.
func (f *MemFile) Bytes() []byte { return f.data }
