package storage

import "io"

// ProgressFunc receives upload progress as a percentage in [0, 100].
type ProgressFunc func(pct float64)

// progressReader reports cumulative read progress against a known total.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	onChange ProgressFunc
}

// WithProgress wraps r so that every read reports
// bytesTransferred/totalBytes*100 to fn. A nil fn or non-positive total
// returns r unchanged.
func WithProgress(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil || total <= 0 {
		return r
	}
	return &progressReader{r: r, total: total, onChange: fn}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		pct := float64(p.read) / float64(p.total) * 100
		if pct > 100 {
			pct = 100
		}
		p.onChange(pct)
	}
	return n, err
}
