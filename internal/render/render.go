package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"subforge/internal/fileutil"
	"subforge/internal/optimize"
	"subforge/internal/segment"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls file output.
type Options struct {
	// BOM prefixes the file with a UTF-8 byte order mark. Some players
	// need it to detect UTF-8 in SRT files.
	BOM bool
	// LineLength is the wrap width handed to optimize.WrapText.
	LineLength int
}

// DefaultOptions writes a BOM and wraps at 42 columns.
func DefaultOptions() Options {
	return Options{BOM: true, LineLength: optimize.DefaultLineLength}
}

// Render returns the caption document for segs without a BOM.
func Render(segs []segment.Segment, format Format) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, segs, format, Options{LineLength: optimize.DefaultLineLength})
	return buf.Bytes()
}

// Write streams the caption document for segs to w.
func Write(w io.Writer, segs []segment.Segment, format Format, opts Options) error {
	if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return err
		}
	}
	switch format {
	case FormatSRT:
		return writeSRT(w, segs, opts.LineLength)
	case FormatVTT:
		return writeVTT(w, segs, opts.LineLength)
	default:
		return fmt.Errorf("unsupported caption format %q", format)
	}
}

// WriteFile renders segs to path atomically.
func WriteFile(path string, segs []segment.Segment, format Format, opts Options) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return Write(w, segs, format, opts)
	})
}

func writeSRT(w io.Writer, segs []segment.Segment, lineLength int) error {
	for i, seg := range segs {
		block := strconv.Itoa(i+1) + "\n" +
			FormatTimestamp(seg.Start, FormatSRT) + " --> " + FormatTimestamp(seg.End, FormatSRT) + "\n" +
			optimize.WrapText(seg.Text, lineLength) + "\n\n"
		if _, err := io.WriteString(w, block); err != nil {
			return err
		}
	}
	return nil
}

func writeVTT(w io.Writer, segs []segment.Segment, lineLength int) error {
	if _, err := io.WriteString(w, "WEBVTT\n\n"); err != nil {
		return err
	}
	for _, seg := range segs {
		block := FormatTimestamp(seg.Start, FormatVTT) + " --> " + FormatTimestamp(seg.End, FormatVTT) + "\n" +
			optimize.WrapText(seg.Text, lineLength) + "\n\n"
		if _, err := io.WriteString(w, block); err != nil {
			return err
		}
	}
	return nil
}
