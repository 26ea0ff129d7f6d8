// Package posters accepts uploaded poster images and stores them on disk or in S3.
package posters

import (
	"bufio"
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/reelshelf/backend/internal/models"
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")

	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

// Upload is a poster file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// FromFileHeader opens a multipart file part as an Upload. The caller must close
// the returned closer once the upload has been stored.
func FromFileHeader(fh *multipart.FileHeader) (*Upload, io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, oops.Code("POSTER_READ_FAILED").With("filename", fh.Filename).Wrapf(err, "open poster part")
	}
	return &Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

// Accept checks that u is a JPEG or PNG image, both by its declared content
// type and by its leading bytes. Body is replaced with a reader that still
// yields the sniffed bytes.
func Accept(u *Upload) error {
	if u == nil || u.Body == nil {
		return oops.Code("POSTER_MISSING").Wrap(models.NewValidationError("poster", "poster is required"))
	}

	mediaType, _, err := mime.ParseMediaType(u.ContentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(u.ContentType))
	}
	if _, ok := allowedTypes[mediaType]; !ok {
		return oops.Code("POSTER_UNSUPPORTED_TYPE").With("content_type", u.ContentType).Wrap(models.ErrUnsupportedMediaType)
	}

	br := bufio.NewReader(u.Body)
	head, err := br.Peek(len(pngMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return oops.Code("POSTER_READ_FAILED").Wrapf(err, "read poster header")
	}
	if !bytes.HasPrefix(head, jpegMagic) && !bytes.HasPrefix(head, pngMagic) {
		return oops.Code("POSTER_UNSUPPORTED_TYPE").With("content_type", u.ContentType).Wrap(models.ErrUnsupportedMediaType)
	}

	u.ContentType = mediaType
	u.Body = br
	return nil
}

// Name returns the stored object name for an upload received at now:
// "<unix millis>-<sanitised base name>".
func Name(now time.Time, original string) string {
	base := path.Base(strings.ReplaceAll(original, `\`, "/"))
	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		base = "poster"
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + base
}
