package strapi

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// UploadFile is one file of an upload form
type UploadFile struct {
	// Name is the file name sent to the backend
	Name string

	// Reader supplies the content
	Reader io.Reader

	// ContentType defaults to application/octet-stream
	ContentType string
}

// UploadForm is a multipart body for Files.Upload
type UploadForm struct {
	body        *bytes.Buffer
	contentType string
}

// NewUploadForm builds a multipart body holding files under the "files" field.
// fields adds plain form fields such as "ref", "refId" and "field", which
// attach the upload to an entry.
func NewUploadForm(fields map[string]string, files ...UploadFile) (*UploadForm, error) {
	if len(files) == 0 {
		return nil, errors.Wrap(ErrMissingParams, "no files to upload")
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, errors.Wrapf(err, "failed to write field %s", k)
		}
	}

	for _, f := range files {
		if f.Reader == nil {
			return nil, errors.Wrapf(ErrMissingParams, "file %q has no content", f.Name)
		}

		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(filepath.Base(f.Name))))
		header.Set("Content-Type", contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create part for %s", f.Name)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", f.Name)
		}
	}

	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close multipart body")
	}

	return &UploadForm{
		body:        body,
		contentType: w.FormDataContentType(),
	}, nil
}

// Reader returns the encoded body
func (f *UploadForm) Reader() io.Reader {
	return bytes.NewReader(f.body.Bytes())
}

// ContentType returns the multipart Content-Type including its boundary
func (f *UploadForm) ContentType() string {
	return f.contentType
}

// Options returns request options carrying the Content-Type header
func (f *UploadForm) Options() *RequestOptions {
	return &RequestOptions{
		Headers: map[string]string{"Content-Type": f.contentType},
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
