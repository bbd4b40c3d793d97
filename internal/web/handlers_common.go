package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/osintdesk/internal/core"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// multipartMemory is how much of a multipart form is held in memory; the
// rest spills to temporary files.
const multipartMemory = 32 << 20

// decodeJSON reads a JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", core.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	return nil
}

// uploadBatch is the files of one multipart upload.
type uploadBatch struct {
	inputs []core.FileInput
	files  []multipart.File
	form   *multipart.Form
}

// Close releases the opened parts and temporary files.
func (b *uploadBatch) Close() {
	for _, f := range b.files {
		f.Close()
	}
	if b.form != nil {
		b.form.RemoveAll()
	}
}

// readUploadBatch collects the "files" parts of a multipart request. A part
// that cannot be opened is still returned, without a reader, so it fails on
// its own during ingestion.
func (s *Server) readUploadBatch(w http.ResponseWriter, r *http.Request) (*uploadBatch, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxRequestSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, core.ErrNoFiles
		}
		return nil, fmt.Errorf("parse upload: %w", err)
	}

	b := &uploadBatch{form: r.MultipartForm}
	for _, fh := range r.MultipartForm.File["files"] {
		in := core.FileInput{Name: fh.Filename, Size: fh.Size}
		if f, err := fh.Open(); err == nil {
			in.Reader = f
			b.files = append(b.files, f)
		}
		b.inputs = append(b.inputs, in)
	}
	if len(b.inputs) == 0 {
		b.Close()
		return nil, core.ErrNoFiles
	}
	return b, nil
}
