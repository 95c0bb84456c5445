package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}

// parseMultipart reads a multipart body no larger than limit.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return domain.ErrValidation("invalid multipart body: %v", err)
	}
	return nil
}

// formFiles returns the files of one multipart field.
func formFiles(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}

// formFile returns the single required file of a field.
func formFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	files := formFiles(r, field)
	if len(files) == 0 {
		return nil, domain.ErrValidation("missing file field %q", field)
	}
	return files[0], nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, &domain.FileReadError{Name: fh.Filename, Err: err}
	}
	defer f.Close() //nolint:errcheck
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &domain.FileReadError{Name: fh.Filename, Err: fmt.Errorf("read upload: %w", err)}
	}
	return data, nil
}
