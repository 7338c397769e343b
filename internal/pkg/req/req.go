/*
Package req provides helpers for parsing and binding HTTP request data.

It wraps JSON body decoding with strict field checking and maps the
failure modes onto the application error catalog.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stxxcsxnny/Groovz/internal/pkg/errs"
)

const (
	// MaxFormMemory is the memory budget (32 MB) for non-file form fields;
	// larger file parts spill to temporary files.
	MaxFormMemory int64 = 32 << 20

	// MaxRequestFileSize caps the whole multipart request body at 20 MB,
	// enforced with http.MaxBytesReader.
	MaxRequestFileSize int64 = 20 << 20
)

// BindJSON decodes the JSON request body into dst, rejecting unknown
// fields and trailing content.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// SetupMultipart caps the request body size and parses multipart form data.
func SetupMultipart(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestFileSize)

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}

		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}
