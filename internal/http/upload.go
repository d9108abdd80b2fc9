package httpx

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/target/lab-portal/internal/ports"
)

const (
	maxUploadBytes  = 10 << 20
	uploadFormField = "file"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// readImageUpload reads the "file" part of a multipart request. The returned
// closer must be called once the upload is done. On failure a 400 has been written.
func readImageUpload(w http.ResponseWriter, r *http.Request) (ports.UploadInput, io.Closer, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_upload", Err: err})
		return ports.UploadInput{}, nil, false
	}
	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_upload",
			Err:     fmt.Errorf("multipart field %q is required", uploadFormField),
		})
		return ports.UploadInput{}, nil, false
	}

	// Sniff the content rather than trusting the part header.
	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	ct := http.DetectContentType(head[:n])
	if !allowedImageTypes[strings.TrimSpace(strings.Split(ct, ";")[0])] {
		_ = file.Close()
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_upload",
			Err:     errors.New("only JPEG, PNG, GIF and WebP images are accepted"),
		})
		return ports.UploadInput{}, nil, false
	}
	if _, err = file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_upload", Err: err})
		return ports.UploadInput{}, nil, false
	}
	return ports.UploadInput{Filename: header.Filename, Body: file}, file, true
}
