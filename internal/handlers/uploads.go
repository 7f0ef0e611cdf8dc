package handlers

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/videotube/backend/internal/storage"
)

// formFile returns the first uploaded file for the field, or nil when the
// field is absent.
func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// uploadFormFile spools the multipart file to the temp dir and pushes it to
// the media host, returning the public URL. The temp file is cleaned up by
// storage.UploadLocalFile regardless of outcome.
func uploadFormFile(ctx context.Context, media MediaUploader, tempDir string, fh *multipart.FileHeader) (string, error) {
	path, err := storage.SaveTemp(tempDir, fh)
	if err != nil {
		return "", err
	}
	return storage.UploadLocalFile(ctx, media, path)
}
