package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrFileNotFound lo devuelve Delete si no hay nada en path.
var ErrFileNotFound = errors.New("file not found")

// ErrUnsupportedType rechaza archivos que no son imágenes.
var ErrUnsupportedType = errors.New("only image files (jpeg, jpg, png, gif, avif, webp) are allowed")

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".avif": true,
	".webp": true,
}

// FileStore guarda imágenes subidas y devuelve la ruta pública
// donde se sirven.
type FileStore interface {
	Save(ctx context.Context, filename string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}

// Upload es un archivo recibido del cliente.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromFileHeader adapta una parte multipart.
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// CheckImage valida extensión y tamaño.
func CheckImage(u Upload, maxBytes int64) error {
	if !allowedExtensions[strings.ToLower(filepath.Ext(u.Filename))] {
		return ErrUnsupportedType
	}
	if u.ContentType != "" && !strings.HasPrefix(u.ContentType, "image/") {
		return ErrUnsupportedType
	}
	if maxBytes > 0 && u.Size > maxBytes {
		return fmt.Errorf("file %q exceeds %d bytes", u.Filename, maxBytes)
	}
	return nil
}

// SaveAll guarda los archivos en orden. Si uno falla, libera los que
// ya escribió esta llamada.
func SaveAll(ctx context.Context, store FileStore, uploads []Upload) ([]string, error) {
	paths := make([]string, 0, len(uploads))
	for _, u := range uploads {
		path, err := saveOne(ctx, store, u)
		if err != nil {
			Release(ctx, store, paths...)
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func saveOne(ctx context.Context, store FileStore, u Upload) (string, error) {
	body, err := u.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload %q: %w", u.Filename, err)
	}
	defer body.Close()
	return store.Save(ctx, u.Filename, body, u.ContentType)
}

// Release borra lo que puede: ignora los archivos que no existen
// y el resto de los errores sólo se loguea.
func Release(ctx context.Context, store FileStore, paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		err := store.Delete(ctx, path)
		if err == nil || errors.Is(err, ErrFileNotFound) {
			continue
		}
		zap.L().Error("failed to delete file", zap.String("path", path), zap.Error(err))
	}
}
