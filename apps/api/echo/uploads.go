package echoapi

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yousuf-shahzad/maths-soc-source/core"
)

const uploadsURLPrefix = "/uploads"

func uploadsRoot(conf *core.Config) string {
	return filepath.Join(conf.WorkDir, "assets", "uploads")
}

// saveUploadedFile stores the "file" form part under assets/uploads/<subdir>.
// Files get a random name so uploads can never clobber each other; the
// returned URL path is served by the static route.
func saveUploadedFile(ctx echo.Context, conf *core.Config, subdir string) (string, error) {
	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return "", core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}

	src, err := fileHdr.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = src.Close() }()

	name := uuid.New().String() + strings.ToLower(filepath.Ext(fileHdr.Filename))
	dir := filepath.Join(uploadsRoot(conf), subdir)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating uploads dir")
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", errors.Wrap(err, "creating uploaded file")
	}
	defer func() { _ = dst.Close() }()

	if _, err = io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "saving uploaded file")
	}
	return path.Join(uploadsURLPrefix, subdir, name), nil
}
