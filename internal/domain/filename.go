package domain

import (
	"strings"

	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

const imageExt = ".jpg"

// ImageFilename extracts the name between the last "/" before ".jpg" and ".jpg"
// (".../path/name123.jpg?v=2" -> "name123"). URLs without ".jpg" or with an
// empty name are rejected.
func ImageFilename(imageURL string) (string, error) {
	end := strings.Index(imageURL, imageExt)
	if end < 0 {
		return "", &apperrors.ErrValidation{
			Message: "image URL has no " + imageExt + " file name: " + imageURL,
			Fields:  map[string]string{"src": "must reference a " + imageExt + " file"},
		}
	}
	start := strings.LastIndex(imageURL[:end], "/") + 1
	name := imageURL[start:end]
	if name == "" {
		return "", &apperrors.ErrValidation{
			Message: "image URL has an empty file name: " + imageURL,
			Fields:  map[string]string{"src": "file name is empty"},
		}
	}
	return name, nil
}
