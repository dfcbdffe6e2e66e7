package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

func TestImageFilename(t *testing.T) {
	cases := map[string]string{
		"https://cdn.skulibrary.com/path/name123.jpg":          "name123",
		"https://cdn.skulibrary.com/a/b/c/9300807_front.jpg":   "9300807_front",
		"https://cdn.skulibrary.com/img/back.jpg?width=600":    "back",
		"name123.jpg":                                          "name123",
		"https://cdn.skulibrary.com/x.jpg/y/z.jpg":             "x",
		"https://cdn.skulibrary.com/folder.v2/file-name_1.jpg": "file-name_1",
	}
	for url, want := range cases {
		got, err := ImageFilename(url)
		require.NoError(t, err, url)
		assert.Equal(t, want, got, url)
	}
}

func TestImageFilename_RejectsNonJPEG(t *testing.T) {
	for _, url := range []string{
		"https://cdn.skulibrary.com/path/name123.png",
		"",
		"https://cdn.skulibrary.com/path/.jpg",
	} {
		_, err := ImageFilename(url)
		require.Error(t, err, url)

		var ve *apperrors.ErrValidation
		assert.True(t, errors.As(err, &ve), url)
	}
}
