package converter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadWithFallbackNamespacedSucceeds(t *testing.T) {
	var requested []string
	dl := func(id, dest string) (string, error) {
		requested = append(requested, id)
		return "/models/" + id, nil
	}

	path, err := downloadWithFallback(dl, "acme/model", "model", "/work", testLogger())
	require.NoError(t, err)
	assert.Equal(t, "/models/acme/model", path)
	assert.Equal(t, []string{"acme/model"}, requested)
}

func TestDownloadWithFallbackRetriesBareID(t *testing.T) {
	var requested []string
	dl := func(id, dest string) (string, error) {
		requested = append(requested, id)
		if id == "acme/model" {
			return "", errors.New("404")
		}
		return "/models/" + id, nil
	}

	path, err := downloadWithFallback(dl, "acme/model", "model", "/work", testLogger())
	require.NoError(t, err)
	assert.Equal(t, "/models/model", path)
	assert.Equal(t, []string{"acme/model", "model"}, requested)
}

func TestDownloadWithFallbackBothFail(t *testing.T) {
	dl := func(id, dest string) (string, error) {
		return "", errors.New("unreachable")
	}

	_, err := downloadWithFallback(dl, "acme/model", "model", "/work", testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acme/model")
	assert.Contains(t, err.Error(), "model")
}
