package packarchive

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManifestEncodeDecodeRoundTrip(t *testing.T) {
	m := Manifest{Name: "demo", Description: "a test pack", EntryCount: 3, Filter: FilterGzip}
	got, err := DecodeManifest(m.Encode())
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestDecodeManifestRejectsUnknownSection(t *testing.T) {
	_, err := DecodeManifest([]byte("[other]\nname=x\n"))
	require.Error(t, err)
}

func TestDecodeManifestRejectsMissingSection(t *testing.T) {
	_, err := DecodeManifest([]byte("name=x\n"))
	require.Error(t, err)
}

func TestDecodeManifestRejectsNonNumericEntries(t *testing.T) {
	_, err := DecodeManifest([]byte("[pack]\nentries=abc\n"))
	require.Error(t, err)
}
