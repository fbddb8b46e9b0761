package kvdesc

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `
[pack]
name=demo
description=a sample pack
entry=/main.lua

[sources]
main.lua
helpers=lib/helpers.lua
`

func TestLoadParsesSections(t *testing.T) {
	cat, err := New().Load(context.Background(), strings.NewReader(sample))
	require.NoError(t, err)
	require.Equal(t, "demo", cat.Name)
	require.Equal(t, "a sample pack", cat.Description)
	require.Equal(t, "/main.lua", cat.Entry)
	require.Len(t, cat.Mappings, 2)
	require.Equal(t, "main.lua", cat.Mappings[0].Alias)
	require.Equal(t, "main.lua", cat.Mappings[0].SourceFilename)
	require.Equal(t, "helpers", cat.Mappings[1].Alias)
	require.Equal(t, "lib/helpers.lua", cat.Mappings[1].SourceFilename)
}

func TestLoadRequiresName(t *testing.T) {
	_, err := New().Load(context.Background(), strings.NewReader("[pack]\ndescription=x\n"))
	require.Error(t, err)
}

func TestLoadRequiresAtLeastOneNamespaceGroup(t *testing.T) {
	_, err := New().Load(context.Background(), strings.NewReader("[pack]\nname=demo\n"))
	require.Error(t, err)
}

func TestLoadRejectsMappingOutsideSection(t *testing.T) {
	_, err := New().Load(context.Background(), strings.NewReader("main.lua\n"))
	require.Error(t, err)
}

func TestLoadRejectsUnknownPackField(t *testing.T) {
	_, err := New().Load(context.Background(), strings.NewReader("[pack]\nbogus=1\n"))
	require.Error(t, err)
}

func TestLoadHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Load(ctx, strings.NewReader(sample))
	require.Error(t, err)
}
