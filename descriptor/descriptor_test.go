package descriptor

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBeginLoadFinishReturnsCatalog(t *testing.T) {
	want := &Catalog{Name: "demo"}
	f := BeginLoad(context.Background(), directLoader{catalog: want}, strings.NewReader(""))
	got, err := f.Finish(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestBeginLoadFinishPropagatesError(t *testing.T) {
	want := errors.New("boom")
	f := BeginLoad(context.Background(), directLoader{err: want}, strings.NewReader(""))
	_, err := f.Finish(context.Background())
	require.ErrorIs(t, err, want)
}

func TestFinishRespectsCancellation(t *testing.T) {
	f := BeginLoad(context.Background(), blockingLoader{}, strings.NewReader(""))
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err := f.Finish(ctx)
	require.Error(t, err)
}

type directLoader struct {
	catalog *Catalog
	err     error
}

func (d directLoader) Load(ctx context.Context, r io.Reader) (*Catalog, error) {
	return d.catalog, d.err
}

type blockingLoader struct{}

func (blockingLoader) Load(ctx context.Context, r io.Reader) (*Catalog, error) {
	time.Sleep(50 * time.Millisecond)
	return &Catalog{}, nil
}
