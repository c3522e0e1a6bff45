package exportstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/exportstore"
)

func TestNewMirror_EmptyBucketIsDisabledNoOp(t *testing.T) {
	mirror, err := exportstore.NewMirror(context.Background(), "")
	require.NoError(t, err)
	require.False(t, mirror.Enabled())

	url, err := mirror.Upload(context.Background(), "export.csv", []byte("data"))
	require.NoError(t, err)
	require.Empty(t, url)
}
