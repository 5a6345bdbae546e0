package joblock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"cadlink/pkg/domain"
)

func TestInMemoryLockerExcludesPerProject(t *testing.T) {
	ctx := context.Background()
	locker := NewInMemoryLocker()
	projectID := domain.NewProjectID()

	release, err := locker.Acquire(ctx, projectID)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, projectID)
	require.ErrorIs(t, err, ErrProjectBusy)

	// Other projects are independent.
	otherRelease, err := locker.Acquire(ctx, domain.NewProjectID())
	require.NoError(t, err)
	require.NoError(t, otherRelease(ctx))

	require.NoError(t, release(ctx))

	release, err = locker.Acquire(ctx, projectID)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}
