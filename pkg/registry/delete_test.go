package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/critsec/iams/pkg/activity"
	"github.com/critsec/iams/pkg/apperr"
)

func TestConfirmationMatches(t *testing.T) {
	assert.True(t, ConfirmationMatches("delete storm.gearbox", "storm.gearbox"))
	assert.True(t, ConfirmationMatches("DELETE Storm.Gearbox", "storm.gearbox"))
	assert.True(t, ConfirmationMatches("  delete storm.gearbox  ", "storm.gearbox"))

	assert.False(t, ConfirmationMatches("delete storm", "storm.gearbox"))
	assert.False(t, ConfirmationMatches("storm.gearbox", "storm.gearbox"))
	assert.False(t, ConfirmationMatches("", "storm.gearbox"))
}

func TestSubmitDeleteRequestRecordsActivityOnly(t *testing.T) {
	env := setupRegistry(t)

	a := env.newAsset("storm.gearbox")
	require.NoError(t, env.store.CreateAsset(context.Background(), a, 1))

	err := env.store.SubmitDeleteRequest(context.Background(), a.ID, "Delete STORM.gearbox", 1)
	require.NoError(t, err)

	// The asset row is untouched; deletion is an operator action.
	var still Asset
	require.NoError(t, env.db.First(&still, a.ID).Error)

	var act activity.UserActivity
	require.NoError(t, env.db.Where("type = ?", activity.TypeDeleteRequest).First(&act).Error)
	require.NotNil(t, act.RelatedAssetID)
	assert.Equal(t, a.ID, *act.RelatedAssetID)
	require.NotNil(t, act.RelatedProjectID)
	assert.Equal(t, env.projectID, *act.RelatedProjectID)
}

func TestSubmitDeleteRequestMismatch(t *testing.T) {
	env := setupRegistry(t)

	a := env.newAsset("storm.gearbox")
	require.NoError(t, env.store.CreateAsset(context.Background(), a, 1))

	err := env.store.SubmitDeleteRequest(context.Background(), a.ID, "delete storm", 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfirmationMismatch, apperr.KindOf(err))

	var n int64
	require.NoError(t, env.db.Model(&activity.UserActivity{}).
		Where("type = ?", activity.TypeDeleteRequest).Count(&n).Error)
	assert.Zero(t, n)
}
