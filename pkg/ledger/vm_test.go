package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/critsec/iams/pkg/activity"
	"github.com/critsec/iams/pkg/apperr"
	"github.com/critsec/iams/pkg/catalog"
)

func (e *testEnv) vmSubmission() VMSubmission {
	return VMSubmission{
		UserID:          1,
		EmployeeID:      e.employeeID,
		AssetID:         e.assetID,
		ProjectID:       e.projectID,
		ImgcollectionID: e.imgcollection,
		VirtsourceID:    e.virtsourceID,
		VmtypeID:        e.vmtypeID,
		VmstatusID:      e.statusReadyID,
	}
}

func TestCreateVMGuardDowngradesWithoutScans(t *testing.T) {
	env := setupTestEnv(t)

	p := env.vmSubmission()
	p.AcasScanCompleted = true // SCAP still missing

	res, err := env.store.CreateVM(context.Background(), p)
	require.NoError(t, err)

	assert.True(t, res.OverrideApplied)
	assert.Equal(t, env.statusWaitingID, res.VmstatusID)
	assert.Equal(t, catalog.VMStatusWaitingScans, res.StatusName)

	var row VmCreation
	require.NoError(t, env.db.First(&row, res.ID).Error)
	assert.Equal(t, env.statusWaitingID, row.VmstatusID)
	assert.Equal(t, 1, row.Version)

	assert.Equal(t, int64(1), env.activityCount(t, activity.TypeVMCreated))
}

func TestCreateVMGuardPassesWithBothScans(t *testing.T) {
	env := setupTestEnv(t)

	p := env.vmSubmission()
	p.AcasScanCompleted = true
	p.ScapScanCompleted = true

	res, err := env.store.CreateVM(context.Background(), p)
	require.NoError(t, err)

	assert.False(t, res.OverrideApplied)
	assert.Equal(t, env.statusReadyID, res.VmstatusID)
}

func TestCreateVMGuardIgnoresNonReadyStatus(t *testing.T) {
	env := setupTestEnv(t)

	p := env.vmSubmission()
	p.VmstatusID = env.statusTestingID

	res, err := env.store.CreateVM(context.Background(), p)
	require.NoError(t, err)

	assert.False(t, res.OverrideApplied)
	assert.Equal(t, env.statusTestingID, res.VmstatusID)
}

func TestCreateVMMissingWaitingStatusIsCatalogMissing(t *testing.T) {
	env := setupTestEnv(t)
	require.NoError(t, env.db.Where("name = ?", catalog.VMStatusWaitingScans).
		Delete(&catalog.VMStatus{}).Error)

	_, err := env.store.CreateVM(context.Background(), env.vmSubmission())
	require.Error(t, err)
	assert.Equal(t, apperr.KindCatalogMissing, apperr.KindOf(err))
}

func TestUpdateVMScansAloneDoNotAdvanceStatus(t *testing.T) {
	env := setupTestEnv(t)

	created, err := env.store.CreateVM(context.Background(), env.vmSubmission())
	require.NoError(t, err)
	require.True(t, created.OverrideApplied)

	// Scans completed, but the user keeps the waiting status selected: the
	// machine stays waiting.
	p := env.vmSubmission()
	p.VmstatusID = env.statusWaitingID
	p.AcasScanCompleted = true
	p.ScapScanCompleted = true
	p.Version = created.Version

	res, err := env.store.UpdateVM(context.Background(), created.ID, p)
	require.NoError(t, err)
	assert.False(t, res.OverrideApplied)
	assert.Equal(t, env.statusWaitingID, res.VmstatusID)

	// Choosing the ready status with both scans done moves it forward.
	p.VmstatusID = env.statusReadyID
	p.Version = res.Version
	res, err = env.store.UpdateVM(context.Background(), created.ID, p)
	require.NoError(t, err)
	assert.False(t, res.OverrideApplied)
	assert.Equal(t, env.statusReadyID, res.VmstatusID)
}

func TestUpdateVMGuardReappliesOnEverySave(t *testing.T) {
	env := setupTestEnv(t)

	created, err := env.store.CreateVM(context.Background(), env.vmSubmission())
	require.NoError(t, err)

	// Choosing ready again with scans still incomplete is overridden again.
	p := env.vmSubmission()
	p.Version = created.Version
	res, err := env.store.UpdateVM(context.Background(), created.ID, p)
	require.NoError(t, err)
	assert.True(t, res.OverrideApplied)
	assert.Equal(t, env.statusWaitingID, res.VmstatusID)
}

func TestUpdateVMStaleVersionConflicts(t *testing.T) {
	env := setupTestEnv(t)

	created, err := env.store.CreateVM(context.Background(), env.vmSubmission())
	require.NoError(t, err)

	p := env.vmSubmission()
	p.VmstatusID = env.statusTestingID
	p.Version = created.Version
	first, err := env.store.UpdateVM(context.Background(), created.ID, p)
	require.NoError(t, err)
	assert.Equal(t, created.Version+1, first.Version)

	// A second writer still holding the original version loses.
	stale := env.vmSubmission()
	stale.Version = created.Version
	_, err = env.store.UpdateVM(context.Background(), created.ID, stale)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// The row keeps the first writer's state.
	var row VmCreation
	require.NoError(t, env.db.First(&row, created.ID).Error)
	assert.Equal(t, env.statusTestingID, row.VmstatusID)
	assert.Equal(t, first.Version, row.Version)
	assert.Equal(t, int64(1), env.activityCount(t, activity.TypeVMUpdated))
}

func TestUpdateVMUnknownIDIsNotFound(t *testing.T) {
	env := setupTestEnv(t)

	p := env.vmSubmission()
	p.Version = 1
	_, err := env.store.UpdateVM(context.Background(), 9999, p)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateVMRequiresImageCollection(t *testing.T) {
	env := setupTestEnv(t)

	p := env.vmSubmission()
	p.ImgcollectionID = 9999
	_, err := env.store.CreateVM(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, apperr.KindReferentialIntegrity, apperr.KindOf(err))
}
