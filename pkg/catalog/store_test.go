package catalog

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/critsec/iams/pkg/apperr"
)

func setupCatalog(t *testing.T) (*gorm.DB, *Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := NewStore(db)
	require.NoError(t, store.AutoMigrate())
	return db, store
}

func TestListSetOrdersByName(t *testing.T) {
	db, store := setupCatalog(t)

	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		require.NoError(t, db.Create(&Building{Name: name}).Error)
	}

	rows, err := store.ListSet("buildings")
	require.NoError(t, err)

	buildings := *rows.(*[]Building)
	require.Len(t, buildings, 3)
	assert.Equal(t, "Alpha", buildings[0].Name)
	assert.Equal(t, "Charlie", buildings[2].Name)
}

func TestListSetUnknownName(t *testing.T) {
	_, store := setupCatalog(t)

	_, err := store.ListSet("widgets")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestTypedGetterMissingRowIsReferentialIntegrity(t *testing.T) {
	_, store := setupCatalog(t)

	_, err := store.GetLogType(42)
	require.Error(t, err)
	assert.Equal(t, apperr.KindReferentialIntegrity, apperr.KindOf(err))
}

func TestGetVMStatusByNameMissingIsCatalogMissing(t *testing.T) {
	_, store := setupCatalog(t)

	_, err := store.GetVMStatusByName(VMStatusWaitingScans)
	require.Error(t, err)
	assert.Equal(t, apperr.KindCatalogMissing, apperr.KindOf(err))
}

func TestVMStatusNames(t *testing.T) {
	db, store := setupCatalog(t)

	ready := VMStatus{Name: VMStatusFullyReady}
	waiting := VMStatus{Name: VMStatusWaitingScans}
	require.NoError(t, db.Create(&ready).Error)
	require.NoError(t, db.Create(&waiting).Error)

	names, err := store.VMStatusNames()
	require.NoError(t, err)
	assert.Equal(t, VMStatusFullyReady, names[ready.ID])
	assert.Equal(t, VMStatusWaitingScans, names[waiting.ID])
}

func TestRequiresScans(t *testing.T) {
	assert.True(t, RequiresScans(VMStatusFullyReady))
	assert.False(t, RequiresScans(VMStatusWaitingScans))
	assert.False(t, RequiresScans(VMStatusCreatedReady), "created-ready does not promise full function")
	assert.False(t, RequiresScans(VMStatusTestingStartup))
	assert.False(t, RequiresScans("Non-Functional | Hardware Failure"))
}

func TestCommonLogTypeNamesOrder(t *testing.T) {
	names := CommonLogTypeNames()
	assert.Equal(t, []string{LogTypeApplication, LogTypeSecurity, LogTypeSystem}, names)
}
