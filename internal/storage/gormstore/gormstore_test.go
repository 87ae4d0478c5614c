package gormstore_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/replay"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/snapshot"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage/gormstore"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func testTick(frame int) storage.Tick {
	return storage.Tick{
		Frame: frame,
		Total: 100,
		Time:  float64(frame) / 30.0,
		Objects: []snapshot.Object{
			{Actor: 1, Position: replay.Vector3{X: float64(frame)}},
		},
	}
}

func TestInitMigratesSchema(t *testing.T) {
	db := testDB(t)
	b := gormstore.New(gormstore.Dependencies{DB: db})

	require.NoError(t, b.Init())

	assert.True(t, db.Migrator().HasTable(&gormstore.Session{}))
	assert.True(t, db.Migrator().HasTable(&gormstore.Snapshot{}))
}

func TestInitWithoutDBFails(t *testing.T) {
	b := gormstore.New(gormstore.Dependencies{})
	require.Error(t, b.Init())
}

func TestSessionLifecycle(t *testing.T) {
	db := testDB(t)
	b := gormstore.New(gormstore.Dependencies{DB: db})
	require.NoError(t, b.Init())

	meta := storage.ReplayMeta{
		Source:      "match.json",
		TotalFrames: 100,
		LoadedAt:    time.Now(),
	}
	require.NoError(t, b.StartReplay(meta))

	for i := 0; i < 5; i++ {
		require.NoError(t, b.RecordSnapshot(testTick(i)))
	}
	require.NoError(t, b.EndReplay())
	require.NoError(t, b.Close())

	var sessions []gormstore.Session
	require.NoError(t, db.Find(&sessions).Error)
	require.Len(t, sessions, 1)
	assert.Equal(t, "match.json", sessions[0].Source)
	assert.Equal(t, 100, sessions[0].TotalFrames)
	require.NotNil(t, sessions[0].EndedAt)

	var count int64
	require.NoError(t, db.Model(&gormstore.Snapshot{}).
		Where("session_id = ?", sessions[0].ID).Count(&count).Error)
	assert.Equal(t, int64(5), count)
}

func TestSnapshotObjectsRoundTrip(t *testing.T) {
	db := testDB(t)
	b := gormstore.New(gormstore.Dependencies{DB: db})
	require.NoError(t, b.Init())

	require.NoError(t, b.StartReplay(storage.ReplayMeta{Source: "m.json", LoadedAt: time.Now()}))
	require.NoError(t, b.RecordSnapshot(testTick(7)))
	require.NoError(t, b.EndReplay())

	var row gormstore.Snapshot
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, 7, row.Frame)

	var objects []snapshot.Object
	require.NoError(t, json.Unmarshal(row.Objects, &objects))
	require.Len(t, objects, 1)
	assert.Equal(t, 7.0, objects[0].Position.X)
}

func TestRecordBeforeStartFails(t *testing.T) {
	b := gormstore.New(gormstore.Dependencies{DB: testDB(t)})
	require.NoError(t, b.Init())

	require.Error(t, b.RecordSnapshot(testTick(0)))
}
