package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Get_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	store := NewRedisStore(db)

	mock.ExpectGet("translations.export.locale.en.abc").SetVal(`{"a":"b"}`)

	val, ok, err := store.Get(context.Background(), "translations.export.locale.en.abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":"b"}`, string(val))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Get_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	store := NewRedisStore(db)

	mock.ExpectGet("missing").RedisNil()

	val, ok, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Get_Error(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	store := NewRedisStore(db)

	mock.ExpectGet("k").SetErr(errors.New("connection refused"))

	_, ok, err := store.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Put_IndexesGroups(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	store := NewRedisStore(db)

	mock.ExpectTxPipeline()
	mock.ExpectSAdd("cache:group:translations", "k").SetVal(1)
	mock.ExpectExpireNX("cache:group:translations", 5*time.Minute).SetVal(true)
	mock.ExpectExpireGT("cache:group:translations", 5*time.Minute).SetVal(false)
	mock.ExpectSAdd("cache:group:locale:en", "k").SetVal(1)
	mock.ExpectExpireNX("cache:group:locale:en", 5*time.Minute).SetVal(false)
	mock.ExpectExpireGT("cache:group:locale:en", 5*time.Minute).SetVal(true)
	mock.ExpectSet("k", "payload", 5*time.Minute).SetVal("OK")
	mock.ExpectTxPipelineExec()

	err := store.Put(context.Background(), "k", []byte("payload"), 5*time.Minute, GroupTranslations, LocaleGroup("en"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Put_NoExpiryPersistsGroup(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	store := NewRedisStore(db)

	mock.ExpectTxPipeline()
	mock.ExpectSAdd("cache:group:tags", "popular").SetVal(1)
	mock.ExpectPersist("cache:group:tags").SetVal(false)
	mock.ExpectSet("popular", "[]", 0).SetVal("OK")
	mock.ExpectTxPipelineExec()

	require.NoError(t, store.Put(context.Background(), "popular", []byte("[]"), 0, GroupTags))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Forget(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	store := NewRedisStore(db)

	mock.ExpectDel("a", "b").SetVal(1)

	require.NoError(t, store.Forget(context.Background(), "a", "b"))
	require.NoError(t, store.Forget(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_FlushGroup(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	store := NewRedisStore(db)

	mock.ExpectSMembers("cache:group:locale:en").SetVal([]string{"k1", "k2"})
	mock.ExpectTxPipeline()
	mock.ExpectDel("k1", "k2").SetVal(2)
	mock.ExpectSRem("cache:group:locale:en", "k1", "k2").SetVal(2)
	mock.ExpectTxPipelineExec()
	mock.ExpectSMembers("cache:group:tags").SetVal([]string{})

	require.NoError(t, store.FlushGroup(context.Background(), LocaleGroup("en"), GroupTags))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_FlushGroup_Error(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	store := NewRedisStore(db)

	mock.ExpectSMembers("cache:group:translations").SetErr(errors.New("timeout"))

	assert.Error(t, store.FlushGroup(context.Background(), GroupTranslations))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	store := NewRedisStore(db)

	mock.ExpectPing().SetVal("PONG")

	assert.NoError(t, store.Ping(context.Background()))
	assert.Equal(t, "redis", store.Driver())
	assert.NoError(t, mock.ExpectationsWereMet())
}
