package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"voyager.com/ofc/model"
)

var redisLogger = log.With().Str("logger_name", "store::redis").Logger()

// RedisStore keeps each table document in redis and commits transactions with
// WATCH/MULTI/EXEC. Commits are announced through a Notifier so every engine
// process sharing the redis database sees them.
type RedisStore struct {
	rdclient    *redis.Client
	notifier    Notifier
	maxAttempts int
	hub         *hub

	listenersLock sync.Mutex
	listeners     map[string]*redisListener
}

type redisListener struct {
	cancel func()
	refs   int
}

func NewRedisStore(redisAddr string, redisPW string, redisDB int, notifier Notifier) *RedisStore {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPW,
		DB:       redisDB,
	})
	return NewRedisStoreWithClient(rdclient, notifier)
}

func NewRedisStoreWithClient(rdclient *redis.Client, notifier Notifier) *RedisStore {
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	return &RedisStore{
		rdclient:    rdclient,
		notifier:    notifier,
		maxAttempts: DefaultMaxTxAttempts,
		hub:         newHub(),
		listeners:   make(map[string]*redisListener),
	}
}

func docKey(tableID string) string {
	return fmt.Sprintf("ofc:table:%s", tableID)
}

// The version key outlives the document so a re-created table keeps
// counting upward.
func versionKey(tableID string) string {
	return fmt.Sprintf("ofc:table:%s:version", tableID)
}

// Ping checks the connection to the redis server.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdclient.Ping(ctx).Err()
}

// mgetter is satisfied by both *redis.Client and *redis.Tx.
type mgetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func (r *RedisStore) load(ctx context.Context, getter mgetter, tableID string) ([]byte, uint64, error) {
	vals, err := getter.MGet(ctx, docKey(tableID), versionKey(tableID)).Result()
	if err != nil {
		return nil, 0, errors.Wrapf(err, "Unable to load table %s", tableID)
	}
	var version uint64
	if s, ok := vals[1].(string); ok {
		version, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "Invalid version for table %s", tableID)
		}
	}
	s, ok := vals[0].(string)
	if !ok {
		return nil, version, nil
	}
	return []byte(s), version, nil
}

func (r *RedisStore) Create(ctx context.Context, tableID string, doc *model.Table) error {
	existed := false
	_, err := r.Transact(ctx, tableID, func(current *model.Table) *model.Table {
		existed = current != nil
		if existed {
			return nil
		}
		return doc
	})
	if err != nil {
		return err
	}
	if existed {
		return ErrTableExists
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, tableID string) (*model.Table, error) {
	data, _, err := r.load(ctx, r.rdclient, tableID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrTableNotFound
	}
	return model.Decode(data)
}

func (r *RedisStore) Transact(ctx context.Context, tableID string, fn TxFunc) (TxResult, error) {
	dk, vk := docKey(tableID), versionKey(tableID)

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		var next *model.Table
		var encoded []byte
		var version uint64

		txf := func(tx *redis.Tx) error {
			data, readVersion, err := r.load(ctx, tx, tableID)
			if err != nil {
				return err
			}
			var current *model.Table
			if data != nil {
				current, err = model.Decode(data)
				if err != nil {
					return err
				}
			}
			next = fn(current)
			if next == nil {
				return nil
			}
			encoded, err = model.Encode(next)
			if err != nil {
				return err
			}
			version = readVersion + 1
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, dk, encoded, 0)
				pipe.Set(ctx, vk, version, 0)
				return nil
			})
			return err
		}

		err := r.rdclient.Watch(ctx, txf, dk, vk)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return TxResult{Attempts: attempt}, errors.Wrapf(err, "Transaction on table %s failed", tableID)
		}
		if next == nil {
			return TxResult{Attempts: attempt}, nil
		}

		r.announce(tableID, version, encoded)
		return TxResult{
			Committed: true,
			Attempts:  attempt,
			Version:   version,
			Table:     next.Clone(),
		}, nil
	}
	return TxResult{Attempts: r.maxAttempts}, ErrTooManyConflicts
}

func (r *RedisStore) announce(tableID string, version uint64, doc []byte) {
	err := r.notifier.Publish(tableID, version, doc)
	if err != nil {
		redisLogger.Error().Str("table", tableID).Msgf("Failed to announce version %d: %v", version, err)
		// local subscribers still learn about the commit
		r.hub.publish(tableID, version, doc)
	}
}

func (r *RedisStore) Subscribe(tableID string, path string, fn ChangeFunc) (Subscription, error) {
	if err := r.retain(tableID); err != nil {
		return nil, err
	}
	return r.hub.subscribe(tableID, path, fn, func() { r.release(tableID) }), nil
}

// retain makes sure this process listens to the table's announcements and
// has seen its current version.
func (r *RedisStore) retain(tableID string) error {
	r.listenersLock.Lock()
	defer r.listenersLock.Unlock()

	if l, ok := r.listeners[tableID]; ok {
		l.refs++
		return nil
	}
	cancel, err := r.notifier.Listen(tableID, func(version uint64, doc []byte) {
		r.hub.publish(tableID, version, doc)
	})
	if err != nil {
		return errors.Wrapf(err, "Unable to listen to table %s", tableID)
	}
	r.listeners[tableID] = &redisListener{cancel: cancel, refs: 1}

	data, version, err := r.load(context.Background(), r.rdclient, tableID)
	if err != nil {
		return err
	}
	if data != nil {
		r.hub.publish(tableID, version, data)
	}
	return nil
}

func (r *RedisStore) release(tableID string) {
	r.listenersLock.Lock()
	defer r.listenersLock.Unlock()

	l, ok := r.listeners[tableID]
	if !ok {
		return
	}
	l.refs--
	if l.refs == 0 {
		l.cancel()
		delete(r.listeners, tableID)
	}
}

func (r *RedisStore) Delete(ctx context.Context, tableID string) error {
	dk, vk := docKey(tableID), versionKey(tableID)
	var version uint64
	found := false
	err := r.rdclient.Watch(ctx, func(tx *redis.Tx) error {
		data, readVersion, err := r.load(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if data == nil {
			return nil
		}
		found = true
		version = readVersion + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, dk)
			pipe.Set(ctx, vk, version, 0)
			return nil
		})
		return err
	}, dk, vk)
	if err != nil {
		return errors.Wrapf(err, "Unable to delete table %s", tableID)
	}
	if !found {
		return ErrTableNotFound
	}
	r.announce(tableID, version, nil)
	return nil
}

func (r *RedisStore) Close() error {
	r.listenersLock.Lock()
	for id, l := range r.listeners {
		l.cancel()
		delete(r.listeners, id)
	}
	r.listenersLock.Unlock()
	r.hub.close()
	return r.rdclient.Close()
}
