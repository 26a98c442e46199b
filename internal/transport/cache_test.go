package transport

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"
)

type fakeDoer struct {
	calls    int
	response map[string]any
	err      error
}

func (f *fakeDoer) Send(_ context.Context, _ map[string]any) (map[string]any, error) {
	f.calls++
	return f.response, f.err
}

func TestCacheSend_Hit(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	cached, _ := json.Marshal(map[string]any{"total_hits": 5})
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "GET" && strings.HasPrefix(cmd[1], "loupe:query:")
		})).
		Return(mock.Result(mock.RedisString(string(cached))))

	next := &fakeDoer{}
	cache := newCacheWithClient(next, c, CacheConfig{}, nil)

	out, err := cache.Send(context.Background(), map[string]any{"q": "shoes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["total_hits"] != float64(5) {
		t.Errorf("total_hits = %v", out["total_hits"])
	}
	if next.calls != 0 {
		t.Errorf("wrapped transport called %d times on a hit", next.calls)
	}
}

func TestCacheSend_MissStoresResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "GET"
		})).
		Return(mock.Result(mock.RedisNil()))
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET" && cmd[4] == "30"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	next := &fakeDoer{response: map[string]any{"total_hits": float64(2)}}
	cache := newCacheWithClient(next, c, CacheConfig{TTL: 30 * time.Second}, nil)

	out, err := cache.Send(context.Background(), map[string]any{"q": "shoes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["total_hits"] != float64(2) {
		t.Errorf("total_hits = %v", out["total_hits"])
	}
	if next.calls != 1 {
		t.Errorf("wrapped transport called %d times", next.calls)
	}
}

func TestCacheSend_ReadFailureDegradesToPassThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "GET"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	next := &fakeDoer{response: map[string]any{"total_hits": float64(1)}}
	cache := newCacheWithClient(next, c, CacheConfig{}, nil)

	out, err := cache.Send(context.Background(), map[string]any{"q": "shoes"})
	if err != nil {
		t.Fatalf("cache failure must not fail the query: %v", err)
	}
	if out["total_hits"] != float64(1) {
		t.Errorf("total_hits = %v", out["total_hits"])
	}
}

func TestCacheSend_CorruptEntryRefetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "GET"
		})).
		Return(mock.Result(mock.RedisString("not json")))
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	next := &fakeDoer{response: map[string]any{"total_hits": float64(9)}}
	cache := newCacheWithClient(next, c, CacheConfig{}, nil)

	out, err := cache.Send(context.Background(), map[string]any{"q": "shoes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["total_hits"] != float64(9) {
		t.Errorf("total_hits = %v", out["total_hits"])
	}
	if next.calls != 1 {
		t.Errorf("wrapped transport called %d times", next.calls)
	}
}

func TestCacheSend_TransportErrorNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "GET"
		})).
		Return(mock.Result(mock.RedisNil()))

	next := &fakeDoer{err: errors.New("engine down")}
	cache := newCacheWithClient(next, c, CacheConfig{}, nil)

	_, err := cache.Send(context.Background(), map[string]any{"q": "shoes"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "engine down") {
		t.Errorf("error = %q", err)
	}
}

func TestCacheSend_WriteFailureIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "GET"
		})).
		Return(mock.Result(mock.RedisNil()))
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	next := &fakeDoer{response: map[string]any{"total_hits": float64(4)}}
	cache := newCacheWithClient(next, c, CacheConfig{}, nil)

	out, err := cache.Send(context.Background(), map[string]any{"q": "shoes"})
	if err != nil {
		t.Fatalf("cache write failure must not fail the query: %v", err)
	}
	if out["total_hits"] != float64(4) {
		t.Errorf("total_hits = %v", out["total_hits"])
	}
}

func TestCacheKey_EqualQueriesShareKey(t *testing.T) {
	cache := newCacheWithClient(&fakeDoer{}, nil, CacheConfig{KeyPrefix: "p:"}, nil)

	a, err := cache.key(map[string]any{"q": "shoes", "page": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := cache.key(map[string]any{"page": 1, "q": "shoes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("equal queries hashed differently: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "p:query:") {
		t.Errorf("key = %q", a)
	}
}
