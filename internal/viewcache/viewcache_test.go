package viewcache

import (
	"testing"
	"time"
)

func TestCache_SetGet_PerUser(t *testing.T) {
	c := New(time.Minute)
	c.Set("u1", "/dashboard/admin", []byte(`{"page":"a"}`))

	got, ok := c.Get("u1", "/dashboard/admin")
	if !ok || string(got) != `{"page":"a"}` {
		t.Errorf("Get() = %q, %v", got, ok)
	}
	if _, ok := c.Get("u2", "/dashboard/admin"); ok {
		t.Error("別ユーザーのキャッシュが返された")
	}
}

func TestCache_Expires(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Set("u1", "/dashboard", []byte("x"))
	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get("u1", "/dashboard"); ok {
		t.Error("期限切れのエントリが返された")
	}
}

func TestCache_ZeroTTLDisables(t *testing.T) {
	c := New(0)
	c.Set("u1", "/dashboard", []byte("x"))
	if _, ok := c.Get("u1", "/dashboard"); ok {
		t.Error("TTL 0でキャッシュされた")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCache_InvalidatePrefix_AllUsers(t *testing.T) {
	c := New(time.Minute)
	c.Set("u1", "/dashboard/trainer/workout-plans", []byte("1"))
	c.Set("u2", "/dashboard/trainer/workout-plans", []byte("2"))
	c.Set("u1", "/dashboard/trainer/workout-plans/p1", []byte("3"))
	c.Set("u1", "/dashboard/trainer/diet-plans", []byte("4"))
	c.Set("u3", "/dashboard/client/workout-plans", []byte("5"))

	c.Invalidate("/dashboard/trainer/workout-plans", "/dashboard/client/workout-plans")

	for _, tt := range []struct{ user, path string }{
		{"u1", "/dashboard/trainer/workout-plans"},
		{"u2", "/dashboard/trainer/workout-plans"},
		{"u1", "/dashboard/trainer/workout-plans/p1"},
		{"u3", "/dashboard/client/workout-plans"},
	} {
		if _, ok := c.Get(tt.user, tt.path); ok {
			t.Errorf("%s %s should be invalidated", tt.user, tt.path)
		}
	}
	if _, ok := c.Get("u1", "/dashboard/trainer/diet-plans"); !ok {
		t.Error("関係のないページまで削除された")
	}
}

func TestCache_InvalidateRespectsSegments(t *testing.T) {
	c := New(time.Minute)
	c.Set("u1", "/dashboard/admin", []byte("1"))
	c.Set("u1", "/dashboard/administrator", []byte("2"))

	c.Invalidate("/dashboard/admin")

	if _, ok := c.Get("u1", "/dashboard/admin"); ok {
		t.Error("/dashboard/admin should be invalidated")
	}
	if _, ok := c.Get("u1", "/dashboard/administrator"); !ok {
		t.Error("/dashboard/administrator should survive")
	}
}

func TestCache_SetIfCurrent_SkipsAfterInvalidate(t *testing.T) {
	c := New(time.Minute)
	gen := c.Generation()

	// 読み込み中に別リクエストの更新が無効化した
	c.Invalidate("/dashboard/client")

	if c.SetIfCurrent("u1", "/dashboard/client", []byte(`{"latest_weight":80}`), gen) {
		t.Error("SetIfCurrent() = true after invalidation")
	}
	if _, ok := c.Get("u1", "/dashboard/client"); ok {
		t.Error("stale body was cached")
	}

	if !c.SetIfCurrent("u1", "/dashboard/client", []byte(`{"latest_weight":79}`), c.Generation()) {
		t.Error("SetIfCurrent() = false with current generation")
	}
	if got, ok := c.Get("u1", "/dashboard/client"); !ok || string(got) != `{"latest_weight":79}` {
		t.Errorf("Get() = %q, %v", got, ok)
	}
}

func TestCache_InvalidateAdvancesGeneration(t *testing.T) {
	c := New(time.Minute)
	before := c.Generation()
	c.Invalidate("/dashboard/admin/members")
	if c.Generation() == before {
		t.Error("Generation() did not advance")
	}
}
