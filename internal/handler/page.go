package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/gymdesk/internal/access"
	"github.com/hitoshi/gymdesk/internal/model"
)

// AccessGuard はページとアクションごとのロール検証を行う。
type AccessGuard interface {
	RequireAny(r *http.Request) (*model.UserProfile, error)
	RequireAdmin(r *http.Request) (*model.UserProfile, error)
	RequireTrainer(r *http.Request) (*access.TrainerScope, error)
	RequireClient(r *http.Request) (*access.ClientScope, error)
}

// PageCache はレンダリング済みページをユーザーとパスの組で保持する。
// 世代番号は無効化のたびに進み、SetIfCurrentは世代が変わっていれば保存しない。
type PageCache interface {
	Get(userID, path string) ([]byte, bool)
	Generation() uint64
	SetIfCurrent(userID, path string, body []byte, gen uint64) bool
}

// pages はロール検証済みのページ描画を共通化する。
type pages struct {
	guard AccessGuard
	cache PageCache
}

// render はキャッシュがあればそれを返し、なければloadの結果をページとして返してキャッシュする。
// ロール検証は呼び出し元で済ませておくこと。キャッシュのヒットでもロール検証は省略しない。
// load中に更新による無効化があった場合、結果は返すがキャッシュには残さない。
func (p *pages) render(w http.ResponseWriter, r *http.Request, name string, user *model.UserProfile, load func() (any, error)) {
	if body, ok := p.cache.Get(user.ID, r.URL.Path); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Write(body)
		return
	}

	gen := p.cache.Generation()
	data, err := load()
	if err != nil {
		handlePageError(w, r, err)
		return
	}

	body, err := json.Marshal(pageDocument{Page: name, User: user, Data: data})
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	p.cache.SetIfCurrent(user.ID, r.URL.Path, body, gen)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.Write(body)
}
