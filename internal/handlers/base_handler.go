package handlers

import (
	"net/http"

	"github.com/yamacamp/backend/internal/render"
	"github.com/yamacamp/backend/internal/session"
	"go.uber.org/zap"
)

// User-facing flash messages
const (
	msgLoginRequired   = "ログインしてください"
	msgNotAuthorized   = "その操作を行う権限がありません"
	msgServerError     = "問題が発生しました"
	msgCampgroundGone  = "キャンプ場は見つかりませんでした"
	msgReviewGone      = "レビューは見つかりませんでした"
	msgBadCredentials  = "ユーザー名またはパスワードが間違っています"
	msgDuplicateUser   = "そのユーザー名またはメールアドレスは既に使われています"
	msgWelcome         = "YamaCamp へようこそ"
	msgWelcomeBack     = "おかえりなさい"
	msgLoggedOut       = "ログアウトしました"
	msgCampgroundMade  = "新しいキャンプ場を登録しました"
	msgCampgroundEdit  = "キャンプ場を更新しました"
	msgCampgroundGoneD = "キャンプ場を削除しました"
	msgReviewMade      = "レビューを登録しました"
	msgReviewDeleted   = "レビューを削除しました"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger   *zap.Logger
	Renderer *render.Renderer
}

// Redirect issues the single redirect a state-changing handler ends with
func (h *BaseHandler) Redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusFound)
}

// FlashRedirect sets one flash message and redirects
func (h *BaseHandler) FlashRedirect(w http.ResponseWriter, r *http.Request, category, message, url string) {
	if state := session.FromContext(r.Context()); state != nil {
		state.AddFlash(category, message)
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// ServerError funnels an unexpected failure to the error page
func (h *BaseHandler) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	h.Renderer.Error(w, r, http.StatusInternalServerError, msgServerError, nil)
}
