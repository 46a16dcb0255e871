package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yamacamp/backend/internal/middleware"
	"github.com/yamacamp/backend/internal/models"
	"github.com/yamacamp/backend/internal/repositories"
	"github.com/yamacamp/backend/internal/services"
	"go.uber.org/zap"
)

// mockCampgroundService is a mock implementation of CampgroundService
type mockCampgroundService struct {
	listResult  []models.Campground
	listErr     error
	getResult   *models.Campground
	getErr      error
	ownerResult *models.Campground
	ownerErr    error
	createErr   error
	updateErr   error
	deleteErr   error

	created         *models.Campground
	createdUploads  []services.Upload
	updated         *models.Campground
	updatedUploads  []services.Upload
	deleteFilenames []string
	deleted         *models.Campground
}

func (m *mockCampgroundService) List(ctx context.Context) ([]models.Campground, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.listResult, nil
}

func (m *mockCampgroundService) Get(ctx context.Context, id int) (*models.Campground, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.getResult, nil
}

func (m *mockCampgroundService) GetForOwner(ctx context.Context, id int) (*models.Campground, error) {
	if m.ownerErr != nil {
		return nil, m.ownerErr
	}
	return m.ownerResult, nil
}

func (m *mockCampgroundService) Create(ctx context.Context, campground *models.Campground, uploads []services.Upload) error {
	if m.createErr != nil {
		return m.createErr
	}
	campground.ID = 9
	m.created = campground
	m.createdUploads = uploads
	return nil
}

func (m *mockCampgroundService) Update(ctx context.Context, campground *models.Campground, uploads []services.Upload, deleteFilenames []string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = campground
	m.updatedUploads = uploads
	m.deleteFilenames = deleteFilenames
	return nil
}

func (m *mockCampgroundService) Delete(ctx context.Context, campground *models.Campground) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = campground
	return nil
}

func setupCampgroundHandlerTest(t *testing.T, svc *mockCampgroundService) *handlerEnv {
	t.Helper()

	env := setupHandlerTest(t)
	handler := NewCampgroundHandler(svc, env.renderer, zap.NewNop())
	handler.RegisterRoutes(env.router)
	return env
}

func validCampgroundForm() url.Values {
	return url.Values{
		"campground[title]":       {"森のキャンプ場"},
		"campground[price]":       {"2500"},
		"campground[description]": {"静かな森の中にあります。"},
		"campground[location]":    {"長野県"},
		"campground[latitude]":    {"36.2"},
		"campground[longitude]":   {"137.9"},
	}
}

func TestCampgroundHandler_Index(t *testing.T) {
	t.Run("lists campgrounds", func(t *testing.T) {
		svc := &mockCampgroundService{listResult: []models.Campground{
			{ID: 1, Title: "森のキャンプ場", Location: "長野県"},
			{ID: 2, Title: "湖畔キャンプ場", Location: "山梨県"},
		}}
		env := setupCampgroundHandlerTest(t, svc)

		rec := env.serve(httptest.NewRequest(http.MethodGet, "/campgrounds", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "森のキャンプ場")
		assert.Contains(t, rec.Body.String(), "湖畔キャンプ場")
	})

	t.Run("empty listing", func(t *testing.T) {
		env := setupCampgroundHandlerTest(t, &mockCampgroundService{})

		rec := env.serve(httptest.NewRequest(http.MethodGet, "/campgrounds", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "キャンプ場はまだ登録されていません")
	})

	t.Run("listing failure renders the error page", func(t *testing.T) {
		env := setupCampgroundHandlerTest(t, &mockCampgroundService{listErr: errors.New("database connection error")})

		rec := env.serve(httptest.NewRequest(http.MethodGet, "/campgrounds", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestCampgroundHandler_Show(t *testing.T) {
	t.Run("renders the campground with its author", func(t *testing.T) {
		svc := &mockCampgroundService{getResult: &models.Campground{
			ID:       1,
			Title:    "森のキャンプ場",
			Price:    2500,
			Location: "長野県",
			AuthorID: 7,
			Author:   &models.User{ID: 7, Username: "tanaka"},
		}}
		env := setupCampgroundHandlerTest(t, svc)

		rec := env.serve(httptest.NewRequest(http.MethodGet, "/campgrounds/1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "森のキャンプ場")
		assert.Contains(t, rec.Body.String(), "tanaka")
	})

	t.Run("unknown campground redirects to the listing", func(t *testing.T) {
		svc := &mockCampgroundService{getErr: repositories.ErrNotFound}
		env := setupCampgroundHandlerTest(t, svc)

		rec := env.serve(httptest.NewRequest(http.MethodGet, "/campgrounds/99", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/campgrounds", rec.Header().Get("Location"))

		sess := env.sessionAfter(t, rec, nil)
		assert.Contains(t, sess.Flashes[models.FlashError], "キャンプ場は見つかりませんでした")
	})

	t.Run("malformed id redirects to the listing", func(t *testing.T) {
		env := setupCampgroundHandlerTest(t, &mockCampgroundService{})

		rec := env.serve(httptest.NewRequest(http.MethodGet, "/campgrounds/abc", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/campgrounds", rec.Header().Get("Location"))
	})
}

func TestCampgroundHandler_New_RequiresLogin(t *testing.T) {
	env := setupCampgroundHandlerTest(t, &mockCampgroundService{})

	rec := env.serve(httptest.NewRequest(http.MethodGet, "/campgrounds/new", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// The guarded URL is remembered so login can resume it
	sess := env.sessionAfter(t, rec, nil)
	assert.Equal(t, "/campgrounds/new", sess.ReturnTo)
	assert.Contains(t, sess.Flashes[models.FlashError], "ログインしてください")
}

func TestCampgroundHandler_New(t *testing.T) {
	env := setupCampgroundHandlerTest(t, &mockCampgroundService{})
	cookie := env.loginAs(models.User{ID: 7, Username: "tanaka"})

	req := httptest.NewRequest(http.MethodGet, "/campgrounds/new", nil)
	req.AddCookie(cookie)
	rec := env.serve(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "キャンプ場の新規登録")
}

func TestCampgroundHandler_Create(t *testing.T) {
	t.Run("valid form creates and redirects to the new page", func(t *testing.T) {
		svc := &mockCampgroundService{}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 7, Username: "tanaka"})

		req := postForm("/campgrounds", validCampgroundForm())
		req.AddCookie(cookie)
		rec := env.serve(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/campgrounds/9", rec.Header().Get("Location"))

		require.NotNil(t, svc.created)
		assert.Equal(t, "森のキャンプ場", svc.created.Title)
		assert.Equal(t, 2500.0, svc.created.Price)
		assert.Equal(t, 7, svc.created.AuthorID)
		assert.Empty(t, svc.createdUploads)

		sess := env.sessionAfter(t, rec, cookie)
		assert.Contains(t, sess.Flashes[models.FlashSuccess], "新しいキャンプ場を登録しました")
	})

	t.Run("multipart form passes the uploads through", func(t *testing.T) {
		svc := &mockCampgroundService{}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 7, Username: "tanaka"})

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		for key, values := range validCampgroundForm() {
			require.NoError(t, writer.WriteField(key, values[0]))
		}
		part, err := writer.CreateFormFile("images", "photo.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte("image bytes"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/campgrounds", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.AddCookie(cookie)
		rec := env.serve(req)

		assert.Equal(t, http.StatusFound, rec.Code)

		require.Len(t, svc.createdUploads, 1)
		assert.Equal(t, "photo.jpg", svc.createdUploads[0].Filename)
		content, err := io.ReadAll(svc.createdUploads[0].Reader)
		require.NoError(t, err)
		assert.Equal(t, "image bytes", string(content))
	})

	t.Run("invalid form re-renders with violations", func(t *testing.T) {
		svc := &mockCampgroundService{}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 7, Username: "tanaka"})

		form := validCampgroundForm()
		form.Set("campground[title]", "")
		form.Set("campground[price]", "-100")

		req := postForm("/campgrounds", form)
		req.AddCookie(cookie)
		rec := env.serve(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `class="violations"`)
		assert.Nil(t, svc.created)
	})

	t.Run("anonymous create is rejected before the service", func(t *testing.T) {
		svc := &mockCampgroundService{}
		env := setupCampgroundHandlerTest(t, svc)

		rec := env.serve(postForm("/campgrounds", validCampgroundForm()))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Nil(t, svc.created)
	})
}

func TestCampgroundHandler_Edit(t *testing.T) {
	owned := &models.Campground{ID: 3, Title: "森のキャンプ場", Price: 2500, Location: "長野県", AuthorID: 7}

	t.Run("owner gets the pre-filled form", func(t *testing.T) {
		svc := &mockCampgroundService{ownerResult: owned}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 7, Username: "tanaka"})

		req := httptest.NewRequest(http.MethodGet, "/campgrounds/3/edit", nil)
		req.AddCookie(cookie)
		rec := env.serve(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "キャンプ場の編集")
		assert.Contains(t, rec.Body.String(), "森のキャンプ場")
	})

	t.Run("non-owner is turned away", func(t *testing.T) {
		svc := &mockCampgroundService{ownerResult: owned}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 8, Username: "suzuki"})

		req := httptest.NewRequest(http.MethodGet, "/campgrounds/3/edit", nil)
		req.AddCookie(cookie)
		rec := env.serve(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/campgrounds/3", rec.Header().Get("Location"))

		sess := env.sessionAfter(t, rec, cookie)
		assert.Contains(t, sess.Flashes[models.FlashError], "その操作を行う権限がありません")
	})
}

func TestCampgroundHandler_Update(t *testing.T) {
	owned := &models.Campground{ID: 3, Title: "森のキャンプ場", Price: 2500, Location: "長野県", AuthorID: 7}

	t.Run("owner updates and keeps authorship", func(t *testing.T) {
		svc := &mockCampgroundService{ownerResult: owned}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 7, Username: "tanaka"})

		form := validCampgroundForm()
		form.Set("campground[title]", "改装済みキャンプ場")
		form["deleteImages[]"] = []string{"old-a.jpg", "old-b.jpg"}

		req := httptest.NewRequest(http.MethodPut, "/campgrounds/3", bytes.NewReader([]byte(form.Encode())))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		rec := env.serve(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/campgrounds/3", rec.Header().Get("Location"))

		require.NotNil(t, svc.updated)
		assert.Equal(t, 3, svc.updated.ID)
		assert.Equal(t, 7, svc.updated.AuthorID)
		assert.Equal(t, "改装済みキャンプ場", svc.updated.Title)
		assert.Equal(t, []string{"old-a.jpg", "old-b.jpg"}, svc.deleteFilenames)

		sess := env.sessionAfter(t, rec, cookie)
		assert.Contains(t, sess.Flashes[models.FlashSuccess], "キャンプ場を更新しました")
	})

	t.Run("unknown campground redirects to the listing", func(t *testing.T) {
		svc := &mockCampgroundService{ownerErr: repositories.ErrNotFound}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 7, Username: "tanaka"})

		req := httptest.NewRequest(http.MethodPut, "/campgrounds/99", bytes.NewReader([]byte(validCampgroundForm().Encode())))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		rec := env.serve(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/campgrounds", rec.Header().Get("Location"))
		assert.Nil(t, svc.updated)
	})

	t.Run("invalid form re-renders the edit page", func(t *testing.T) {
		svc := &mockCampgroundService{ownerResult: owned}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 7, Username: "tanaka"})

		form := validCampgroundForm()
		form.Set("campground[price]", "abc")

		req := httptest.NewRequest(http.MethodPut, "/campgrounds/3", bytes.NewReader([]byte(form.Encode())))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		rec := env.serve(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `class="violations"`)
		assert.Nil(t, svc.updated)
	})
}

// TestCampgroundHandler_BrowserFormSubmissions drives update and delete the
// way the rendered forms submit them: a POST with the method override, not a
// native PUT/DELETE.
func TestCampgroundHandler_BrowserFormSubmissions(t *testing.T) {
	owned := &models.Campground{ID: 3, Title: "森のキャンプ場", Price: 2500, Location: "長野県", AuthorID: 7}

	t.Run("edit form multipart POST with query override reaches Update", func(t *testing.T) {
		svc := &mockCampgroundService{ownerResult: owned}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 7, Username: "tanaka"})

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		for key, values := range validCampgroundForm() {
			require.NoError(t, writer.WriteField(key, values[0]))
		}
		require.NoError(t, writer.WriteField("deleteImages[]", "old-a.jpg"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/campgrounds/3?_method=PUT", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.AddCookie(cookie)

		rec := httptest.NewRecorder()
		middleware.MethodOverrideMiddleware(env.router).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/campgrounds/3", rec.Header().Get("Location"))
		require.NotNil(t, svc.updated)
		assert.Equal(t, 3, svc.updated.ID)
		assert.Equal(t, []string{"old-a.jpg"}, svc.deleteFilenames)
	})

	t.Run("delete form POST with body override reaches Delete", func(t *testing.T) {
		svc := &mockCampgroundService{ownerResult: owned}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 7, Username: "tanaka"})

		req := postForm("/campgrounds/3", url.Values{"_method": {"DELETE"}})
		req.AddCookie(cookie)

		rec := httptest.NewRecorder()
		middleware.MethodOverrideMiddleware(env.router).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/campgrounds", rec.Header().Get("Location"))
		require.NotNil(t, svc.deleted)
		assert.Equal(t, 3, svc.deleted.ID)
	})
}

func TestCampgroundHandler_Delete(t *testing.T) {
	owned := &models.Campground{ID: 3, Title: "森のキャンプ場", AuthorID: 7}

	t.Run("owner deletes and returns to the listing", func(t *testing.T) {
		svc := &mockCampgroundService{ownerResult: owned}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 7, Username: "tanaka"})

		req := httptest.NewRequest(http.MethodDelete, "/campgrounds/3", nil)
		req.AddCookie(cookie)
		rec := env.serve(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/campgrounds", rec.Header().Get("Location"))

		require.NotNil(t, svc.deleted)
		assert.Equal(t, 3, svc.deleted.ID)

		sess := env.sessionAfter(t, rec, cookie)
		assert.Contains(t, sess.Flashes[models.FlashSuccess], "キャンプ場を削除しました")
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		svc := &mockCampgroundService{ownerResult: owned}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 8, Username: "suzuki"})

		req := httptest.NewRequest(http.MethodDelete, "/campgrounds/3", nil)
		req.AddCookie(cookie)
		rec := env.serve(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/campgrounds/3", rec.Header().Get("Location"))
		assert.Nil(t, svc.deleted)
	})

	t.Run("row vanished between load and delete", func(t *testing.T) {
		svc := &mockCampgroundService{ownerResult: owned, deleteErr: repositories.ErrNotFound}
		env := setupCampgroundHandlerTest(t, svc)
		cookie := env.loginAs(models.User{ID: 7, Username: "tanaka"})

		req := httptest.NewRequest(http.MethodDelete, "/campgrounds/3", nil)
		req.AddCookie(cookie)
		rec := env.serve(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/campgrounds", rec.Header().Get("Location"))

		sess := env.sessionAfter(t, rec, cookie)
		assert.Contains(t, sess.Flashes[models.FlashError], "キャンプ場は見つかりませんでした")
	})
}
