package router

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/yatube/internal/cache"
	"github.com/anonto42/yatube/internal/dbtest"
	"github.com/anonto42/yatube/internal/handlers"
	"github.com/anonto42/yatube/internal/media"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/views"
	"github.com/anonto42/yatube/pkg/config"
	"github.com/anonto42/yatube/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-jwt-secret"

// recordingRenderer renders through the real templates and remembers the
// last page and its data.
type recordingRenderer struct {
	views *views.Renderer
	name  string
	data  interface{}
}

func (r *recordingRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	r.name, r.data = name, data
	return r.views.Render(w, name, data, c)
}

type testApp struct {
	e        *echo.Echo
	db       *gorm.DB
	renderer *recordingRenderer
	cache    *cache.MemoryStore
	auth     *middleware.Auth
}

func newTestApp(t *testing.T) *testApp {
	return newTestAppWithFirebase(t, nil)
}

func newTestAppWithFirebase(t *testing.T, verifier middleware.IDTokenVerifier) *testApp {
	t.Helper()
	db := dbtest.New(t)
	tmpl, err := views.NewRenderer()
	require.NoError(t, err)

	app := &testApp{
		e:        echo.New(),
		db:       db,
		renderer: &recordingRenderer{views: tmpl},
		cache:    cache.NewMemoryStore(cache.DefaultMaxEntries, time.Minute),
		auth:     middleware.NewAuth(nil, nil, testJWTSecret, nil),
	}
	app.e.Renderer = app.renderer
	app.e.Validator = validators.NewValidator()
	app.e.HTTPErrorHandler = handlers.ErrorHandler
	config.SetupMiddleware(app.e)

	require.NoError(t, SetupRoutes(app.e, Dependencies{
		Postgres:      db,
		Sessions:      middleware.NewSessionStore("test-session-secret", false),
		JWTSecret:     testJWTSecret,
		Firebase:      verifier,
		Cache:         app.cache,
		IndexCacheTTL: 20 * time.Second,
		Media:         media.NewDiskStore(t.TempDir()),
	}))
	return app
}

func (a *testApp) request(t *testing.T, req *http.Request, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		token, err := a.auth.IssueToken(user)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(t *testing.T, target string, user *models.User) *httptest.ResponseRecorder {
	return a.request(t, httptest.NewRequest(http.MethodGet, target, nil), user)
}

func (a *testApp) post(t *testing.T, target string, values url.Values, user *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return a.request(t, req, user)
}

func (a *testApp) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.Model(model).Count(&n).Error)
	return n
}

func (a *testApp) loadPost(t *testing.T, id uint) *models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, a.db.First(&post, id).Error)
	return &post
}

func TestPublicPagesRender(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	group := dbtest.Group(t, app.db, "Test group", "test-slug")
	post := dbtest.Post(t, app.db, author, group, "Test post", time.Now())

	pages := map[string]string{
		"/":                              "posts/index.html",
		"/group/test-slug/":              "posts/group_list.html",
		"/profile/auth/":                 "posts/profile.html",
		"/posts/" + idStr(post.ID) + "/": "posts/post_detail.html",
		"/auth/login/":                   "users/login.html",
		"/auth/signup/":                  "users/signup.html",
	}
	for target, tmpl := range pages {
		t.Run(target, func(t *testing.T) {
			rec := app.get(t, target, nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tmpl, app.renderer.name)
		})
	}
}

func TestPrivatePagesRender(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	post := dbtest.Post(t, app.db, author, nil, "Test post", time.Now())

	pages := map[string]string{
		"/create/":                            "posts/create_post.html",
		"/posts/" + idStr(post.ID) + "/edit/": "posts/create_post.html",
		"/follow/":                            "posts/follow.html",
	}
	for target, tmpl := range pages {
		t.Run(target, func(t *testing.T) {
			rec := app.get(t, target, author)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tmpl, app.renderer.name)
		})
	}
}

func TestGuestIsSentToLogin(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	post := dbtest.Post(t, app.db, author, nil, "Test post", time.Now())
	id := idStr(post.ID)

	tests := []struct {
		method, target string
	}{
		{http.MethodGet, "/create/"},
		{http.MethodPost, "/create/"},
		{http.MethodGet, "/posts/" + id + "/edit/"},
		{http.MethodPost, "/posts/" + id + "/comment/"},
		{http.MethodGet, "/follow/"},
		{http.MethodPost, "/profile/auth/follow/"},
		{http.MethodPost, "/profile/auth/unfollow/"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := app.request(t, httptest.NewRequest(tt.method, tt.target, nil), nil)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/auth/login/?next="+url.QueryEscape(tt.target), rec.Header().Get(echo.HeaderLocation))
		})
	}
	assert.EqualValues(t, 1, app.count(t, &models.Post{}))
	assert.Zero(t, app.count(t, &models.Comment{}))
}

func TestUnknownPageIsNotFound(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/unexisting_page/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "core/404.html", app.renderer.name)
	assert.Contains(t, rec.Body.String(), "/unexisting_page/")
}

func TestMissingObjectsAreNotFound(t *testing.T) {
	app := newTestApp(t)
	user := dbtest.User(t, app.db, "auth")

	for _, target := range []string{"/group/missing/", "/profile/nobody/", "/posts/999/", "/posts/abc/"} {
		t.Run(target, func(t *testing.T) {
			assert.Equal(t, http.StatusNotFound, app.get(t, target, nil).Code)
		})
	}
	assert.Equal(t, http.StatusNotFound, app.post(t, "/profile/nobody/follow/", nil, user).Code)
	assert.Equal(t, http.StatusNotFound, app.post(t, "/posts/999/comment/", url.Values{"text": {"hi"}}, user).Code)
}

func TestMissingTrailingSlashRedirects(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/group/test-slug", nil)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/group/test-slug/", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, http.StatusOK, app.get(t, "/health", nil).Code)
}

func TestPageContexts(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	group := dbtest.Group(t, app.db, "Test group", "test-slug")
	dbtest.Post(t, app.db, author, nil, "older", time.Now().Add(-time.Hour))
	post := dbtest.Post(t, app.db, author, group, "hello", time.Now())

	app.get(t, "/", nil)
	index := app.renderer.data.(handlers.IndexPage)
	require.Equal(t, 2, index.Page.Len())
	assert.Equal(t, "hello", index.Page.Items[0].Text)
	assert.Equal(t, "auth", index.Page.Items[0].Author.Username)

	app.get(t, "/group/test-slug/", nil)
	groupPage := app.renderer.data.(handlers.GroupPage)
	assert.Equal(t, "Test group", groupPage.Group.Title)
	require.Equal(t, 1, groupPage.Page.Len())
	assert.Equal(t, post.ID, groupPage.Page.Items[0].ID)

	app.get(t, "/profile/auth/", nil)
	profile := app.renderer.data.(handlers.ProfilePage)
	assert.Equal(t, "auth", profile.Author.Username)
	assert.EqualValues(t, 2, profile.PostTotal)
	assert.False(t, profile.Following)
	assert.False(t, profile.ShowFollow)

	app.get(t, "/posts/"+idStr(post.ID)+"/", nil)
	detail := app.renderer.data.(handlers.PostDetailPage)
	assert.Equal(t, "hello", detail.Post.Text)
	assert.EqualValues(t, 2, detail.CountPosts)
	assert.False(t, detail.CanEdit)
	assert.NotNil(t, detail.Form)

	app.get(t, "/posts/"+idStr(post.ID)+"/edit/", author)
	edit := app.renderer.data.(handlers.PostFormPage)
	assert.True(t, edit.IsEdit)
	assert.Equal(t, "hello", edit.Form.Text)
	assert.Equal(t, idStr(group.ID), edit.Form.Group)
	assert.Len(t, edit.Groups, 1)
}

func TestPostInGroupIsListedOnlyThere(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	group := dbtest.Group(t, app.db, "Test group", "test-slug")
	dbtest.Group(t, app.db, "Other group", "other-slug")
	dbtest.Post(t, app.db, author, group, "grouped", time.Now())

	app.get(t, "/group/other-slug/", nil)
	assert.Zero(t, app.renderer.data.(handlers.GroupPage).Page.Len())
	app.get(t, "/group/test-slug/", nil)
	assert.Equal(t, 1, app.renderer.data.(handlers.GroupPage).Page.Len())
}

func TestPaginator(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	group := dbtest.Group(t, app.db, "Test group", "test-slug")
	dbtest.Posts(t, app.db, author, group, 13)

	for _, base := range []string{"/", "/group/test-slug/", "/profile/auth/"} {
		t.Run(base, func(t *testing.T) {
			require.NoError(t, app.cache.Clear(context.Background()))
			app.get(t, base, nil)
			assert.Equal(t, 10, pageOf(app.renderer.data).Len())

			require.NoError(t, app.cache.Clear(context.Background()))
			app.get(t, base+"?page=2", nil)
			assert.Equal(t, 3, pageOf(app.renderer.data).Len())
		})
	}
}

func TestCreatePost(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	group := dbtest.Group(t, app.db, "Test group", "test-slug")
	before := app.count(t, &models.Post{})

	rec := app.post(t, "/create/", url.Values{"text": {"Test text"}, "group": {idStr(group.ID)}}, author)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/auth/", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, before+1, app.count(t, &models.Post{}))
	var post models.Post
	require.NoError(t, app.db.Order("id DESC").First(&post).Error)
	assert.Equal(t, "Test text", post.Text)
	assert.Equal(t, author.ID, post.AuthorID)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, group.ID, *post.GroupID)
}

func TestCreatePostWithImage(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("text", "With image"))
	part, err := w.CreateFormFile("image", "small.gif")
	require.NoError(t, err)
	_, err = part.Write(smallGIF)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/create/", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())

	rec := app.request(t, req, author)
	require.Equal(t, http.StatusFound, rec.Code)

	var post models.Post
	require.NoError(t, app.db.Order("id DESC").First(&post).Error)
	assert.Equal(t, "posts/small.gif", post.Image)

	img := app.get(t, "/media/posts/small.gif", nil)
	assert.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, "image/gif", img.Header().Get(echo.HeaderContentType))
	assert.Equal(t, smallGIF, img.Body.Bytes())

	app.get(t, "/posts/"+idStr(post.ID)+"/", nil)
	assert.Equal(t, "posts/small.gif", app.renderer.data.(handlers.PostDetailPage).Post.Image)
	assert.Equal(t, http.StatusNotFound, app.get(t, "/media/posts/missing.gif", nil).Code)
}

func TestInvalidPostRendersErrors(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")

	rec := app.post(t, "/create/", url.Values{"text": {""}, "group": {"42"}}, author)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "posts/create_post.html", app.renderer.name)
	form := app.renderer.data.(handlers.PostFormPage).Form
	assert.Contains(t, form.Errors, "text")
	assert.Contains(t, form.Errors, "group")
	assert.Zero(t, app.count(t, &models.Post{}))
}

func TestAuthorEditsPost(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	post := dbtest.Post(t, app.db, author, nil, "Test text", time.Now())

	rec := app.post(t, "/posts/"+idStr(post.ID)+"/edit/", url.Values{"text": {"Edited text"}}, author)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/posts/"+idStr(post.ID)+"/", rec.Header().Get(echo.HeaderLocation))
	edited := app.loadPost(t, post.ID)
	assert.Equal(t, "Edited text", edited.Text)
	assert.Equal(t, author.ID, edited.AuthorID)
	assert.EqualValues(t, 1, app.count(t, &models.Post{}))
}

func TestInvalidEditRendersErrors(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	post := dbtest.Post(t, app.db, author, nil, "Test text", time.Now())

	rec := app.post(t, "/posts/"+idStr(post.ID)+"/edit/", url.Values{"text": {" "}}, author)

	assert.Equal(t, http.StatusOK, rec.Code)
	page := app.renderer.data.(handlers.PostFormPage)
	assert.True(t, page.IsEdit)
	assert.Contains(t, page.Form.Errors, "text")
	assert.Equal(t, "Test text", app.loadPost(t, post.ID).Text)
}

func TestNonAuthorCannotEdit(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	other := dbtest.User(t, app.db, "other")
	post := dbtest.Post(t, app.db, author, nil, "Test text", time.Now())
	target := "/posts/" + idStr(post.ID) + "/edit/"

	rec := app.get(t, target, other)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/other/", rec.Header().Get(echo.HeaderLocation))

	rec = app.post(t, target, url.Values{"text": {"Hijacked"}}, other)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/other/", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, "Test text", app.loadPost(t, post.ID).Text)
}

func TestComments(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	post := dbtest.Post(t, app.db, author, nil, "Test text", time.Now())
	detail := "/posts/" + idStr(post.ID) + "/"

	rec := app.post(t, detail+"comment/", url.Values{"text": {"Nice post"}}, author)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detail, rec.Header().Get(echo.HeaderLocation))
	assert.EqualValues(t, 1, app.count(t, &models.Comment{}))

	rec = app.post(t, detail+"comment/", url.Values{"text": {""}}, author)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detail, rec.Header().Get(echo.HeaderLocation))
	assert.EqualValues(t, 1, app.count(t, &models.Comment{}))

	app.get(t, detail, nil)
	page := app.renderer.data.(handlers.PostDetailPage)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, "Nice post", page.Comments[0].Text)
	assert.Equal(t, "auth", page.Comments[0].Author.Username)
}

func TestIndexCache(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	dbtest.Post(t, app.db, author, nil, "first post", time.Now().Add(-time.Minute))

	first := app.get(t, "/", nil).Body.String()
	dbtest.Post(t, app.db, author, nil, "cached away", time.Now())
	second := app.get(t, "/", nil).Body.String()
	assert.Equal(t, first, second)
	assert.NotContains(t, second, "cached away")

	require.NoError(t, app.cache.Clear(context.Background()))
	third := app.get(t, "/", nil).Body.String()
	assert.NotEqual(t, first, third)
	assert.Contains(t, third, "cached away")
}

func TestFollowAndUnfollow(t *testing.T) {
	app := newTestApp(t)
	dbtest.User(t, app.db, "auth")
	reader := dbtest.User(t, app.db, "reader")
	before := app.count(t, &models.Follow{})

	rec := app.post(t, "/profile/auth/follow/", nil, reader)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/auth/", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, before+1, app.count(t, &models.Follow{}))

	app.get(t, "/profile/auth/", reader)
	profile := app.renderer.data.(handlers.ProfilePage)
	assert.True(t, profile.ShowFollow)
	assert.True(t, profile.Following)

	app.post(t, "/profile/auth/unfollow/", nil, reader)
	assert.Equal(t, before, app.count(t, &models.Follow{}))

	rec = app.post(t, "/profile/auth/unfollow/", nil, reader)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, before, app.count(t, &models.Follow{}))
}

func TestFollowNoops(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	reader := dbtest.User(t, app.db, "reader")

	rec := app.post(t, "/profile/auth/follow/", nil, author)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Zero(t, app.count(t, &models.Follow{}))

	app.post(t, "/profile/auth/follow/", nil, reader)
	rec = app.post(t, "/profile/auth/follow/", nil, reader)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.EqualValues(t, 1, app.count(t, &models.Follow{}))
}

func TestFollowFeed(t *testing.T) {
	app := newTestApp(t)
	author := dbtest.User(t, app.db, "auth")
	reader := dbtest.User(t, app.db, "reader")
	stranger := dbtest.User(t, app.db, "stranger")
	post := dbtest.Post(t, app.db, author, nil, "for followers", time.Now())
	app.post(t, "/profile/auth/follow/", nil, reader)

	app.get(t, "/follow/", reader)
	feed := app.renderer.data.(handlers.FollowPage)
	require.Equal(t, 1, feed.Page.Len())
	assert.Equal(t, post.ID, feed.Page.Items[0].ID)

	app.get(t, "/follow/", stranger)
	assert.Zero(t, app.renderer.data.(handlers.FollowPage).Page.Len())
}

func TestSignupLoginLogout(t *testing.T) {
	app := newTestApp(t)

	rec := app.post(t, "/auth/signup/", url.Values{
		"username":   {"leo"},
		"first_name": {"Leo"},
		"last_name":  {"Tolstoy"},
		"email":      {"leo@example.com"},
		"password":   {"war-and-peace"},
	}, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	assert.NotEmpty(t, rec.Result().Cookies())

	rec = app.post(t, "/auth/signup/", url.Values{"username": {"leo"}, "password": {"war-and-peace"}}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A user with that username already exists.", app.renderer.data.(handlers.SignupPage).Errors["username"])

	rec = app.post(t, "/auth/login/", url.Values{"username": {"leo"}, "password": {"wrong-password"}}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, app.renderer.data.(handlers.LoginPage).Errors[""])

	rec = app.post(t, "/auth/login/", url.Values{
		"username": {"leo"},
		"password": {"war-and-peace"},
		"next":     {"/create/"},
	}, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/create/", rec.Header().Get(echo.HeaderLocation))

	session := httptest.NewRequest(http.MethodGet, "/create/", nil)
	for _, c := range rec.Result().Cookies() {
		session.AddCookie(c)
	}
	assert.Equal(t, http.StatusOK, app.request(t, session, nil).Code)

	rec = app.post(t, "/auth/logout/", nil, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
}

func TestTokenEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.post(t, "/auth/signup/", url.Values{"username": {"leo"}, "password": {"war-and-peace"}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/token/", strings.NewReader(`{"username":"leo","password":"war-and-peace"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := app.request(t, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)

	req = httptest.NewRequest(http.MethodPost, "/auth/token/", strings.NewReader(`{"username":"leo","password":"nope-nope"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusUnauthorized, app.request(t, req, nil).Code)
}

type fakeVerifier map[string]*auth.Token

func (f fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if token, ok := f[idToken]; ok {
		return token, nil
	}
	return nil, errors.New("invalid id token")
}

func firebaseLogin(t *testing.T, app *testApp, idToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/firebase-login/", strings.NewReader(`{"idToken":"`+idToken+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return app.request(t, req, nil)
}

func TestFirebaseLogin(t *testing.T) {
	app := newTestAppWithFirebase(t, fakeVerifier{
		"good-id-token": {UID: "uid-1", Claims: map[string]interface{}{"email": "leo@example.com", "name": "Leo"}},
	})

	rec := firebaseLogin(t, app, "good-id-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
	assert.NotEmpty(t, rec.Result().Cookies())

	var user models.User
	require.NoError(t, app.db.Where("username = ?", "leo").First(&user).Error)
	require.NotNil(t, user.FirebaseUID)
	assert.Equal(t, "uid-1", *user.FirebaseUID)
	assert.Equal(t, "Leo", user.FirstName)

	firebaseLogin(t, app, "good-id-token")
	assert.EqualValues(t, 1, app.count(t, &models.User{}))

	assert.Equal(t, http.StatusUnauthorized, firebaseLogin(t, app, "bad-id-token").Code)
}

func TestFirebaseLoginConcurrentSignup(t *testing.T) {
	app := newTestAppWithFirebase(t, fakeVerifier{
		"good-id-token": {UID: "uid-1", Claims: map[string]interface{}{"email": "leo@example.com", "name": "Leo"}},
	})

	// Another login for uid-1 creates the user right after this one's lookup misses.
	uid := "uid-1"
	first := &models.User{Username: "leo", Email: "leo@example.com", FirebaseUID: &uid}
	raced := false
	require.NoError(t, app.db.Callback().Query().After("gorm:query").Register("test:concurrent_signup", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "users" || !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return
		}
		raced = true
		require.NoError(t, app.db.Create(first).Error)
	}))

	rec := firebaseLogin(t, app, "good-id-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
	assert.True(t, raced)
	assert.EqualValues(t, 1, app.count(t, &models.User{}))
}

func TestFirebaseLoginDisabled(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusNotFound, firebaseLogin(t, app, "good-id-token").Code)
}

func pageOf(data interface{}) interface{ Len() int } {
	switch d := data.(type) {
	case handlers.IndexPage:
		return d.Page
	case handlers.GroupPage:
		return d.Page
	case handlers.ProfilePage:
		return d.Page
	case handlers.FollowPage:
		return d.Page
	}
	return nil
}

func idStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}
