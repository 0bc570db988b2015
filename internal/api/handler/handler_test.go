package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/router"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/testutil"
)

const testSecret = "test-secret"

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

func init() { gin.SetMode(gin.TestMode) }

type recordingMailer struct {
	mu   sync.Mutex
	sent []service.Message
}

func (m *recordingMailer) Send(_ context.Context, msg service.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type env struct {
	t      *testing.T
	db     *gorm.DB
	app    *router.App
	mailer *recordingMailer
	tokens *service.TokenManager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	_, rdb := testutil.NewRedis(t)
	cfg := &config.Config{
		Server: config.ServerConfig{
			Mode:       gin.TestMode,
			SecretKey:  testSecret,
			SessionTTL: time.Hour,
			ResetTTL:   time.Hour,
			MediaRoot:  t.TempDir(),
			BaseURL:    "http://testserver",
		},
		Cache: config.CacheConfig{IndexTTL: 20 * time.Second, IndexPrefix: "index_page"},
	}
	mailer := &recordingMailer{}
	app, err := router.New(router.Options{Config: cfg, DB: db, Redis: rdb, Mailer: mailer, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	return &env{
		t:      t,
		db:     db,
		app:    app,
		mailer: mailer,
		tokens: service.NewTokenManager(testSecret, time.Hour, time.Hour),
	}
}

// session 相当于 force_login
func (e *env) session(u *model.User) *http.Cookie {
	tok, _, err := e.tokens.IssueSession(u.ID)
	require.NoError(e.t, err)
	return &http.Cookie{Name: middleware.SessionCookie, Value: tok}
}

func (e *env) do(req *http.Request, ck *http.Cookie) *httptest.ResponseRecorder {
	if ck != nil {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	e.app.Engine.ServeHTTP(w, req)
	return w
}

func (e *env) get(path string, ck *http.Cookie) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), ck)
}

func (e *env) postForm(path string, values url.Values, ck *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, ck)
}

func (e *env) postJSON(path string, body any, bearer string) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	require.NoError(e.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return e.do(req, nil)
}

func templateUsed(t *testing.T, w *httptest.ResponseRecorder, name string) {
	t.Helper()
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`data-template="%s"`, name))
}

type fixture struct {
	*env
	user  *model.User
	user2 *model.User
	group *model.Group
	post  *model.Post
}

func newFixture(t *testing.T) *fixture {
	e := newEnv(t)
	user := testutil.CreateUser(t, e.db, "TestUser")
	user2 := testutil.CreateUser(t, e.db, "auth2")
	group := testutil.CreateGroup(t, e.db, "Тестовая группа", "test-slug")
	post := testutil.CreatePost(t, e.db, user, group, "Тестовый текст")
	return &fixture{env: e, user: user, user2: user2, group: group, post: post}
}

func TestURLs_Guest(t *testing.T) {
	f := newFixture(t)
	detail := fmt.Sprintf("/posts/%d/", f.post.ID)
	cases := map[string]int{
		"/":                          http.StatusOK,
		detail:                       http.StatusOK,
		"/group/test-slug/":          http.StatusOK,
		"/profile/TestUser/":         http.StatusOK,
		"/unexisting_page/":          http.StatusNotFound,
		"/group/missing/":            http.StatusNotFound,
		"/profile/nobody/":           http.StatusNotFound,
		"/posts/9999/":               http.StatusNotFound,
		"/posts/abc/":                http.StatusNotFound,
		"/auth/signup/":              http.StatusOK,
		"/auth/login/":               http.StatusOK,
		"/auth/password_reset/":      http.StatusOK,
		"/auth/password_reset/done/": http.StatusOK,
	}
	for path, status := range cases {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, status, f.get(path, nil).Code)
		})
	}
}

func TestURLs_Authorized(t *testing.T) {
	f := newFixture(t)
	ck := f.session(f.user)
	for _, path := range []string{
		fmt.Sprintf("/posts/%d/edit/", f.post.ID),
		"/create/",
		"/follow/",
		"/auth/logout/",
	} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, f.get(path, ck).Code)
		})
	}
}

func TestTemplates(t *testing.T) {
	f := newFixture(t)
	ck := f.session(f.user)
	detail := fmt.Sprintf("/posts/%d/", f.post.ID)
	cases := map[string]string{
		"/":                  "posts/index.html",
		"/create/":           "posts/create_post.html",
		detail:               "posts/post_detail.html",
		detail + "edit/":     "posts/create_post.html",
		"/profile/TestUser/": "posts/profile.html",
		"/group/test-slug/":  "posts/group_list.html",
		"/follow/":           "posts/follow.html",
		"/auth/signup/":      "users/signup.html",
		"/auth/login/":       "users/login.html",
		"/auth/logout/":      "users/logged_out.html",
		"/nonexist-page/":    "core/404.html",
	}
	for path, tmpl := range cases {
		t.Run(path, func(t *testing.T) {
			templateUsed(t, f.get(path, ck), tmpl)
		})
	}
}

func TestLoginRequired_RedirectsGuest(t *testing.T) {
	f := newFixture(t)
	edit := fmt.Sprintf("/posts/%d/edit/", f.post.ID)
	cases := map[string]string{
		"/create/":               "/auth/login/?next=/create/",
		"/follow/":               "/auth/login/?next=/follow/",
		edit:                     "/auth/login/?next=" + edit,
		"/profile/auth2/follow/": "/auth/login/?next=/profile/auth2/follow/",
	}
	for path, location := range cases {
		t.Run(path, func(t *testing.T) {
			w := f.get(path, nil)
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, location, w.Header().Get("Location"))
		})
	}
}

func TestIndex_ShowsPostWithAuthor(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(f.user).Updates(map[string]any{"first_name": "Лев", "last_name": "Толстой"}).Error)

	body := f.get("/", nil).Body.String()
	assert.Contains(t, body, fmt.Sprintf(`data-post-id="%d"`, f.post.ID))
	assert.Contains(t, body, "Тестовый текст")
	assert.Contains(t, body, "Лев Толстой")
	assert.Contains(t, body, `href="/group/test-slug/"`)
}

func TestGroupList_OnlyGroupPosts(t *testing.T) {
	f := newFixture(t)
	other := testutil.CreateGroup(t, f.db, "Тестовая группа 2", "test_group2")
	foreign := testutil.CreatePost(t, f.db, f.user2, other, "Тестовый пост от другого автора")

	body := f.get("/group/test-slug/", nil).Body.String()
	assert.Contains(t, body, fmt.Sprintf(`data-post-id="%d"`, f.post.ID))
	assert.NotContains(t, body, fmt.Sprintf(`data-post-id="%d"`, foreign.ID))
	assert.Contains(t, body, "Тестовая группа")
	assert.Contains(t, body, "Тестовая группа description")

	profile := f.get("/profile/TestUser/", nil).Body.String()
	assert.NotContains(t, profile, fmt.Sprintf(`data-post-id="%d"`, foreign.ID))
}

func TestPostDetail(t *testing.T) {
	f := newFixture(t)
	long := testutil.CreatePost(t, f.db, f.user, nil, strings.Repeat("абвгдеёжзи", 5))

	w := f.get(fmt.Sprintf("/posts/%d/", long.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>Пост "+strings.Repeat("абвгдеёжзи", 3)+"</title>")
	assert.Contains(t, body, "Всего постов автора: <span>2</span>")
	assert.NotContains(t, body, "Добавить комментарий")

	body = f.get(fmt.Sprintf("/posts/%d/", long.ID), f.session(f.user)).Body.String()
	assert.Contains(t, body, "Добавить комментарий")
	assert.Contains(t, body, "редактировать запись")

	body = f.get(fmt.Sprintf("/posts/%d/", long.ID), f.session(f.user2)).Body.String()
	assert.NotContains(t, body, "редактировать запись")
}

func TestPaginator(t *testing.T) {
	e := newEnv(t)
	u := testutil.CreateUser(t, e.db, "User")
	for i := 0; i < 13; i++ {
		testutil.CreatePost(t, e.db, u, nil, fmt.Sprintf("Текст%d", i))
	}
	count := func(body string) int { return strings.Count(body, `class="post"`) }

	assert.Equal(t, 10, count(e.get("/", nil).Body.String()))
	assert.Equal(t, 3, count(e.get("/?page=2", nil).Body.String()))
	assert.Equal(t, 3, count(e.get("/?page=99", nil).Body.String()))
	assert.Equal(t, 10, count(e.get("/?page=abc", nil).Body.String()))
	assert.Equal(t, 3, count(e.get("/profile/User/?page=2", nil).Body.String()))
}

func TestIndexCache(t *testing.T) {
	f := newFixture(t)

	first := f.get("/", nil).Body.String()
	require.NoError(t, f.db.Where("group_id = ?", f.group.ID).Delete(&model.Post{}).Error)

	second := f.get("/", nil)
	assert.Equal(t, first, second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	_, err := f.app.PageCache.Clear(context.Background(), "index_page")
	require.NoError(t, err)
	assert.NotEqual(t, first, f.get("/", nil).Body.String())
}

func multipartPost(t *testing.T, path string, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "small.gif")
		require.NoError(t, err)
		_, err = io.Copy(fw, bytes.NewReader(image))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPostCreate_WithImage(t *testing.T) {
	f := newFixture(t)
	var before int64
	require.NoError(t, f.db.Model(&model.Post{}).Count(&before).Error)

	req := multipartPost(t, "/create/", map[string]string{
		"text":  "Тестовый текст",
		"group": fmt.Sprint(f.group.ID),
	}, smallGIF)
	w := f.do(req, f.session(f.user))

	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/profile/TestUser/", w.Header().Get("Location"))

	var after int64
	require.NoError(t, f.db.Model(&model.Post{}).Count(&after).Error)
	assert.Equal(t, before+1, after)

	var created model.Post
	require.NoError(t, f.db.Order("id DESC").First(&created).Error)
	assert.Equal(t, "Тестовый текст", created.Text)
	assert.Equal(t, "posts/small.gif", created.Image)
	require.NotNil(t, created.GroupID)
	assert.Equal(t, f.group.ID, *created.GroupID)

	_, err := os.Stat(filepath.Join(f.app.Media.Root(), "posts", "small.gif"))
	assert.NoError(t, err)

	detail := f.get(fmt.Sprintf("/posts/%d/", created.ID), nil).Body.String()
	assert.Contains(t, detail, `src="/media/posts/small.gif"`)

	img := f.get("/media/posts/small.gif", nil)
	assert.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, smallGIF, img.Body.Bytes())
}

func TestPostCreate_Invalid(t *testing.T) {
	f := newFixture(t)
	ck := f.session(f.user)

	w := f.postForm("/create/", url.Values{"text": {"   "}}, ck)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")

	w = f.postForm("/create/", url.Values{"text": {"ok"}, "group": {"9999"}}, ck)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Select a valid choice.")

	w = f.do(multipartPost(t, "/create/", map[string]string{"text": "ok"}, []byte("not an image")), ck)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Upload a valid image.")

	var n int64
	require.NoError(t, f.db.Model(&model.Post{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestPostEdit(t *testing.T) {
	f := newFixture(t)
	editURL := fmt.Sprintf("/posts/%d/edit/", f.post.ID)
	detailURL := fmt.Sprintf("/posts/%d/", f.post.ID)

	w := f.get(editURL, f.session(f.user2))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailURL, w.Header().Get("Location"))

	w = f.postForm(editURL, url.Values{"text": {"hijack"}}, f.session(f.user2))
	assert.Equal(t, detailURL, w.Header().Get("Location"))

	w = f.get(editURL, f.session(f.user))
	assert.Contains(t, w.Body.String(), "Тестовый текст")
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`<option value="%d" selected>`, f.group.ID))

	w = f.postForm(editURL, url.Values{"text": {"Изменённый текст"}, "group": {""}}, f.session(f.user))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailURL, w.Header().Get("Location"))

	var got model.Post
	require.NoError(t, f.db.First(&got, f.post.ID).Error)
	assert.Equal(t, "Изменённый текст", got.Text)
	assert.Nil(t, got.GroupID)
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	commentURL := fmt.Sprintf("/posts/%d/comment/", f.post.ID)
	countComments := func() int64 {
		var n int64
		require.NoError(t, f.db.Model(&model.Comment{}).Count(&n).Error)
		return n
	}

	w := f.postForm(commentURL, url.Values{"text": {"guest comment"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/auth/login/"))
	assert.Zero(t, countComments())

	w = f.postForm(commentURL, url.Values{"text": {""}}, f.session(f.user2))
	assert.Equal(t, fmt.Sprintf("/posts/%d/", f.post.ID), w.Header().Get("Location"))
	assert.Zero(t, countComments())

	w = f.postForm(commentURL, url.Values{"text": {"Хороший пост"}}, f.session(f.user2))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, int64(1), countComments())

	body := f.get(fmt.Sprintf("/posts/%d/", f.post.ID), nil).Body.String()
	assert.Contains(t, body, "Хороший пост")

	assert.Equal(t, http.StatusNotFound, f.postForm("/posts/9999/comment/", url.Values{"text": {"x"}}, f.session(f.user)).Code)
}

func followExists(t *testing.T, db *gorm.DB, user, author *model.User) bool {
	var n int64
	require.NoError(t, db.Model(&model.Follow{}).Where("user_id = ? AND author_id = ?", user.ID, author.ID).Count(&n).Error)
	return n > 0
}

func TestFollowUnfollow(t *testing.T) {
	f := newFixture(t)
	ck := f.session(f.user)

	w := f.get("/profile/auth2/follow/", ck)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/auth2/", w.Header().Get("Location"))
	assert.True(t, followExists(t, f.db, f.user, f.user2))

	// 重复关注不报错
	assert.Equal(t, http.StatusFound, f.get("/profile/auth2/follow/", ck).Code)
	assert.Contains(t, f.get("/profile/auth2/", ck).Body.String(), "Отписаться")

	f.get("/profile/auth2/unfollow/", ck)
	assert.False(t, followExists(t, f.db, f.user, f.user2))
	assert.Contains(t, f.get("/profile/auth2/", ck).Body.String(), "Подписаться")

	// 关注自己被忽略
	w = f.get("/profile/TestUser/follow/", ck)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.False(t, followExists(t, f.db, f.user, f.user))

	assert.Equal(t, http.StatusNotFound, f.get("/profile/nobody/follow/", ck).Code)
}

func TestFollowIndex(t *testing.T) {
	f := newFixture(t)
	third := testutil.CreateUser(t, f.db, "third")

	f.get("/profile/TestUser/follow/", f.session(f.user2))

	body := f.get("/follow/", f.session(f.user2)).Body.String()
	assert.Equal(t, 1, strings.Count(body, `class="post"`))
	assert.Contains(t, body, "/profile/TestUser/")

	body = f.get("/follow/", f.session(third)).Body.String()
	assert.Zero(t, strings.Count(body, `class="post"`))
}

func TestSignup(t *testing.T) {
	e := newEnv(t)
	w := e.postForm("/auth/signup/", url.Values{
		"first_name": {"Лев"},
		"last_name":  {"Толстой"},
		"username":   {"leo"},
		"email":      {"leo@example.com"},
		"password1":  {"war-and-peace"},
		"password2":  {"war-and-peace"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/", w.Header().Get("Location"))

	var u model.User
	require.NoError(t, e.db.Where("username = ?", "leo").First(&u).Error)
	assert.Equal(t, "Лев Толстой", u.FullName())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	home := e.get("/", cookies[0]).Body.String()
	assert.Contains(t, home, "Пользователь: leo")

	w = e.postForm("/auth/signup/", url.Values{
		"username":  {"leo"},
		"email":     {"other@example.com"},
		"password1": {"war-and-peace"},
		"password2": {"war-and-peace"},
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "A user with that username already exists.")
}

func TestLoginLogout(t *testing.T) {
	f := newFixture(t)

	w := f.postForm("/auth/login/", url.Values{"username": {"TestUser"}, "password": {"wrong"}}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a correct username and password.")

	w = f.postForm("/auth/login/", url.Values{"username": {"TestUser"}, "password": {"password"}, "next": {"/create/"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/create/", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, http.StatusOK, f.get("/create/", cookies[0]).Code)

	w = f.postForm("/auth/login/", url.Values{"username": {"TestUser"}, "password": {"password"}, "next": {"https://evil.example/"}}, nil)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = f.get("/auth/logout/", cookies[0])
	assert.Equal(t, http.StatusOK, w.Code)
	templateUsed(t, w, "users/logged_out.html")
	assert.Contains(t, w.Body.String(), "Войти")
	out := w.Result().Cookies()
	require.Len(t, out, 1)
	assert.Equal(t, middleware.SessionCookie, out[0].Name)
	assert.Less(t, out[0].MaxAge, 0)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)

	w := f.postForm("/auth/password_reset/", url.Values{"email": {"nobody@example.com"}}, nil)
	assert.Equal(t, "/auth/password_reset/done/", w.Header().Get("Location"))
	assert.Empty(t, f.mailer.sent)

	w = f.postForm("/auth/password_reset/", url.Values{"email": {"TestUser@example.com"}}, nil)
	assert.Equal(t, "/auth/password_reset/done/", w.Header().Get("Location"))
	require.Len(t, f.mailer.sent, 1)

	m := regexp.MustCompile(`http://testserver(/auth/reset/[^/\s]+/)`).FindStringSubmatch(f.mailer.sent[0].Body)
	require.Len(t, m, 2)
	link := m[1]

	w = f.get(link, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	templateUsed(t, w, "users/password_reset_confirm.html")
	assert.Contains(t, w.Body.String(), `name="new_password1"`)

	w = f.postForm(link, url.Values{"new_password1": {"brand-new-pass"}, "new_password2": {"brand-new-pass"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/reset/done/", w.Header().Get("Location"))

	// 链接只能用一次
	assert.Contains(t, f.get(link, nil).Body.String(), `class="invalid-link"`)
	assert.Contains(t, f.get("/auth/reset/garbage/", nil).Body.String(), `class="invalid-link"`)

	w = f.postForm("/auth/login/", url.Values{"username": {"TestUser"}, "password": {"brand-new-pass"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAPI(t *testing.T) {
	f := newFixture(t)

	w := f.get("/api/v1/posts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.EqualValues(t, 1, data["count"])
	results := data["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "TestUser", results[0].(map[string]any)["author"])
	assert.Equal(t, "test-slug", results[0].(map[string]any)["group"])

	assert.Equal(t, http.StatusOK, f.get(fmt.Sprintf("/api/v1/posts/%d", f.post.ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, f.get("/api/v1/posts/9999", nil).Code)
	assert.Equal(t, http.StatusOK, f.get("/api/v1/groups/test-slug/posts", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.get("/api/v1/groups/nope/posts", nil).Code)

	assert.Equal(t, http.StatusUnauthorized, f.postJSON("/api/v1/auth/token", map[string]string{"username": "TestUser", "password": "bad"}, "").Code)
	w = f.postJSON("/api/v1/auth/token", map[string]string{"username": "TestUser", "password": "password"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["data"].(map[string]any)["token"].(string)

	assert.Equal(t, http.StatusUnauthorized, f.postJSON("/api/v1/relations/follow", map[string]string{"author": "auth2"}, "").Code)
	assert.Equal(t, http.StatusBadRequest, f.postJSON("/api/v1/relations/follow", map[string]string{"author": "TestUser"}, token).Code)
	assert.Equal(t, http.StatusNotFound, f.postJSON("/api/v1/relations/follow", map[string]string{"author": "ghost"}, token).Code)
	assert.Equal(t, http.StatusOK, f.postJSON("/api/v1/relations/follow", map[string]string{"author": "auth2"}, token).Code)
	assert.True(t, followExists(t, f.db, f.user, f.user2))

	fans := decode(t, f.get("/api/v1/relations/auth2/fans", nil))["data"].(map[string]any)["list"].([]any)
	require.Len(t, fans, 1)
	assert.Equal(t, "TestUser", fans[0].(map[string]any)["username"])

	clamped := decode(t, f.get("/api/v1/relations/auth2/fans?page=-2&page_size=1000", nil))["data"].(map[string]any)
	assert.EqualValues(t, 1, clamped["page"])
	assert.EqualValues(t, 100, clamped["page_size"])
	assert.Len(t, clamped["list"], 1)

	following := decode(t, f.get("/api/v1/relations/TestUser/following", nil))["data"].(map[string]any)["list"].([]any)
	require.Len(t, following, 1)
	assert.Equal(t, "auth2", following[0].(map[string]any)["username"])

	assert.Equal(t, http.StatusOK, f.postJSON("/api/v1/relations/unfollow", map[string]string{"author": "auth2"}, token).Code)
	assert.False(t, followExists(t, f.db, f.user, f.user2))
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	w := e.get("/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "ok", data["database"])
	assert.Equal(t, "ok", data["redis"])
}
