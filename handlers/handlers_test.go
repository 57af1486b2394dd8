package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"gamecatalog/auth"
	"gamecatalog/catalog"
	"gamecatalog/middleware"
	"gamecatalog/models"
	"gamecatalog/store"
	"gamecatalog/utils"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type HandlerSuite struct {
	suite.Suite
	db  store.Store
	svc *catalog.Service
	srv *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := store.OpenSQLite(context.Background(), filepath.Join(s.T().TempDir(), "catalog.db"), logger)
	s.Require().NoError(err)
	s.db = db

	render, err := NewRenderer(logger)
	s.Require().NoError(err)
	manager := auth.NewManager(utils.NewMemorySessionStore(), db, logger, auth.Options{
		Forbidden: render.Forbidden,
	})
	s.svc = catalog.NewService(db, logger, bcrypt.MinCost)

	_, err = s.svc.EnsureAdmin(context.Background())
	s.Require().NoError(err)

	s.srv = httptest.NewServer(New(s.svc, manager, render, logger).Router(false))
}

func (s *HandlerSuite) TearDownTest() {
	s.srv.Close()
	s.db.Close()
}

// browser is a cookie-keeping client that does not follow redirects.
type browser struct {
	s      *HandlerSuite
	client *http.Client
}

func (s *HandlerSuite) newBrowser() *browser {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	return &browser{s: s, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

type page struct {
	status   int
	location string
	body     string
}

func (b *browser) do(req *http.Request) page {
	resp, err := b.client.Do(req)
	b.s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	b.s.Require().NoError(err)
	return page{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(body)}
}

func (b *browser) get(path string) page {
	req, err := http.NewRequest(http.MethodGet, b.s.srv.URL+path, nil)
	b.s.Require().NoError(err)
	return b.do(req)
}

func (b *browser) csrfToken() string {
	u, _ := url.Parse(b.s.srv.URL)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == middleware.CSRFCookie {
			return c.Value
		}
	}
	b.get("/")
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == middleware.CSRFCookie {
			return c.Value
		}
	}
	b.s.FailNow("no csrf cookie issued")
	return ""
}

func (b *browser) post(path string, form url.Values) page {
	form.Set(middleware.CSRFField, b.csrfToken())
	return b.postRaw(path, form)
}

func (b *browser) postRaw(path string, form url.Values) page {
	req, err := http.NewRequest(http.MethodPost, b.s.srv.URL+path, strings.NewReader(form.Encode()))
	b.s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) register(username, password string) page {
	return b.post("/register", url.Values{
		"username":         {username},
		"password":         {password},
		"confirm_password": {password},
	})
}

func (b *browser) login(username, password string) page {
	return b.post("/login", url.Values{"username": {username}, "password": {password}})
}

func (s *HandlerSuite) addGame(title string) *models.Game {
	game, _, err := s.svc.AddGame(context.Background(), utils.GameForm{
		Title:       title,
		Genre:       "Strategy",
		Description: "A classic",
	})
	s.Require().NoError(err)
	return game
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *HandlerSuite) TestHomeAnonymous() {
	b := s.newBrowser()

	p := b.get("/")
	s.Equal(http.StatusOK, p.status)
	s.Contains(p.body, "No games yet.")
	s.Contains(p.body, `href="/login"`)

	s.addGame("Chess")
	p = b.get("/")
	s.Contains(p.body, "Chess")
}

func (s *HandlerSuite) TestUnknownPath() {
	s.Equal(http.StatusNotFound, s.newBrowser().get("/nope").status)
}

func (s *HandlerSuite) TestRegisterLogsIn() {
	b := s.newBrowser()

	p := b.register("alice", "secret1")
	s.Equal(http.StatusFound, p.status)
	s.Equal("/", p.location)

	p = b.get("/")
	s.Contains(p.body, "Account created successfully")
	s.Contains(p.body, "alice")
	s.Contains(p.body, `href="/logout"`)

	// the flash is shown once
	p = b.get("/")
	s.NotContains(p.body, "Account created successfully")
}

func (s *HandlerSuite) TestRegisterErrors() {
	b := s.newBrowser()
	s.Equal(http.StatusFound, b.register("alice", "secret1").status)

	other := s.newBrowser()
	p := other.register("alice", "secret2")
	s.Equal(http.StatusConflict, p.status)
	s.Contains(p.body, "That username is not available.")

	p = other.post("/register", url.Values{
		"username":         {"bob"},
		"password":         {"secret1"},
		"confirm_password": {"secret2"},
	})
	s.Equal(http.StatusUnprocessableEntity, p.status)
	s.Contains(p.body, "Passwords must match.")
	s.Contains(p.body, `value="bob"`)

	p = other.register("al", "1234")
	s.Equal(http.StatusUnprocessableEntity, p.status)
	s.Contains(p.body, "Username must be at least 3 characters long.")
	s.Contains(p.body, "Password must be at least 5 characters long.")
}

func (s *HandlerSuite) TestLogin() {
	s.Equal(http.StatusFound, s.newBrowser().register("alice", "secret1").status)

	b := s.newBrowser()
	p := b.login("alice", "wrong-pass")
	s.Equal(http.StatusUnauthorized, p.status)
	s.Contains(p.body, "Invalid username or password")

	p = b.login("nobody", "secret1")
	s.Equal(http.StatusUnauthorized, p.status)
	s.Contains(p.body, "Invalid username or password")

	p = b.login("alice", "secret1")
	s.Equal(http.StatusFound, p.status)
	s.Equal("/", p.location)
	s.Contains(b.get("/").body, "Logged in successfully")
}

func (s *HandlerSuite) TestLoginReturnsToRequestedPage() {
	s.Equal(http.StatusFound, s.newBrowser().register("alice", "secret1").status)
	b := s.newBrowser()

	p := b.get("/add")
	s.Equal(http.StatusFound, p.status)
	s.Equal("/login?next=%2Fadd", p.location)

	p = b.get(p.location)
	s.Equal(http.StatusOK, p.status)
	s.Contains(p.body, `name="next" value="/add"`)

	p = b.post("/login", url.Values{"username": {"alice"}, "password": {"secret1"}, "next": {"/add"}})
	s.Equal(http.StatusFound, p.status)
	s.Equal("/add", p.location)

	p = b.post("/login", url.Values{"username": {"alice"}, "password": {"secret1"}, "next": {"https://evil.example"}})
	s.Equal("/", p.location)
}

func (s *HandlerSuite) TestAddGameNeedsLogin() {
	b := s.newBrowser()

	p := b.post("/add", url.Values{"title": {"Chess"}, "genre": {"Board"}, "description": {"Classic"}})
	s.Equal(http.StatusFound, p.status)
	s.True(strings.HasPrefix(p.location, "/login?next="))

	games, err := s.svc.ListGames(context.Background())
	s.Require().NoError(err)
	s.Empty(games)
}

func (s *HandlerSuite) TestRegularUserCanAddGame() {
	b := s.newBrowser()
	b.register("alice", "secret1")

	s.Equal(http.StatusOK, b.get("/add").status)

	p := b.post("/add", url.Values{"title": {"Chess"}, "genre": {"Board"}, "description": {"Classic"}})
	s.Equal(http.StatusFound, p.status)
	s.Equal("/", p.location)

	p = b.get("/")
	s.Contains(p.body, "Game added successfully")
	s.Contains(p.body, "Chess")

	p = b.post("/add", url.Values{"title": {""}, "genre": {"Board"}, "description": {"Classic"}})
	s.Equal(http.StatusUnprocessableEntity, p.status)
	s.Contains(p.body, "Title is required.")
}

func (s *HandlerSuite) TestGameDetail() {
	game := s.addGame("Chess")
	b := s.newBrowser()

	p := b.get("/game/" + itoa(game.ID))
	s.Equal(http.StatusOK, p.status)
	s.Contains(p.body, "Chess")
	s.Contains(p.body, "Strategy")

	for _, path := range []string{"/game/999", "/game/0", "/game/-1", "/game/abc"} {
		s.Equal(http.StatusNotFound, b.get(path).status, path)
	}
}

func (s *HandlerSuite) TestAdminPagesRefuseRegularUsers() {
	game := s.addGame("Chess")
	b := s.newBrowser()
	b.register("alice", "secret1")

	for _, path := range []string{"/admin", "/delete/" + itoa(game.ID), "/delete/999"} {
		s.Equal(http.StatusForbidden, b.get(path).status, path)
	}

	_, err := s.svc.GetGame(context.Background(), game.ID)
	s.NoError(err)
}

func (s *HandlerSuite) TestAdminPagesRedirectAnonymous() {
	b := s.newBrowser()
	for _, path := range []string{"/admin", "/delete/1"} {
		p := b.get(path)
		s.Equal(http.StatusFound, p.status, path)
		s.True(strings.HasPrefix(p.location, "/login?next="), path)
	}
}

func (s *HandlerSuite) TestAdminDeletesGame() {
	game := s.addGame("Chess")
	b := s.newBrowser()
	s.Equal(http.StatusFound, b.login(catalog.AdminUsername, catalog.AdminPassword).status)

	p := b.get("/admin")
	s.Equal(http.StatusOK, p.status)
	s.Contains(p.body, "/delete/"+itoa(game.ID))

	p = b.get("/delete/" + itoa(game.ID))
	s.Equal(http.StatusFound, p.status)
	s.Equal("/admin", p.location)
	s.Contains(b.get("/admin").body, "Game deleted successfully")

	s.Equal(http.StatusNotFound, b.get("/game/"+itoa(game.ID)).status)
	s.Equal(http.StatusNotFound, b.get("/delete/"+itoa(game.ID)).status)
}

func (s *HandlerSuite) TestLogout() {
	b := s.newBrowser()
	b.register("alice", "secret1")

	p := b.get("/logout")
	s.Equal(http.StatusFound, p.status)
	s.Equal("/", p.location)

	p = b.get("/")
	s.Contains(p.body, "You have been logged out")
	s.Contains(p.body, `href="/login"`)

	p = b.get("/add")
	s.Equal(http.StatusFound, p.status)
}

func (s *HandlerSuite) TestLogoutAnonymous() {
	p := s.newBrowser().get("/logout")
	s.Equal(http.StatusFound, p.status)
	s.Equal("/login?next=%2Flogout", p.location)
}

func (s *HandlerSuite) TestPostWithoutCSRFToken() {
	b := s.newBrowser()
	b.get("/")

	p := b.postRaw("/register", url.Values{
		"username":         {"alice"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	})
	s.Equal(http.StatusForbidden, p.status)

	_, err := s.db.FindUserByUsername(context.Background(), "alice")
	s.ErrorIs(err, store.ErrNotFound)
}
