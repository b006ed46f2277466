package echoapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/yousuf-shahzad/maths-soc-source/core/article"
	"github.com/yousuf-shahzad/maths-soc-source/core/user"
)

func Test_articleApi_create(t *testing.T) {
	app := setup(t)

	admin := createUser(t, app.usrRepo, "Admin", "admin1", "admin@test.sch.uk", "", []string{user.RoleAdmin}, true)
	student := createUser(t, app.usrRepo, "Hero", "hero99", "hero@test.sch.uk", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	newArt := article.NewArticle{Title: "On Induction", Content: "lorem ipsum"}

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", token: getToken(t, student), wantCode: http.StatusForbidden,
			body: marchallObj(t, newArt), wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required", "content": "this field is required"}),
		},
		{name: "created", token: adminToken, wantCode: http.StatusCreated, body: marchallObj(t, newArt)},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/articles"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData article.Article
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if respData.Kind != article.KindArticle {
					t.Errorf("failed! kind = %q; want %q", respData.Kind, article.KindArticle)
				}
				if respData.AuthorID != admin.ID {
					t.Errorf("failed! author = %d; want %d", respData.AuthorID, admin.ID)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

// The newsletter routes are the article routes pinned to the other kind; an
// article must not be reachable under /newsletters and vice versa.
func Test_articleApi_kindPinning(t *testing.T) {
	app := setup(t)

	admin := createUser(t, app.usrRepo, "Admin", "admin1", "admin@test.sch.uk", "", []string{user.RoleAdmin}, true)

	art, err := app.artSvc.Create(admin.ID, article.NewArticle{Title: "On Induction", Content: "lol", Kind: article.KindArticle})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	news, err := app.artSvc.Create(admin.ID, article.NewArticle{Title: "Term 1 News", Content: "lol", Kind: article.KindNewsletter})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	notFound := marchallObj(t, httpErr{Error: "not found"})
	tests := []httpTest{
		{name: "article listed", path: "/v1/articles", wantCode: http.StatusOK, wantData: marchallList(t, art)},
		{name: "newsletter listed", path: "/v1/newsletters", wantCode: http.StatusOK, wantData: marchallList(t, news)},
		{name: "article detail", path: "/v1/articles/" + strconv.Itoa(art.ID), wantCode: http.StatusOK, wantData: marchallObj(t, art)},
		{name: "article not a newsletter", path: "/v1/newsletters/" + strconv.Itoa(art.ID), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "newsletter not an article", path: "/v1/articles/" + strconv.Itoa(news.ID), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "latest article", path: "/v1/articles/latest", wantCode: http.StatusOK, wantData: marchallObj(t, art)},
		{name: "latest newsletter", path: "/v1/newsletters/latest", wantCode: http.StatusOK, wantData: marchallObj(t, news)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
