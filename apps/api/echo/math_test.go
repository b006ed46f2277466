package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/yousuf-shahzad/maths-soc-source/core/user"
)

func Test_mathApi_testEquivalence(t *testing.T) {
	app := setup(t)

	admin := createUser(t, app.usrRepo, "Admin", "admin1", "admin@test.sch.uk", "", []string{user.RoleAdmin}, true)
	student := createUser(t, app.usrRepo, "Hero", "hero99", "hero@test.sch.uk", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", token: getToken(t, student), wantCode: http.StatusForbidden,
			body:     marchallObj(t, EquivalenceRequest{Expr1: "x", Expr2: "x"}),
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"expr1": "this field is required", "expr2": "this field is required"}),
		},
		{
			name: "equivalent", token: adminToken, wantCode: http.StatusOK,
			body: marchallObj(t, EquivalenceRequest{Expr1: "(x+1)^2", Expr2: "x^2 + 2x + 1"}),
			wantData: marchallObj(t, EquivalenceResponse{
				Equivalent:  true,
				Normalized1: "2*x + x^2 + 1",
				Normalized2: "2*x + x^2 + 1",
			}),
		},
		{
			name: "latex notation", token: adminToken, wantCode: http.StatusOK,
			body: marchallObj(t, EquivalenceRequest{Expr1: `\frac{x}{2}`, Expr2: "x/2"}),
		},
		{
			name: "not equivalent", token: adminToken, wantCode: http.StatusOK,
			body: marchallObj(t, EquivalenceRequest{Expr1: "x", Expr2: "x + 1"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/math/test-equivalence"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			var respData EquivalenceResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
				t.Fatalf("json.Unmarshal(): %v", err)
			}
			wantEq := tt.name == "latex notation"
			if respData.Equivalent != wantEq {
				t.Errorf("failed! equivalent = %v; want %v", respData.Equivalent, wantEq)
			}
		})
	}
}

// Unparseable input must degrade to literal comparison, never to a 500.
func Test_mathApi_testEquivalenceGarbageInput(t *testing.T) {
	app := setup(t)

	admin := createUser(t, app.usrRepo, "Admin", "admin1", "admin@test.sch.uk", "", []string{user.RoleAdmin}, true)
	token := getToken(t, admin)

	body := marchallObj(t, EquivalenceRequest{Expr1: "@@ not math @@", Expr2: "@@ NOT MATH @@"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/math/test-equivalence", token, body)
	app.server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; want %v; body = %v", rec.Code, http.StatusOK, rec.Body.String())
	}
	var respData EquivalenceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if !respData.Equivalent {
		t.Error("failed! identical garbage should compare equal literally")
	}
	if respData.Normalized1 != respData.Normalized2 {
		t.Errorf("failed! fallback normalization diverged: %q vs %q", respData.Normalized1, respData.Normalized2)
	}
}

func Test_mathApi_normalize(t *testing.T) {
	app := setup(t)

	admin := createUser(t, app.usrRepo, "Admin", "admin1", "admin@test.sch.uk", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "required fields", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"expr": "this field is required"}),
		},
		{
			name: "canonical form", token: adminToken, wantCode: http.StatusOK,
			body:     marchallObj(t, NormalizeRequest{Expr: "(x+1)^2"}),
			wantData: marchallObj(t, NormalizeResponse{Normalized: "2*x + x^2 + 1"}),
		},
		{
			name: "already canonical", token: adminToken, wantCode: http.StatusOK,
			body:     marchallObj(t, NormalizeRequest{Expr: "2*x + x^2 + 1"}),
			wantData: marchallObj(t, NormalizeResponse{Normalized: "2*x + x^2 + 1"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/math/normalize"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
