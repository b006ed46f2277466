package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/yousuf-shahzad/maths-soc-source/core/user"
	emailsvc "github.com/yousuf-shahzad/maths-soc-source/services/email"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	student := createUser(t, app.usrRepo, "Hero", "hero99", "hero@test.sch.uk", "LolC@t123", []string{user.RoleStudent}, true)
	naughty := createUser(t, app.usrRepo, "N Dog", "ndog66", "ndog@test.sch.uk", "LolC@t123", []string{user.RoleStudent}, false)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": reqMsg, "password": reqMsg}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Username: "whoami", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Username: student.Username, Password: "nope"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive account", wantCode: http.StatusForbidden,
			body:     marchallObj(t, LoginRequest{Username: naughty.Username, Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login with username", wantCode: http.StatusOK,
			body: marchallObj(t, LoginRequest{Username: student.Username, Password: "LolC@t123"}),
		},
		{
			name: "login with email", wantCode: http.StatusOK,
			body: marchallObj(t, LoginRequest{Username: student.Email, Password: "LolC@t123"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.server.ServeHTTP(rec, req)

			// cannot guess the token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)

	admin := createUser(t, app.usrRepo, "Admin", "admin1", "admin@test.sch.uk", "", []string{user.RoleAdmin}, true)
	student := createUser(t, app.usrRepo, "Hero", "hero99", "hero@test.sch.uk", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	newStudent := user.NewUser{
		Name:            "New Kid",
		Username:        "newkid7",
		Email:           "newkid@test.sch.uk",
		YearGroup:       9,
		Password:        "LolC@t123",
		PasswordConfirm: "LolC@t123",
		Roles:           []string{user.RoleStudent},
	}

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", token: getToken(t, student), wantCode: http.StatusForbidden,
			body: marchallObj(t, newStudent), wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "cannot escalate roles", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Sneaky", Username: "sneaky1", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
				Roles: []string{user.RoleAdminOwner},
			}),
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
		{
			name: "duplicate username", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Copy Cat", Username: student.Username, Password: "LolC@t123", PasswordConfirm: "LolC@t123",
			}),
			wantData: marchallObj(t, map[string]string{"username": "a user with this username already exists"}),
		},
		{name: "created", token: adminToken, wantCode: http.StatusCreated, body: marchallObj(t, newStudent)},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				usr, err := app.usrSvc.GetByUsername(newStudent.Username)
				if err != nil {
					t.Fatalf("GetByUsername(): %v", err)
				}
				if !usr.IsActive {
					t.Error("failed! new user is not active")
				}
				if err := usr.CheckPassword(newStudent.Password); err != nil {
					t.Error("failed! password was not set")
				}
				if len(emailsvc.SentMessages) != 1 {
					t.Errorf("failed! len(SentMessages) = %d; want 1 welcome email", len(emailsvc.SentMessages))
				}
			}
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	app := setup(t)

	path := func(params url.Values) string { return "/v1/users?" + params.Encode() }

	student := createUser(t, app.usrRepo, "Hero", "hero99", "hero@test.sch.uk", "", []string{user.RoleStudent}, true)
	admin := createUser(t, app.usrRepo, "Admin", "admin1", "admin@test.sch.uk", "", []string{user.RoleAdmin}, true)
	owner := createUser(t, app.usrRepo, "Owner", "owner1", "owner@test.sch.uk", "", []string{user.RoleAdminOwner}, true)
	naughty := createUser(t, app.usrRepo, "N Dog", "ndog66", "ndog@test.sch.uk", "", []string{user.RoleStudent}, false)

	adminToken := getToken(t, admin)
	empty := []byte("[]")

	tests := []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/v1/users", token: getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "get all", path: "/v1/users", token: adminToken, wantData: marchallList(t, student, admin, owner, naughty)},
		{name: "search (unknown)", path: path(url.Values{"search": {"lol"}}), token: adminToken, wantData: empty},
		{name: "search=her", path: path(url.Values{"search": {"her"}}), token: adminToken, wantData: marchallList(t, student)},
		{
			name: "role=admin:", path: path(url.Values{"role": {user.RoleAdmin}}), token: adminToken,
			wantData: marchallList(t, admin, owner),
		},
		{
			name: "is_active=false", path: path(url.Values{"is_active": {"false"}}), token: adminToken,
			wantData: marchallList(t, naughty),
		},
		{
			name: "ordering by -name", path: path(url.Values{"ordering": {"-name"}}), token: adminToken,
			wantData: marchallList(t, owner, naughty, student, admin),
		},
		{
			name: "filtering & ordering", path: path(url.Values{"role": {user.RoleStudent}, "ordering": {"name"}}), token: adminToken,
			wantData: marchallList(t, student, naughty),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userDetail(t *testing.T) {
	app := setup(t)

	student := createUser(t, app.usrRepo, "Hero", "hero99", "hero@test.sch.uk", "", []string{user.RoleStudent}, true)
	other := createUser(t, app.usrRepo, "Other", "other1", "other@test.sch.uk", "", []string{user.RoleStudent}, true)
	admin := createUser(t, app.usrRepo, "Admin", "admin1", "admin@test.sch.uk", "", []string{user.RoleAdmin}, true)

	studentToken := getToken(t, student)
	adminToken := getToken(t, admin)
	detailPath := func(id int) string { return "/v1/users/" + strconv.Itoa(id) }

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: detailPath(student.ID),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "own detail", method: http.MethodGet, path: detailPath(student.ID), token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, student),
		},
		{
			name: "cannot peek at others", method: http.MethodGet, path: detailPath(other.ID), token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "admin can retrieve anyone", method: http.MethodGet, path: detailPath(other.ID), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, other),
		},
		{
			name: "non-admin cannot self-deactivate", method: http.MethodPut, path: detailPath(student.ID), token: studentToken,
			body:     marchallObj(t, map[string]interface{}{"is_active": false}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "non-admin can rename themselves", method: http.MethodPut, path: detailPath(student.ID), token: studentToken,
			body: marchallObj(t, map[string]interface{}{"name": "Super Hero"}), wantCode: http.StatusOK,
		},
		{
			name: "delete requires admin", method: http.MethodDelete, path: detailPath(other.ID), token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "admin cannot delete themselves", method: http.MethodDelete, path: detailPath(admin.ID), token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "admin deletes user", method: http.MethodDelete, path: detailPath(other.ID), token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusNoContent {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				if _, err := app.usrSvc.GetByID(other.ID); err == nil {
					t.Error("failed! user still exists")
				}
				return
			}
			if tt.name == "non-admin can rename themselves" {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				usr, err := app.usrSvc.GetByID(student.ID)
				if err != nil {
					t.Fatalf("GetByID(): %v", err)
				}
				if usr.Name != "Super Hero" {
					t.Errorf("failed! name = %q; want %q", usr.Name, "Super Hero")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_passwordReset(t *testing.T) {
	app := setup(t)

	student := createUser(t, app.usrRepo, "Hero", "hero99", "hero@test.sch.uk", "", []string{user.RoleStudent}, true)
	successData := marchallObj(t, SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	type extraTest struct {
		emailSent bool
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, PasswordResetRequest{Email: "lol@test.sch.uk"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: true},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				if extra.emailSent && len(emailsvc.SentMessages) != 1 {
					t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
				}
				if !extra.emailSent && len(emailsvc.SentMessages) > 0 {
					t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
				}
			}
		})
	}
}

func Test_userApi_confirmPasswordReset(t *testing.T) {
	app := setup(t)

	student := createUser(t, app.usrRepo, "Hero", "hero99", "hero@test.sch.uk", "lol", []string{user.RoleStudent}, true)
	validUID := user.EncodeUID(student)
	validToken, err := app.usrSvc.MakeToken(student)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	tests := []httpTest{
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "bG9s", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := app.usrSvc.GetByID(student.ID)
				if err != nil {
					t.Fatalf("GetByID(): %v", err)
				}
				if err := refreshed.CheckPassword("LolC@t123"); err != nil {
					t.Error("failed to update new password")
				}
			}
		})
	}
}
