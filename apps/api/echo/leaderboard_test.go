package echoapi

import (
	"net/http"
	"testing"
)

func Test_leaderboardApi_top(t *testing.T) {
	app := setup(t)

	for userID, points := range map[int]int{1: 1, 2: 3} {
		if err := app.lbSvc.AddScore(userID, points); err != nil {
			t.Fatalf("AddScore(): %v", err)
		}
	}
	first, err := app.lbSvc.GetByUserID(2)
	if err != nil {
		t.Fatalf("GetByUserID(): %v", err)
	}
	second, err := app.lbSvc.GetByUserID(1)
	if err != nil {
		t.Fatalf("GetByUserID(): %v", err)
	}

	tests := []httpTest{
		{name: "ranked by score", path: "/v1/leaderboard", wantCode: http.StatusOK, wantData: marchallList(t, first, second)},
		{name: "limited", path: "/v1/leaderboard?limit=1", wantCode: http.StatusOK, wantData: marchallList(t, first)},
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

func Test_leaderboardApi_topEmpty(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/v1/leaderboard")
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}, rec)
}
