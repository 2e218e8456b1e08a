package httpserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	interactionservice "inkwell/contexts/community-interaction/interaction-service"
	postservice "inkwell/contexts/content-publishing/post-service"
	userservice "inkwell/contexts/identity-access/user-service"
)

func newTestServer() *Server {
	users := userservice.NewInMemoryModule(slog.Default())
	posts := postservice.NewInMemoryModule(slog.Default())
	interactions := interactionservice.NewInMemoryModule(slog.Default())
	return New(Modules{Users: &users, Posts: &posts, Interactions: &interactions}, slog.Default(), ":0")
}

func serve(server *Server, method string, path string, actor string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-User-Id", actor)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rr.Body.String())
	}
	return out
}

func TestRegisterAndFollowFlow(t *testing.T) {
	server := newTestServer()
	alice := serve(server, http.MethodPost, "/api/v1/users", "", `{"username":"alice","email":"alice@example.com","password":"supersecret"}`)
	if alice.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", alice.Code, alice.Body.String())
	}
	bob := serve(server, http.MethodPost, "/api/v1/users", "", `{"username":"bob","email":"bob@example.com","password":"supersecret"}`)
	if bob.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", bob.Code, bob.Body.String())
	}
	aliceID := decode[map[string]any](t, alice)["user_id"].(string)
	bobID := decode[map[string]any](t, bob)["user_id"].(string)

	dup := serve(server, http.MethodPost, "/api/v1/users", "", `{"username":"alice","email":"other@example.com","password":"supersecret"}`)
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", dup.Code, dup.Body.String())
	}
	if code := decode[map[string]string](t, dup)["code"]; code != "username_taken" {
		t.Fatalf("expected username_taken, got %q", code)
	}

	follow := serve(server, http.MethodPost, "/api/v1/users/"+bobID+"/follow", aliceID, "")
	if follow.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", follow.Code, follow.Body.String())
	}
	self := serve(server, http.MethodPost, "/api/v1/users/"+aliceID+"/follow", aliceID, "")
	if self.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", self.Code, self.Body.String())
	}

	followers := serve(server, http.MethodGet, "/api/v1/users/"+bobID+"/followers", "", "")
	if followers.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", followers.Code, followers.Body.String())
	}
	items := decode[map[string]any](t, followers)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one follower, got %d", len(items))
	}
}

func TestMutationsRequireActorHeader(t *testing.T) {
	server := newTestServer()
	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/v1/posts", `{"title":"t","content":"c"}`},
		{http.MethodPost, "/api/v1/posts/p1/likes", ""},
		{http.MethodPost, "/api/v1/posts/p1/comments", `{"content":"hi"}`},
		{http.MethodDelete, "/api/v1/comments/c1", ""},
		{http.MethodPatch, "/api/v1/users/u1", `{"bio":"x"}`},
	}
	for _, tc := range cases {
		rr := serve(server, tc.method, tc.path, "", tc.body)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d body=%s", tc.method, tc.path, rr.Code, rr.Body.String())
		}
	}
}

func TestPostAndInteractionRoutes(t *testing.T) {
	server := newTestServer()
	created := serve(server, http.MethodPost, "/api/v1/posts", "u1", `{"title":"hello","content":"world","tags":["go"]}`)
	if created.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", created.Code, created.Body.String())
	}
	postID := decode[map[string]any](t, created)["post_id"].(string)

	forbidden := serve(server, http.MethodPatch, "/api/v1/posts/"+postID, "u2", `{"title":"nope"}`)
	if forbidden.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", forbidden.Code, forbidden.Body.String())
	}

	like := serve(server, http.MethodPost, "/api/v1/posts/"+postID+"/likes", "u2", "")
	if like.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", like.Code, like.Body.String())
	}
	again := serve(server, http.MethodPost, "/api/v1/posts/"+postID+"/likes", "u2", "")
	if again.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", again.Code, again.Body.String())
	}

	comment := serve(server, http.MethodPost, "/api/v1/posts/"+postID+"/comments", "u3", `{"content":"nice"}`)
	if comment.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", comment.Code, comment.Body.String())
	}

	stats := serve(server, http.MethodGet, "/api/v1/posts/"+postID+"/stats", "", "")
	if stats.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", stats.Code, stats.Body.String())
	}
	body := decode[map[string]any](t, stats)
	if body["likes_count"].(float64) != 1 || body["comments_count"].(float64) != 1 {
		t.Fatalf("unexpected stats %v", body)
	}

	badLimit := serve(server, http.MethodGet, "/api/v1/posts/"+postID+"/comments?limit=abc", "", "")
	if badLimit.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", badLimit.Code, badLimit.Body.String())
	}
	invalidJSON := serve(server, http.MethodPost, "/api/v1/posts/"+postID+"/comments", "u3", `{`)
	if invalidJSON.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", invalidJSON.Code, invalidJSON.Body.String())
	}
}

func TestUnmountedModulesAreNotRouted(t *testing.T) {
	posts := postservice.NewInMemoryModule(nil)
	server := New(Modules{Posts: &posts}, nil, "")
	rr := serve(server, http.MethodPost, "/api/v1/users", "", `{}`)
	if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected users routes to be absent, got %d", rr.Code)
	}
	health := serve(server, http.MethodGet, "/healthz", "", "")
	if health.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", health.Code)
	}
}

func TestReadRoutesForLikesFollowsAndUsernames(t *testing.T) {
	server := newTestServer()
	alice := serve(server, http.MethodPost, "/api/v1/users", "", `{"username":"alice","email":"alice@example.com","password":"supersecret"}`)
	bob := serve(server, http.MethodPost, "/api/v1/users", "", `{"username":"bob","email":"bob@example.com","password":"supersecret"}`)
	aliceID := decode[map[string]any](t, alice)["user_id"].(string)
	bobID := decode[map[string]any](t, bob)["user_id"].(string)

	byName := serve(server, http.MethodGet, "/api/v1/usernames/bob", "", "")
	if byName.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", byName.Code, byName.Body.String())
	}
	if got := decode[map[string]any](t, byName)["user_id"]; got != bobID {
		t.Fatalf("expected %s, got %v", bobID, got)
	}
	if missing := serve(server, http.MethodGet, "/api/v1/usernames/nobody", "", ""); missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}

	serve(server, http.MethodPost, "/api/v1/users/"+bobID+"/follow", aliceID, "")
	status := serve(server, http.MethodGet, "/api/v1/users/"+aliceID+"/following/"+bobID, "", "")
	if status.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", status.Code, status.Body.String())
	}
	if following := decode[map[string]any](t, status)["following"]; following != true {
		t.Fatalf("expected following=true, got %v", following)
	}

	created := serve(server, http.MethodPost, "/api/v1/posts", aliceID, `{"title":"hello","content":"world"}`)
	postID := decode[map[string]any](t, created)["post_id"].(string)
	serve(server, http.MethodPost, "/api/v1/posts/"+postID+"/likes", bobID, "")

	check := serve(server, http.MethodGet, "/api/v1/posts/"+postID+"/likes/check", bobID, "")
	if check.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", check.Code, check.Body.String())
	}
	if liked := decode[map[string]any](t, check)["liked"]; liked != true {
		t.Fatalf("expected liked=true, got %v", liked)
	}
	if anonymous := serve(server, http.MethodGet, "/api/v1/posts/"+postID+"/likes/check", "", ""); anonymous.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", anonymous.Code)
	}

	bulk := serve(server, http.MethodPost, "/api/v1/posts/likes/bulk-check", bobID, `{"post_ids":["`+postID+`","other"]}`)
	if bulk.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", bulk.Code, bulk.Body.String())
	}
	if items := decode[map[string]any](t, bulk)["items"].([]any); len(items) != 2 {
		t.Fatalf("expected two statuses, got %d", len(items))
	}

	for _, path := range []string{"/api/v1/posts/" + postID + "/likes", "/api/v1/users/" + bobID + "/likes"} {
		rr := serve(server, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d body=%s", path, rr.Code, rr.Body.String())
		}
		if items := decode[map[string]any](t, rr)["items"].([]any); len(items) != 1 {
			t.Fatalf("%s: expected one like, got %d", path, len(items))
		}
	}

	comment := serve(server, http.MethodPost, "/api/v1/posts/"+postID+"/comments", bobID, `{"content":"nice"}`)
	commentID := decode[map[string]any](t, comment)["comment_id"].(string)
	forbidden := serve(server, http.MethodPatch, "/api/v1/comments/"+commentID, aliceID, `{"content":"mine now"}`)
	if forbidden.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", forbidden.Code, forbidden.Body.String())
	}
	edited := serve(server, http.MethodPatch, "/api/v1/comments/"+commentID, bobID, `{"content":"very nice"}`)
	if edited.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", edited.Code, edited.Body.String())
	}
	if body := decode[map[string]any](t, edited); body["is_edited"] != true || body["content"] != "very nice" {
		t.Fatalf("unexpected edit response %v", body)
	}
}
