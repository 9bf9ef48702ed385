package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/resumectl/internal/auth"
	"github.com/starford/resumectl/internal/models"
	"github.com/starford/resumectl/internal/resumeservice"
	"github.com/starford/resumectl/internal/testutil"
)

const testPassword = "Secr3t!pw"

// testEnv sets up a temp SQLite DB, service, and router for testing.
func testEnv(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.TestDB(t)
	tokens := auth.NewTokens("test-secret", time.Hour)
	svc := resumeservice.New(db, tokens, resumeservice.WithBcryptCost(bcrypt.MinCost))
	return NewRouter(svc, tokens, nil)
}

func do(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatal(err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, want, w.Body.String())
	}
}

// decodeKey unmarshals the value under key in a JSON object response.
func decodeKey(t *testing.T, w *httptest.ResponseRecorder, key string, dst any) {
	t.Helper()
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v, body = %s", err, w.Body.String())
	}
	raw, ok := resp[key]
	if !ok {
		t.Fatalf("response has no %q key: %s", key, w.Body.String())
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("unmarshal %q: %v", key, err)
	}
}

func register(t *testing.T, router http.Handler, username string) string {
	t.Helper()
	w := do(t, router, http.MethodPost, "/auth/register", "", CredentialsRequest{Username: username, Password: testPassword})
	expectStatus(t, w, http.StatusCreated)
	var token string
	decodeKey(t, w, "authToken", &token)
	if token == "" {
		t.Fatal("empty auth token")
	}
	return token
}

func masterID(t *testing.T, router http.Handler, username, token string) int64 {
	t.Helper()
	w := do(t, router, http.MethodGet, "/users/"+username+"/documents", token, nil)
	expectStatus(t, w, http.StatusOK)
	var docs []models.Document
	decodeKey(t, w, "documents", &docs)
	if len(docs) == 0 || !docs[0].IsMaster {
		t.Fatalf("expected master document first, got %+v", docs)
	}
	return docs[0].ID
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) any {
	t.Helper()
	var resp struct {
		Error struct {
			Message any `json:"message"`
			Status  int `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if resp.Error.Status != w.Code {
		t.Fatalf("error.status = %d, want %d", resp.Error.Status, w.Code)
	}
	return resp.Error.Message
}

func TestRegisterAndSignIn(t *testing.T) {
	router := testEnv(t)
	register(t, router, "alice")

	w := do(t, router, http.MethodPost, "/auth/register", "", CredentialsRequest{Username: "alice", Password: testPassword})
	expectStatus(t, w, http.StatusConflict)
	if msg := errorMessage(t, w); msg != `Username "alice" is not available.` {
		t.Fatalf("message = %v", msg)
	}

	w = do(t, router, http.MethodPost, "/auth/signin", "", CredentialsRequest{Username: "alice", Password: "Wr0ng!pw"})
	expectStatus(t, w, http.StatusUnauthorized)

	w = do(t, router, http.MethodPost, "/auth/signin", "", CredentialsRequest{Username: "nobody", Password: testPassword})
	expectStatus(t, w, http.StatusUnauthorized)

	w = do(t, router, http.MethodPost, "/auth/signin", "", CredentialsRequest{Username: "alice", Password: testPassword})
	expectStatus(t, w, http.StatusOK)
}

func TestRegisterValidation(t *testing.T) {
	router := testEnv(t)

	w := do(t, router, http.MethodPost, "/auth/register", "", CredentialsRequest{Username: "al", Password: "short"})
	expectStatus(t, w, http.StatusBadRequest)
	msgs, ok := errorMessage(t, w).([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("expected two validation messages, got %v", msgs)
	}
	if !strings.HasPrefix(msgs[0].(string), "password: ") || !strings.HasPrefix(msgs[1].(string), "username: ") {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	router := testEnv(t)
	w := do(t, router, http.MethodPost, "/auth/register", "", `{"username":"alice","password":"Secr3t!pw","admin":true}`)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestAuthRequired(t *testing.T) {
	router := testEnv(t)
	register(t, router, "alice")
	bob := register(t, router, "bob")

	w := do(t, router, http.MethodGet, "/users/alice/documents", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	w = do(t, router, http.MethodGet, "/users/alice/documents", "garbage", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	w = do(t, router, http.MethodGet, "/users/alice/documents", bob, nil)
	expectStatus(t, w, http.StatusForbidden)
}

func TestListSectionsPublic(t *testing.T) {
	router := testEnv(t)
	w := do(t, router, http.MethodGet, "/sections", "", nil)
	expectStatus(t, w, http.StatusOK)
	var sections []models.Section
	decodeKey(t, w, "sections", &sections)
	if len(sections) != len(testutil.DefaultSections) {
		t.Fatalf("got %d sections, want %d", len(sections), len(testutil.DefaultSections))
	}
}

func TestDocumentLifecycle(t *testing.T) {
	router := testEnv(t)
	token := register(t, router, "alice")
	master := masterID(t, router, "alice", token)

	w := do(t, router, http.MethodPost, "/users/alice/documents", token, map[string]any{"documentName": "Backend", "isTemplate": true})
	expectStatus(t, w, http.StatusCreated)
	var doc models.Document
	decodeKey(t, w, "document", &doc)
	if doc.IsMaster || !doc.IsTemplate || doc.DocumentName != "Backend" {
		t.Fatalf("unexpected document %+v", doc)
	}

	w = do(t, router, http.MethodPost, "/users/alice/documents", token, map[string]any{"documentName": "Backend"})
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, router, http.MethodPost, "/users/alice/documents", token, map[string]any{"documentName": ""})
	expectStatus(t, w, http.StatusBadRequest)

	masterPath := fmt.Sprintf("/users/alice/documents/%d", master)
	w = do(t, router, http.MethodPatch, masterPath, token, map[string]any{"isLocked": true})
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, router, http.MethodPatch, masterPath, token, map[string]any{"documentName": "Everything"})
	expectStatus(t, w, http.StatusOK)

	w = do(t, router, http.MethodDelete, masterPath, token, nil)
	expectStatus(t, w, http.StatusForbidden)

	docPath := fmt.Sprintf("/users/alice/documents/%d", doc.ID)
	w = do(t, router, http.MethodDelete, docPath, token, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = do(t, router, http.MethodGet, docPath, token, nil)
	expectStatus(t, w, http.StatusNotFound)

	// Deleting again is a no-op.
	w = do(t, router, http.MethodDelete, docPath, token, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = do(t, router, http.MethodGet, "/users/alice/documents/abc", token, nil)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestDocumentOfAnotherUser(t *testing.T) {
	router := testEnv(t)
	alice := register(t, router, "alice")
	bob := register(t, router, "bob")
	aliceMaster := masterID(t, router, "alice", alice)

	w := do(t, router, http.MethodGet, fmt.Sprintf("/users/bob/documents/%d", aliceMaster), bob, nil)
	expectStatus(t, w, http.StatusForbidden)
}

func createEducation(t *testing.T, router http.Handler, token string, docID int64, school string) models.Education {
	t.Helper()
	w := do(t, router, http.MethodPost, fmt.Sprintf("/users/alice/documents/%d/educations", docID), token, map[string]any{
		"school":    school,
		"location":  "Springfield",
		"startDate": "2010-09-01",
		"endDate":   "2014-06-01",
		"degree":    "BSc",
	})
	expectStatus(t, w, http.StatusCreated)
	var ed models.Education
	decodeKey(t, w, "education", &ed)
	var row map[string]any
	decodeKey(t, w, "document_x_education", &row)
	if row["documentId"] != float64(docID) || row["educationId"] != float64(ed.ID) {
		t.Fatalf("unexpected relation %v", row)
	}
	return ed
}

func TestEducationsInDocuments(t *testing.T) {
	router := testEnv(t)
	token := register(t, router, "alice")
	master := masterID(t, router, "alice", token)

	e1 := createEducation(t, router, token, master, "First")
	e2 := createEducation(t, router, token, master, "Second")

	w := do(t, router, http.MethodPost, "/users/alice/documents", token, map[string]any{"documentName": "Short"})
	expectStatus(t, w, http.StatusCreated)
	var doc models.Document
	decodeKey(t, w, "document", &doc)

	// Items can only be created on the master document.
	w = do(t, router, http.MethodPost, fmt.Sprintf("/users/alice/documents/%d/educations", doc.ID), token, map[string]any{
		"school": "Nope", "location": "X", "startDate": "2010-09-01", "endDate": "2014-06-01", "degree": "BA",
	})
	expectStatus(t, w, http.StatusForbidden)

	for _, id := range []int64{e2.ID, e1.ID} {
		w = do(t, router, http.MethodPost, fmt.Sprintf("/users/alice/documents/%d/educations/%d", doc.ID, id), token, nil)
		expectStatus(t, w, http.StatusCreated)
	}
	w = do(t, router, http.MethodPost, fmt.Sprintf("/users/alice/documents/%d/educations/%d", doc.ID, e1.ID), token, nil)
	expectStatus(t, w, http.StatusBadRequest)

	reorderPath := fmt.Sprintf("/users/alice/documents/%d/educations", master)
	w = do(t, router, http.MethodPut, reorderPath, token, []int64{e1.ID})
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, router, http.MethodPut, reorderPath, token, []int64{e2.ID, e1.ID})
	expectStatus(t, w, http.StatusOK)
	var ordered []models.Education
	decodeKey(t, w, "educations", &ordered)
	if len(ordered) != 2 || ordered[0].ID != e2.ID || ordered[1].ID != e1.ID {
		t.Fatalf("unexpected order %+v", ordered)
	}

	w = do(t, router, http.MethodGet, fmt.Sprintf("/users/alice/documents/%d", doc.ID), token, nil)
	expectStatus(t, w, http.StatusOK)
	var content models.DocumentContent
	decodeKey(t, w, "document", &content)
	if len(content.Educations) != 2 || content.Educations[0].ID != e2.ID {
		t.Fatalf("unexpected document content %+v", content.Educations)
	}

	w = do(t, router, http.MethodDelete, fmt.Sprintf("/users/alice/documents/%d/educations/%d", doc.ID, e2.ID), token, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = do(t, router, http.MethodPatch, fmt.Sprintf("/users/alice/educations/%d", e1.ID), token, map[string]any{"school": "Renamed"})
	expectStatus(t, w, http.StatusOK)
	var updated models.Education
	decodeKey(t, w, "education", &updated)
	if updated.School != "Renamed" {
		t.Fatalf("school = %q", updated.School)
	}

	w = do(t, router, http.MethodDelete, fmt.Sprintf("/users/alice/educations/%d", e1.ID), token, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = do(t, router, http.MethodGet, "/users/alice/educations", token, nil)
	expectStatus(t, w, http.StatusOK)
	var remaining []models.Education
	decodeKey(t, w, "educations", &remaining)
	if len(remaining) != 1 || remaining[0].ID != e2.ID {
		t.Fatalf("unexpected educations %+v", remaining)
	}
}

func TestEducationValidation(t *testing.T) {
	router := testEnv(t)
	token := register(t, router, "alice")
	master := masterID(t, router, "alice", token)

	w := do(t, router, http.MethodPost, fmt.Sprintf("/users/alice/documents/%d/educations", master), token, map[string]any{
		"school": "Backwards", "location": "X", "startDate": "2014-09-01", "endDate": "2010-06-01", "degree": "BA",
	})
	expectStatus(t, w, http.StatusBadRequest)
	msgs, ok := errorMessage(t, w).([]any)
	if !ok || len(msgs) != 1 || !strings.HasPrefix(msgs[0].(string), "endDate: ") {
		t.Fatalf("unexpected messages %v", msgs)
	}

	w = do(t, router, http.MethodPost, fmt.Sprintf("/users/alice/documents/%d/educations", master), token, map[string]any{
		"school": "Bad date", "location": "X", "startDate": "01/09/2010", "endDate": "2014-06-01", "degree": "BA",
	})
	expectStatus(t, w, http.StatusBadRequest)
}

func TestSectionsInDocument(t *testing.T) {
	router := testEnv(t)
	token := register(t, router, "alice")
	master := masterID(t, router, "alice", token)

	w := do(t, router, http.MethodGet, "/sections", "", nil)
	var sections []models.Section
	decodeKey(t, w, "sections", &sections)

	for _, s := range sections {
		w = do(t, router, http.MethodPost, fmt.Sprintf("/users/alice/documents/%d/sections/%d", master, s.ID), token, nil)
		expectStatus(t, w, http.StatusCreated)
	}

	w = do(t, router, http.MethodPost, fmt.Sprintf("/users/alice/documents/%d/sections/%d", master, 999), token, nil)
	expectStatus(t, w, http.StatusNotFound)

	ids := []int64{sections[2].ID, sections[0].ID, sections[1].ID}
	w = do(t, router, http.MethodPut, fmt.Sprintf("/users/alice/documents/%d/sections", master), token, ids)
	expectStatus(t, w, http.StatusOK)
	var ordered []models.Section
	decodeKey(t, w, "sections", &ordered)
	for i, s := range ordered {
		if s.ID != ids[i] {
			t.Fatalf("position %d: got section %d, want %d", i, s.ID, ids[i])
		}
	}

	w = do(t, router, http.MethodDelete, fmt.Sprintf("/users/alice/documents/%d/sections/%d", master, ids[0]), token, nil)
	expectStatus(t, w, http.StatusNoContent)
}

func TestTextSnippetVersions(t *testing.T) {
	router := testEnv(t)
	token := register(t, router, "alice")
	master := masterID(t, router, "alice", token)

	w := do(t, router, http.MethodPost, fmt.Sprintf("/users/alice/documents/%d/experiences", master), token, map[string]any{
		"title": "Engineer", "organization": "Acme", "location": "Remote", "startDate": "2015-01-01",
	})
	expectStatus(t, w, http.StatusCreated)
	var exp models.Experience
	decodeKey(t, w, "experience", &exp)

	snippetsPath := fmt.Sprintf("/users/alice/documents/%d/experiences/%d/text-snippets", master, exp.ID)
	w = do(t, router, http.MethodPost, snippetsPath, token, map[string]any{"type": "bullet", "content": "Shipped things"})
	expectStatus(t, w, http.StatusCreated)
	var first models.TextSnippet
	decodeKey(t, w, "textSnippet", &first)

	w = do(t, router, http.MethodGet, snippetsPath, token, nil)
	expectStatus(t, w, http.StatusOK)
	var listed []models.TextSnippet
	decodeKey(t, w, "textSnippets", &listed)
	if len(listed) != 1 || listed[0].ID != first.ID {
		t.Fatalf("unexpected snippets %+v", listed)
	}

	w = do(t, router, http.MethodPatch, fmt.Sprintf("/users/alice/text-snippets/%d", first.ID), token, map[string]any{
		"textSnippetVersion": first.Version,
		"content":            "Shipped more things",
	})
	expectStatus(t, w, http.StatusOK)
	var second models.TextSnippet
	decodeKey(t, w, "textSnippet", &second)
	if second.ID != first.ID || !second.Version.After(first.Version) || second.Content != "Shipped more things" {
		t.Fatalf("unexpected new version %+v", second)
	}
	if second.Parent == nil || !second.Parent.Equal(first.Version) {
		t.Fatalf("parent = %v, want %v", second.Parent, first.Version)
	}

	w = do(t, router, http.MethodGet, fmt.Sprintf("/users/alice/text-snippets/%d/versions", first.ID), token, nil)
	expectStatus(t, w, http.StatusOK)
	var versions []models.TextSnippet
	decodeKey(t, w, "textSnippets", &versions)
	if len(versions) != 2 {
		t.Fatalf("got %d versions, want 2", len(versions))
	}

	w = do(t, router, http.MethodDelete, fmt.Sprintf("/users/alice/text-snippets/%d", first.ID), token, map[string]any{
		"textSnippetVersion": first.Version,
	})
	expectStatus(t, w, http.StatusNoContent)

	w = do(t, router, http.MethodGet, "/users/alice/text-snippets", token, nil)
	expectStatus(t, w, http.StatusOK)
	var latest []models.TextSnippet
	decodeKey(t, w, "textSnippets", &latest)
	if len(latest) != 1 || !latest[0].Version.Equal(second.Version) || latest[0].Parent != nil {
		t.Fatalf("unexpected latest snippets %+v", latest)
	}
}

func TestUpdatePasswordAndDeleteUser(t *testing.T) {
	router := testEnv(t)
	token := register(t, router, "alice")

	w := do(t, router, http.MethodPatch, "/users/alice", token, map[string]any{"newPassword": "N3w!pass"})
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, router, http.MethodPatch, "/users/alice", token, map[string]any{"oldPassword": "Wr0ng!pw", "newPassword": "N3w!pass"})
	expectStatus(t, w, http.StatusUnauthorized)

	w = do(t, router, http.MethodPatch, "/users/alice", token, map[string]any{"oldPassword": testPassword, "newPassword": "N3w!pass"})
	expectStatus(t, w, http.StatusOK)
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password hash leaked: %s", w.Body.String())
	}

	w = do(t, router, http.MethodPost, "/auth/signin", "", CredentialsRequest{Username: "alice", Password: "N3w!pass"})
	expectStatus(t, w, http.StatusOK)

	w = do(t, router, http.MethodDelete, "/users/alice", token, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = do(t, router, http.MethodPost, "/auth/signin", "", CredentialsRequest{Username: "alice", Password: "N3w!pass"})
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestContactInfo(t *testing.T) {
	router := testEnv(t)
	token := register(t, router, "alice")

	w := do(t, router, http.MethodGet, "/users/alice/contact-info", token, nil)
	expectStatus(t, w, http.StatusNotFound)

	w = do(t, router, http.MethodPut, "/users/alice/contact-info", token, map[string]any{"fullName": "Alice A", "email": "not-an-email"})
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, router, http.MethodPut, "/users/alice/contact-info", token, map[string]any{"fullName": "Alice A", "email": "alice@example.com"})
	expectStatus(t, w, http.StatusOK)

	w = do(t, router, http.MethodGet, "/users/alice/contact-info", token, nil)
	expectStatus(t, w, http.StatusOK)
	var info models.ContactInfo
	decodeKey(t, w, "contactInfo", &info)
	if info.FullName != "Alice A" || info.Email == nil || *info.Email != "alice@example.com" {
		t.Fatalf("unexpected contact info %+v", info)
	}
}

func TestGetDocumentETag(t *testing.T) {
	router := testEnv(t)
	token := register(t, router, "alice")
	master := masterID(t, router, "alice", token)
	path := fmt.Sprintf("/users/alice/documents/%d", master)

	w := do(t, router, http.MethodGet, path, token, nil)
	expectStatus(t, w, http.StatusOK)
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	conditional := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("If-None-Match", etag)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w = conditional()
	expectStatus(t, w, http.StatusNotModified)
	if w.Body.Len() != 0 {
		t.Fatalf("304 carried a body: %s", w.Body.String())
	}

	w = do(t, router, http.MethodPatch, path, token, map[string]any{"documentName": "Renamed"})
	expectStatus(t, w, http.StatusOK)

	w = conditional()
	expectStatus(t, w, http.StatusOK)
	if w.Header().Get("ETag") == etag {
		t.Fatal("ETag did not change after update")
	}
}
