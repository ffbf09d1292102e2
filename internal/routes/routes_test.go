package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"user_portal/internal/middleware"
	"user_portal/internal/models"
	"user_portal/internal/services"
	"user_portal/internal/storage"
	"user_portal/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type sentNotice struct {
	to   string
	name string
}

type recordingNotifier struct {
	sent []sentNotice
}

func (n *recordingNotifier) PasswordChanged(_ context.Context, to, name string) error {
	n.sent = append(n.sent, sentNotice{to: to, name: name})
	return nil
}

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	db       *gorm.DB
	auth     *middleware.Auth
	users    *services.UserService
	notifier *recordingNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	auth := middleware.NewAuth("routes-test-secret", time.Hour)
	notifier := &recordingNotifier{}
	router := SetupRouter(Dependencies{
		DB:       db,
		Store:    store,
		Auth:     auth,
		Notifier: notifier,
		HashCost: bcrypt.MinCost,
	})
	return &testServer{
		t:        t,
		router:   router,
		db:       db,
		auth:     auth,
		users:    services.NewUserService(db, bcrypt.MinCost),
		notifier: notifier,
	}
}

// createUser inserts an account directly and returns it with a session token.
func (s *testServer) createUser(email, role string) (*models.User, string) {
	s.t.Helper()
	user, err := s.users.Create(context.Background(), services.NewUser{
		Firstname: "Test",
		Lastname:  "User",
		Email:     email,
		Password:  "secret1",
		Role:      role,
	})
	require.NoError(s.t, err)
	token, err := s.auth.GenerateToken(user.ID, user.Role)
	require.NoError(s.t, err)
	return user, token
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type upload struct {
	field    string
	filename string
	content  []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func formRequest(method, path string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeObject(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeArray(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func registrationFields(email string) map[string]string {
	return map[string]string{
		"firstname": "Ada",
		"lastname":  "Lovelace",
		"gender":    "female",
		"email":     email,
		"password":  "secret1",
		"contacts":  "+254700000000",
	}
}

func totalUsers(t *testing.T, db *gorm.DB, role string) int {
	t.Helper()
	var stats models.UserStats
	err := db.Where("role = ?", role).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0
	}
	require.NoError(t, err)
	return stats.TotalUsers
}

func TestHome(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "user application")

	w = s.do(httptest.NewRequest(http.MethodPost, "/", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome")
}

func TestRegister_CreatesUserAndSession(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartRequest(t, http.MethodPost, "/register", registrationFields("Ada@Example.com")), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeObject(t, w)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, models.RoleUser, user["role"])
	assert.NotContains(t, user, "password")

	var sessionSet bool
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.SessionCookie && cookie.Value != "" {
			sessionSet = true
		}
	}
	assert.True(t, sessionSet, "register should set the session cookie")
	assert.Equal(t, 1, totalUsers(t, s.db, models.RoleUser))
}

func TestRegister_AcceptsSingleNameField(t *testing.T) {
	s := newTestServer(t)

	fields := registrationFields("grace@example.com")
	delete(fields, "firstname")
	delete(fields, "lastname")
	fields["name"] = "Grace Brewster Hopper"

	w := s.do(multipartRequest(t, http.MethodPost, "/users", fields), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decodeObject(t, w)
	assert.Equal(t, "Grace", user["firstname"])
	assert.Equal(t, "Brewster Hopper", user["lastname"])
}

func TestRegister_ValidationFailures(t *testing.T) {
	s := newTestServer(t)
	s.createUser("taken@example.com", models.RoleUser)

	tests := []struct {
		name   string
		email  string
		pw     string
		status int
		field  string
	}{
		{"malformed email", "not-an-email", "secret1", http.StatusBadRequest, "email"},
		{"duplicate email any case", "TAKEN@example.com", "secret1", http.StatusConflict, "email"},
		{"short password", "short@example.com", "12345", http.StatusBadRequest, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := registrationFields(tt.email)
			fields["password"] = tt.pw
			w := s.do(multipartRequest(t, http.MethodPost, "/register", fields), "")
			require.Equal(t, tt.status, w.Code, w.Body.String())
			body := decodeObject(t, w)
			assert.Equal(t, tt.field, body["field"])
			assert.NotEmpty(t, body["error"])
		})
	}

	var count int64
	require.NoError(t, s.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, totalUsers(t, s.db, models.RoleUser))
}

func TestRegister_AdminRoleNeedsAdminCaller(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.createUser("plain@example.com", models.RoleUser)
	_, adminToken := s.createUser("boss@example.com", models.RoleAdmin)

	fields := registrationFields("new-admin@example.com")
	fields["role"] = "Admin"

	w := s.do(multipartRequest(t, http.MethodPost, "/register", fields), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(multipartRequest(t, http.MethodPost, "/register", fields), userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(multipartRequest(t, http.MethodPost, "/register", fields), adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decodeObject(t, w)["user"].(map[string]interface{})
	assert.Equal(t, models.RoleAdmin, user["role"])
	assert.Contains(t, user, "admin")
}

func TestRegister_EmployeeDetails(t *testing.T) {
	s := newTestServer(t)

	fields := registrationFields("emp@example.com")
	fields["role"] = "employee"
	fields["employee_id"] = "42"
	fields["salary"] = "2500.50"
	fields["department"] = "Ops"
	fields["position"] = "Lead"
	fields["locations"] = `[{"country":"Kenya","county":"Nairobi","town":"Westlands","latitude":-1.26,"longitude":36.8}]`

	w := s.do(multipartRequest(t, http.MethodPost, "/users", fields), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	user := decodeObject(t, w)
	employee := user["employee"].(map[string]interface{})
	assert.EqualValues(t, 42, employee["employee_id"])
	assert.Equal(t, "2500.5", employee["salary"])
	assert.Equal(t, "Ops", employee["department"])

	locations := user["locations"].([]interface{})
	require.Len(t, locations, 1)
	assert.Contains(t, locations[0].(map[string]interface{})["geometry"], "Point")
	assert.Equal(t, 1, totalUsers(t, s.db, models.RoleEmployee))
}

func TestRegister_RejectsInvalidEmployeeID(t *testing.T) {
	s := newTestServer(t)

	fields := registrationFields("emp@example.com")
	fields["role"] = "employee"
	fields["employee_id"] = "forty-two"

	w := s.do(multipartRequest(t, http.MethodPost, "/users", fields), "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "employee_id", decodeObject(t, w)["field"])
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	user, _ := s.createUser("login@example.com", models.RoleUser)

	w := s.do(jsonRequest(t, http.MethodPost, "/login", gin.H{"email": "LOGIN@example.com", "password": "secret1"}), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeObject(t, w)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	returned := body["user"].(map[string]interface{})
	assert.EqualValues(t, user.ID, returned["id"])
	assert.NotNil(t, returned["last_login"])

	w = s.do(httptest.NewRequest(http.MethodGet, "/profile", nil), token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(jsonRequest(t, http.MethodPost, "/login", gin.H{"email": "login@example.com", "password": "wrong-pass"}), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decodeObject(t, w)["error"])

	w = s.do(jsonRequest(t, http.MethodPost, "/login", gin.H{"email": "nobody@example.com", "password": "secret1"}), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(jsonRequest(t, http.MethodPost, "/login", gin.H{"email": "login@example.com"}), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "password", decodeObject(t, w)["field"])
}

func TestSessionCookieAuthenticates(t *testing.T) {
	s := newTestServer(t)
	s.createUser("cookie@example.com", models.RoleUser)

	w := s.do(jsonRequest(t, http.MethodPost, "/login", gin.H{"email": "cookie@example.com", "password": "secret1"}), "")
	require.Equal(t, http.StatusOK, w.Code)

	var session *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.SessionCookie {
			session = cookie
		}
	}
	require.NotNil(t, session)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(session)
	w = s.do(req, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cookie@example.com", decodeObject(t, w)["email"])

	w = s.do(httptest.NewRequest(http.MethodPost, "/logout", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListUsers_RequiresSession(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser("one@example.com", models.RoleUser)
	s.createUser("two@example.com", models.RoleEmployee)

	w := s.do(httptest.NewRequest(http.MethodGet, "/users", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/users", nil), "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/users", nil), token)
	require.Equal(t, http.StatusOK, w.Code)
	users := decodeArray(t, w)
	require.Len(t, users, 2)
	assert.Equal(t, "one@example.com", users[0]["email"])
	assert.Contains(t, users[1], "employee")
}

func TestGetUser_AdminOnly(t *testing.T) {
	s := newTestServer(t)
	user, userToken := s.createUser("member@example.com", models.RoleUser)
	_, adminToken := s.createUser("admin@example.com", models.RoleAdmin)
	path := fmt.Sprintf("/users/%d", user.ID)

	w := s.do(httptest.NewRequest(http.MethodGet, path, nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, path, nil), userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, path, nil), adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "member@example.com", decodeObject(t, w)["email"])

	w = s.do(httptest.NewRequest(http.MethodGet, "/users/9999", nil), adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/users/abc", nil), adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteUser(t *testing.T) {
	s := newTestServer(t)
	user, userToken := s.createUser("gone@example.com", models.RoleUser)
	_, adminToken := s.createUser("admin@example.com", models.RoleAdmin)
	path := fmt.Sprintf("/users/%d", user.ID)

	w := s.do(httptest.NewRequest(http.MethodDelete, path, nil), userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(httptest.NewRequest(http.MethodDelete, path, nil), adminToken)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, 0, totalUsers(t, s.db, models.RoleUser))

	w = s.do(httptest.NewRequest(http.MethodDelete, path, nil), adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateUser_OwnProfileUnlessAdmin(t *testing.T) {
	s := newTestServer(t)
	user, userToken := s.createUser("self@example.com", models.RoleUser)
	other, _ := s.createUser("other@example.com", models.RoleUser)
	_, adminToken := s.createUser("admin@example.com", models.RoleAdmin)

	w := s.do(formRequest(http.MethodPut, fmt.Sprintf("/users/%d/update", user.ID), url.Values{
		"firstname": {"Renamed"},
		"role":      {"admin"},
	}), userToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeObject(t, w)
	assert.Equal(t, "Renamed", body["firstname"])
	assert.Equal(t, models.RoleUser, body["role"], "role is ignored on self updates")

	w = s.do(formRequest(http.MethodPost, fmt.Sprintf("/users/%d/update", other.ID), url.Values{
		"firstname": {"Hijacked"},
	}), userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(formRequest(http.MethodPut, fmt.Sprintf("/users/%d/update", user.ID), url.Values{
		"email": {"OTHER@example.com"},
	}), userToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(formRequest(http.MethodPut, fmt.Sprintf("/users/%d/update", other.ID), url.Values{
		"contacts": {"0711"},
	}), adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0711", decodeObject(t, w)["contacts"])
}

func TestPatchUser_AdminChangesRole(t *testing.T) {
	s := newTestServer(t)
	user, userToken := s.createUser("promote@example.com", models.RoleUser)
	_, adminToken := s.createUser("admin@example.com", models.RoleAdmin)
	path := fmt.Sprintf("/users/%d/update", user.ID)

	w := s.do(formRequest(http.MethodPatch, path, url.Values{"role": {"employee"}}), userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(formRequest(http.MethodPatch, path, url.Values{
		"role":       {"employee"},
		"department": {"Finance"},
	}), adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeObject(t, w)
	assert.Equal(t, models.RoleEmployee, body["role"])
	assert.Equal(t, "Finance", body["employee"].(map[string]interface{})["department"])

	assert.Equal(t, 0, totalUsers(t, s.db, models.RoleUser))
	assert.Equal(t, 1, totalUsers(t, s.db, models.RoleEmployee))
}

func TestUploads_SameFilenameOverwrites(t *testing.T) {
	s := newTestServer(t)

	first := s.do(multipartRequest(t, http.MethodPost, "/register", registrationFields("first@example.com"),
		upload{field: "display_photo", filename: "a.png", content: []byte("first")}), "")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := s.do(multipartRequest(t, http.MethodPost, "/register", registrationFields("second@example.com"),
		upload{field: "display_photo", filename: "a.png", content: []byte("second")}), "")
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())

	for _, w := range []*httptest.ResponseRecorder{first, second} {
		user := decodeObject(t, w)["user"].(map[string]interface{})
		assert.Equal(t, "/uploads/a.png", user["display_photo"])
	}

	w := s.do(httptest.NewRequest(http.MethodGet, "/uploads/a.png", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "second", w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploads_SanitisedFilename(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartRequest(t, http.MethodPost, "/register", registrationFields("photo@example.com"),
		upload{field: "display_photo", filename: "my holiday pic.png", content: []byte("png")}), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decodeObject(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "/uploads/my_holiday_pic.png", user["display_photo"])

	w = s.do(httptest.NewRequest(http.MethodGet, "/uploads/my_holiday_pic.png", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPasswordReset(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.createUser("reset@example.com", models.RoleUser)
	s.createUser("victim@example.com", models.RoleUser)
	_, adminToken := s.createUser("admin@example.com", models.RoleAdmin)

	body := gin.H{"email": "reset@example.com", "new_password": "brand-new"}

	w := s.do(jsonRequest(t, http.MethodPost, "/password/reset", body), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(jsonRequest(t, http.MethodPost, "/password/reset", body), userToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decodeObject(t, w)["message"])
	require.Len(t, s.notifier.sent, 1)
	assert.Equal(t, "reset@example.com", s.notifier.sent[0].to)

	w = s.do(jsonRequest(t, http.MethodPost, "/login", gin.H{"email": "reset@example.com", "password": "brand-new"}), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(jsonRequest(t, http.MethodPost, "/password/reset", gin.H{"email": "victim@example.com", "new_password": "owned!!"}), userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(jsonRequest(t, http.MethodPost, "/password/reset", gin.H{"email": "victim@example.com", "new_password": "admin-set"}), adminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(jsonRequest(t, http.MethodPost, "/password/reset", gin.H{"email": "ghost@example.com", "new_password": "whatever"}), adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(jsonRequest(t, http.MethodPost, "/password/reset", gin.H{"email": "reset@example.com", "new_password": "123"}), userToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "password", decodeObject(t, w)["field"])
}

func TestProfileArrivalAndTimeEntries(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser("clock@example.com", models.RoleEmployee)

	w := s.do(httptest.NewRequest(http.MethodGet, "/profile/time-entries", nil), token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeArray(t, w))

	w = s.do(jsonRequest(t, http.MethodPost, "/profile/arrival", gin.H{"arrivaltime": 830}), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeObject(t, w)
	assert.EqualValues(t, 830, body["arrivaltime"])
	assert.EqualValues(t, 830, body["employee"].(map[string]interface{})["arrivaltime"])

	w = s.do(jsonRequest(t, http.MethodPost, "/profile/arrival", gin.H{}), token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "arrivaltime", decodeObject(t, w)["field"])

	w = s.do(httptest.NewRequest(http.MethodGet, "/profile/time-entries", nil), token)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decodeArray(t, w)
	require.Len(t, entries, 1)
	assert.EqualValues(t, 830, entries[0]["arrivaltime"])
}

func TestUpdateProfile(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser("me@example.com", models.RoleUser)

	w := s.do(multipartRequest(t, http.MethodPut, "/profile", map[string]string{"gender": "male"},
		upload{field: "display_photo", filename: "me.jpg", content: []byte("jpg")}), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeObject(t, w)
	assert.Equal(t, "male", body["gender"])
	assert.Equal(t, "/uploads/me.jpg", body["display_photo"])
}

func TestProfileLocations(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser("geo@example.com", models.RoleUser)
	_, otherToken := s.createUser("other@example.com", models.RoleUser)

	w := s.do(jsonRequest(t, http.MethodPost, "/profile/locations", gin.H{
		"country":   "Kenya",
		"county":    "Mombasa",
		"town":      "Nyali",
		"latitude":  -4.04,
		"longitude": 39.7,
	}), token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeObject(t, w)
	assert.Contains(t, created["geometry"], "Point")
	id := uint(created["id"].(float64))

	w = s.do(jsonRequest(t, http.MethodPost, "/profile/locations", gin.H{"country": "Kenya"}), token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/profile/locations", nil), token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeArray(t, w), 1)

	path := fmt.Sprintf("/profile/locations/%d", id)
	w = s.do(httptest.NewRequest(http.MethodDelete, path, nil), otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(httptest.NewRequest(http.MethodDelete, path, nil), token)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPosts(t *testing.T) {
	s := newTestServer(t)
	author, authorToken := s.createUser("author@example.com", models.RoleUser)
	_, readerToken := s.createUser("reader@example.com", models.RoleUser)

	w := s.do(jsonRequest(t, http.MethodPost, "/posts", gin.H{"title": "Hello", "content": "First post"}), authorToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decodeObject(t, w)
	assert.EqualValues(t, author.ID, post["user_id"])
	path := fmt.Sprintf("/posts/%d", uint(post["id"].(float64)))

	w = s.do(jsonRequest(t, http.MethodPost, "/posts", gin.H{"title": strings.Repeat("x", 101), "content": "too long"}), authorToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title", decodeObject(t, w)["field"])

	w = s.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/posts?user_id=%d", author.ID), nil), readerToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeArray(t, w), 1)

	w = s.do(jsonRequest(t, http.MethodPut, path, gin.H{"title": "Edited"}), readerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(jsonRequest(t, http.MethodPut, path, gin.H{"title": "Edited"}), authorToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Edited", decodeObject(t, w)["title"])

	w = s.do(httptest.NewRequest(http.MethodDelete, path, nil), authorToken)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, path, nil), authorToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStats_AdminOnly(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.createUser("u1@example.com", models.RoleUser)
	s.createUser("u2@example.com", models.RoleUser)
	_, adminToken := s.createUser("admin@example.com", models.RoleAdmin)

	w := s.do(httptest.NewRequest(http.MethodGet, "/stats", nil), userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/stats", nil), adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	totals := map[string]float64{}
	for _, row := range decodeArray(t, w) {
		totals[row["role"].(string)] = row["total_users"].(float64)
	}
	assert.Equal(t, float64(2), totals[models.RoleUser])
	assert.Equal(t, float64(1), totals[models.RoleAdmin])
}

func TestDemotedAdminLosesAccessImmediately(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.createUser("admin@example.com", models.RoleAdmin)
	demoted, demotedToken := s.createUser("second@example.com", models.RoleAdmin)
	victim, _ := s.createUser("victim@example.com", models.RoleUser)

	w := s.do(formRequest(http.MethodPatch, fmt.Sprintf("/users/%d/update", demoted.ID), url.Values{"role": {"user"}}), adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	victimPath := fmt.Sprintf("/users/%d", victim.ID)
	w = s.do(httptest.NewRequest(http.MethodDelete, victimPath, nil), demotedToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/stats", nil), demotedToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, victimPath, nil), adminToken)
	assert.Equal(t, http.StatusOK, w.Code, "victim must survive the rejected delete")

	fields := registrationFields("sneaky@example.com")
	fields["role"] = "admin"
	w = s.do(multipartRequest(t, http.MethodPost, "/register", fields), demotedToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeletedUserTokenIsRejected(t *testing.T) {
	s := newTestServer(t)
	gone, goneToken := s.createUser("gone@example.com", models.RoleUser)
	_, adminToken := s.createUser("admin@example.com", models.RoleAdmin)

	w := s.do(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/users/%d", gone.ID), nil), adminToken)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/users", nil), goneToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/profile", nil), goneToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(jsonRequest(t, http.MethodPost, "/posts", gin.H{"title": "ghost", "content": "post"}), goneToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordReset_NonAdminGetsSameAnswerForUnknownEmail(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.createUser("me@example.com", models.RoleUser)
	s.createUser("someone@example.com", models.RoleUser)

	registered := s.do(jsonRequest(t, http.MethodPost, "/password/reset", gin.H{"email": "someone@example.com", "new_password": "newpass1"}), userToken)
	unknown := s.do(jsonRequest(t, http.MethodPost, "/password/reset", gin.H{"email": "nobody@example.com", "new_password": "newpass1"}), userToken)

	assert.Equal(t, http.StatusForbidden, registered.Code)
	assert.Equal(t, http.StatusForbidden, unknown.Code)
	assert.Equal(t, registered.Body.String(), unknown.Body.String())
}

func TestUploads_RejectedFormDoesNotReplaceStoredPhoto(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartRequest(t, http.MethodPost, "/register", registrationFields("owner@example.com"),
		upload{field: "display_photo", filename: "a.png", content: []byte("original")}), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := decodeObject(t, w)["token"].(string)

	bad := registrationFields("not-an-email")
	w = s.do(multipartRequest(t, http.MethodPost, "/register", bad,
		upload{field: "display_photo", filename: "a.png", content: []byte("replaced")}), "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	taken := registrationFields("OWNER@example.com")
	w = s.do(multipartRequest(t, http.MethodPost, "/users", taken,
		upload{field: "display_photo", filename: "a.png", content: []byte("replaced")}), "")
	require.Equal(t, http.StatusConflict, w.Code)

	w = s.do(multipartRequest(t, http.MethodPut, "/profile", map[string]string{"password": "123"},
		upload{field: "display_photo", filename: "a.png", content: []byte("replaced")}), token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/uploads/a.png", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "original", w.Body.String())
}
