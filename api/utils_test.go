package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/require"

	"github.com/stablelink/stablelink/claims"
	"github.com/stablelink/stablelink/conf"
	"github.com/stablelink/stablelink/models"
)

const testJWTSecret = "testsecret"

func testConfig() *conf.Configuration {
	config := new(conf.Configuration)
	config.JWT.Secret = testJWTSecret
	config.ApplyDefaults()
	return config
}

func apiForTest(t *testing.T) (*API, *gorm.DB) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=10000", path))
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() {
		db.Close()
	})

	return NewAPI(new(conf.GlobalConfiguration), testConfig(), db), db
}

func testToken(t *testing.T, userID, email string) string {
	tokenClaims := &claims.AccessClaims{
		Email: email,
		StandardClaims: jwt.StandardClaims{
			Subject: userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, a *API, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, "https://example.com"+path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	a.handler.ServeHTTP(recorder, req)
	return recorder
}

func extractPayload(t *testing.T, expectedCode int, recorder *httptest.ResponseRecorder, obj interface{}) {
	require.Equal(t, expectedCode, recorder.Code, "unexpected response: %s", recorder.Body.String())
	if obj != nil {
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(obj))
	}
}

func extractError(t *testing.T, expectedCode int, recorder *httptest.ResponseRecorder) *HTTPError {
	require.Equal(t, expectedCode, recorder.Code, "unexpected response: %s", recorder.Body.String())
	httpErr := new(HTTPError)
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(httpErr))
	require.Equal(t, expectedCode, httpErr.Code)
	return httpErr
}

// createTestProfile claims a handle for the user through the public API.
func createTestProfile(t *testing.T, a *API, userID, handle string) string {
	token := testToken(t, userID, handle+"@example.com")
	recorder := doRequest(t, a, http.MethodPost, "/users", token, map[string]string{
		"handle": handle,
		"name":   "Test Creator",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, "profile setup failed: %s", recorder.Body.String())
	return token
}

// createTestLink creates a link through the public API and returns the
// decoded response.
func createTestLink(t *testing.T, a *API, token string, params map[string]interface{}) *models.Link {
	recorder := doRequest(t, a, http.MethodPost, "/links", token, params)
	require.Equal(t, http.StatusCreated, recorder.Code, "link setup failed: %s", recorder.Body.String())
	link := new(models.Link)
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(link))
	return link
}
