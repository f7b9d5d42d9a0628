package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ClientTestSuite struct {
	suite.Suite
	server *httptest.Server
	reply  func(w http.ResponseWriter)

	mu   sync.Mutex
	last *http.Request
	body map[string]any
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.last = nil
	s.body = nil
	s.reply = func(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		s.mu.Lock()
		s.last, s.body = r, body
		reply := s.reply
		s.mu.Unlock()
		reply(w)
	}))
}

func (s *ClientTestSuite) TearDownTest() {
	s.server.Close()
}

// seen returns the last request the server handled and its decoded body
func (s *ClientTestSuite) seen() (*http.Request, map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.body
}

func (s *ClientTestSuite) setReply(fn func(w http.ResponseWriter)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = fn
}

func (s *ClientTestSuite) replyJSON(status int, v any) {
	s.setReply(func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	})
}

func (s *ClientTestSuite) TestDaemonErrorDecoded() {
	s.replyJSON(http.StatusNotFound, map[string]any{
		"error": map[string]string{"code": "ACCOUNT_NOT_FOUND", "message": "Account not found"},
	})

	_, err := NewClient(s.server.URL, "").GetAccount(context.Background(), "frodo")

	var apiErr *Error
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusNotFound, apiErr.Status)
	s.Equal("ACCOUNT_NOT_FOUND", apiErr.Code)
	s.Equal("Account not found (ACCOUNT_NOT_FOUND)", err.Error())
	req, _ := s.seen()
	s.Equal("/api/v1/accounts/frodo", req.URL.Path)
}

func (s *ClientTestSuite) TestForeignErrorBodyKept() {
	s.setReply(func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down\n"))
	})

	_, err := NewClient(s.server.URL, "").Health(context.Background())

	var apiErr *Error
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusBadGateway, apiErr.Status)
	s.Equal("Bad Gateway", apiErr.Code)
	s.Equal("upstream down", apiErr.Message)
}

func (s *ClientTestSuite) TestTokenSentOnlyWhenSet() {
	s.replyJSON(http.StatusOK, CleanupResult{Scanned: 3, Deleted: []string{"pippin"}})

	result, err := NewClient(s.server.URL+"/", "sekrit").Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(3, result.Scanned)
	s.Equal([]string{"pippin"}, result.Deleted)
	req, _ := s.seen()
	s.Equal("Bearer sekrit", req.Header.Get("Authorization"))
	s.Equal(http.MethodPost, req.Method)
	s.Equal("/api/v1/cleanup", req.URL.Path)

	_, err = NewClient(s.server.URL, "").ListAccounts(context.Background())
	s.Require().NoError(err)
	req, _ = s.seen()
	s.Empty(req.Header.Get("Authorization"))
}

func (s *ClientTestSuite) TestNoContentAccepted() {
	err := NewClient(s.server.URL, "").DeleteSelf(context.Background(), "sam", "potatoes")
	s.Require().NoError(err)
	req, body := s.seen()
	s.Equal("/api/v1/accounts/sam/delete", req.URL.Path)
	s.Equal("potatoes", body["password"])
}

func (s *ClientTestSuite) TestRegisterOmitsEmptyEmail() {
	s.replyJSON(http.StatusCreated, Account{ID: 7, Name: "merry"})

	a, err := NewClient(s.server.URL, "").Register(context.Background(), "merry", "brandybuck", "")
	s.Require().NoError(err)
	s.Equal(int64(7), a.ID)
	_, body := s.seen()
	s.Equal("merry", body["name"])
	s.NotContains(body, "email")
}

func (s *ClientTestSuite) TestSetProtectedSendsFlag() {
	s.replyJSON(http.StatusOK, Account{Name: "gimli", Flags: "b"})

	a, err := NewClient(s.server.URL, "tok").SetProtected(context.Background(), "gimli", false)
	s.Require().NoError(err)
	s.Equal("b", a.Flags)
	req, body := s.seen()
	s.Equal(http.MethodPut, req.Method)
	s.Equal("/api/v1/accounts/gimli/protect", req.URL.Path)
	s.Equal(false, body["protected"])
}

func (s *ClientTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewClient(s.server.URL, "").Purge(ctx, "boromir")
	s.Require().ErrorIs(err, context.Canceled)
	req, _ := s.seen()
	s.Nil(req)
}
