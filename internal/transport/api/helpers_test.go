package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/logger"
	"github.com/fsdevblog/imagify/internal/ratelimit"
	"github.com/fsdevblog/imagify/internal/transport/api/mocks"
	"github.com/fsdevblog/imagify/internal/transport/api/testutils"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

const (
	testUserToken    = "user-token"
	testAnotherToken = "another-token"
	testUserID       = int64(1)
	testAnotherID    = int64(2)
)

// handlerSuite общая часть тестов хендлеров: роутер на моках сервисов и два аутентифицированных юзера.
type handlerSuite struct {
	suite.Suite
	router     *gin.Engine
	users      *mocks.MockUserServicer
	credits    *mocks.MockCreditServicer
	images     *mocks.MockImageServicer
	payments   *mocks.MockPaymentServicer
	pinger     *mocks.MockPinger
	limiter    ratelimit.Limiter
	corsOrigin string
}

func (s *handlerSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())

	s.users = mocks.NewMockUserServicer(mockCtrl)
	s.credits = mocks.NewMockCreditServicer(mockCtrl)
	s.images = mocks.NewMockImageServicer(mockCtrl)
	s.payments = mocks.NewMockPaymentServicer(mockCtrl)
	s.pinger = mocks.NewMockPinger(mockCtrl)

	s.users.EXPECT().Authenticate(testUserToken).Return(testUserID, nil).AnyTimes()
	s.users.EXPECT().Authenticate(testAnotherToken).Return(testAnotherID, nil).AnyTimes()
	s.users.EXPECT().Authenticate(gomock.Any()).Return(int64(0), domain.ErrUnauthorized).AnyTimes()

	s.corsOrigin = "http://localhost:5173"

	router, err := New(RouterArgs{
		Logger:             logger.New(io.Discard),
		UserService:        s.users,
		CreditService:      s.credits,
		ImageService:       s.images,
		PaymentService:     s.payments,
		RateLimiter:        s.limiter,
		CORSAllowedOrigins: []string{s.corsOrigin},
		HealthChecks:       map[string]Pinger{"postgres": s.pinger},
	})
	s.Require().NoError(err)
	s.router = router
}

// request выполняет запрос к роутеру. payload сериализуется в json, если это не []byte.
func (s *handlerSuite) request(method, url string, payload any, opts ...func(*testutils.RequestOptions)) *http.Response {
	var body io.Reader
	switch p := payload.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(p)
	default:
		var err error
		body, err = testutils.JSONBody(p)
		s.Require().NoError(err)
	}

	opts = append([]func(*testutils.RequestOptions){testutils.WithJSONContentType()}, opts...)
	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: method,
		URL:    url,
		Body:   body,
	}, opts...)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = res.Body.Close() })
	return res
}

func (s *handlerSuite) decode(res *http.Response, v any) {
	s.Require().NoError(json.NewDecoder(res.Body).Decode(v))
}

func (s *handlerSuite) errorText(res *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	s.decode(res, &body)
	return body.Error
}

func bearer(token string) func(*testutils.RequestOptions) {
	return testutils.WithBearer(token)
}

func withLegacyToken(token string) func(*testutils.RequestOptions) {
	return testutils.WithHeader("token", token)
}

func withRequestID(id string) func(*testutils.RequestOptions) {
	return testutils.WithHeader("X-Request-ID", id)
}
