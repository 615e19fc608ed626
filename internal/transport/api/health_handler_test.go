package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type HealthHandlerTestSuite struct {
	handlerSuite
}

func TestHealthHandlerSuite(t *testing.T) {
	suite.Run(t, new(HealthHandlerTestSuite))
}

func (s *HealthHandlerTestSuite) TestIndex() {
	cases := []struct {
		name           string
		pingErr        error
		wantStatus     int
		wantStatusText string
	}{
		{
			name:           "all ok",
			wantStatus:     http.StatusOK,
			wantStatusText: "ok",
		}, {
			name:           "postgres down",
			pingErr:        errors.New("connection refused"),
			wantStatus:     http.StatusServiceUnavailable,
			wantStatusText: "degraded",
		},
	}
	for _, t := range cases {
		s.Run(t.name, func() {
			s.pinger.EXPECT().Ping(gomock.Any()).Return(t.pingErr).Times(1)

			res := s.request(http.MethodGet, RouteGroup+HealthRoute, nil)
			s.Equal(t.wantStatus, res.StatusCode)

			var body HealthResponse
			s.decode(res, &body)
			s.Equal(t.wantStatusText, body.Status)
			s.Contains(body.Checks, "postgres")
		})
	}
}

func (s *HealthHandlerTestSuite) TestRequestID() {
	s.pinger.EXPECT().Ping(gomock.Any()).Return(nil).AnyTimes()

	res := s.request(http.MethodGet, RouteGroup+HealthRoute, nil)
	s.NotEmpty(res.Header.Get("X-Request-ID"))

	res = s.request(http.MethodGet, RouteGroup+HealthRoute, nil, withRequestID("req-42"))
	s.Equal("req-42", res.Header.Get("X-Request-ID"))
}
