package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/logger"
	"github.com/fsdevblog/imagify/internal/repository/memrepo"
	"github.com/fsdevblog/imagify/internal/service"
	"github.com/fsdevblog/imagify/internal/transport/api"
	"github.com/fsdevblog/imagify/internal/transport/api/testutils"
	"github.com/fsdevblog/imagify/internal/transport/gateway"
	"github.com/fsdevblog/imagify/internal/transport/imagegen"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

// gatewayStub http сервер, отвечающий как API заказов платежного шлюза.
type gatewayStub struct {
	mu     sync.Mutex
	seq    int
	orders map[string]map[string]any
}

func (g *gatewayStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == gateway.RouteOrders:
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		g.seq++
		id := "order_" + strconv.Itoa(g.seq)
		req["id"] = id
		req["status"] = "created"
		g.orders[id] = req
		_ = json.NewEncoder(w).Encode(req)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, gateway.RouteOrders+"/"):
		order, ok := g.orders[strings.TrimPrefix(r.URL.Path, gateway.RouteOrders+"/")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The id provided does not exist"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(order)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (g *gatewayStub) pay(orderID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[orderID]["status"] = domain.GatewayOrderStatusPaid
}

// APIFlowTestSuite прогоняет пользовательский сценарий через http роутер, сервисы, хранилище в памяти
// и http клиенты внешних API.
type APIFlowTestSuite struct {
	suite.Suite
	router   *gin.Engine
	payments *gatewayStub
	servers  []*httptest.Server
}

func TestAPIFlowSuite(t *testing.T) {
	suite.Run(t, new(APIFlowTestSuite))
}

func (s *APIFlowTestSuite) SetupTest() {
	s.payments = &gatewayStub{orders: make(map[string]map[string]any)}
	gatewaySrv := httptest.NewServer(s.payments)

	imageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "image-key" || r.FormValue("prompt") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	}))
	s.servers = []*httptest.Server{gatewaySrv, imageSrv}

	services, err := service.Factory(memrepo.New(), service.FactoryArgs{
		JWTSecret:      []byte(gofakeit.Password(true, true, true, false, false, 32)),
		SignupCredits:  5,
		ImageGenerator: imagegen.New(imageSrv.URL, "image-key", time.Second),
		PaymentGateway: gateway.New(gatewaySrv.URL, "key-id", "key-secret", time.Second),
		Currency:       "USD",
	})
	s.Require().NoError(err)

	router, routerErr := api.New(api.RouterArgs{
		Logger:         logger.New(io.Discard),
		UserService:    services.UserService,
		CreditService:  services.CreditService,
		ImageService:   services.ImageService,
		PaymentService: services.PaymentService,
	})
	s.Require().NoError(routerErr)
	s.router = router
}

func (s *APIFlowTestSuite) TearDownTest() {
	for _, srv := range s.servers {
		srv.Close()
	}
}

func (s *APIFlowTestSuite) call(method, url, token string, payload, dst any) int {
	var body io.Reader
	if payload != nil {
		var err error
		body, err = testutils.JSONBody(payload)
		s.Require().NoError(err)
	}

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: method,
		URL:    api.RouteGroup + url,
		Body:   body,
	}, testutils.WithJSONContentType(), testutils.WithBearer(token))
	s.Require().NoError(err)
	defer func() { _ = res.Body.Close() }()

	if dst != nil && res.StatusCode < http.StatusMultipleChoices {
		s.Require().NoError(json.NewDecoder(res.Body).Decode(dst))
	}
	return res.StatusCode
}

func (s *APIFlowTestSuite) TestRegisterPayGenerate() {
	email := "user-" + gofakeit.UUID() + "@example.com"

	name := gofakeit.Name()
	var registered api.AuthResponse
	status := s.call(http.MethodPost, api.RegisterRoute, "",
		api.UserRegisterParams{Name: name, Email: email, Password: "password"}, &registered)
	s.Require().Equal(http.StatusCreated, status)

	// повторная регистрация с тем же email.
	status = s.call(http.MethodPost, api.RegisterRoute, "",
		api.UserRegisterParams{Name: gofakeit.Name(), Email: email, Password: "password"}, nil)
	s.Equal(http.StatusBadRequest, status)

	var loggedIn api.AuthResponse
	status = s.call(http.MethodPost, api.LoginRoute, "",
		api.UserLoginParams{Email: email, Password: "password"}, &loggedIn)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(registered.User.ID, loggedIn.User.ID)
	token := loggedIn.Token

	var credits api.CreditsResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, api.CreditsRoute, token, nil, &credits))
	s.Equal(int64(5), credits.Credits)
	s.Require().NotNil(credits.User)
	s.Equal(name, credits.User.Name)

	var pay api.PayResponse
	status = s.call(http.MethodPost, api.PayRoute, token, api.PayParams{PlanID: string(domain.PlanBasic)}, &pay)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(int64(1000), pay.Order.Amount)
	s.Equal(strconv.FormatInt(pay.TransactionID, 10), pay.Order.Receipt)

	verify := api.VerifyPaymentParams{OrderID: pay.Order.ID}
	s.Equal(http.StatusBadRequest, s.call(http.MethodPost, api.VerifyPaymentRoute, token, verify, nil))

	s.payments.pay(pay.Order.ID)

	s.Require().Equal(http.StatusOK, s.call(http.MethodPost, api.VerifyPaymentRoute, token, verify, &credits))
	s.Equal(int64(105), credits.Credits)

	// повторное подтверждение не начисляет кредиты второй раз.
	s.Equal(http.StatusBadRequest, s.call(http.MethodPost, api.VerifyPaymentRoute, token, verify, nil))

	prompt := gofakeit.Adjective() + " " + gofakeit.Animal()
	var img api.GenerateImageResponse
	status = s.call(http.MethodPost, api.GenerateImageRoute, token, api.GenerateImageParams{Prompt: prompt}, &img)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(int64(104), img.CreditBalance)
	s.True(strings.HasPrefix(img.ResultImage, "data:image/png;base64,"))

	var history []api.HistoryResponseItem
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, api.CreditsHistoryRoute, token, nil, &history))
	s.Require().Len(history, 3)
	s.Equal("image", history[0].Reason)
	s.Equal("payment", history[1].Reason)
	s.Equal("signup", history[2].Reason)
}

func (s *APIFlowTestSuite) TestForeignOrderIsNotVerified() {
	register := func() string {
		var res api.AuthResponse
		status := s.call(http.MethodPost, api.RegisterRoute, "", api.UserRegisterParams{
			Name:     gofakeit.Name(),
			Email:    "user-" + gofakeit.UUID() + "@example.com",
			Password: "password",
		}, &res)
		s.Require().Equal(http.StatusCreated, status)
		return res.Token
	}
	owner, stranger := register(), register()

	var pay api.PayResponse
	s.Require().Equal(http.StatusOK,
		s.call(http.MethodPost, api.PayRoute, owner, api.PayParams{PlanID: string(domain.PlanAdvanced)}, &pay))
	s.payments.pay(pay.Order.ID)

	status := s.call(http.MethodPost, api.VerifyPaymentRoute, stranger, api.VerifyPaymentParams{OrderID: pay.Order.ID}, nil)
	s.Equal(http.StatusBadRequest, status)

	var credits api.CreditsResponse
	s.Require().Equal(http.StatusOK, s.call(http.MethodGet, api.CreditsRoute, stranger, nil, &credits))
	s.Equal(int64(5), credits.Credits)
}
