package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"turfops/internal/audit"
	auditmemory "turfops/internal/audit/store/memory"
	"turfops/internal/equipment/models"
	"turfops/internal/equipment/service"
	assetstore "turfops/internal/equipment/store/asset"
	custodystore "turfops/internal/equipment/store/custody"
	"turfops/internal/platform/logger"
	"turfops/internal/platform/middleware"
	"turfops/internal/platform/token"
)

const testAdminToken = "test-admin-token"

type HandlerSuite struct {
	suite.Suite
	server      *httptest.Server
	jwtService  *token.JWTService
	auditLog    *auditmemory.InMemoryStore
	workerID    uuid.UUID
	workerToken string
}

func (s *HandlerSuite) SetupTest() {
	log := logger.New()
	s.auditLog = auditmemory.NewInMemoryStore()
	svc := service.New(
		assetstore.NewInMemory(),
		custodystore.NewInMemory(),
		audit.NewRecorder(s.auditLog),
		service.WithLogger(log),
	)
	s.jwtService = token.NewJWTService("test-signing-key", "turfops-test")

	s.workerID = uuid.New()
	workerToken, err := s.jwtService.GenerateToken(s.workerID, "worker", time.Hour)
	s.Require().NoError(err)
	s.workerToken = workerToken

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	New(svc, audit.NewRecorder(s.auditLog), s.jwtService, testAdminToken, log).Register(router)

	s.server = httptest.NewServer(router)
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path string, body any, authorize func(*http.Request)) (*http.Response, []byte) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if authorize != nil {
		authorize(req)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().NoError(resp.Body.Close())
	return resp, raw
}

func (s *HandlerSuite) asWorker(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.workerToken)
}

func (s *HandlerSuite) asAdmin(req *http.Request) {
	req.Header.Set("X-Admin-Token", testAdminToken)
	req.Header.Set("X-Actor-ID", s.workerID.String())
}

func (s *HandlerSuite) createAsset(qrCode string) models.Asset {
	resp, raw := s.do(http.MethodPost, "/equipment",
		map[string]string{"name": "Mower 12", "qr_code": qrCode}, s.asAdmin)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))

	var asset models.Asset
	s.Require().NoError(json.Unmarshal(raw, &asset))
	return asset
}

func (s *HandlerSuite) TestAuthBoundaries() {
	asset := s.createAsset("QR-12")

	s.Run("worker routes reject missing token", func() {
		resp, _ := s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/reserve", nil, nil)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("worker routes reject a garbage token", func() {
		resp, _ := s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/reserve", nil,
			func(req *http.Request) { req.Header.Set("Authorization", "Bearer bogus") })
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("admin routes reject a wrong admin token", func() {
		resp, _ := s.do(http.MethodPost, "/equipment", map[string]string{"name": "X"},
			func(req *http.Request) { req.Header.Set("X-Admin-Token", "wrong") })
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestReserveCheckoutReturnFlow() {
	asset := s.createAsset("QR-12")

	resp, raw := s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/reserve", nil, s.asWorker)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(raw))

	var result service.Result
	s.Require().NoError(json.Unmarshal(raw, &result))
	s.Equal(models.StatusReserved, result.Asset.Status)
	s.Require().NotNil(result.Custody)

	resp, raw = s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/checkout",
		map[string]string{"code": "qr-12"}, s.asWorker)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(raw))
	s.Require().NoError(json.Unmarshal(raw, &result))
	s.Equal(models.StatusCheckedOut, result.Asset.Status)

	resp, raw = s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/return",
		map[string]string{"code": "QR-12"}, s.asWorker)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(raw))
	s.Require().NoError(json.Unmarshal(raw, &result))
	s.Equal(models.StatusAvailable, result.Asset.Status)
}

func (s *HandlerSuite) TestCheckoutRejectionsMapToStatusCodes() {
	asset := s.createAsset("QR-12")

	resp, _ := s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/reserve", nil, s.asWorker)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	s.Run("wrong code is 403 with a stable reason", func() {
		resp, raw := s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/checkout",
			map[string]string{"code": "QR-99"}, s.asWorker)
		s.Equal(http.StatusForbidden, resp.StatusCode)

		var body map[string]string
		s.Require().NoError(json.Unmarshal(raw, &body))
		s.Equal(models.ReasonQRMismatch, body["reason"])
	})

	s.Run("blank code is 400", func() {
		resp, _ := s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/checkout",
			map[string]string{"code": " "}, s.asWorker)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("double reserve is 409", func() {
		resp, raw := s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/reserve", nil, s.asWorker)
		s.Equal(http.StatusConflict, resp.StatusCode)

		var body map[string]string
		s.Require().NoError(json.Unmarshal(raw, &body))
		s.Equal(models.ReasonAlreadyInUse, body["reason"])
	})
}

func (s *HandlerSuite) TestAdminLifecycle() {
	asset := s.createAsset("QR-12")

	resp, _ := s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/maintenance/start", nil, s.asAdmin)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/maintenance/end", nil, s.asAdmin)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/retire", nil, s.asAdmin)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodDelete, "/equipment/"+asset.ID.String(), nil, s.asAdmin)
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/equipment/"+asset.ID.String(), nil, s.asWorker)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *HandlerSuite) TestHardDeleteBlockedUntilRetired() {
	asset := s.createAsset("QR-12")

	resp, raw := s.do(http.MethodDelete, "/equipment/"+asset.ID.String(), nil, s.asAdmin)
	s.Equal(http.StatusConflict, resp.StatusCode)

	var body map[string]string
	s.Require().NoError(json.Unmarshal(raw, &body))
	s.Equal(models.ReasonNotRetired, body["reason"])
}

func (s *HandlerSuite) TestListAndHistory() {
	asset := s.createAsset("QR-12")

	resp, _ := s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/reserve", nil, s.asWorker)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, raw := s.do(http.MethodGet, "/equipment", nil, s.asWorker)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var list listAssetsResponse
	s.Require().NoError(json.Unmarshal(raw, &list))
	s.Len(list.Assets, 1)

	resp, raw = s.do(http.MethodGet, "/equipment/"+asset.ID.String()+"/history", nil, s.asWorker)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var history historyResponse
	s.Require().NoError(json.Unmarshal(raw, &history))
	s.Len(history.Records, 1)

	resp, _ = s.do(http.MethodGet, "/equipment/not-a-uuid", nil, s.asWorker)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *HandlerSuite) TestAuditEventsEndpoint() {
	asset := s.createAsset("QR-12")

	resp, _ := s.do(http.MethodPost, "/equipment/"+asset.ID.String()+"/reserve", nil, s.asWorker)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, raw := s.do(http.MethodGet, "/audit/events", nil, s.asAdmin)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var events auditEventsResponse
	s.Require().NoError(json.Unmarshal(raw, &events))
	s.Require().Len(events.Events, 2)
	s.Equal(audit.VerbReserved, events.Events[0].Verb)
	s.Equal(audit.VerbCreated, events.Events[1].Verb)

	s.Run("filter by actor", func() {
		resp, raw := s.do(http.MethodGet, "/audit/events?actor_id="+s.workerID.String(), nil, s.asAdmin)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Require().NoError(json.Unmarshal(raw, &events))
		s.Len(events.Events, 2)
	})

	s.Run("bad limit is rejected", func() {
		resp, _ := s.do(http.MethodGet, "/audit/events?limit=zero", nil, s.asAdmin)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}
