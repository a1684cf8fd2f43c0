package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/campaign-api/internal/domain/entity"
	apperrors "github.com/yourusername/campaign-api/internal/pkg/errors"
	"github.com/yourusername/campaign-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestGinContext создает *gin.Context для тестов с JSON body
func newTestGinContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

// ============================================================================
// Request validation tests — не требуют реального CampaignService
// Handler возвращает 400 до вызова сервиса
// ============================================================================

func TestCreateCampaign_ValidationErrors(t *testing.T) {
	handler := &CampaignHandler{} // nil service — OK для validation tests

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{
			name:       "empty body",
			body:       nil,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing slug",
			body:       map[string]string{"fullVideoUrl": "https://cdn.example.com/v.mp4", "fullThumbnailUrl": "https://cdn.example.com/t.jpg", "waLink": "https://wa.me/1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing waLink",
			body:       map[string]string{"slug": "promo", "fullVideoUrl": "https://cdn.example.com/v.mp4", "fullThumbnailUrl": "https://cdn.example.com/t.jpg"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "fullVideoUrl not a url",
			body:       map[string]string{"slug": "promo", "fullVideoUrl": "not-a-url", "fullThumbnailUrl": "https://cdn.example.com/t.jpg", "waLink": "https://wa.me/1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "bad popupTriggerType",
			body: map[string]interface{}{
				"slug": "promo", "fullVideoUrl": "https://cdn.example.com/v.mp4",
				"fullThumbnailUrl": "https://cdn.example.com/t.jpg", "waLink": "https://wa.me/1",
				"popupTriggerType": "minutes", "popupTriggerValue": 5,
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext("POST", "/campaigns", tt.body)
			handler.Create(c)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestUpload_MissingFileFields(t *testing.T) {
	handler := &CampaignHandler{maxUploadBytes: 1 << 20}

	// multipart без поля preview
	var b bytes.Buffer
	b.WriteString("--boundary\r\nContent-Disposition: form-data; name=\"slug\"\r\n\r\npromo\r\n--boundary--\r\n")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/campaigns/upload", &b)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=boundary")

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "preview")
}

func TestParsePopupTrigger(t *testing.T) {
	buildCtx := func(form url.Values) *gin.Context {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		c, _ := gin.CreateTestContext(w)
		c.Request = req
		return c
	}

	t.Run("both empty gives nils", func(t *testing.T) {
		typ, val, err := parsePopupTrigger(buildCtx(url.Values{}))
		require.NoError(t, err)
		assert.Nil(t, typ)
		assert.Nil(t, val)
	})

	t.Run("valid seconds pair", func(t *testing.T) {
		typ, val, err := parsePopupTrigger(buildCtx(url.Values{
			"popupTriggerType":  {"seconds"},
			"popupTriggerValue": {"4.5"},
		}))
		require.NoError(t, err)
		require.NotNil(t, typ)
		require.NotNil(t, val)
		assert.Equal(t, entity.PopupTriggerSeconds, *typ)
		assert.Equal(t, 4.5, *val)
	})

	t.Run("type without value rejected", func(t *testing.T) {
		_, _, err := parsePopupTrigger(buildCtx(url.Values{
			"popupTriggerType": {"percent"},
		}))
		require.Error(t, err)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, _, err := parsePopupTrigger(buildCtx(url.Values{
			"popupTriggerType":  {"minutes"},
			"popupTriggerValue": {"3"},
		}))
		require.Error(t, err)
	})

	t.Run("non-numeric value rejected", func(t *testing.T) {
		_, _, err := parsePopupTrigger(buildCtx(url.Values{
			"popupTriggerType":  {"seconds"},
			"popupTriggerValue": {"soon"},
		}))
		require.Error(t, err)
	})
}

// ============================================================================
// Мета-страница для краулеров
// ============================================================================

// fakeCampaignRepo — минимальный стаб repository.CampaignRepository с одной кампанией
type fakeCampaignRepo struct {
	campaign *entity.Campaign
}

func (f *fakeCampaignRepo) Create(*entity.Campaign) error { return nil }

func (f *fakeCampaignRepo) GetBySlug(slug string) (*entity.Campaign, error) {
	if f.campaign != nil && f.campaign.Slug == slug {
		return f.campaign, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeCampaignRepo) List(int, int) ([]entity.Campaign, error) { return nil, nil }
func (f *fakeCampaignRepo) Count() (int64, error)                    { return 0, nil }
func (f *fakeCampaignRepo) UpdateBySlug(string, map[string]interface{}) (*entity.Campaign, error) {
	return nil, apperrors.ErrNotFound
}
func (f *fakeCampaignRepo) DeleteBySlug(string) error { return nil }

// fakeCache — кеш, который всегда промахивается
type fakeCache struct{}

func (fakeCache) SetJSON(string, interface{}, time.Duration) error { return nil }
func (fakeCache) GetJSON(string, interface{}) error                { return apperrors.ErrNotFound }
func (fakeCache) DeleteByPattern(string) error                     { return nil }

func newMetaTestHandler(campaign *entity.Campaign) *CampaignHandler {
	svc := service.NewCampaignService(
		&fakeCampaignRepo{campaign: campaign},
		fakeCache{},
		nil,
		nil,
		time.Hour,
		time.Minute,
	)
	return NewCampaignHandler(svc, "https://bzfront.vercel.app", 500)
}

func TestGetMetaTags_RendersOpenGraph(t *testing.T) {
	// Arrange
	campaign := &entity.Campaign{
		Slug:             "summer-sale",
		FullVideoUrl:     "https://cdn.example.com/summer-sale.mp4",
		FullThumbnailUrl: "https://cdn.example.com/summer-sale.jpg",
		WaLink:           "https://wa.me/123",
		Caption:          `Summer <b>sale</b> & more`,
	}
	handler := newMetaTestHandler(campaign)

	c, w := newTestGinContext("GET", "/campaigns/summer-sale/meta", nil)
	c.Params = gin.Params{{Key: "slug", Value: "summer-sale"}}

	// Act
	handler.GetMetaTags(c)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))

	assert.Contains(t, body, `property="og:image"`)
	assert.Contains(t, body, "https://cdn.example.com/summer-sale.jpg")
	assert.Contains(t, body, `name="twitter:card"`)
	assert.Contains(t, body, "https://bzfront.vercel.app/campaigns/summer-sale", "Редирект ведет на каноническую страницу")

	// HTML в caption экранируется
	assert.NotContains(t, body, "<b>sale</b>")
	assert.Contains(t, body, "Summer &lt;b&gt;sale&lt;/b&gt; &amp; more")
}

func TestGetMetaTags_NotFound(t *testing.T) {
	handler := newMetaTestHandler(nil)

	c, w := newTestGinContext("GET", "/campaigns/ghost/meta", nil)
	c.Params = gin.Params{{Key: "slug", Value: "ghost"}}

	handler.GetMetaTags(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
