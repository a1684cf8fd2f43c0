package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/campaign-api/internal/pkg/errors"
)

// MockHost реализует Host
type MockHost struct {
	mock.Mock
}

func (m *MockHost) Upload(ctx context.Context, data []byte, publicID string) (*Asset, error) {
	args := m.Called(ctx, data, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Asset), args.Error(1)
}

// newTestDispatcher собирает диспетчер с миллисекундным бэкоффом,
// чтобы тесты повторов не ждали реальных секунд
func newTestDispatcher(fast, bulk Host) *SizeDispatcher {
	return &SizeDispatcher{
		fast:            fast,
		bulk:            bulk,
		bulkThresholdMB: 70,
		maxMB:           500,
		retryAttempts:   3,
		retryBase:       time.Millisecond,
	}
}

func payloadOfMB(mb int) []byte {
	return make([]byte, mb*bytesPerMB)
}

func TestSizeDispatcher_SmallFileGoesFast(t *testing.T) {
	// Arrange
	fast := new(MockHost)
	bulk := new(MockHost)
	data := payloadOfMB(10)
	asset := &Asset{VideoURL: "https://res.cloudinary.com/demo/video/upload/promo_full.mp4", ThumbnailURL: "https://res.cloudinary.com/demo/video/upload/promo_full.jpg"}

	fast.On("Upload", mock.Anything, data, "promo_full").Return(asset, nil).Once()

	dispatcher := newTestDispatcher(fast, bulk)

	// Act
	got, err := dispatcher.Upload(context.Background(), data, "promo_full")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, asset, got)
	fast.AssertExpectations(t)
	bulk.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestSizeDispatcher_LargeFileGoesBulk(t *testing.T) {
	// Arrange
	fast := new(MockHost)
	bulk := new(MockHost)
	data := payloadOfMB(100)
	asset := &Asset{VideoURL: "https://cdn.filestackcontent.com/AbCdEf123", ThumbnailURL: "https://cdn.filestackcontent.com/video_convert=preset:thumbnail/AbCdEf123"}

	bulk.On("Upload", mock.Anything, data, "promo_full").Return(asset, nil).Once()

	dispatcher := newTestDispatcher(fast, bulk)

	// Act
	got, err := dispatcher.Upload(context.Background(), data, "promo_full")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, asset, got)
	bulk.AssertExpectations(t)
	fast.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestSizeDispatcher_ThresholdBoundaryStaysFast(t *testing.T) {
	// Arrange: ровно пороговый размер — еще fast-бэкенд
	fast := new(MockHost)
	bulk := new(MockHost)
	data := payloadOfMB(70)
	asset := &Asset{VideoURL: "v", ThumbnailURL: "t"}

	fast.On("Upload", mock.Anything, data, "edge_full").Return(asset, nil).Once()

	dispatcher := newTestDispatcher(fast, bulk)

	// Act
	_, err := dispatcher.Upload(context.Background(), data, "edge_full")

	// Assert
	require.NoError(t, err)
	fast.AssertExpectations(t)
	bulk.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestSizeDispatcher_OversizedFailsBeforeNetwork(t *testing.T) {
	// Arrange
	fast := new(MockHost)
	bulk := new(MockHost)
	data := payloadOfMB(501)

	dispatcher := newTestDispatcher(fast, bulk)

	// Act
	got, err := dispatcher.Upload(context.Background(), data, "huge_full")

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
	assert.Nil(t, got)
	// Ни один бэкенд не должен быть вызван
	fast.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	bulk.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestSizeDispatcher_FastRetriesThenSucceeds(t *testing.T) {
	// Arrange
	fast := new(MockHost)
	bulk := new(MockHost)
	data := payloadOfMB(5)
	asset := &Asset{VideoURL: "v", ThumbnailURL: "t"}

	fast.On("Upload", mock.Anything, data, "flaky_full").Return(nil, errors.New("503 from vendor")).Twice()
	fast.On("Upload", mock.Anything, data, "flaky_full").Return(asset, nil).Once()

	dispatcher := newTestDispatcher(fast, bulk)

	// Act
	got, err := dispatcher.Upload(context.Background(), data, "flaky_full")

	// Assert
	require.NoError(t, err, "Третья попытка успешна")
	assert.Equal(t, asset, got)
	fast.AssertExpectations(t)
}

func TestSizeDispatcher_FastExhaustedMapsToProcessingUnavailable(t *testing.T) {
	// Arrange
	fast := new(MockHost)
	bulk := new(MockHost)
	data := payloadOfMB(5)

	fast.On("Upload", mock.Anything, data, "down_full").Return(nil, errors.New("connection refused")).Times(3)

	dispatcher := newTestDispatcher(fast, bulk)

	// Act
	got, err := dispatcher.Upload(context.Background(), data, "down_full")

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrProcessingServiceUnavailable)
	assert.Nil(t, got)
	fast.AssertExpectations(t)
	fast.AssertNumberOfCalls(t, "Upload", 3)
	bulk.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestSizeDispatcher_BulkFailureIsNotRetried(t *testing.T) {
	// Arrange
	fast := new(MockHost)
	bulk := new(MockHost)
	data := payloadOfMB(200)

	bulk.On("Upload", mock.Anything, data, "big_full").Return(nil, errors.New("store API error")).Once()

	dispatcher := newTestDispatcher(fast, bulk)

	// Act
	got, err := dispatcher.Upload(context.Background(), data, "big_full")

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUploadServiceUnavailable)
	assert.Nil(t, got)
	bulk.AssertNumberOfCalls(t, "Upload", 1)
	fast.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}
