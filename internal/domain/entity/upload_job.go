package entity

import "time"

// Состояния отложенной задачи загрузки
const (
	JobStateQueued    = "queued"
	JobStateActive    = "active"
	JobStateCompleted = "completed"
	JobStateFailed    = "failed"
)

// UploadJobPayload — полезная нагрузка задачи: байты видео (base64) плюс
// все поля, нужные воркеру для создания Campaign после загрузки.
type UploadJobPayload struct {
	VideoB64          string   `json:"video_b64"`
	Slug              string   `json:"slug"`
	Caption           string   `json:"caption"`
	WaLink            string   `json:"wa_link"`
	WaButtonLabel     string   `json:"wa_button_label"`
	PopupTriggerType  *string  `json:"popup_trigger_type"`
	PopupTriggerValue *float64 `json:"popup_trigger_value"`
}

// UploadJobStatus — инспектируемое состояние задачи, хранится до вытеснения
// из окна последних завершенных задач.
type UploadJobStatus struct {
	ID           string    `json:"id"`
	State        string    `json:"state"`
	Attempts     int       `json:"attempts"`
	Error        string    `json:"error,omitempty"`
	VideoURL     string    `json:"video_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsTerminal возвращает true для завершенных состояний
func (s *UploadJobStatus) IsTerminal() bool {
	return s.State == JobStateCompleted || s.State == JobStateFailed
}
