package consultation

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is a queued analyze run. The compliance gate executes at enqueue
// time, so only the de-identified profile is ever stored here.
type Job struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	Iniciais           string `gorm:"type:varchar(20);not null"`
	PacienteID         string `gorm:"type:varchar(20);index;not null"`
	Idade              int    `gorm:"not null"`
	CenarioAtendimento string `gorm:"type:varchar(30);not null"`
	TextoTranscrito    string `gorm:"type:text;not null"`

	IdempotencyKey *string `gorm:"type:varchar(128);index:uniq_job_idempo,unique" json:"idempotency_key"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when succeeded
	ConsultationID *uint64 `gorm:"index"`

	// Filled when failed
	Stage *string `gorm:"type:varchar(16)"`
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string { return "analyze_jobs" }
