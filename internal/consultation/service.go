// Package consultation owns the analyze pipeline: compliance gate,
// clinical structuring, document generation and transactional
// persistence, with a strict critical-vs-degradable failure policy.
package consultation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lucashml/medscribe/internal/clinical"
	"github.com/lucashml/medscribe/internal/compliance"
	"github.com/lucashml/medscribe/internal/documents"
)

// Pipeline stages reported on failure.
const (
	StageCompliance  = "compliance"
	StageStructuring = "structuring"
	StagePersistence = "persistence"
)

// StageError tags a pipeline failure with the stage that produced it.
// Only the stages above can fail the run; document generation degrades.
type StageError struct {
	Stage    string
	Messages []string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Messages)
}

type Input struct {
	NomeCompleto       string
	Idade              int
	CenarioAtendimento string
	TextoTranscrito    string
}

// Result carries every intermediate artifact plus the persisted id, so
// callers never need a follow-up read to display their own request.
type Result struct {
	Patient        *compliance.Profile
	Clinical       *clinical.Record
	Documents      map[string]string
	ConsultationID uint64
}

type Service struct {
	repo      *Repo
	engine    clinical.Engine
	generator documents.Generator
	now       func() time.Time
}

func NewService(repo *Repo, engine clinical.Engine, generator documents.Generator) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		generator: generator,
		now:       time.Now,
	}
}

// Analyze runs the full pipeline. The returned error, when non-nil, is
// always a *StageError; raw collaborator faults never escape unclassified.
func (s *Service) Analyze(ctx context.Context, in Input) (*Result, error) {
	// 1. Compliance gate (critical): nothing downstream runs on failure.
	patient, errs := compliance.Process(compliance.Input{
		NomeCompleto:       in.NomeCompleto,
		Idade:              in.Idade,
		CenarioAtendimento: in.CenarioAtendimento,
	})
	if len(errs) > 0 {
		return nil, &StageError{Stage: StageCompliance, Messages: errs}
	}
	log.Printf("[Analyze] lgpd ok iniciais=%s paciente_id=%s", patient.Iniciais, patient.PacienteID)

	return s.AnalyzeProfile(ctx, patient, in.TextoTranscrito)
}

// AnalyzeProfile runs the pipeline from an already de-identified profile.
// The async worker enters here: the gate ran at enqueue time.
func (s *Service) AnalyzeProfile(ctx context.Context, patient *compliance.Profile, transcript string) (*Result, error) {
	// 2. Clinical structuring (critical).
	rec, err := s.engine.Process(ctx, transcript)
	if err != nil {
		return nil, &StageError{Stage: StageStructuring, Messages: []string{err.Error()}}
	}
	log.Printf("[Analyze] soap ok cid=%s gravidade=%s",
		rec.ClinicalData.CIDPrincipal.Code, rec.ClinicalData.Gravidade)

	// 3. Document generation (degradable): an empty set stands in on
	// failure and the run continues.
	docs, err := s.generator.GenerateAll(ctx, rec, patient)
	if err != nil {
		log.Printf("[Analyze] document generation degraded err=%v", err)
		docs = map[string]string{}
	}

	// 4. Persistence (critical, transactional): consultation + BI row
	// commit together or not at all.
	row := NewRecord(patient, rec, docs, transcript)
	bi := NewBIRecord(patient, rec, s.now())
	if err := s.repo.CreateWithBI(ctx, row, bi); err != nil {
		return nil, &StageError{Stage: StagePersistence, Messages: []string{
			fmt.Sprintf("erro ao salvar no banco de dados: %v", err),
		}}
	}
	log.Printf("[Analyze] persisted consultation_id=%d", row.ID)

	// 5. Assembly.
	return &Result{
		Patient:        patient,
		Clinical:       rec,
		Documents:      docs,
		ConsultationID: row.ID,
	}, nil
}

// RunJob executes a queued analyze job end to end and records the outcome
// on the job row.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	_ = s.repo.UpdateJobStatusRunning(ctx, jobID)

	j, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	patient := &compliance.Profile{
		Iniciais:           j.Iniciais,
		PacienteID:         j.PacienteID,
		Idade:              j.Idade,
		CenarioAtendimento: j.CenarioAtendimento,
	}

	res, runErr := s.AnalyzeProfile(ctx, patient, j.TextoTranscrito)
	if runErr != nil {
		stage := StageStructuring
		msg := runErr.Error()
		if se, ok := runErr.(*StageError); ok {
			stage = se.Stage
			if len(se.Messages) > 0 {
				msg = se.Messages[0]
			}
		}
		if err := s.repo.MarkJobFailed(ctx, jobID, stage, msg); err != nil {
			return err
		}
		return runErr
	}

	return s.repo.MarkJobSucceeded(ctx, jobID, res.ConsultationID)
}

func (s *Service) List(ctx context.Context, limit, offset int, cenario, gravidade string) ([]Record, error) {
	return s.repo.List(ctx, limit, offset, cenario, gravidade)
}

func (s *Service) GetByID(ctx context.Context, id uint64) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) CreateJobOrGetExisting(ctx context.Context, job *Job) (*Job, bool, error) {
	return s.repo.CreateJobOrGetExisting(ctx, job)
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.GetJobByID(ctx, jobID)
}
