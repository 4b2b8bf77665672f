package consultation

import (
	"context"
	"testing"
	"time"

	"github.com/lucashml/medscribe/internal/clinical"
	"github.com/lucashml/medscribe/internal/compliance"
)

func seedConsultation(t *testing.T, repo *Repo, cenario, gravidade string) *Record {
	t.Helper()
	rec := structuredRecord()
	rec.ClinicalData.Gravidade = gravidade
	row := NewRecord(&compliance.Profile{
		Iniciais:           "M.S.",
		PacienteID:         "PAC-AB12CD34",
		Idade:              34,
		CenarioAtendimento: cenario,
	}, rec, map[string]string{}, "texto")
	bi := NewBIRecord(&compliance.Profile{CenarioAtendimento: cenario}, rec, time.Now())
	if err := repo.CreateWithBI(context.Background(), row, bi); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return row
}

func TestMigratedCIDColumnNames(t *testing.T) {
	db := openTestDB(t)
	m := db.Migrator()

	// The BI aggregation queries reference these columns by name; the
	// initialism must not be split by the naming strategy.
	for _, col := range []string{"cid_principal", "cid_desc"} {
		if !m.HasColumn(&BIRecord{}, col) {
			t.Fatalf("bi_records missing column %q", col)
		}
	}
	for _, col := range []string{"cid_principal_code", "cid_principal_desc"} {
		if !m.HasColumn(&Record{}, col) {
			t.Fatalf("consultations missing column %q", col)
		}
	}
}

func TestList_Filters(t *testing.T) {
	repo := NewRepo(openTestDB(t))

	seedConsultation(t, repo, "PS", clinical.GravidadeGrave)
	seedConsultation(t, repo, "PS", clinical.GravidadeLeve)
	seedConsultation(t, repo, "UPA", clinical.GravidadeGrave)

	all, err := repo.List(context.Background(), 0, 0, "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3, got %d", len(all))
	}

	ps, err := repo.List(context.Background(), 0, 0, "PS", "")
	if err != nil {
		t.Fatalf("list cenario: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("expected 2 PS rows, got %d", len(ps))
	}

	graves, err := repo.List(context.Background(), 0, 0, "", clinical.GravidadeGrave)
	if err != nil {
		t.Fatalf("list gravidade: %v", err)
	}
	if len(graves) != 2 {
		t.Fatalf("expected 2 grave rows, got %d", len(graves))
	}

	both, err := repo.List(context.Background(), 0, 0, "UPA", clinical.GravidadeGrave)
	if err != nil {
		t.Fatalf("list both: %v", err)
	}
	if len(both) != 1 {
		t.Fatalf("expected 1 row, got %d", len(both))
	}
}

func TestList_LimitClamped(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	for i := 0; i < 25; i++ {
		seedConsultation(t, repo, "PS", clinical.GravidadeLeve)
	}

	recs, err := repo.List(context.Background(), 0, 0, "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 20 {
		t.Fatalf("default limit: got %d want 20", len(recs))
	}

	recs, err = repo.List(context.Background(), 1000, 0, "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 20 {
		t.Fatalf("oversized limit must clamp to default: got %d", len(recs))
	}
}

func TestCreateJobOrGetExisting_Idempotent(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	key := "req-42"

	first := &Job{
		ID:                 "01JOBAAAAAAAAAAAAAAAAAAAA1",
		Iniciais:           "M.S.",
		PacienteID:         "PAC-AB12CD34",
		Idade:              34,
		CenarioAtendimento: "PS",
		TextoTranscrito:    "x",
		IdempotencyKey:     &key,
		Status:             JobQueued,
	}
	got, created, err := repo.CreateJobOrGetExisting(context.Background(), first)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if !created || got.ID != first.ID {
		t.Fatalf("expected fresh job, got created=%v id=%s", created, got.ID)
	}

	dup := &Job{
		ID:                 "01JOBAAAAAAAAAAAAAAAAAAAA2",
		Iniciais:           "M.S.",
		PacienteID:         "PAC-AB12CD34",
		Idade:              34,
		CenarioAtendimento: "PS",
		TextoTranscrito:    "x",
		IdempotencyKey:     &key,
		Status:             JobQueued,
	}
	got, created, err = repo.CreateJobOrGetExisting(context.Background(), dup)
	if err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if created {
		t.Fatalf("duplicate key must not create a second job")
	}
	if got.ID != first.ID {
		t.Fatalf("expected the original job back, got %s", got.ID)
	}

	var n int64
	if err := repo.db.Model(&Job{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 job row, got %d", n)
	}
}

func TestCreateJobOrGetExisting_NoKeyAlwaysCreates(t *testing.T) {
	repo := NewRepo(openTestDB(t))

	for i, id := range []string{"01JOBBBBBBBBBBBBBBBBBBBBB1", "01JOBBBBBBBBBBBBBBBBBBBBB2"} {
		j := &Job{
			ID:                 id,
			Iniciais:           "M.S.",
			PacienteID:         "PAC-AB12CD34",
			Idade:              34,
			CenarioAtendimento: "PS",
			TextoTranscrito:    "x",
			Status:             JobQueued,
		}
		_, created, err := repo.CreateJobOrGetExisting(context.Background(), j)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if !created {
			t.Fatalf("keyless enqueue %d must always create", i)
		}
	}

	var n int64
	if err := repo.db.Model(&Job{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 job rows, got %d", n)
	}
}
